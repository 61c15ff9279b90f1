// meta/meta.go
package meta

import "time"

// Epsilon is the default exploration rate of the move policy.
const Epsilon = 0.15

// Alpha scales rewards into value updates.
const Alpha = 0.1

// DrawReward is the reward for a draw on a player's first move. It decays
// linearly with the player's ply and turns negative after the fourth move.
const DrawReward = 0.2

// DrawHorizon is the ply at which the draw reward crosses zero.
const DrawHorizon = 4.5

const WinReward = 1.0
const LossReward = -1.0

// ClampMin and ClampMax bound every stored value.
const ClampMin = -5.0
const ClampMax = 5.0

// MAX_SELF_PLAY_GAMES caps a single self-play run.
const MAX_SELF_PLAY_GAMES = 100000

// PROGRESS_EVERY defines how often self-play logs progress, in games.
const PROGRESS_EVERY = 100

// JOB_POLL_INTERVAL defines how often job watchers sample progress.
const JOB_POLL_INTERVAL = 250 * time.Millisecond
