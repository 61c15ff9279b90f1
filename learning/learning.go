// Package learning applies end-of-game rewards to the value table.
package learning

import (
	"fmt"
	"tictactoe/game"
	"tictactoe/meta"
	"tictactoe/ranking"
)

type Result int

const (
	Win Result = iota
	Loss
	Draw
)

func (r Result) String() string {
	switch r {
	case Win:
		return "Win"
	case Loss:
		return "Loss"
	default:
		return "Draw"
	}
}

// ResultFor classifies a finished game from player's point of view.
func ResultFor(status game.Status, player game.Player) Result {
	switch {
	case status.Won(player):
		return Win
	case status.Won(player.Opponent()):
		return Loss
	default:
		return Draw
	}
}

// Step is one move a player made: the flat key of the board it saw and the index
// it played.
type Step struct {
	StateKey game.StateKey
	Move     int
}

// Reward returns the reward of a player's ply-th move (1-based, counting only
// that player's own moves).
func Reward(result Result, ply int) float64 {
	switch result {
	case Win:
		return meta.WinReward
	case Loss:
		return meta.LossReward
	default:
		return meta.DrawReward * (meta.DrawHorizon - float64(ply)) / meta.DrawHorizon
	}
}

// Update adds Alpha*reward to the canonical entry of every step in history.
// Steps are independent; a malformed step aborts the update with the earlier
// steps already applied.
func Update(store ranking.Store, history []Step, result Result) error {
	for i, step := range history {
		key, move, err := Canonical(step.StateKey, step.Move)
		if err != nil {
			return fmt.Errorf("failed to update step %d: %w", i+1, err)
		}

		delta := meta.Alpha * Reward(result, i+1)
		current := ranking.GetOrZero(store, key, move)
		store.Set(key, move, ranking.Clamp(current+delta))
	}
	return nil
}

// Canonical maps a flat key and move to the table's canonical orientation.
func Canonical(stateKey game.StateKey, move int) (game.StateKey, int, error) {
	board, err := game.Decode(stateKey)
	if err != nil {
		return "", 0, err
	}
	key, t := game.Canonicalize(board)
	canonicalMove, err := game.MapMoveIndex(move, t)
	if err != nil {
		return "", 0, err
	}
	return key, canonicalMove, nil
}
