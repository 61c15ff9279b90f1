package engine

import (
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/learning"
)

type Engine interface {
	// Run plays a game from the engine's state until it is decided
	Run() (Record, error)
}

// Record is the outcome of one game and what each player did in it.
type Record struct {
	Status      game.Status
	Moves       []int
	Histories   map[game.Player][]learning.Step
	Game        metrics.GameMetric
	MoveMetrics []metrics.MoveMetric
}

// Result classifies the game from player's point of view.
func (r Record) Result(player game.Player) learning.Result {
	return learning.ResultFor(r.Status, player)
}
