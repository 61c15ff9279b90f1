package engine

import (
	"fmt"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/learning"
	"tictactoe/searcher/agent"
	"time"

	"github.com/rs/zerolog/log"
)

type Option func(e *LocalGame)

// WithState starts from an existing position instead of an empty board.
func WithState(state *game.GameState) Option {
	return func(e *LocalGame) {
		e.State = state.Copy()
	}
}

func WithCollector(collector metrics.Collector) Option {
	return func(e *LocalGame) {
		e.collector = collector
	}
}

var _ Engine = (*LocalGame)(nil)

type LocalGame struct {
	State     *game.GameState
	agents    map[game.Player]agent.Agent
	collector metrics.Collector
}

func LocalEngine(x, o agent.Agent, options ...Option) *LocalGame {
	if x == nil || o == nil {
		panic("need an agent for both players")
	}

	e := &LocalGame{ // Default values
		State: game.NewGameState(),
		agents: map[game.Player]agent.Agent{
			game.PlayerX: x,
			game.PlayerO: o,
		},
		collector: metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Run asks the agent of the player to move for a move until the game is decided.
// Each player's history records the flat key it saw and the index it played.
func (e *LocalGame) Run() (Record, error) {
	record := Record{
		Histories: map[game.Player][]learning.Step{
			game.PlayerX: {},
			game.PlayerO: {},
		},
		Game: metrics.GameMetric{
			StartingPlayer: e.State.NextPlayer.String(),
			StartTime:      time.Now(),
		},
	}

	step := 1
	for e.State.Status == game.InProgress {
		player := e.State.NextPlayer
		key := e.State.Key()

		start := time.Now()
		move, err := e.agents[player].FindMove(e.State)
		if err != nil {
			return record, fmt.Errorf("player %s failed to find a move: %w", player, err)
		}
		if err := e.State.Play(move); err != nil {
			return record, fmt.Errorf("player %s chose move %d: %w", player, move, err)
		}

		record.Histories[player] = append(record.Histories[player], learning.Step{StateKey: key, Move: move})
		record.MoveMetrics = append(record.MoveMetrics, metrics.MoveMetric{
			Step:     step,
			Player:   player.String(),
			Move:     move,
			Duration: time.Since(start),
		})
		step++
	}

	record.Status = e.State.Status
	record.Moves = append([]int{}, e.State.MoveHistory...)
	record.Game.Status = e.State.Status.String()
	record.Game.EndTime = time.Now()
	record.Game.Duration = record.Game.EndTime.Sub(record.Game.StartTime)
	record.Game.TotalMoves = len(e.State.MoveHistory)
	e.collector.AddGame(record.Status, record.Game.TotalMoves)

	log.Debug().Msgf("game ended with %s after %d moves", record.Status, record.Game.TotalMoves)
	return record, nil
}
