package engine

import (
	"errors"
	"testing"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/learning"
	"tictactoe/ranking"
	"tictactoe/searcher"
	"tictactoe/searcher/agent"

	"github.com/stretchr/testify/require"
)

// scripted plays a fixed sequence of moves.
type scripted struct {
	moves []int
	next  int
}

func (a *scripted) FindMove(state *game.GameState) (int, error) {
	if a.next >= len(a.moves) {
		return -1, errors.New("script exhausted")
	}
	move := a.moves[a.next]
	a.next++
	return move, nil
}

func TestLocalEngine(t *testing.T) {
	t.Run("recording per-player histories", func(t *testing.T) {
		x := &scripted{moves: []int{0, 1, 2}}
		o := &scripted{moves: []int{3, 4}}

		record, err := LocalEngine(x, o).Run()

		require.NoError(t, err)
		require.Equal(t, game.WinX, record.Status)
		require.Equal(t, []int{0, 3, 1, 4, 2}, record.Moves)
		require.Equal(t, []learning.Step{
			{StateKey: "EEEEEEEEE", Move: 0},
			{StateKey: "XEEOEEEEE", Move: 1},
			{StateKey: "XXEOOEEEE", Move: 2},
		}, record.Histories[game.PlayerX])
		require.Equal(t, []learning.Step{
			{StateKey: "XEEEEEEEE", Move: 3},
			{StateKey: "XXEOEEEEE", Move: 4},
		}, record.Histories[game.PlayerO])
		require.Equal(t, learning.Win, record.Result(game.PlayerX))
		require.Equal(t, learning.Loss, record.Result(game.PlayerO))
	})

	t.Run("game metrics describe the game", func(t *testing.T) {
		record, err := LocalEngine(&scripted{moves: []int{0, 1, 2}}, &scripted{moves: []int{3, 4}}).Run()

		require.NoError(t, err)
		require.Equal(t, "X", record.Game.StartingPlayer)
		require.Equal(t, "WinX", record.Game.Status)
		require.Equal(t, 5, record.Game.TotalMoves)
		require.Len(t, record.MoveMetrics, 5)
		require.Equal(t, "O", record.MoveMetrics[1].Player)
		require.Equal(t, 5, record.MoveMetrics[4].Step)
	})

	t.Run("starting from a given state", func(t *testing.T) {
		start := game.NewGameState()
		require.NoError(t, start.Play(4))

		record, err := LocalEngine(&scripted{moves: []int{8, 2}}, &scripted{moves: []int{0, 6, 3}}, WithState(start)).Run()

		require.NoError(t, err)
		require.Equal(t, game.WinO, record.Status)
		require.Equal(t, "O", record.Game.StartingPlayer)
		require.Len(t, record.Histories[game.PlayerO], 3)
		require.Equal(t, []int{4}, start.MoveHistory, "Should not modify the given state")
	})

	t.Run("reporting to a collector", func(t *testing.T) {
		collector := metrics.NewCollector()

		_, err := LocalEngine(&scripted{moves: []int{0, 1, 2}}, &scripted{moves: []int{3, 4}}, WithCollector(collector)).Run()

		require.NoError(t, err)
		run := collector.Complete()
		require.Equal(t, 1, run.Games)
		require.Equal(t, 1, run.WinsX)
	})

	t.Run("illegal moves stop the game", func(t *testing.T) {
		_, err := LocalEngine(&scripted{moves: []int{0, 0}}, &scripted{moves: []int{0}}).Run()
		require.ErrorIs(t, err, game.ErrIllegalMove)
	})

	t.Run("agent errors stop the game", func(t *testing.T) {
		_, err := LocalEngine(&scripted{}, &scripted{}).Run()
		require.Error(t, err)
	})

	t.Run("self-play between policy agents always finishes", func(t *testing.T) {
		store := ranking.NewMemory()
		x := agent.NewTrainingAgent(searcher.NewPolicy(searcher.WithSeed(1)), store)
		o := agent.NewTrainingAgent(searcher.NewPolicy(searcher.WithSeed(2)), store)

		record, err := LocalEngine(x, o).Run()

		require.NoError(t, err)
		require.NotEqual(t, game.InProgress, record.Status)
		require.Equal(t, len(record.Moves), len(record.Histories[game.PlayerX])+len(record.Histories[game.PlayerO]))
	})

	t.Run("missing agents panic", func(t *testing.T) {
		require.Panics(t, func() { LocalEngine(nil, &scripted{}) })
	})
}
