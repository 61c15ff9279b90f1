package experiments

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"tictactoe/game"
	"tictactoe/ranking"

	"github.com/stretchr/testify/require"
)

func TestRunSelfPlay(t *testing.T) {
	t.Run("seeded run of 5 games learns canonical keys only", func(t *testing.T) {
		store := ranking.NewMemory()

		summary, err := RunSelfPlay(context.Background(), store, 5, WithSeed(12345))

		require.NoError(t, err)
		require.Equal(t, 5, summary.Requested)
		require.Equal(t, 5, summary.Played)
		require.Equal(t, 5, summary.WinsX+summary.WinsO+summary.Draws)
		require.GreaterOrEqual(t, summary.AvgMoves, 5.0)
		require.LessOrEqual(t, summary.AvgMoves, 9.0)
		require.NotZero(t, store.Len())
		for _, e := range store.Export() {
			board, err := game.Decode(e.State)
			require.NoError(t, err)
			key, _ := game.Canonicalize(board)
			require.Equal(t, key, e.State, "Should only store canonical keys")
			require.GreaterOrEqual(t, e.Q, -5.0)
			require.LessOrEqual(t, e.Q, 5.0)
		}
	})

	t.Run("the same seed learns the same table", func(t *testing.T) {
		a, b := ranking.NewMemory(), ranking.NewMemory()

		sa, err := RunSelfPlay(context.Background(), a, 20, WithSeed(7))
		require.NoError(t, err)
		sb, err := RunSelfPlay(context.Background(), b, 20, WithSeed(7))
		require.NoError(t, err)

		require.Equal(t, sa.WinsX, sb.WinsX)
		require.Equal(t, sa.Draws, sb.Draws)
		require.ElementsMatch(t, a.Export(), b.Export())
	})

	t.Run("parallel workers play every game", func(t *testing.T) {
		var calls atomic.Int64
		summary, err := RunSelfPlay(context.Background(), ranking.NewMemory(), 200,
			WithWorkers(4), WithSeed(1), WithProgress(func(int) { calls.Add(1) }))

		require.NoError(t, err)
		require.Equal(t, 200, summary.Played)
		require.EqualValues(t, 200, calls.Load())
	})

	t.Run("zero and negative counts play nothing", func(t *testing.T) {
		for _, n := range []int{0, -3} {
			summary, err := RunSelfPlay(context.Background(), ranking.NewMemory(), n)
			require.NoError(t, err)
			require.Zero(t, summary.Requested)
			require.Zero(t, summary.Played)
			require.Zero(t, summary.AvgMoves)
		}
	})

	t.Run("cancelling stops between games", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		summary, err := RunSelfPlay(ctx, ranking.NewMemory(), 1000, WithSeed(3),
			WithProgress(func(played int) {
				if played == 10 {
					cancel()
				}
			}))

		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 1000, summary.Requested)
		require.GreaterOrEqual(t, summary.Played, 10)
		require.Less(t, summary.Played, 1000)
	})

	t.Run("an already cancelled context plays nothing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		summary, err := RunSelfPlay(ctx, ranking.NewMemory(), 10)

		require.ErrorIs(t, err, context.Canceled)
		require.Zero(t, summary.Played)
	})

	t.Run("writing game records", func(t *testing.T) {
		dir := t.TempDir()

		_, err := RunSelfPlay(context.Background(), ranking.NewMemory(), 3, WithSeed(5), WithRecords(dir))

		require.NoError(t, err)
		runs, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		require.FileExists(t, filepath.Join(dir, runs[0].Name(), "game_records.csv"))
		require.FileExists(t, filepath.Join(dir, runs[0].Name(), "move_records.csv"))
	})

	t.Run("invalid worker counts panic", func(t *testing.T) {
		require.Panics(t, func() {
			RunSelfPlay(context.Background(), ranking.NewMemory(), 1, WithWorkers(0))
		})
	})
}

func TestRunThroughputExperiment(t *testing.T) {
	dir := t.TempDir()

	records, err := RunThroughputExperiment(context.Background(), []int{1, 2}, 10, 1, dir)

	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 2, records[1].Workers)
	require.Equal(t, 10, records[0].Games)
	runs, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.FileExists(t, filepath.Join(dir, runs[0].Name(), "throughput.csv"))
}
