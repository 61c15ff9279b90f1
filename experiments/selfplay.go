package experiments

import (
	"context"
	"fmt"
	"sync/atomic"
	"tictactoe/engine"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/learning"
	"tictactoe/meta"
	"tictactoe/ranking"
	"tictactoe/searcher"
	"tictactoe/searcher/agent"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// Summary aggregates a self-play run. Played may be below Requested when the
// run was cancelled.
type Summary struct {
	Requested int     `json:"requested"`
	Played    int     `json:"played"`
	WinsX     int     `json:"winsX"`
	WinsO     int     `json:"winsO"`
	Draws     int     `json:"draws"`
	AvgMoves  float64 `json:"avgMoves"`
	ElapsedMs int64   `json:"elapsedMs"`
}

type Option func(c *config)

type config struct {
	workers   int
	seed      uint64
	epsilon   float64
	progress  func(played int)
	recordDir string
}

// WithWorkers plays up to workers games at a time.
func WithWorkers(workers int) Option {
	return func(c *config) {
		c.workers = workers
	}
}

// WithSeed derives every game's exploration seed from seed.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

func WithEpsilon(epsilon float64) Option {
	return func(c *config) {
		c.epsilon = epsilon
	}
}

// WithProgress is called after each finished game with the number of games
// finished so far. It may be called from several goroutines.
func WithProgress(progress func(played int)) Option {
	return func(c *config) {
		c.progress = progress
	}
}

// WithRecords writes game and move records as CSV under dir.
func WithRecords(dir string) Option {
	return func(c *config) {
		c.recordDir = dir
	}
}

// RunSelfPlay plays n games of the policy against itself, learning from each
// game as it finishes. n is capped at meta.MAX_SELF_PLAY_GAMES. Cancelling ctx
// stops the run between games; the summary then covers the games played.
func RunSelfPlay(ctx context.Context, store ranking.Store, n int, options ...Option) (Summary, error) {
	c := config{ // Default values
		workers: 1,
		seed:    uint64(time.Now().UnixNano()),
		epsilon: meta.Epsilon,
	}
	for _, option := range options {
		option(&c)
	}
	if c.workers < 1 {
		panic(fmt.Sprintf("workers must be at least 1, got %d", c.workers))
	}
	n = max(0, min(n, meta.MAX_SELF_PLAY_GAMES))

	// Seeds are drawn up front so results do not depend on scheduling
	master := rand.New(rand.NewSource(c.seed))
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	var records []gameResult
	if c.recordDir != "" {
		records = make([]gameResult, n)
	}

	collector := metrics.NewCollector()
	collector.Start(c.workers)
	var played atomic.Int64

	log.Info().Msgf("starting self-play of %d games with %d workers...", n, c.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record, err := playGame(store, seeds[i], c.epsilon, collector)
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			if records != nil {
				records[i] = gameResult{seed: seeds[i], record: record, played: true}
			}

			count := int(played.Add(1))
			if count%meta.PROGRESS_EVERY == 0 {
				log.Info().Msgf("self-play progress: %d/%d games completed", count, n)
			}
			if c.progress != nil {
				c.progress(count)
			}
			return nil
		})
	}
	err := g.Wait()

	run := collector.Complete()
	summary := Summary{
		Requested: n,
		Played:    run.Games,
		WinsX:     run.WinsX,
		WinsO:     run.WinsO,
		Draws:     run.Draws,
		AvgMoves:  run.AvgMoves(),
		ElapsedMs: run.Duration.Milliseconds(),
	}

	if records != nil {
		if werr := writeRecords(c.recordDir, records); werr != nil {
			log.Error().Err(werr).Msg("failed to write self-play records")
		}
	}

	if ctx.Err() != nil && summary.Played < n {
		log.Info().Msgf("self-play cancelled after %d/%d games", summary.Played, n)
		return summary, ctx.Err()
	}
	if err != nil {
		return summary, err
	}

	log.Info().Msgf("completed self-play: %+v", summary)
	return summary, nil
}

// playGame plays one game with a fresh policy on both sides and applies the
// learning update once per player.
func playGame(store ranking.Store, seed uint64, epsilon float64, collector metrics.Collector) (engine.Record, error) {
	rng := rand.New(rand.NewSource(seed))
	policy := searcher.NewPolicy(searcher.WithEpsilon(epsilon), searcher.WithRand(rng))
	a := agent.NewTrainingAgent(policy, store)

	record, err := engine.LocalEngine(a, a, engine.WithCollector(collector)).Run()
	if err != nil {
		return record, err
	}

	for _, player := range []game.Player{game.PlayerX, game.PlayerO} {
		if err := learning.Update(store, record.Histories[player], record.Result(player)); err != nil {
			return record, fmt.Errorf("failed to learn from player %s: %w", player, err)
		}
	}
	return record, nil
}
