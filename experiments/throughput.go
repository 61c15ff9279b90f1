package experiments

import (
	"context"
	"fmt"
	"tictactoe/experiments/metrics"
	"tictactoe/ranking"
	"time"

	"github.com/rs/zerolog/log"
)

// RunThroughputExperiment plays the same seeded self-play run once per worker
// count, each on a fresh table, and reports games per second. Results are
// written as CSV under dir unless dir is empty.
func RunThroughputExperiment(ctx context.Context, workerCounts []int, games int, seed uint64, dir string) ([]metrics.ThroughputRecord, error) {
	log.Info().Msg("starting throughput experiment...")

	records := []metrics.ThroughputRecord{}
	for _, workers := range workerCounts {
		log.Info().Msgf("starting %d games with %d workers...", games, workers)

		summary, err := RunSelfPlay(ctx, ranking.NewMemory(), games, WithWorkers(workers), WithSeed(seed))
		if err != nil {
			return records, fmt.Errorf("failed to run %d workers: %w", workers, err)
		}
		records = append(records, metrics.ThroughputRecord{
			Workers:  workers,
			Games:    summary.Played,
			Duration: time.Duration(summary.ElapsedMs) * time.Millisecond,
		})

		log.Info().Msgf("completed %d workers in %dms", workers, summary.ElapsedMs)
	}

	log.Info().Msg("completed throughput experiment")
	if dir == "" {
		return records, nil
	}

	writer, err := metrics.NewWriter(dir)
	if err != nil {
		return records, fmt.Errorf("failed to create experiment writer: %w", err)
	}
	err = writer.WriteThroughputRecords(records)
	if err != nil {
		return records, fmt.Errorf("failed to write throughput records: %w", err)
	}
	log.Info().Msgf("stored throughput records in %s", writer.Dir())
	return records, nil
}
