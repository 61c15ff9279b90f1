package experiments

import (
	"fmt"
	"tictactoe/engine"
	"tictactoe/experiments/metrics"

	"github.com/rs/zerolog/log"
)

type gameResult struct {
	seed   uint64
	record engine.Record
	played bool
}

// writeRecords stores every played game and its moves, numbered by the game's
// position in the run.
func writeRecords(dir string, results []gameResult) error {
	gameRecords := []metrics.GameRecord{}
	moveRecords := []metrics.MoveRecord{}
	for i, result := range results {
		if !result.played {
			continue
		}
		gameRecords = append(gameRecords, metrics.GameRecord{
			ID:         i + 1,
			Seed:       result.seed,
			GameMetric: result.record.Game,
		})
		for _, mm := range result.record.MoveMetrics {
			moveRecords = append(moveRecords, metrics.MoveRecord{
				Game:       i + 1,
				MoveMetric: mm,
			})
		}
	}

	writer, err := metrics.NewWriter(dir)
	if err != nil {
		return fmt.Errorf("failed to create experiment writer: %w", err)
	}

	err = writer.WriteGameRecords(gameRecords)
	if err != nil {
		return fmt.Errorf("failed to write game records: %w", err)
	}
	log.Info().Msgf("stored %d game records in %s", len(gameRecords), writer.Dir())

	err = writer.WriteMoveRecords(moveRecords)
	if err != nil {
		return fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msgf("stored %d move records in %s", len(moveRecords), writer.Dir())
	return nil
}
