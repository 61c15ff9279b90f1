// Package ranking holds the learned move values keyed by canonical state and move.
package ranking

import (
	"math"
	"tictactoe/game"
	"tictactoe/meta"
	"tictactoe/utils"
)

// Store maps (canonical state key, canonical move) to a value clamped to
// [meta.ClampMin, meta.ClampMax]. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored value, or false if the entry was never written.
	Get(key game.StateKey, move int) (float64, bool)
	// Set clamps value and stores it.
	Set(key game.StateKey, move int, value float64)
	Reset()
	Export() []Entry
	// ImportReplace validates every entry and then replaces the table. An invalid
	// document leaves the previous table untouched.
	ImportReplace(entries []Entry) error
	Len() int
}

// Entry is one record of the export/import document.
type Entry struct {
	State     game.StateKey `json:"state"`
	MoveIndex int           `json:"moveIndex"`
	Q         float64       `json:"q"`
}

// Clamp bounds a value to the storable range. NaN is stored as 0.
func Clamp(value float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return utils.Clamp(value, meta.ClampMin, meta.ClampMax)
}

// GetOrZero reads a value, treating a missing entry as 0.
func GetOrZero(store Store, key game.StateKey, move int) float64 {
	if v, ok := store.Get(key, move); ok {
		return v
	}
	return 0
}
