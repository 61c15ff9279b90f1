package game

import "fmt"

// Transform is one of the 8 symmetries of the square.
type Transform int

const (
	Identity Transform = iota
	Rot90
	Rot180
	Rot270
	FlipH        // Mirror across the vertical axis
	FlipV        // Mirror across the horizontal axis
	FlipMainDiag // Transpose
	FlipAntiDiag
)

// Transforms in canonicalization order. Ties resolve to the earliest entry.
var Transforms = [8]Transform{Identity, Rot90, Rot180, Rot270, FlipH, FlipV, FlipMainDiag, FlipAntiDiag}

const last = Size - 1

var mappings = [8]func(r, c int) (int, int){
	Identity:     func(r, c int) (int, int) { return r, c },
	Rot90:        func(r, c int) (int, int) { return c, last - r },
	Rot180:       func(r, c int) (int, int) { return last - r, last - c },
	Rot270:       func(r, c int) (int, int) { return last - c, r },
	FlipH:        func(r, c int) (int, int) { return r, last - c },
	FlipV:        func(r, c int) (int, int) { return last - r, c },
	FlipMainDiag: func(r, c int) (int, int) { return c, r },
	FlipAntiDiag: func(r, c int) (int, int) { return last - c, last - r },
}

var names = [8]string{"Identity", "Rot90", "Rot180", "Rot270", "FlipH", "FlipV", "FlipMainDiag", "FlipAntiDiag"}

func (t Transform) String() string {
	if t < Identity || t > FlipAntiDiag {
		return fmt.Sprintf("Transform(%d)", int(t))
	}
	return names[t]
}

// Inverse returns the transform undoing t. Only the quarter turns differ from t.
func (t Transform) Inverse() Transform {
	switch t {
	case Rot90:
		return Rot270
	case Rot270:
		return Rot90
	default:
		return t
	}
}

func (t Transform) mapIndex(index int) int {
	r, c := mappings[t](index/Size, index%Size)
	return r*Size + c
}

// ApplyTransform moves every cell to its image under t.
func ApplyTransform(b Board, t Transform) Board {
	var out Board
	for i, cell := range b {
		out[t.mapIndex(i)] = cell
	}
	return out
}

// MapMoveIndex returns the image of a move index under t.
func MapMoveIndex(index int, t Transform) (int, error) {
	if index < 0 || index >= Cells {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	if t < Identity || t > FlipAntiDiag {
		return 0, fmt.Errorf("%w: unknown transform %d", ErrInvalidInput, int(t))
	}
	return t.mapIndex(index), nil
}

// Canonicalize returns the ordinally smallest key over all 8 images of b together with
// the transform producing it.
func Canonicalize(b Board) (StateKey, Transform) {
	bestKey := Encode(b)
	bestT := Identity
	for _, t := range Transforms[1:] {
		key := Encode(ApplyTransform(b, t))
		if key < bestKey {
			bestKey = key
			bestT = t
		}
	}
	return bestKey, bestT
}
