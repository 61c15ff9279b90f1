package game

import (
	"fmt"
	"strings"
)

// StateKey is the 9-character positional encoding of a board over {E,X,O}.
type StateKey string

// EmptyKey is the key of the starting position.
const EmptyKey StateKey = "EEEEEEEEE"

// Encode concatenates the cell codes of the board.
func Encode(b Board) StateKey {
	var sb strings.Builder
	sb.Grow(Cells)
	for _, c := range b {
		sb.WriteByte(c.Code())
	}
	return StateKey(sb.String())
}

// Key is shorthand for Encode(b).
func (b Board) Key() StateKey {
	return Encode(b)
}

// Decode is the inverse of Encode. Any character other than X or O decodes as Empty.
func Decode(key StateKey) (Board, error) {
	var b Board
	if len(key) != Cells {
		return b, fmt.Errorf("%w: state key %q must be %d characters", ErrInvalidInput, key, Cells)
	}
	for i := 0; i < Cells; i++ {
		switch key[i] {
		case 'X':
			b[i] = X
		case 'O':
			b[i] = O
		default:
			b[i] = Empty
		}
	}
	return b, nil
}

// Valid reports whether the key is 9 characters over {E,X,O}.
func (k StateKey) Valid() bool {
	if len(k) != Cells {
		return false
	}
	for i := 0; i < Cells; i++ {
		if k[i] != 'E' && k[i] != 'X' && k[i] != 'O' {
			return false
		}
	}
	return true
}

// ParseBoard converts cell strings ("X", "O", "E" or "") into a board.
func ParseBoard(cells []string) (Board, error) {
	var b Board
	if len(cells) != Cells {
		return b, fmt.Errorf("%w: board must have %d cells, got %d", ErrInvalidInput, Cells, len(cells))
	}
	for i, s := range cells {
		switch s {
		case "X":
			b[i] = X
		case "O":
			b[i] = O
		default:
			b[i] = Empty
		}
	}
	return b, nil
}

// Strings renders the board as cell strings, the shape used by the HTTP contract.
func (b Board) Strings() []string {
	out := make([]string, Cells)
	for i, c := range b {
		out[i] = c.String()
	}
	return out
}

// LegalMoves returns the empty indices in ascending order.
func (b Board) LegalMoves() []int {
	moves := make([]int, 0, Cells)
	for i, c := range b {
		if c == Empty {
			moves = append(moves, i)
		}
	}
	return moves
}

// LegalMoves validates an arbitrary-length cell slice and returns its empty indices.
func LegalMoves(cells []Cell) ([]int, error) {
	if len(cells) != Cells {
		return nil, fmt.Errorf("%w: board must have %d cells, got %d", ErrInvalidInput, Cells, len(cells))
	}
	var b Board
	copy(b[:], cells)
	return b.LegalMoves(), nil
}

// KeypadToIndex maps keypad 1..9 to index 0..8.
func KeypadToIndex(keypad int) (int, error) {
	if keypad < 1 || keypad > Cells {
		return 0, fmt.Errorf("%w: keypad %d", ErrOutOfRange, keypad)
	}
	return keypad - 1, nil
}

// IndexToKeypad maps index 0..8 to keypad 1..9.
func IndexToKeypad(index int) (int, error) {
	if index < 0 || index >= Cells {
		return 0, fmt.Errorf("%w: index %d", ErrOutOfRange, index)
	}
	return index + 1, nil
}
