package game

import (
	"errors"
	"fmt"
)

// Size is the board dimension; Cells is the number of squares on the board.
const (
	Size  = 3
	Cells = Size * Size
)

var (
	// ErrInvalidInput reports a malformed board, state key or move index.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOutOfRange reports a move index outside 0..8.
	ErrOutOfRange = fmt.Errorf("%w: move index out of range", ErrInvalidInput)
	// ErrIllegalMove reports a move onto an occupied cell or after the game ended.
	ErrIllegalMove = errors.New("illegal move")
	// ErrEmptyMoveSet reports a move request on a position without legal moves.
	ErrEmptyMoveSet = errors.New("no legal moves")
)

type Cell int

const (
	Empty Cell = iota
	X
	O
)

// Code returns the single-letter code used by state keys.
func (c Cell) Code() byte {
	switch c {
	case X:
		return 'X'
	case O:
		return 'O'
	default:
		return 'E'
	}
}

func (c Cell) String() string {
	return string(c.Code())
}

// Player is the side to move. Its values line up with the cell it marks.
type Player int

const (
	PlayerX Player = Player(X)
	PlayerO Player = Player(O)
)

func (p Player) Cell() Cell {
	return Cell(p)
}

func (p Player) Opponent() Player {
	if p == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (p Player) String() string {
	return p.Cell().String()
}

// ParsePlayer accepts "X" or "O".
func ParsePlayer(s string) (Player, error) {
	switch s {
	case "X", "x":
		return PlayerX, nil
	case "O", "o":
		return PlayerO, nil
	}
	return 0, fmt.Errorf("%w: player must be X or O, got %q", ErrInvalidInput, s)
}

type Status int

const (
	InProgress Status = iota
	WinX
	WinO
	Draw
)

func (s Status) String() string {
	switch s {
	case WinX:
		return "WinX"
	case WinO:
		return "WinO"
	case Draw:
		return "Draw"
	default:
		return "InProgress"
	}
}

// Won reports whether the status is a win for player.
func (s Status) Won(player Player) bool {
	return (player == PlayerX && s == WinX) || (player == PlayerO && s == WinO)
}

func winFor(c Cell) Status {
	if c == X {
		return WinX
	}
	return WinO
}

// Board is a row-major 3x3 grid.
type Board [Cells]Cell
