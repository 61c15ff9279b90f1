package game

import (
	"fmt"
)

// Lines lists the winning lines: rows, then columns, then diagonals.
var Lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// GameState is the dynamic state of a game. It is mutated only through ApplyMove;
// lookahead must operate on a Copy.
type GameState struct {
	Board       Board
	NextPlayer  Player
	Status      Status
	MoveHistory []int
	HumanPlayer Player // Role marker for sessions, ignored by the rules
}

// NewGameState returns an empty board with X to move.
func NewGameState() *GameState {
	return &GameState{
		NextPlayer:  PlayerX,
		Status:      InProgress,
		MoveHistory: []int{},
		HumanPlayer: PlayerX,
	}
}

// Copy returns a deep copy of the state.
func (gs *GameState) Copy() *GameState {
	historyCopy := make([]int, len(gs.MoveHistory))
	copy(historyCopy, gs.MoveHistory)

	return &GameState{
		Board:       gs.Board, // Arrays copy by value
		NextPlayer:  gs.NextPlayer,
		Status:      gs.Status,
		MoveHistory: historyCopy,
		HumanPlayer: gs.HumanPlayer,
	}
}

// Key returns the flat (non-canonical) state key of the board.
func (gs *GameState) Key() StateKey {
	return Encode(gs.Board)
}

// LegalMoves returns the empty indices, or none once the game is over.
func (gs *GameState) LegalMoves() []int {
	if gs.Status != InProgress {
		return []int{}
	}
	return gs.Board.LegalMoves()
}

// IsLegal reports whether index can be played now.
func (gs *GameState) IsLegal(index int) bool {
	if index < 0 || index >= Cells {
		return false
	}
	return gs.Status == InProgress && gs.Board[index] == Empty
}

// ApplyMove marks index for player, appends it to the history, passes the turn and
// updates the status. Only the index range is checked; callers that need occupancy
// and turn validation use Play.
func (gs *GameState) ApplyMove(index int, player Player) error {
	if index < 0 || index >= Cells {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}

	gs.Board[index] = player.Cell()
	gs.MoveHistory = append(gs.MoveHistory, index)
	gs.NextPlayer = player.Opponent()

	if line, ok := gs.WinningLine(); ok {
		gs.Status = winFor(gs.Board[line[0]])
		return nil
	}
	for _, c := range gs.Board {
		if c == Empty {
			return nil
		}
	}
	gs.Status = Draw
	return nil
}

// Play validates and applies a move for the player to move. A rejected move leaves
// the state unchanged.
func (gs *GameState) Play(index int) error {
	if index < 0 || index >= Cells {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	if gs.Status != InProgress {
		return fmt.Errorf("%w: game is over (%s)", ErrIllegalMove, gs.Status)
	}
	if gs.Board[index] != Empty {
		return fmt.Errorf("%w: cell %d is occupied", ErrIllegalMove, index)
	}
	return gs.ApplyMove(index, gs.NextPlayer)
}

// WinningLine returns the first completed line in Lines order.
func (gs *GameState) WinningLine() ([3]int, bool) {
	for _, line := range Lines {
		a := gs.Board[line[0]]
		if a == Empty {
			continue
		}
		if gs.Board[line[1]] == a && gs.Board[line[2]] == a {
			return line, true
		}
	}
	return [3]int{}, false
}

// Winner returns the winning player, if any.
func (gs *GameState) Winner() (Player, bool) {
	switch gs.Status {
	case WinX:
		return PlayerX, true
	case WinO:
		return PlayerO, true
	}
	return 0, false
}
