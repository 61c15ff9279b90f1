package agent

import "tictactoe/game"

type Agent interface {
	// FindMove returns the index to play for the player to move in state
	FindMove(state *game.GameState) (int, error)
}
