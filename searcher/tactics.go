package searcher

import "tictactoe/game"

// WinIn1 returns the smallest index that wins immediately for the player to move.
func WinIn1(state *game.GameState) (int, bool) {
	player := state.NextPlayer
	for _, move := range state.LegalMoves() {
		child := state.Copy()
		if err := child.ApplyMove(move, player); err != nil {
			continue
		}
		if child.Status.Won(player) {
			return move, true
		}
	}
	return -1, false
}

// BlockIn1 returns the smallest index after which the opponent has no immediate
// win. A move that ends the game counts as a block.
func BlockIn1(state *game.GameState) (int, bool) {
	player := state.NextPlayer
	opponent := player.Opponent()
	for _, move := range state.LegalMoves() {
		child := state.Copy()
		if err := child.ApplyMove(move, player); err != nil {
			continue
		}
		if child.Status != game.InProgress {
			return move, true
		}
		if !hasWinningReply(child, opponent) {
			return move, true
		}
	}
	return -1, false
}

// Threatened reports whether the opponent of the player to move would win
// immediately if it were their turn.
func Threatened(state *game.GameState) bool {
	if state.Status != game.InProgress {
		return false
	}
	return hasWinningReply(state, state.NextPlayer.Opponent())
}

func hasWinningReply(state *game.GameState, player game.Player) bool {
	for _, reply := range state.Board.LegalMoves() {
		grandChild := state.Copy()
		if err := grandChild.ApplyMove(reply, player); err != nil {
			continue
		}
		if grandChild.Status.Won(player) {
			return true
		}
	}
	return false
}
