package agent

import (
	"tictactoe/game"
	"tictactoe/ranking"
	"tictactoe/searcher"
)

type trainingAgent struct {
	policy *searcher.Policy
	store  ranking.Store
}

// NewTrainingAgent returns a new agent for self-play and human play. It explores
// with the policy's epsilon.
func NewTrainingAgent(policy *searcher.Policy, store ranking.Store) Agent {
	return trainingAgent{policy: policy, store: store}
}

func (a trainingAgent) FindMove(state *game.GameState) (int, error) {
	return a.policy.SelectMove(state, a.store)
}
