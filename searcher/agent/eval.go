package agent

import (
	"tictactoe/game"
	"tictactoe/ranking"
	"tictactoe/searcher"
)

type evaluationAgent struct {
	policy *searcher.Policy
	store  ranking.Store
}

// NewEvaluationAgent returns a new agent that always plays its best known move.
func NewEvaluationAgent(store ranking.Store) Agent {
	return evaluationAgent{
		policy: searcher.NewPolicy(searcher.WithEpsilon(0), searcher.WithDeterministic()),
		store:  store,
	}
}

func (a evaluationAgent) FindMove(state *game.GameState) (int, error) {
	return a.policy.SelectMove(state, a.store)
}
