package searcher

import (
	"fmt"
	"sync"
	"tictactoe/game"
	"tictactoe/meta"
	"tictactoe/ranking"
	"time"

	"golang.org/x/exp/rand"
)

type Option func(p *Policy)

// Policy selects moves: tactical shortcuts first, then epsilon-greedy over the
// canonicalized value table. Ties go to the smallest original index.
type Policy struct {
	epsilon       float64
	deterministic bool
	mu            sync.Mutex // Guards rng
	rng           *rand.Rand
}

func WithEpsilon(epsilon float64) Option {
	return func(p *Policy) {
		p.epsilon = epsilon
	}
}

// WithSeed makes exploration reproducible.
func WithSeed(seed uint64) Option {
	return func(p *Policy) {
		p.rng = rand.New(rand.NewSource(seed))
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(p *Policy) {
		if rng != nil {
			p.rng = rng
		}
	}
}

// WithDeterministic makes exploration pick the smallest legal index instead of
// a uniformly random one.
func WithDeterministic() Option {
	return func(p *Policy) {
		p.deterministic = true
	}
}

func NewPolicy(options ...Option) *Policy {
	p := &Policy{ // Default values
		epsilon: meta.Epsilon,
	}
	for _, option := range options {
		option(p)
	}
	if p.epsilon < 0 || p.epsilon > 1 {
		panic(fmt.Sprintf("epsilon must be within [0, 1], got %v", p.epsilon))
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return p
}

func (p *Policy) Epsilon() float64 {
	return p.epsilon
}

// SelectMove picks a move for the player to move in state. The state is not
// modified. A terminal state yields game.ErrEmptyMoveSet.
func (p *Policy) SelectMove(state *game.GameState, store ranking.Store) (int, error) {
	if move, ok := WinIn1(state); ok {
		return move, nil
	}
	// Without a threat every move "blocks"; only force a block against a real one
	if Threatened(state) {
		if move, ok := BlockIn1(state); ok {
			return move, nil
		}
	}

	legal := state.LegalMoves()
	if len(legal) == 0 {
		return -1, fmt.Errorf("%w: game status is %s", game.ErrEmptyMoveSet, state.Status)
	}
	if move, ok := p.explore(legal); ok {
		return move, nil
	}

	key, t := game.Canonicalize(state.Board)
	return exploit(legal, func(move int) float64 {
		canonicalMove, _ := game.MapMoveIndex(move, t)
		return ranking.GetOrZero(store, key, canonicalMove)
	}), nil
}

// SelectMoveFlat is the table-only form: no tactics and no canonicalization,
// values are read under key as given.
func (p *Policy) SelectMoveFlat(key game.StateKey, legal []int, store ranking.Store) (int, error) {
	if len(legal) == 0 {
		return -1, game.ErrEmptyMoveSet
	}
	for _, move := range legal {
		if move < 0 || move >= game.Cells {
			return -1, fmt.Errorf("%w: %d", game.ErrOutOfRange, move)
		}
	}
	if move, ok := p.explore(legal); ok {
		return move, nil
	}
	return exploit(legal, func(move int) float64 {
		return ranking.GetOrZero(store, key, move)
	}), nil
}

// explore draws once from the rng and, with probability epsilon, returns an
// exploratory move.
func (p *Policy) explore(legal []int) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rng.Float64() >= p.epsilon {
		return -1, false
	}
	if p.deterministic {
		return smallest(legal), true
	}
	return legal[p.rng.Intn(len(legal))], true
}

func exploit(legal []int, value func(move int) float64) int {
	best := smallest(legal)
	bestValue := value(best)
	for _, move := range legal {
		v := value(move)
		if v > bestValue || (v == bestValue && move < best) {
			best = move
			bestValue = v
		}
	}
	return best
}

func smallest(moves []int) int {
	best := moves[0]
	for _, move := range moves[1:] {
		best = min(best, move)
	}
	return best
}
