package ranking

import (
	"hash/fnv"
	"sync"
	"tictactoe/game"

	"github.com/rs/zerolog/log"
)

const stripes = 32

type key struct {
	state game.StateKey
	move  int
}

type stripe struct {
	mu      sync.RWMutex
	entries map[key]float64
}

// Memory is an in-process Store. Keys are spread over independently locked
// stripes so concurrent games only contend when they touch the same stripe.
type Memory struct {
	stripes     [stripes]stripe
	compatProbe bool
}

type Option func(m *Memory)

// WithCompatProbe enables migrating values stored under a non-canonical
// orientation on the first read miss of the canonical key.
func WithCompatProbe() Option {
	return func(m *Memory) {
		m.compatProbe = true
	}
}

func NewMemory(options ...Option) *Memory {
	m := &Memory{}
	for i := range m.stripes {
		m.stripes[i].entries = make(map[key]float64)
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func stripeIndex(state game.StateKey, move int) int {
	h := fnv.New32a()
	h.Write([]byte(state))
	h.Write([]byte{byte(move)})
	return int(h.Sum32() % stripes)
}

func (m *Memory) stripeFor(state game.StateKey, move int) *stripe {
	return &m.stripes[stripeIndex(state, move)]
}

func (m *Memory) load(state game.StateKey, move int) (float64, bool) {
	s := m.stripeFor(state, move)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key{state, move}]
	return v, ok
}

func (m *Memory) Get(state game.StateKey, move int) (float64, bool) {
	if v, ok := m.load(state, move); ok {
		return v, true
	}
	if !m.compatProbe {
		return 0, false
	}
	return m.probe(state, move)
}

// probe looks for the entry under every symmetric orientation of (state, move)
// and copies the first hit to the requested key. Failures count as a miss.
func (m *Memory) probe(state game.StateKey, move int) (float64, bool) {
	board, err := game.Decode(state)
	if err != nil {
		log.Debug().Err(err).Msgf("skipping compat probe for state key %q", state)
		return 0, false
	}
	for _, t := range game.Transforms[1:] {
		inverse := t.Inverse()
		variantMove, err := game.MapMoveIndex(move, inverse)
		if err != nil {
			log.Debug().Err(err).Msgf("compat probe failed for state key %q move %d", state, move)
			return 0, false
		}
		variantState := game.Encode(game.ApplyTransform(board, inverse))
		if v, ok := m.load(variantState, variantMove); ok {
			m.Set(state, move, v)
			log.Info().Msgf("migrated value from %s/%d to %s/%d", variantState, variantMove, state, move)
			return v, true
		}
	}
	return 0, false
}

func (m *Memory) Set(state game.StateKey, move int, value float64) {
	s := m.stripeFor(state, move)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key{state, move}] = Clamp(value)
}

func (m *Memory) Reset() {
	m.lockAll()
	defer m.unlockAll()
	for i := range m.stripes {
		m.stripes[i].entries = make(map[key]float64)
	}
}

func (m *Memory) Export() []Entry {
	m.rLockAll()
	defer m.rUnlockAll()
	entries := make([]Entry, 0, m.lenLocked())
	for i := range m.stripes {
		for k, v := range m.stripes[i].entries {
			entries = append(entries, Entry{State: k.state, MoveIndex: k.move, Q: v})
		}
	}
	return entries
}

func (m *Memory) ImportReplace(entries []Entry) error {
	if err := Validate(entries); err != nil {
		return err
	}

	// Build the replacement before taking any lock
	var replacement [stripes]map[key]float64
	for i := range replacement {
		replacement[i] = make(map[key]float64)
	}
	for _, e := range entries {
		replacement[stripeIndex(e.State, e.MoveIndex)][key{e.State, e.MoveIndex}] = Clamp(e.Q)
	}

	m.lockAll()
	defer m.unlockAll()
	for i := range m.stripes {
		m.stripes[i].entries = replacement[i]
	}
	return nil
}

func (m *Memory) Len() int {
	m.rLockAll()
	defer m.rUnlockAll()
	return m.lenLocked()
}

func (m *Memory) lenLocked() int {
	n := 0
	for i := range m.stripes {
		n += len(m.stripes[i].entries)
	}
	return n
}

func (m *Memory) lockAll() {
	for i := range m.stripes {
		m.stripes[i].mu.Lock()
	}
}

func (m *Memory) unlockAll() {
	for i := len(m.stripes) - 1; i >= 0; i-- {
		m.stripes[i].mu.Unlock()
	}
}

func (m *Memory) rLockAll() {
	for i := range m.stripes {
		m.stripes[i].mu.RLock()
	}
}

func (m *Memory) rUnlockAll() {
	for i := len(m.stripes) - 1; i >= 0; i-- {
		m.stripes[i].mu.RUnlock()
	}
}
