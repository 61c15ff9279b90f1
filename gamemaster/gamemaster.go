package gamemaster

import (
	"strings"
	"sync"
	"tictactoe/experiments/metrics"
	"tictactoe/game"
	"tictactoe/ranking"
	"tictactoe/searcher"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidOption    = errors.New("invalid session option")
	ErrInvalidMoveValue = errors.New("move value must be 1..9 (keypad) or 0..8 (index)")
)

// IllegalMoveError describes a rejected human move together with the moves that
// would have been accepted.
type IllegalMoveError struct {
	RawMove int
	Index   int
	Board   []string
	Legal   []int
}

func (e *IllegalMoveError) Error() string {
	return "move is not legal"
}

func (e *IllegalMoveError) Unwrap() error {
	return game.ErrIllegalMove
}

type Starter int

const (
	StarterHuman Starter = iota
	StarterAI
)

func (s Starter) String() string {
	if s == StarterAI {
		return "AI"
	}
	return "Human"
}

type SessionOptions struct {
	Starter     Starter
	HumanSymbol game.Player
}

func DefaultSessionOptions() SessionOptions {
	return SessionOptions{Starter: StarterHuman, HumanSymbol: game.PlayerX}
}

// ParseSessionOptions reads "Human"/"AI" and "X"/"O", case-insensitively. Empty
// values keep their defaults.
func ParseSessionOptions(starter, humanSymbol string) (SessionOptions, error) {
	opts := DefaultSessionOptions()

	switch strings.ToLower(starter) {
	case "", "human":
	case "ai":
		opts.Starter = StarterAI
	default:
		return opts, errors.Wrapf(ErrInvalidOption, "starter must be 'Human' or 'AI', got %q", starter)
	}

	if humanSymbol != "" {
		player, err := game.ParsePlayer(strings.ToUpper(humanSymbol))
		if err != nil {
			return opts, errors.Wrapf(ErrInvalidOption, "humanSymbol must be 'X' or 'O', got %q", humanSymbol)
		}
		opts.HumanSymbol = player
	}
	return opts, nil
}

// ParseRawMove accepts a keypad number 1..9 or the index 0.
func ParseRawMove(raw int) (int, error) {
	if raw == 0 {
		return 0, nil
	}
	index, err := game.KeypadToIndex(raw)
	if err != nil {
		return -1, errors.Wrapf(ErrInvalidMoveValue, "got %d", raw)
	}
	return index, nil
}

// Snapshot is a session's state as seen by a client.
type Snapshot struct {
	SessionID   string
	Board       []string
	NextPlayer  game.Player
	Status      game.Status
	MoveCount   int
	HumanSymbol game.Player
	WinningLine []int // Nil while nobody has won
	HumanMoves  int   // Applied by the last call
	AIMoves     int
}

type session struct {
	mu    sync.Mutex
	state *game.GameState
}

type Stats struct {
	Entries  int
	Sessions int
	Games    metrics.RunMetric // Finished human games
}

// GameMaster runs human versus AI sessions against a shared value table.
type GameMaster struct {
	store     ranking.Store
	policy    *searcher.Policy
	collector metrics.Collector

	mu       sync.RWMutex // Guards sessions
	sessions map[uuid.UUID]*session
}

func NewGameMaster(store ranking.Store, policy *searcher.Policy) *GameMaster {
	collector := metrics.NewCollector()
	collector.Start(1)
	return &GameMaster{
		store:     store,
		policy:    policy,
		collector: collector,
		sessions:  map[uuid.UUID]*session{},
	}
}

// NewSession creates a session. When the AI starts, its opening move is already
// applied in the returned snapshot.
func (gm *GameMaster) NewSession(opts SessionOptions) (Snapshot, error) {
	state := game.NewGameState()
	state.HumanPlayer = opts.HumanSymbol
	state.NextPlayer = opts.HumanSymbol
	if opts.Starter == StarterAI {
		state.NextPlayer = opts.HumanSymbol.Opponent()
	}

	id, s := gm.create(state)
	log.Info().Msgf("created session %s with starter=%s humanSymbol=%s", id, opts.Starter, opts.HumanSymbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	aiMoves := 0
	if state.NextPlayer != state.HumanPlayer {
		move, err := gm.aiMove(state)
		if err != nil {
			return Snapshot{}, errors.Wrapf(err, "failed to apply opening move for session %s", id)
		}
		aiMoves = 1
		log.Info().Msgf("AI opened with move %d in session %s", move, id)
	}

	snapshot := snapshotOf(id, state)
	snapshot.AIMoves = aiMoves
	return snapshot, nil
}

// Turn applies the human's move and, if the game goes on, one AI reply. An
// unknown or malformed session id starts a new default session.
func (gm *GameMaster) Turn(sessionID string, rawMove int) (Snapshot, error) {
	id, s := gm.getOrCreate(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state

	index, err := ParseRawMove(rawMove)
	if err != nil {
		log.Info().Msgf("invalid move value %d in session %s, legal=%v", rawMove, id, state.LegalMoves())
		return Snapshot{}, err
	}
	if !state.IsLegal(index) || state.NextPlayer != state.HumanPlayer {
		log.Info().Msgf("illegal move %d in session %s, legal=%v", index, id, state.LegalMoves())
		return Snapshot{}, &IllegalMoveError{
			RawMove: rawMove,
			Index:   index,
			Board:   state.Board.Strings(),
			Legal:   state.LegalMoves(),
		}
	}

	if err := state.Play(index); err != nil {
		return Snapshot{}, errors.Wrapf(err, "failed to apply human move %d", index)
	}
	aiMoves := 0
	if state.Status == game.InProgress && state.NextPlayer != state.HumanPlayer {
		if _, err := gm.aiMove(state); err != nil {
			return Snapshot{}, errors.Wrapf(err, "failed to apply AI reply in session %s", id)
		}
		aiMoves = 1
	}

	if state.Status != game.InProgress {
		gm.collector.AddGame(state.Status, len(state.MoveHistory))
		log.Info().Msgf("session %s finished with %s", id, state.Status)
	}

	snapshot := snapshotOf(id, state)
	snapshot.HumanMoves = 1
	snapshot.AIMoves = aiMoves
	return snapshot, nil
}

func (gm *GameMaster) State(sessionID string) (Snapshot, error) {
	id, s, err := gm.get(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(id, s.state), nil
}

// Delete reports whether the session existed.
func (gm *GameMaster) Delete(sessionID string) bool {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return false
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	_, ok := gm.sessions[id]
	delete(gm.sessions, id)
	return ok
}

func (gm *GameMaster) Stats() Stats {
	gm.mu.RLock()
	sessions := len(gm.sessions)
	gm.mu.RUnlock()

	return Stats{
		Entries:  gm.store.Len(),
		Sessions: sessions,
		Games:    gm.collector.Complete(),
	}
}

func (gm *GameMaster) aiMove(state *game.GameState) (int, error) {
	move, err := gm.policy.SelectMove(state, gm.store)
	if err != nil {
		return -1, err
	}
	if err := state.Play(move); err != nil {
		return -1, errors.Wrapf(err, "policy chose move %d", move)
	}
	return move, nil
}

func (gm *GameMaster) create(state *game.GameState) (uuid.UUID, *session) {
	id := uuid.New()
	s := &session{state: state}

	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.sessions[id] = s
	return id, s
}

func (gm *GameMaster) get(sessionID string) (uuid.UUID, *session, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return uuid.Nil, nil, errors.Wrapf(ErrSessionNotFound, "malformed session id %q", sessionID)
	}

	gm.mu.RLock()
	defer gm.mu.RUnlock()
	s, ok := gm.sessions[id]
	if !ok {
		return uuid.Nil, nil, errors.Wrapf(ErrSessionNotFound, "session %s", id)
	}
	return id, s, nil
}

func (gm *GameMaster) getOrCreate(sessionID string) (uuid.UUID, *session) {
	if id, s, err := gm.get(sessionID); err == nil {
		return id, s
	}
	id, s := gm.create(game.NewGameState())
	log.Info().Msgf("created session %s for unknown session id %q", id, sessionID)
	return id, s
}

func snapshotOf(id uuid.UUID, state *game.GameState) Snapshot {
	var winningLine []int
	if line, ok := state.WinningLine(); ok {
		winningLine = line[:]
	}
	return Snapshot{
		SessionID:   id.String(),
		Board:       state.Board.Strings(),
		NextPlayer:  state.NextPlayer,
		Status:      state.Status,
		MoveCount:   len(state.MoveHistory),
		HumanSymbol: state.HumanPlayer,
		WinningLine: winningLine,
	}
}
