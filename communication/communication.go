// Package communication holds the JSON shapes exchanged with HTTP clients.
package communication

import (
	"tictactoe/experiments"
	"tictactoe/gamemaster"
	"time"
)

type TurnOptions struct {
	Mode        string `json:"mode,omitempty"`
	Starter     string `json:"starter,omitempty"`
	HumanSymbol string `json:"humanSymbol,omitempty"`
}

type TurnRequest struct {
	Move    int          `json:"move"`
	Options *TurnOptions `json:"options,omitempty"`
}

type MovesApplied struct {
	Human int `json:"human"`
	AI    int `json:"ai"`
}

type TurnResponse struct {
	SessionID    string       `json:"sessionId"`
	Board        []string     `json:"board"`
	NextPlayer   string       `json:"nextPlayer"`
	Status       string       `json:"status"`
	MoveCount    int          `json:"moveCount"`
	MovesApplied MovesApplied `json:"movesApplied"`
	WinningLine  []int        `json:"winningLine"`
}

type StateResponse struct {
	SessionID   string   `json:"sessionId"`
	Board       []string `json:"board"`
	NextPlayer  string   `json:"nextPlayer"`
	Status      string   `json:"status"`
	MoveCount   int      `json:"moveCount"`
	HumanSymbol string   `json:"humanSymbol"`
	WinningLine []int    `json:"winningLine"`
}

type SelfPlayRequest struct {
	N    int     `json:"n"`
	Seed *uint64 `json:"seed,omitempty"`
}

type JobResponse struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	Requested   int        `json:"requested"`
	Played      int        `json:"played"`
	WinsX       int        `json:"winsX"`
	WinsO       int        `json:"winsO"`
	Draws       int        `json:"draws"`
	AvgMoves    float64    `json:"avgMoves"`
	ElapsedMs   int64      `json:"elapsedMs"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type JobStarted struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InvalidMoveResponse lists the legal moves both as indices and keypad numbers.
type InvalidMoveResponse struct {
	ErrorResponse
	RawMove          int      `json:"rawMove"`
	AttemptedIndex   int      `json:"attemptedIndex"`
	AttemptedKeypad  int      `json:"attemptedKeypad"`
	Board            []string `json:"board"`
	LegalMoves       []int    `json:"legalMoves"`
	LegalMovesKeypad []int    `json:"legalMovesKeypad"`
}

type StatsResponse struct {
	Entries       int `json:"entries"`
	Sessions      int `json:"sessions"`
	GamesFinished int `json:"gamesFinished"`
	WinsX         int `json:"winsX"`
	WinsO         int `json:"winsO"`
	Draws         int `json:"draws"`
	Jobs          int `json:"jobs"`
}

func NewStateResponse(s gamemaster.Snapshot) StateResponse {
	return StateResponse{
		SessionID:   s.SessionID,
		Board:       s.Board,
		NextPlayer:  s.NextPlayer.String(),
		Status:      s.Status.String(),
		MoveCount:   s.MoveCount,
		HumanSymbol: s.HumanSymbol.String(),
		WinningLine: s.WinningLine,
	}
}

func NewTurnResponse(s gamemaster.Snapshot) TurnResponse {
	return TurnResponse{
		SessionID:    s.SessionID,
		Board:        s.Board,
		NextPlayer:   s.NextPlayer.String(),
		Status:       s.Status.String(),
		MoveCount:    s.MoveCount,
		MovesApplied: MovesApplied{Human: s.HumanMoves, AI: s.AIMoves},
		WinningLine:  s.WinningLine,
	}
}

func NewInvalidMoveResponse(e *gamemaster.IllegalMoveError) InvalidMoveResponse {
	keypad := make([]int, len(e.Legal))
	for i, index := range e.Legal {
		keypad[i] = index + 1
	}
	return InvalidMoveResponse{
		ErrorResponse:    ErrorResponse{Code: "InvalidMove", Message: e.Error()},
		RawMove:          e.RawMove,
		AttemptedIndex:   e.Index,
		AttemptedKeypad:  e.Index + 1,
		Board:            e.Board,
		LegalMoves:       e.Legal,
		LegalMovesKeypad: keypad,
	}
}

func NewJobResponse(j gamemaster.Job) JobResponse {
	resp := JobResponse{
		ID:        j.ID,
		Status:    j.Status.String(),
		Requested: j.Requested,
		Played:    j.Played,
		WinsX:     j.Summary.WinsX,
		WinsO:     j.Summary.WinsO,
		Draws:     j.Summary.Draws,
		AvgMoves:  j.Summary.AvgMoves,
		ElapsedMs: j.Summary.ElapsedMs,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
	}
	if !j.CompletedAt.IsZero() {
		completedAt := j.CompletedAt
		resp.CompletedAt = &completedAt
	}
	return resp
}

func NewStatsResponse(stats gamemaster.Stats, jobs int) StatsResponse {
	return StatsResponse{
		Entries:       stats.Entries,
		Sessions:      stats.Sessions,
		GamesFinished: stats.Games.Games,
		WinsX:         stats.Games.WinsX,
		WinsO:         stats.Games.WinsO,
		Draws:         stats.Games.Draws,
		Jobs:          jobs,
	}
}

// SelfPlayResponse is the inline self-play result.
type SelfPlayResponse = experiments.Summary
