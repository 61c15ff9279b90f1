package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"tictactoe/communication"
	"tictactoe/experiments"
	"tictactoe/gamemaster"
	"tictactoe/ranking"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	maxBodyBytes     = 1 << 20
	maxDocumentBytes = 32 << 20
)

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidBody", err.Error())
		return
	}

	// Options come from the body, or from the query string when there is none
	var opts communication.TurnOptions
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &opts); err != nil {
			writeError(w, http.StatusBadRequest, "InvalidJson", err.Error())
			return
		}
	} else {
		opts.Starter = r.URL.Query().Get("starter")
		opts.HumanSymbol = r.URL.Query().Get("humanSymbol")
	}

	sessionOptions, err := gamemaster.ParseSessionOptions(opts.Starter, opts.HumanSymbol)
	if err != nil {
		log.Warn().Err(err).Msg("invalid session options")
		writeError(w, http.StatusBadRequest, "InvalidOption", err.Error())
		return
	}

	snapshot, err := s.gm.NewSession(sessionOptions)
	if err != nil {
		log.Error().Err(err).Msg("failed to create session")
		writeError(w, http.StatusInternalServerError, "Internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, communication.NewStateResponse(snapshot))
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req communication.TurnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidJson", err.Error())
		return
	}

	snapshot, err := s.gm.Turn(r.URL.Query().Get("sessionId"), req.Move)
	var illegal *gamemaster.IllegalMoveError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, communication.NewTurnResponse(snapshot))
	case errors.Is(err, gamemaster.ErrInvalidMoveValue):
		writeError(w, http.StatusBadRequest, "InvalidMoveValue", err.Error())
	case errors.As(err, &illegal):
		writeJSON(w, http.StatusBadRequest, communication.NewInvalidMoveResponse(illegal))
	default:
		log.Error().Err(err).Msg("failed to play turn")
		writeError(w, http.StatusInternalServerError, "Internal", err.Error())
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("sessionId")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "MissingSessionId", "sessionId query parameter is required and must be a GUID")
		return
	}

	snapshot, err := s.gm.State(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "SessionNotFound", "Session not found")
		return
	}
	writeJSON(w, http.StatusOK, communication.NewStateResponse(snapshot))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.gm.Delete(r.URL.Query().Get("sessionId")) {
		writeError(w, http.StatusNotFound, "SessionNotFound", "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelfPlay(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSelfPlayRequest(w, r)
	if !ok {
		return
	}

	options := []experiments.Option{experiments.WithWorkers(s.workers)}
	if req.Seed != nil {
		options = append(options, experiments.WithSeed(*req.Seed))
	}
	summary, err := experiments.RunSelfPlay(r.Context(), s.store, req.N, options...)
	if err != nil {
		log.Error().Err(err).Msg("inline self-play failed")
		writeError(w, http.StatusInternalServerError, "SelfPlayFailed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, communication.SelfPlayResponse(summary))
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSelfPlayRequest(w, r)
	if !ok {
		return
	}

	job := s.jobs.Start(req.N, req.Seed)
	w.Header().Set("Location", "/api/v1/selfplay/status?id="+job.ID)
	writeJSON(w, http.StatusAccepted, communication.JobStarted{JobID: job.ID, Status: job.Status.String()})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	job, err := s.jobs.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "JobNotFound", "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, communication.NewJobResponse(job))
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	job, err := s.jobs.Cancel(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "JobNotFound", "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, communication.NewJobResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobs.List()
	resp := make([]communication.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, communication.NewJobResponse(job))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.store.Reset()
	log.Info().Msg("value table reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := ranking.EncodeDocument(w, s.store.Export()); err != nil {
		log.Error().Err(err).Msg("failed to export value table")
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	entries, err := ranking.DecodeDocument(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err == nil {
		err = s.store.ImportReplace(entries)
	}
	if err != nil {
		log.Warn().Err(err).Msg("rejected value table import")
		writeError(w, http.StatusBadRequest, "InvalidDocument", err.Error())
		return
	}
	log.Info().Msgf("imported %d value table entries", len(entries))
	writeJSON(w, http.StatusOK, map[string]any{"status": "imported", "entries": len(entries)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, communication.NewStatsResponse(s.gm.Stats(), len(s.jobs.List())))
}

func decodeSelfPlayRequest(w http.ResponseWriter, r *http.Request) (communication.SelfPlayRequest, bool) {
	var req communication.SelfPlayRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidBody", err.Error())
		return req, false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, "MissingBody", "Request body is required")
		return req, false
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidJson", err.Error())
		return req, false
	}
	return req, true
}

func jobID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "MissingId", "id query parameter is required and must be a GUID")
		return "", false
	}
	return id, true
}
