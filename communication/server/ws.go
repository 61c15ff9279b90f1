package server

import (
	"net/http"
	"tictactoe/communication"
	"tictactoe/meta"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// handleWatchJob streams the job's progress until it is done, then closes.
func (s *Server) handleWatchJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	done, err := s.jobs.Done(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "JobNotFound", "Job not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return // Upgrade already replied
	}
	defer conn.Close()

	// Reads only detect a closed peer
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(meta.JOB_POLL_INTERVAL)
	defer ticker.Stop()
	lastPlayed := -1
	for {
		job, err := s.jobs.Get(id)
		if err != nil {
			return
		}
		if job.Played != lastPlayed || job.Status.Done() {
			lastPlayed = job.Played
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(communication.NewJobResponse(job)); err != nil {
				log.Debug().Err(err).Msgf("stopped watching job %s", id)
				return
			}
		}
		if job.Status.Done() {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, job.Status.String()),
				time.Now().Add(wsWriteTimeout))
			return
		}

		select {
		case <-ticker.C:
		case <-done:
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
