package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"tictactoe/communication"
	"tictactoe/game"
	"tictactoe/gamemaster"
	"tictactoe/ranking"
	"tictactoe/searcher"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	store ranking.Store
	jobs  *gamemaster.JobQueue
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := ranking.NewMemory()
	policy := searcher.NewPolicy(searcher.WithEpsilon(0), searcher.WithSeed(1))
	jobs := gamemaster.NewJobQueue(store, 1)
	s := NewServer(gamemaster.NewGameMaster(store, policy), jobs, store, WithAdmin("root", "secret"))

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		jobs.Close()
	})
	return &testServer{Server: ts, store: store, jobs: jobs}
}

func (ts *testServer) do(t *testing.T, method, path, body string, admin bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if admin {
		req.SetBasicAuth("root", "secret")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestSessionRoutes(t *testing.T) {
	t.Run("creating a session with default options", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/v1/new", "", false)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		state := decode[communication.StateResponse](t, resp)
		require.NotEmpty(t, state.SessionID)
		require.Equal(t, "X", state.NextPlayer)
		require.Equal(t, "X", state.HumanSymbol)
		require.Equal(t, "InProgress", state.Status)
		require.Equal(t, []string{"E", "E", "E", "E", "E", "E", "E", "E", "E"}, state.Board)
	})

	t.Run("options from the query string", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/v1/new?starter=AI&humanSymbol=O", "", false)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		state := decode[communication.StateResponse](t, resp)
		require.Equal(t, "O", state.HumanSymbol)
		require.Equal(t, 1, state.MoveCount)
	})

	t.Run("rejecting invalid options", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/v1/new", `{"humanSymbol":"Z"}`, false)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "InvalidOption", decode[communication.ErrorResponse](t, resp).Code)
	})

	t.Run("rejecting malformed JSON", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/v1/new", `{"starter":`, false)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "InvalidJson", decode[communication.ErrorResponse](t, resp).Code)
	})

	t.Run("playing a turn and reading the state back", func(t *testing.T) {
		ts := newTestServer(t)
		created := decode[communication.StateResponse](t, ts.do(t, http.MethodPost, "/api/v1/new", "", false))

		resp := ts.do(t, http.MethodPost, "/api/v1/turn?sessionId="+created.SessionID, `{"move":5}`, false)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		turn := decode[communication.TurnResponse](t, resp)
		require.Equal(t, created.SessionID, turn.SessionID)
		require.Equal(t, communication.MovesApplied{Human: 1, AI: 1}, turn.MovesApplied)
		require.Equal(t, "X", turn.Board[4])

		state := decode[communication.StateResponse](t, ts.do(t, http.MethodGet, "/api/v1/state?sessionId="+created.SessionID, "", false))
		require.Equal(t, turn.Board, state.Board)
		require.Equal(t, 2, state.MoveCount)
	})

	t.Run("illegal moves list the legal ones", func(t *testing.T) {
		ts := newTestServer(t)
		created := decode[communication.StateResponse](t, ts.do(t, http.MethodPost, "/api/v1/new", "", false))
		ts.do(t, http.MethodPost, "/api/v1/turn?sessionId="+created.SessionID, `{"move":5}`, false)

		resp := ts.do(t, http.MethodPost, "/api/v1/turn?sessionId="+created.SessionID, `{"move":5}`, false)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		invalid := decode[communication.InvalidMoveResponse](t, resp)
		require.Equal(t, "InvalidMove", invalid.Code)
		require.Equal(t, 4, invalid.AttemptedIndex)
		require.Equal(t, 5, invalid.AttemptedKeypad)
		require.Equal(t, []int{1, 2, 3, 5, 6, 7, 8}, invalid.LegalMoves)
		require.Equal(t, []int{2, 3, 4, 6, 7, 8, 9}, invalid.LegalMovesKeypad)
	})

	t.Run("out-of-range move values", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/v1/turn", `{"move":12}`, false)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "InvalidMoveValue", decode[communication.ErrorResponse](t, resp).Code)
	})

	t.Run("state of missing sessions", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodGet, "/api/v1/state", "", false)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "MissingSessionId", decode[communication.ErrorResponse](t, resp).Code)

		resp = ts.do(t, http.MethodGet, "/api/v1/state?sessionId=8d0c3f5e-0b7e-4a57-9c1c-2f1d2a0e9b11", "", false)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "SessionNotFound", decode[communication.ErrorResponse](t, resp).Code)
	})

	t.Run("deleting a session", func(t *testing.T) {
		ts := newTestServer(t)
		created := decode[communication.StateResponse](t, ts.do(t, http.MethodPost, "/api/v1/new", "", false))

		require.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/v1/session?sessionId="+created.SessionID, "", false).StatusCode)
		require.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/api/v1/session?sessionId="+created.SessionID, "", false).StatusCode)
	})
}

func TestSelfPlayRoutes(t *testing.T) {
	t.Run("inline self-play", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/v1/selfplay", `{"n":5,"seed":42}`, false)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		summary := decode[communication.SelfPlayResponse](t, resp)
		require.Equal(t, 5, summary.Requested)
		require.Equal(t, 5, summary.Played)
		require.NotZero(t, ts.store.Len())
	})

	t.Run("inline self-play needs a body", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/v1/selfplay", "", false)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "MissingBody", decode[communication.ErrorResponse](t, resp).Code)
	})

	t.Run("background job lifecycle", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodPost, "/api/v1/selfplay/start", `{"n":10,"seed":1}`, false)

		require.Equal(t, http.StatusAccepted, resp.StatusCode)
		started := decode[communication.JobStarted](t, resp)
		require.Equal(t, "/api/v1/selfplay/status?id="+started.JobID, resp.Header.Get("Location"))

		require.Eventually(t, func() bool {
			job := decode[communication.JobResponse](t, ts.do(t, http.MethodGet, "/api/v1/selfplay/status?id="+started.JobID, "", false))
			return job.Status == "Completed" && job.Played == 10
		}, 10*time.Second, 10*time.Millisecond)

		jobs := decode[[]communication.JobResponse](t, ts.do(t, http.MethodGet, "/api/v1/selfplay/jobs", "", false))
		require.Len(t, jobs, 1)
		require.Equal(t, 10, jobs[0].WinsX+jobs[0].WinsO+jobs[0].Draws)
	})

	t.Run("cancelling a job", func(t *testing.T) {
		ts := newTestServer(t)
		started := decode[communication.JobStarted](t, ts.do(t, http.MethodPost, "/api/v1/selfplay/start", `{"n":100000}`, false))

		resp := ts.do(t, http.MethodPost, "/api/v1/selfplay/cancel?id="+started.JobID, "", false)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Eventually(t, func() bool {
			job := decode[communication.JobResponse](t, ts.do(t, http.MethodGet, "/api/v1/selfplay/status?id="+started.JobID, "", false))
			return job.Status == "Cancelled"
		}, 10*time.Second, 10*time.Millisecond)
	})

	t.Run("job ids are validated", func(t *testing.T) {
		ts := newTestServer(t)

		resp := ts.do(t, http.MethodGet, "/api/v1/selfplay/status?id=abc", "", false)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "MissingId", decode[communication.ErrorResponse](t, resp).Code)

		resp = ts.do(t, http.MethodGet, "/api/v1/selfplay/status?id=8d0c3f5e-0b7e-4a57-9c1c-2f1d2a0e9b11", "", false)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "JobNotFound", decode[communication.ErrorResponse](t, resp).Code)
	})

	t.Run("watching a job until it is done", func(t *testing.T) {
		ts := newTestServer(t)
		started := decode[communication.JobStarted](t, ts.do(t, http.MethodPost, "/api/v1/selfplay/start", `{"n":50,"seed":3}`, false))

		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/selfplay/watch?id=" + started.JobID
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		defer conn.Close()

		var last communication.JobResponse
		for {
			var msg communication.JobResponse
			if err := conn.ReadJSON(&msg); err != nil {
				require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
				break
			}
			require.GreaterOrEqual(t, msg.Played, last.Played, "Should report monotonic progress")
			last = msg
		}
		require.Equal(t, "Completed", last.Status)
		require.Equal(t, 50, last.Played)
	})
}

func TestAdminRoutes(t *testing.T) {
	t.Run("requiring credentials", func(t *testing.T) {
		ts := newTestServer(t)

		require.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/admin/stats", "", false).StatusCode)
		require.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/admin/rankings/reset", "", false).StatusCode)
	})

	t.Run("import then export then reset", func(t *testing.T) {
		ts := newTestServer(t)
		doc := `[{"state":"EEEEEEEEE","moveIndex":4,"q":0.5},{"state":"EEEEXEEEE","moveIndex":0,"q":9}]`

		resp := ts.do(t, http.MethodPost, "/admin/rankings/import", doc, true)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, 2, ts.store.Len())

		exported := decode[[]ranking.Entry](t, ts.do(t, http.MethodGet, "/admin/rankings/export", "", true))
		require.ElementsMatch(t, []ranking.Entry{
			{State: game.EmptyKey, MoveIndex: 4, Q: 0.5},
			{State: "EEEEXEEEE", MoveIndex: 0, Q: 5},
		}, exported)

		stats := decode[communication.StatsResponse](t, ts.do(t, http.MethodGet, "/admin/stats", "", true))
		require.Equal(t, 2, stats.Entries)

		require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/admin/rankings/reset", "", true).StatusCode)
		require.Zero(t, ts.store.Len())
	})

	t.Run("a malformed import keeps the table", func(t *testing.T) {
		ts := newTestServer(t)
		ts.store.Set(game.EmptyKey, 0, 1)

		resp := ts.do(t, http.MethodPost, "/admin/rankings/import", `[{"state":"bad","moveIndex":0,"q":1}]`, true)

		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "InvalidDocument", decode[communication.ErrorResponse](t, resp).Code)
		require.Equal(t, 1, ts.store.Len())
	})
}
