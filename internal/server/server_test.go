package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo/turring_backend/internal/auth"
	"github.com/neo/turring_backend/internal/commit"
	"github.com/neo/turring_backend/internal/config"
	"github.com/neo/turring_backend/internal/logstore"
	"github.com/neo/turring_backend/internal/types"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)
	return &config.Config{
		Port:              0,
		AppEnv:            "test",
		AppVersion:        "2",
		H2HProb:           0,
		MatchWindowSecs:   0.05,
		RoundLimitSecs:    300,
		TurnLimitSecs:     30,
		ScoreCorrect:      100,
		ScoreWrong:        -200,
		ScoreTimeoutWin:   100,
		LLMMaxWords:       12,
		LLMTemperature:    0.7,
		HumanizeMaxTypos:  2,
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		JWTSecret:         "test-secret",
		CORSOrigins:       "http://localhost:3000",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	store, err := logstore.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := NewServer(cfg, nil, store)
	srv := httptest.NewServer(s.router)
	t.Cleanup(srv.Close)
	return s, srv
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body interface{}, out interface{}) int {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t, testConfig(t))

	var body map[string]interface{}
	code := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["env"])
	assert.Equal(t, "2", body["version"])
}

func TestPoolJoinLeave(t *testing.T) {
	_, srv := newTestServer(t, testConfig(t))

	var joined map[string]interface{}
	code := postJSON(t, srv.URL+"/pool/join", map[string]string{}, &joined)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, joined["created"])
	token := joined["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, 1.0, joined["count"])

	// rejoining with the same token is a no-op
	var again map[string]interface{}
	postJSON(t, srv.URL+"/pool/join", map[string]string{"token": token}, &again)
	assert.Equal(t, false, again["created"])
	assert.Equal(t, 1.0, again["count"])

	var count map[string]interface{}
	getJSON(t, srv.URL+"/pool/count", &count)
	assert.Equal(t, 1.0, count["count"])

	postJSON(t, srv.URL+"/pool/leave", map[string]string{"token": token}, nil)
	getJSON(t, srv.URL+"/pool/count", &count)
	assert.Equal(t, 0.0, count["count"])
}

func TestMatchRequestResolvesToAI(t *testing.T) {
	_, srv := newTestServer(t, testConfig(t))

	var req map[string]interface{}
	code := postJSON(t, srv.URL+"/match/request", map[string]string{}, &req)
	require.Equal(t, http.StatusOK, code)
	ticket := req["ticket"].(string)
	require.NotEmpty(t, ticket)
	assert.Greater(t, req["expires_at"].(float64), float64(time.Now().Unix()-1))

	var status map[string]interface{}
	getJSON(t, srv.URL+"/match/status?ticket="+ticket, &status)
	assert.Equal(t, "pending", status["status"])

	time.Sleep(80 * time.Millisecond)

	getJSON(t, srv.URL+"/match/status?ticket="+ticket, &status)
	assert.Equal(t, "ready_ai", status["status"])
	assert.Contains(t, status["ws_url"], "/ws/match?ticket="+ticket)
	assert.Len(t, status["commit_hash"], 64)
}

func TestMatchRequestLangValidation(t *testing.T) {
	_, srv := newTestServer(t, testConfig(t))

	var req map[string]interface{}
	code := postJSON(t, srv.URL+"/match/request", map[string]string{"lang": "de"}, &req)
	assert.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, req["ticket"])

	var errBody map[string]interface{}
	code = postJSON(t, srv.URL+"/match/request", map[string]string{"lang": "xx"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMatchStatusUnknownTicket(t *testing.T) {
	_, srv := newTestServer(t, testConfig(t))

	var status map[string]interface{}
	getJSON(t, srv.URL+"/match/status?ticket=nope", &status)
	assert.Equal(t, "gone", status["status"])

	var errBody map[string]interface{}
	code := getJSON(t, srv.URL+"/match/status", &errBody)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMatchCancel(t *testing.T) {
	_, srv := newTestServer(t, testConfig(t))

	var req map[string]interface{}
	postJSON(t, srv.URL+"/match/request", map[string]string{}, &req)
	ticket := req["ticket"].(string)

	code := postJSON(t, srv.URL+"/match/cancel", map[string]string{"ticket": ticket}, nil)
	assert.Equal(t, http.StatusOK, code)

	var status map[string]interface{}
	getJSON(t, srv.URL+"/match/status?ticket="+ticket, &status)
	assert.Equal(t, "canceled", status["status"])
}

func TestMatchH2HPairing(t *testing.T) {
	cfg := testConfig(t)
	cfg.H2HProb = 1
	cfg.MatchWindowSecs = 10
	_, srv := newTestServer(t, cfg)

	var req1, req2 map[string]interface{}
	postJSON(t, srv.URL+"/match/request", map[string]string{}, &req1)
	postJSON(t, srv.URL+"/match/request", map[string]string{}, &req2)

	var st1, st2 map[string]interface{}
	getJSON(t, srv.URL+"/match/status?ticket="+req1["ticket"].(string), &st1)
	getJSON(t, srv.URL+"/match/status?ticket="+req2["ticket"].(string), &st2)

	assert.Equal(t, "ready_h2h", st1["status"])
	assert.Equal(t, "ready_h2h", st2["status"])
	assert.Contains(t, st1["ws_url"], "/ws/pair?pair_id=")
	// commitments are independent per player
	assert.NotEqual(t, st1["commit_hash"], st2["commit_hash"])
}

func TestAdminLoginFlow(t *testing.T) {
	_, srv := newTestServer(t, testConfig(t))

	code := postJSON(t, srv.URL+"/admin/login", map[string]string{"username": "admin", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	var login map[string]interface{}
	code = postJSON(t, srv.URL+"/admin/login", map[string]string{"username": "admin", "password": "secret"}, &login)
	require.Equal(t, http.StatusOK, code)
	token := login["token"].(string)
	require.NotEmpty(t, token)

	// protected routes reject missing and bad tokens
	resp, err := http.Get(srv.URL + "/admin/conversations")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/admin/conversations", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// and accept the real one
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/admin/conversations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotNil(t, body["sessions"])
}

func TestAdminAnalyticsAndMissingSession(t *testing.T) {
	_, srv := newTestServer(t, testConfig(t))

	var login map[string]interface{}
	postJSON(t, srv.URL+"/admin/login", map[string]string{"username": "admin", "password": "secret"}, &login)
	token := login["token"].(string)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/admin/analytics", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var analytics map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&analytics))
	assert.Equal(t, 0.0, analytics["total_sessions"])

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/admin/conversations/nope", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	_, srv := newTestServer(t, testConfig(t))

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/pool/count", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	// unknown origins get no allow header
	req, _ = http.NewRequest(http.MethodOptions, srv.URL+"/pool/count", nil)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

// dialWS opens a client socket against the test server.
func dialWS(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

// readFrame reads frames until one of the wanted type arrives, skipping ticks
// and typing notifications.
func readFrame(t *testing.T, ws *websocket.Conn, wantType string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, ws.SetReadDeadline(deadline))
	for {
		var frame map[string]interface{}
		require.NoError(t, ws.ReadJSON(&frame), "waiting for %q frame", wantType)
		if frame["type"] == wantType {
			return frame
		}
	}
}

func TestWSMatchGuessRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	_, srv := newTestServer(t, cfg)

	var req map[string]interface{}
	postJSON(t, srv.URL+"/match/request", map[string]string{}, &req)
	ticket := req["ticket"].(string)

	time.Sleep(80 * time.Millisecond)

	var status map[string]interface{}
	getJSON(t, srv.URL+"/match/status?ticket="+ticket, &status)
	require.Equal(t, "ready_ai", status["status"])

	ws := dialWS(t, srv, status["ws_url"].(string))

	start := readFrame(t, ws, "match_start")
	assert.Equal(t, "A", start["role"])
	assert.Equal(t, "AI", start["opponent"])
	assert.Equal(t, 300.0, start["round_seconds"])
	require.NoError(t, ws.WriteJSON(map[string]string{"type": "guess", "guess": "AI"}))

	end := readFrame(t, ws, "end")
	assert.Equal(t, "guess", end["reason"])
	assert.Equal(t, true, end["correct"])
	assert.Equal(t, 100.0, end["score_delta"])

	reveal := end["reveal"].(map[string]interface{})
	ok := commit.Verify(
		start["commit_hash"].(string),
		types.OpponentType(reveal["opponent_type"].(string)),
		reveal["nonce"].(string),
		int64(reveal["commit_ts"].(float64)),
	)
	assert.True(t, ok)
}

func TestWSMatchWithResolvedTicket(t *testing.T) {
	cfg := testConfig(t)
	_, srv := newTestServer(t, cfg)

	var req map[string]interface{}
	postJSON(t, srv.URL+"/match/request", map[string]string{}, &req)
	ticket := req["ticket"].(string)

	time.Sleep(80 * time.Millisecond)

	var status map[string]interface{}
	getJSON(t, srv.URL+"/match/status?ticket="+ticket, &status)
	require.Equal(t, "ready_ai", status["status"])

	ws := dialWS(t, srv, status["ws_url"].(string))
	start := readFrame(t, ws, "match_start")
	// the socket plays against the commitment promised at matchmaking time
	assert.Equal(t, status["commit_hash"], start["commit_hash"])
}

func TestWSPairSession(t *testing.T) {
	cfg := testConfig(t)
	cfg.H2HProb = 1
	cfg.MatchWindowSecs = 10
	_, srv := newTestServer(t, cfg)

	var req1, req2 map[string]interface{}
	postJSON(t, srv.URL+"/match/request", map[string]string{}, &req1)
	postJSON(t, srv.URL+"/match/request", map[string]string{}, &req2)

	var st1, st2 map[string]interface{}
	getJSON(t, srv.URL+"/match/status?ticket="+req1["ticket"].(string), &st1)
	getJSON(t, srv.URL+"/match/status?ticket="+req2["ticket"].(string), &st2)
	require.Equal(t, "ready_h2h", st1["status"])
	require.Equal(t, "ready_h2h", st2["status"])

	ws1 := dialWS(t, srv, st1["ws_url"].(string))
	ws2 := dialWS(t, srv, st2["ws_url"].(string))

	start1 := readFrame(t, ws1, "match_start")
	start2 := readFrame(t, ws2, "match_start")
	assert.Equal(t, "HUMAN", start1["opponent"])
	assert.Equal(t, "A", start1["role"])
	assert.Equal(t, "A", start2["role"])
	// both clients verify against the same commitment
	assert.Equal(t, start1["commit_hash"], start2["commit_hash"])

	// the earlier requester holds the first turn
	require.NoError(t, ws1.WriteJSON(map[string]string{"type": "chat", "text": "hi there"}))
	self := readFrame(t, ws1, "chat")
	peer := readFrame(t, ws2, "chat")
	assert.Equal(t, "A", self["from_"])
	assert.Equal(t, "B", peer["from_"])
	assert.Equal(t, "hi there", peer["text"])

	require.NoError(t, ws2.WriteJSON(map[string]string{"type": "guess", "guess": "HUMAN"}))
	end1 := readFrame(t, ws1, "end")
	end2 := readFrame(t, ws2, "end")
	assert.Equal(t, "guess", end1["reason"])
	assert.Equal(t, true, end1["correct"])
	assert.Equal(t, 0.0, end1["score_delta"])
	assert.Equal(t, 100.0, end2["score_delta"])
}

func TestWSMatchRejectsUnknownTicket(t *testing.T) {
	_, srv := newTestServer(t, testConfig(t))

	resp, err := http.Get(srv.URL + "/ws/match?ticket=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// a still-pending ticket is rejected the same way
	var req map[string]interface{}
	postJSON(t, srv.URL+"/match/request", map[string]string{}, &req)
	resp, err = http.Get(srv.URL + "/ws/match?ticket=" + req["ticket"].(string))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWSPairRejectsUnknownPair(t *testing.T) {
	_, srv := newTestServer(t, testConfig(t))

	resp, err := http.Get(srv.URL + "/ws/pair?pair_id=nope&ticket=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWSWaitCountsTowardPool(t *testing.T) {
	s, srv := newTestServer(t, testConfig(t))

	ws := dialWS(t, srv, "/ws/wait?token=tok1")
	ack := readFrame(t, ws, "wait")
	assert.Equal(t, "tok1", ack["token"])
	assert.Equal(t, 1, s.pool.Count())

	ws.Close()
	require.Eventually(t, func() bool { return s.pool.Count() == 0 }, 2*time.Second, 20*time.Millisecond)
}
