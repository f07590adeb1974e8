package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo/turring_backend/internal/bot"
	"github.com/neo/turring_backend/internal/commit"
	"github.com/neo/turring_backend/internal/types"
)

func testConfig() Config {
	return Config{
		RoundSeconds:    300,
		TurnSeconds:     30,
		ScoreCorrect:    100,
		ScoreWrong:      -200,
		ScoreTimeoutWin: 100,
		MinDelaySecs:    0,
		MaxDelaySecs:    0,
		AppVersion:      "2",
	}
}

// stubRecorder captures transcript calls.
type stubRecorder struct {
	mu       sync.Mutex
	messages [][2]string
	guess    string
	correct  bool
	ended    bool
}

func (r *stubRecorder) AddMessage(sender, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, [2]string{sender, text})
}

func (r *stubRecorder) SetOutcome(guess string, correct bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guess = guess
	r.correct = correct
}

func (r *stubRecorder) End() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = true
}

func startAIGame(t *testing.T, cfg Config) (*pipeConn, *Session, *stubRecorder, chan struct{}) {
	t.Helper()
	conn := newPipeConn()
	sess := NewSession(cfg, commit.New(types.OpponentAI), types.LangEnglish)
	rec := &stubRecorder{}
	pipe := bot.NewPipeline(nil, bot.Config{}) // local bot only

	finished := make(chan struct{})
	go func() {
		RunAI(context.Background(), conn, sess, pipe, rec)
		close(finished)
	}()
	return conn, sess, rec, finished
}

func TestRunAIMatchStart(t *testing.T) {
	conn, sess, _, _ := startAIGame(t, testConfig())
	defer conn.Close()

	frame := conn.nextFrame(t, "match_start", time.Second)
	assert.Equal(t, "A", frame["role"])
	assert.Equal(t, "AI", frame["opponent"])
	assert.Equal(t, sess.Commitment().Hash, frame["commit_hash"])
	assert.Equal(t, float64(300), frame["round_seconds"])
	assert.Equal(t, float64(30), frame["turn_seconds"])
	assert.Equal(t, sess.Persona().Name, frame["persona"])
	assert.Equal(t, "2", frame["version"])
}

func TestRunAIChatRoundTrip(t *testing.T) {
	conn, sess, rec, _ := startAIGame(t, testConfig())
	defer conn.Close()
	conn.nextFrame(t, "match_start", time.Second)

	conn.send(t, map[string]string{"type": "chat", "text": "where are you from"})

	typing := conn.nextFrame(t, "typing", 2*time.Second)
	assert.Equal(t, "B", typing["who"])

	chat := conn.nextFrame(t, "chat", 3*time.Second)
	assert.Equal(t, "B", chat["from_"])
	assert.NotEmpty(t, chat["text"])

	// turn handed back to the player
	assert.Equal(t, types.RoleA, sess.Turn())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.messages, 2)
	assert.Equal(t, "player", rec.messages[0][0])
	assert.Equal(t, "opponent", rec.messages[1][0])
}

func TestRunAIVersionTriggerAnsweredVerbatim(t *testing.T) {
	conn, _, _, _ := startAIGame(t, testConfig())
	defer conn.Close()
	conn.nextFrame(t, "match_start", time.Second)

	conn.send(t, map[string]string{"type": "chat", "text": "what version are you?"})
	chat := conn.nextFrame(t, "chat", 3*time.Second)
	assert.Equal(t, "2", chat["text"])
}

func TestRunAIGuessCorrect(t *testing.T) {
	conn, sess, rec, finished := startAIGame(t, testConfig())
	conn.nextFrame(t, "match_start", time.Second)

	conn.send(t, map[string]string{"type": "guess", "guess": "ai"})

	end := conn.nextFrame(t, "end", 2*time.Second)
	assert.Equal(t, "guess", end["reason"])
	assert.Equal(t, true, end["correct"])
	assert.Equal(t, float64(100), end["score_delta"])

	reveal := end["reveal"].(map[string]interface{})
	assert.Equal(t, "AI", reveal["opponent_type"])
	c := sess.Commitment()
	assert.Equal(t, c.Nonce, reveal["nonce"])
	assert.True(t, commit.Verify(c.Hash, types.OpponentAI, reveal["nonce"].(string), int64(reveal["commit_ts"].(float64))))

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not exit after guess")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, "ai", rec.guess)
	assert.True(t, rec.correct)
	assert.True(t, rec.ended)
}

func TestRunAIGuessWrong(t *testing.T) {
	conn, _, _, _ := startAIGame(t, testConfig())
	conn.nextFrame(t, "match_start", time.Second)

	conn.send(t, map[string]string{"type": "guess", "guess": "HUMAN"})

	end := conn.nextFrame(t, "end", 2*time.Second)
	assert.Equal(t, false, end["correct"])
	assert.Equal(t, float64(-200), end["score_delta"])
}

func TestRunAIGuessUnrecognizedCountsAsWrong(t *testing.T) {
	conn, _, _, _ := startAIGame(t, testConfig())
	conn.nextFrame(t, "match_start", time.Second)

	conn.send(t, map[string]string{"type": "guess", "guess": "robot"})

	end := conn.nextFrame(t, "end", 2*time.Second)
	assert.Equal(t, false, end["correct"])
	assert.Equal(t, float64(-200), end["score_delta"])
}

func TestRunAITurnTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.TurnSeconds = 1
	conn, _, _, _ := startAIGame(t, cfg)
	conn.nextFrame(t, "match_start", time.Second)

	end := conn.nextFrame(t, "end", 4*time.Second)
	assert.Equal(t, "timeout", end["reason"])
	assert.Equal(t, "B", end["winner"]) // A sat on its turn
	assert.Equal(t, float64(0), end["score_delta"])
}

func TestRunAIStateSnapshot(t *testing.T) {
	conn, _, _, _ := startAIGame(t, testConfig())
	defer conn.Close()
	conn.nextFrame(t, "match_start", time.Second)

	conn.send(t, map[string]string{"type": "state"})
	state := conn.nextFrame(t, "state", 2*time.Second)
	assert.Equal(t, "AI", state["opponent"])
	assert.Equal(t, "A", state["turn"])
	assert.Greater(t, state["round_left"].(float64), 0.0)
}

func TestRunAIDisconnectStopsDriver(t *testing.T) {
	conn, _, rec, finished := startAIGame(t, testConfig())
	conn.nextFrame(t, "match_start", time.Second)

	conn.Close()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not exit after disconnect")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.True(t, rec.ended)
}

func TestSessionPersonaDeterministic(t *testing.T) {
	c := commit.New(types.OpponentAI)
	a := NewSession(testConfig(), c, types.LangEnglish)
	b := NewSession(testConfig(), c, types.LangEnglish)
	assert.Equal(t, a.Persona(), b.Persona())
}
