package game

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/neo/turring_backend/internal/commit"
	"github.com/neo/turring_backend/internal/types"
)

func startH2HGame(t *testing.T, cfg Config) (*pipeConn, *pipeConn, *Session, chan struct{}) {
	t.Helper()
	connA := newPipeConn()
	connB := newPipeConn()
	sess := NewSession(cfg, commit.New(types.OpponentHuman), types.LangEnglish)

	finished := make(chan struct{})
	go func() {
		RunH2H(context.Background(), connA, connB, sess, nil)
		close(finished)
	}()
	return connA, connB, sess, finished
}

func TestRunH2HBothGetMatchStart(t *testing.T) {
	connA, connB, sess, _ := startH2HGame(t, testConfig())
	defer connA.Close()
	defer connB.Close()

	for _, conn := range []*pipeConn{connA, connB} {
		frame := conn.nextFrame(t, "match_start", time.Second)
		assert.Equal(t, "A", frame["role"])
		assert.Equal(t, "HUMAN", frame["opponent"])
		assert.Equal(t, sess.Commitment().Hash, frame["commit_hash"])
	}
}

func TestRunH2HChatRouting(t *testing.T) {
	connA, connB, _, _ := startH2HGame(t, testConfig())
	defer connA.Close()
	defer connB.Close()
	connA.nextFrame(t, "match_start", time.Second)
	connB.nextFrame(t, "match_start", time.Second)

	connA.send(t, map[string]string{"type": "chat", "text": "hello there"})

	// the speaker sees itself as A, the peer sees the speaker as B
	selfEcho := connA.nextFrame(t, "chat", 2*time.Second)
	assert.Equal(t, "A", selfEcho["from_"])
	assert.Equal(t, "hello there", selfEcho["text"])

	peerCopy := connB.nextFrame(t, "chat", 2*time.Second)
	assert.Equal(t, "B", peerCopy["from_"])
	assert.Equal(t, "hello there", peerCopy["text"])

	// now it's the second client's turn
	connB.send(t, map[string]string{"type": "chat", "text": "hey back"})
	reply := connA.nextFrame(t, "chat", 2*time.Second)
	assert.Equal(t, "B", reply["from_"])
	assert.Equal(t, "hey back", reply["text"])
}

func TestRunH2HChatOutOfTurnIgnored(t *testing.T) {
	connA, connB, sess, _ := startH2HGame(t, testConfig())
	defer connA.Close()
	defer connB.Close()
	connA.nextFrame(t, "match_start", time.Second)
	connB.nextFrame(t, "match_start", time.Second)

	// second client speaks while the first has the turn
	connB.send(t, map[string]string{"type": "chat", "text": "me first"})
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, types.RoleA, sess.Turn())
	assert.Empty(t, sess.HistoryTail(10))
}

func TestRunH2HGuessScoresGuesserOnly(t *testing.T) {
	connA, connB, _, finished := startH2HGame(t, testConfig())
	connA.nextFrame(t, "match_start", time.Second)
	connB.nextFrame(t, "match_start", time.Second)

	connB.send(t, map[string]string{"type": "guess", "guess": "human"})

	endA := connA.nextFrame(t, "end", 2*time.Second)
	endB := connB.nextFrame(t, "end", 2*time.Second)

	assert.Equal(t, "guess", endA["reason"])
	assert.Equal(t, true, endA["correct"])
	assert.Equal(t, float64(0), endA["score_delta"])
	assert.Equal(t, float64(100), endB["score_delta"])

	reveal := endB["reveal"].(map[string]interface{})
	assert.Equal(t, "HUMAN", reveal["opponent_type"])

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not exit after guess")
	}
}

func TestRunH2HWrongGuessPenalizesGuesser(t *testing.T) {
	connA, connB, _, _ := startH2HGame(t, testConfig())
	connA.nextFrame(t, "match_start", time.Second)
	connB.nextFrame(t, "match_start", time.Second)

	connA.send(t, map[string]string{"type": "guess", "guess": "AI"})

	endA := connA.nextFrame(t, "end", 2*time.Second)
	assert.Equal(t, false, endA["correct"])
	assert.Equal(t, float64(-200), endA["score_delta"])

	endB := connB.nextFrame(t, "end", 2*time.Second)
	assert.Equal(t, float64(0), endB["score_delta"])
}

func TestRunH2HDisconnectAwardsSurvivor(t *testing.T) {
	connA, connB, _, finished := startH2HGame(t, testConfig())
	connA.nextFrame(t, "match_start", time.Second)
	connB.nextFrame(t, "match_start", time.Second)

	connB.Close()

	end := connA.nextFrame(t, "end", 2*time.Second)
	assert.Equal(t, "disconnect", end["reason"])
	assert.Equal(t, "A", end["winner"])
	assert.Equal(t, float64(100), end["score_delta"])

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("driver did not exit after disconnect")
	}
}

func TestRunH2HTurnTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.TurnSeconds = 1
	connA, connB, _, _ := startH2HGame(t, cfg)
	connA.nextFrame(t, "match_start", time.Second)
	connB.nextFrame(t, "match_start", time.Second)

	endA := connA.nextFrame(t, "end", 4*time.Second)
	assert.Equal(t, "timeout", endA["reason"])
	assert.Equal(t, "B", endA["winner"])
	assert.Equal(t, float64(0), endA["score_delta"])

	endB := connB.nextFrame(t, "end", 4*time.Second)
	assert.Equal(t, float64(100), endB["score_delta"])
}

func TestRunH2HFallbackWhenPeerDeadAtKickoff(t *testing.T) {
	connA := newPipeConn()
	connB := newPipeConn()
	connB.Close()

	sess := NewSession(testConfig(), commit.New(types.OpponentHuman), types.LangEnglish)

	var fallbackCalls int32
	fallback := func(conn Conn) {
		atomic.AddInt32(&fallbackCalls, 1)
		assert.Same(t, connA, conn)
	}

	RunH2H(context.Background(), connA, connB, sess, fallback)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fallbackCalls))
}
