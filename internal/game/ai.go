package game

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/neo/turring_backend/internal/bot"
	"github.com/neo/turring_backend/internal/clock"
	"github.com/neo/turring_backend/internal/logging"
	"github.com/neo/turring_backend/internal/types"
)

// RunAI drives an A-vs-bot session until a guess, a timeout or a disconnect.
// Blocks until the session is over.
func RunAI(ctx context.Context, conn Conn, sess *Session, pipe *bot.Pipeline, rec Recorder) {
	defer conn.Close()
	defer sess.finish()
	if rec != nil {
		defer rec.End()
	}

	if err := conn.WriteJSON(sess.matchStart()); err != nil {
		return
	}
	sess.ResetTurnDeadline()

	go aiTicker(conn, sess)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for !sess.Ended() {
		raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var in InboundFrame
		if err := json.Unmarshal(raw, &in); err != nil {
			continue
		}

		switch in.Type {
		case frameChat:
			if sess.Turn() != types.RoleA {
				continue
			}
			text := sanitizeChat(in.Text)
			if text == "" {
				continue
			}
			sess.AppendTurn(types.RoleA, text)
			if rec != nil {
				rec.AddMessage("player", text)
			}
			sess.ObserveStyle(text)
			sess.SwapTurn()

			if sess.Ended() {
				continue
			}
			botTurn(ctx, conn, sess, pipe, rec, rng)

		case frameGuess:
			guess := strings.ToUpper(strings.TrimSpace(in.Guess))
			opp, parseErr := types.ParseOpponentType(guess)
			correct := parseErr == nil && opp == sess.Commitment().Type
			delta := sess.cfg.ScoreWrong
			if correct {
				delta = sess.cfg.ScoreCorrect
			}
			total := sess.AddScore(types.RoleA, delta)
			if rec != nil {
				rec.SetOutcome(strings.ToLower(guess), correct)
			}
			if sess.finish() {
				conn.WriteJSON(sess.endFrame("guess", "", &correct, total))
			}
			return

		case frameState:
			conn.WriteJSON(sess.state())
		}
	}
}

// botTurn produces and delivers the bot's reply with human-feeling timing.
func botTurn(ctx context.Context, conn Conn, sess *Session, pipe *bot.Pipeline, rec Recorder, rng *rand.Rand) {
	conn.WriteJSON(TypingFrame{Type: frameTyping, Who: string(types.RoleB), On: true})

	pre := sess.cfg.MinDelaySecs + rng.Float64()*(sess.cfg.MaxDelaySecs-sess.cfg.MinDelaySecs)
	if limit := sess.TimeLeftTurn() - 5.0; pre > limit {
		pre = math.Max(0, limit)
	}
	if pre > 0 {
		time.Sleep(time.Duration(pre * float64(time.Second)))
	}

	reply := pipe.Reply(ctx, sess.HistoryTail(8), sess.Persona(), sess.cfg.AppVersion, sess.Mood())

	post := math.Min(0.6, math.Max(0, sess.TimeLeftTurn()-1.5))
	if post > 0 {
		d := 0.1 + rng.Float64()*math.Max(0, post-0.1)
		time.Sleep(time.Duration(d * float64(time.Second)))
	}

	conn.WriteJSON(TypingFrame{Type: frameTyping, Who: string(types.RoleB), On: false})
	sess.AppendTurn(types.RoleB, reply)
	if rec != nil {
		rec.AddMessage("opponent", reply)
	}
	conn.WriteJSON(ChatFrame{Type: frameChat, From: string(types.RoleB), Text: reply})
	sess.SwapTurn()
}

// aiTicker emits countdown frames once per second and ends the session when
// a deadline passes. Closing the conn unblocks the read loop.
func aiTicker(conn Conn, sess *Session) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("ticker panic", map[string]interface{}{"recover": r})
		}
	}()

	ticker := clock.NewTicker()
	defer ticker.Stop()

	for range ticker.C {
		if sess.Ended() {
			return
		}
		roundLeft := sess.TimeLeftRound()
		conn.WriteJSON(sess.tick())

		if turnLeft := sess.TimeLeftTurn(); turnLeft <= 0 || roundLeft <= 0 {
			winner := sess.Turn().Other()
			if winner == types.RoleA {
				sess.AddScore(types.RoleA, sess.cfg.ScoreTimeoutWin)
			}
			if sess.finish() {
				conn.WriteJSON(sess.endFrame("timeout", string(winner), nil, sess.Score(types.RoleA)))
			}
			conn.Close()
			return
		}
	}
}
