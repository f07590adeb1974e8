package game

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/neo/turring_backend/internal/clock"
	"github.com/neo/turring_backend/internal/logging"
	"github.com/neo/turring_backend/internal/types"
)

// taggedFrame is one inbound frame with the side it came from.
type taggedFrame struct {
	tag types.Role
	in  InboundFrame
}

// RunH2H drives a human-vs-human session. connA belongs to the pair's first
// ticket, connB to the second; both clients are told they play role A and see
// the peer as B. fallbackAI is invoked with the surviving connection when one
// side is already gone at kickoff. Blocks until the session is over.
func RunH2H(ctx context.Context, connA, connB Conn, sess *Session, fallbackAI func(Conn)) {
	okA := connA.WriteJSON(sess.matchStart()) == nil
	okB := connB.WriteJSON(sess.matchStart()) == nil

	if !okA || !okB {
		sess.finish()
		var alive, dead Conn
		switch {
		case okA:
			alive, dead = connA, connB
		case okB:
			alive, dead = connB, connA
		}
		if dead != nil {
			dead.Close()
		}
		if alive != nil && fallbackAI != nil {
			logging.LogSessionEvent("h2h_fallback_ai", "", nil)
			fallbackAI(alive)
		} else if alive != nil {
			alive.Close()
		}
		return
	}

	defer connA.Close()
	defer connB.Close()
	defer sess.finish()

	sess.ResetTurnDeadline()

	done := make(chan struct{})
	defer close(done)

	mailbox := make(chan taggedFrame, 16)
	dropped := make(chan types.Role, 2)

	reader := func(tag types.Role, conn Conn) {
		for !sess.Ended() {
			raw, err := conn.ReadMessage()
			if err != nil {
				select {
				case dropped <- tag:
				case <-done:
				}
				return
			}
			var in InboundFrame
			if err := json.Unmarshal(raw, &in); err != nil {
				continue
			}
			select {
			case mailbox <- taggedFrame{tag: tag, in: in}:
			case <-done:
				return
			}
		}
	}
	go reader(types.RoleA, connA)
	go reader(types.RoleB, connB)

	go h2hTicker(connA, connB, sess)

	for !sess.Ended() {
		select {
		case <-ctx.Done():
			return

		case who := <-dropped:
			winner := who.Other()
			sess.AddScore(winner, sess.cfg.ScoreTimeoutWin)
			if sess.finish() {
				connA.WriteJSON(sess.endFrame("disconnect", string(winner), nil, sess.Score(types.RoleA)))
				connB.WriteJSON(sess.endFrame("disconnect", string(winner), nil, sess.Score(types.RoleB)))
			}
			return

		case msg := <-mailbox:
			switch msg.in.Type {
			case frameChat:
				if msg.tag != sess.Turn() {
					continue
				}
				text := sanitizeChat(msg.in.Text)
				if text == "" {
					continue
				}
				sess.AppendTurn(msg.tag, text)

				self, other := connA, connB
				if msg.tag == types.RoleB {
					self, other = connB, connA
				}
				other.WriteJSON(ChatFrame{Type: frameChat, From: string(types.RoleB), Text: text})
				self.WriteJSON(ChatFrame{Type: frameChat, From: string(types.RoleA), Text: text})
				sess.SwapTurn()

			case frameGuess:
				guess := strings.ToUpper(strings.TrimSpace(msg.in.Guess))
				opp, parseErr := types.ParseOpponentType(guess)
				correct := parseErr == nil && opp == sess.Commitment().Type
				delta := sess.cfg.ScoreWrong
				if correct {
					delta = sess.cfg.ScoreCorrect
				}
				sess.AddScore(msg.tag, delta)
				if sess.finish() {
					connA.WriteJSON(sess.endFrame("guess", "", &correct, sess.Score(types.RoleA)))
					connB.WriteJSON(sess.endFrame("guess", "", &correct, sess.Score(types.RoleB)))
				}
				return

			case frameState:
				conn := connA
				if msg.tag == types.RoleB {
					conn = connB
				}
				conn.WriteJSON(sess.state())
			}
		}
	}
}

// h2hTicker mirrors the countdown to both clients and ends the session when
// a deadline passes, crediting the side that was still waiting.
func h2hTicker(connA, connB Conn, sess *Session) {
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
		frame := sess.tick()
		connA.WriteJSON(frame)
		connB.WriteJSON(frame)

		if turnLeft := sess.TimeLeftTurn(); turnLeft <= 0 || roundLeft <= 0 {
			winner := sess.Turn().Other()
			sess.AddScore(winner, sess.cfg.ScoreTimeoutWin)
			if sess.finish() {
				connA.WriteJSON(sess.endFrame("timeout", string(winner), nil, sess.Score(types.RoleA)))
				connB.WriteJSON(sess.endFrame("timeout", string(winner), nil, sess.Score(types.RoleB)))
			}
			connA.Close()
			connB.Close()
			return
		}
	}
}
