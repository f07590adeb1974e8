package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neo/turring_backend/internal/commit"
	"github.com/neo/turring_backend/internal/game"
	"github.com/neo/turring_backend/internal/logging"
	"github.com/neo/turring_backend/internal/match"
	"github.com/neo/turring_backend/internal/types"
)

// handleWSMatch runs an AI session on the socket against the commitment the
// ticket resolved to. Tickets that are unknown or not READY_AI are rejected
// before the upgrade.
func (s *Server) handleWSMatch(c *gin.Context) {
	ticketID := c.Query("ticket")

	t, ok := s.match.TakeReadyAI(ticketID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown or unresolved ticket"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	logging.LogWebSocketEvent("match_connect", ticketID, nil)
	s.runAI(c.Request.Context(), newWSConn(ws), *t.Commitment, t.Lang)
}

// handleWSPair binds one side of a matched human pair. The first socket is
// parked; the second one takes both and drives the session. Either side
// failing the liveness preflight degrades the survivor to an AI match.
func (s *Server) handleWSPair(c *gin.Context) {
	pairID := c.Query("pair_id")
	ticketID := c.Query("ticket")

	slot, ok := s.match.Pair(pairID)
	if !ok || (slot.TicketA != ticketID && slot.TicketB != ticketID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown pair"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	conn := newWSConn(ws)

	s.pairMu.Lock()
	conns := s.pairConns[pairID]
	if conns == nil {
		conns = make(map[string]*wsConn)
		s.pairConns[pairID] = conns
	}
	conns[ticketID] = conn
	connA, connB := conns[slot.TicketA], conns[slot.TicketB]
	ready := connA != nil && connB != nil
	if ready {
		delete(s.pairConns, pairID)
	}
	s.pairMu.Unlock()

	if !ready {
		// Parked. The socket stays open after this handler returns; the
		// peer's handler will pick it up, or the bind deadline reclaims it.
		go s.reapUnboundPair(slot, ticketID, conn)
		return
	}

	tktA, _ := s.match.Ticket(slot.TicketA)
	tktB, _ := s.match.Ticket(slot.TicketB)
	s.match.RemovePair(pairID)

	aliveA, aliveB := connA.alive(), connB.alive()
	if !aliveA || !aliveB {
		logging.LogWebSocketEvent("pair_preflight_failed", ticketID, map[string]interface{}{"pair_id": pairID})
		if aliveA {
			connB.Close()
			s.runAI(c.Request.Context(), connA, commit.New(types.OpponentAI), tktA.Lang)
		} else if aliveB {
			connA.Close()
			s.runAI(c.Request.Context(), connB, commit.New(types.OpponentAI), tktB.Lang)
		} else {
			connA.Close()
			connB.Close()
		}
		return
	}

	// Both clients verify against the same commitment; the pair's first
	// ticket supplies it.
	commitment := commit.New(types.OpponentHuman)
	if tktA.Commitment != nil {
		commitment = *tktA.Commitment
	}

	logging.LogWebSocketEvent("pair_start", ticketID, map[string]interface{}{"pair_id": pairID})
	sess := game.NewSession(s.gameCfg, commitment, tktA.Lang)
	game.RunH2H(c.Request.Context(), connA, connB, sess, func(alive game.Conn) {
		s.runAI(context.Background(), alive, commit.New(types.OpponentAI), tktA.Lang)
	})
}

// reapUnboundPair waits out the bind deadline for a parked socket. If the
// peer never showed up, the waiting player is promoted to an AI match on the
// connection they already have.
func (s *Server) reapUnboundPair(slot match.PairSlot, ticketID string, conn *wsConn) {
	if wait := time.Until(slot.BindDeadline); wait > 0 {
		time.Sleep(wait)
	}

	s.pairMu.Lock()
	conns, present := s.pairConns[slot.PairID]
	if present {
		delete(s.pairConns, slot.PairID)
	}
	s.pairMu.Unlock()
	if !present || conns[ticketID] != conn {
		return // the peer arrived and took over
	}

	tkt, _ := s.match.Ticket(ticketID)
	s.match.RemovePair(slot.PairID)

	logging.LogWebSocketEvent("pair_bind_expired", ticketID, map[string]interface{}{"pair_id": slot.PairID})
	if !conn.alive() {
		conn.Close()
		return
	}
	s.runAI(context.Background(), conn, commit.New(types.OpponentAI), tkt.Lang)
}

// runAI builds a session around the commitment and blocks until it ends.
func (s *Server) runAI(ctx context.Context, conn game.Conn, commitment commit.Commitment, lang types.LangPref) {
	sess := game.NewSession(s.gameCfg, commitment, lang)

	var rec game.Recorder
	if s.store != nil {
		rec = s.store.NewRecorder("ai", sess.Persona().Name, sess.Persona())
	}
	game.RunAI(ctx, conn, sess, s.pipe, rec)
}

// handleWSWait parks a presence socket: the token counts toward the pool for
// as long as the connection stays open.
func (s *Server) handleWSWait(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	conn := newWSConn(ws)
	defer conn.Close()

	token := s.pool.Join(c.Query("token"))
	defer s.pool.Leave(token)

	conn.WriteJSON(map[string]interface{}{
		"type":  "wait",
		"token": token,
		"count": s.pool.Count(),
	})

	for {
		if _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
