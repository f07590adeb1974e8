// Package match implements the matchmaking state machine. A request opens a
// short window in which another pending player may be paired for a
// human-vs-human session; otherwise the ticket resolves to an AI opponent.
// The coin flip plus commit-reveal keeps clients from learning the opponent
// type before the session starts.
package match

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/neo/turring_backend/internal/clock"
	"github.com/neo/turring_backend/internal/commit"
	"github.com/neo/turring_backend/internal/logging"
	"github.com/neo/turring_backend/internal/pool"
	"github.com/neo/turring_backend/internal/types"
)

// pairBindSeconds is how long both H2H clients have to open their sockets
// before the pair is considered stale.
const pairBindSeconds = 20

// Ticket is one matchmaking request and its resolution state.
type Ticket struct {
	ID         string
	Token      string
	Lang       types.LangPref
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Status     types.MatchStatus
	ReservedAI bool
	PairID     string
	Commitment *commit.Commitment
}

// PairSlot tracks a matched human pair until both sockets are bound.
type PairSlot struct {
	PairID       string
	TicketA      string
	TicketB      string
	BindDeadline time.Time
}

// StatusResult is the client-facing resolution snapshot.
type StatusResult struct {
	Status     string  `json:"status"`
	WSURL      string  `json:"ws_url,omitempty"`
	CommitHash string  `json:"commit_hash,omitempty"`
	TimeLeft   float64 `json:"time_left"`
}

// Options configure a Matchmaker.
type Options struct {
	Window  time.Duration
	H2HProb float64
	Pool    *pool.Registry
	Rand    *rand.Rand
}

// Matchmaker owns the ticket and pair tables.
// Lock order: mu before pairsMu, never the reverse.
type Matchmaker struct {
	window  time.Duration
	h2hProb float64
	pool    *pool.Registry

	mu      sync.Mutex
	tickets map[string]*Ticket
	rng     *rand.Rand

	pairsMu sync.Mutex
	pairs   map[string]*PairSlot
}

// New creates a matchmaker.
func New(opts Options) *Matchmaker {
	if opts.Window <= 0 {
		opts.Window = 10 * time.Second
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Matchmaker{
		window:  opts.Window,
		h2hProb: opts.H2HProb,
		pool:    opts.Pool,
		tickets: make(map[string]*Ticket),
		rng:     rng,
		pairs:   make(map[string]*PairSlot),
	}
}

// Request opens a new ticket and immediately tries to pair it with the
// oldest compatible pending ticket.
func (m *Matchmaker) Request(token string, lang types.LangPref) *Ticket {
	now := clock.Now()
	t := &Ticket{
		ID:        commit.RandomToken(10),
		Token:     token,
		Lang:      lang,
		CreatedAt: now,
		ExpiresAt: now.Add(m.window),
		Status:    types.StatusPending,
	}

	m.mu.Lock()
	m.tickets[t.ID] = t
	m.tryPair(t)
	snapshot := *t
	m.mu.Unlock()

	logging.LogMatchEvent("request", t.ID, map[string]interface{}{
		"status": string(snapshot.Status),
	})
	return &snapshot
}

// tryPair scans for the oldest other pending, unreserved, unexpired ticket
// and flips the H2H coin. Caller holds mu.
func (m *Matchmaker) tryPair(cur *Ticket) {
	now := clock.Now()

	var oldest *Ticket
	for _, t := range m.tickets {
		if t.ID == cur.ID || t.Status != types.StatusPending || t.ReservedAI {
			continue
		}
		if !t.ExpiresAt.After(now) {
			continue
		}
		if oldest == nil || t.CreatedAt.Before(oldest.CreatedAt) {
			oldest = t
		}
	}
	if oldest == nil {
		return
	}

	if m.rng.Float64() < m.h2hProb {
		pairID := commit.RandomToken(8)
		for _, t := range []*Ticket{cur, oldest} {
			c := commit.New(types.OpponentHuman)
			t.Status = types.StatusReadyH2H
			t.PairID = pairID
			t.Commitment = &c
			m.leavePool(t.Token)
		}

		// The earlier requester takes the A slot, and with it the first turn.
		m.pairsMu.Lock()
		m.pairs[pairID] = &PairSlot{
			PairID:       pairID,
			TicketA:      oldest.ID,
			TicketB:      cur.ID,
			BindDeadline: clock.DeadlineIn(pairBindSeconds),
		}
		m.pairsMu.Unlock()

		logging.LogMatchEvent("paired", cur.ID, map[string]interface{}{
			"pair_id": pairID,
			"peer":    oldest.ID,
		})
		return
	}

	// Tails: one of the two is silently reserved for an AI opponent and
	// will resolve at window expiry.
	reserved := cur
	if m.rng.Intn(2) == 0 {
		reserved = oldest
	}
	reserved.ReservedAI = true
}

// Status reports the ticket's resolution. An expired PENDING ticket resolves
// to AI here; this is the only read path that mutates state.
func (m *Matchmaker) Status(id string) StatusResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok {
		return StatusResult{Status: "gone"}
	}

	if t.Status == types.StatusPending && clock.TimeLeft(t.ExpiresAt) <= 0 {
		m.resolveAI(t)
	}

	switch t.Status {
	case types.StatusReadyH2H:
		return StatusResult{
			Status:     string(types.StatusReadyH2H),
			WSURL:      fmt.Sprintf("/ws/pair?pair_id=%s&ticket=%s", t.PairID, t.ID),
			CommitHash: t.Commitment.Hash,
			TimeLeft:   clock.TimeLeft(t.ExpiresAt),
		}
	case types.StatusReadyAI:
		return StatusResult{
			Status:     string(types.StatusReadyAI),
			WSURL:      fmt.Sprintf("/ws/match?ticket=%s", t.ID),
			CommitHash: t.Commitment.Hash,
			TimeLeft:   clock.TimeLeft(t.ExpiresAt),
		}
	case types.StatusCanceled:
		return StatusResult{Status: string(types.StatusCanceled)}
	default:
		return StatusResult{
			Status:   string(types.StatusPending),
			TimeLeft: clock.TimeLeft(t.ExpiresAt),
		}
	}
}

// resolveAI finalizes a ticket as an AI match. Caller holds mu.
func (m *Matchmaker) resolveAI(t *Ticket) {
	c := commit.New(types.OpponentAI)
	t.Status = types.StatusReadyAI
	t.Commitment = &c
	m.leavePool(t.Token)
	logging.LogMatchEvent("resolved_ai", t.ID, nil)
}

// Cancel aborts a ticket. A canceled H2H ticket promotes its peer to a fresh
// AI match so the peer is not stranded.
func (m *Matchmaker) Cancel(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tickets[id]
	if !ok {
		return
	}

	switch t.Status {
	case types.StatusPending:
		t.Status = types.StatusCanceled
		logging.LogMatchEvent("canceled", t.ID, nil)
	case types.StatusReadyH2H:
		pairID := t.PairID
		var peerID string

		m.pairsMu.Lock()
		if slot, ok := m.pairs[pairID]; ok {
			peerID = slot.TicketA
			if peerID == t.ID {
				peerID = slot.TicketB
			}
			delete(m.pairs, pairID)
		}
		m.pairsMu.Unlock()

		if peer, ok := m.tickets[peerID]; ok && peer.Status == types.StatusReadyH2H {
			peer.PairID = ""
			m.resolveAI(peer)
		}

		t.Status = types.StatusCanceled
		t.PairID = ""
		logging.LogMatchEvent("canceled", t.ID, map[string]interface{}{"promoted_peer": peerID})
	}
}

// Ticket returns a snapshot of the ticket, or false when unknown.
func (m *Matchmaker) Ticket(id string) (Ticket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return Ticket{}, false
	}
	return *t, true
}

// TakeReadyAI consumes a READY_AI ticket for socket binding. Returns false
// when the ticket is unknown or not resolved to AI.
func (m *Matchmaker) TakeReadyAI(id string) (Ticket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok || t.Status != types.StatusReadyAI {
		return Ticket{}, false
	}
	delete(m.tickets, id)
	m.leavePool(t.Token)
	return *t, true
}

// Pair returns a snapshot of the pair slot.
func (m *Matchmaker) Pair(pairID string) (PairSlot, bool) {
	m.pairsMu.Lock()
	defer m.pairsMu.Unlock()
	slot, ok := m.pairs[pairID]
	if !ok {
		return PairSlot{}, false
	}
	return *slot, true
}

// RemovePair drops the pair slot and both its tickets after the session has
// taken over (or failed to start).
func (m *Matchmaker) RemovePair(pairID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pairsMu.Lock()
	slot, ok := m.pairs[pairID]
	if ok {
		delete(m.pairs, pairID)
	}
	m.pairsMu.Unlock()

	if ok {
		delete(m.tickets, slot.TicketA)
		delete(m.tickets, slot.TicketB)
	}
}

// PromoteToAI re-commits a READY_H2H ticket to a fresh AI match. Used when
// the peer's socket never arrived or died during preflight.
func (m *Matchmaker) PromoteToAI(id string) (Ticket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return Ticket{}, false
	}
	t.PairID = ""
	m.resolveAI(t)
	return *t, true
}

// Remove forgets a ticket entirely.
func (m *Matchmaker) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tickets, id)
}

func (m *Matchmaker) leavePool(token string) {
	if m.pool != nil && token != "" {
		m.pool.Leave(token)
	}
}
