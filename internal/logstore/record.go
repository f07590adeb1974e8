package logstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/neo/turring_backend/internal/logging"
)

// Message is one transcript line.
type Message struct {
	Sender  string `json:"sender"` // player, opponent, system
	Content string `json:"content"`
	Ts      int64  `json:"timestamp"`
}

// SessionRecord is one complete logged session.
type SessionRecord struct {
	ID             string    `json:"session_id"`
	StartedAt      int64     `json:"started_at"`
	EndedAt        int64     `json:"ended_at,omitempty"`
	OpponentType   string    `json:"opponent_type"` // ai or human
	PersonaName    string    `json:"persona_name"`
	PersonaJSON    string    `json:"persona_details,omitempty"`
	Messages       []Message `json:"messages"`
	PlayerGuessed  string    `json:"player_guessed,omitempty"`
	GuessCorrect   *bool     `json:"guess_correct,omitempty"`
	RevealHappened bool      `json:"reveal_happened"`
}

// Recorder accumulates one session's transcript and persists it when the
// session ends. Satisfies the game runtime's Recorder interface.
type Recorder struct {
	store *Store

	mu  sync.Mutex
	rec SessionRecord
}

// NewRecorder opens a recorder for a fresh session. persona may be any
// JSON-marshalable card; store may be nil, which turns End into a no-op.
func (s *Store) NewRecorder(opponentType, personaName string, persona interface{}) *Recorder {
	return &Recorder{
		store: s,
		rec: SessionRecord{
			ID:           fmt.Sprintf("%s_%s_%d", opponentType, uuid.NewString()[:8], time.Now().Unix()),
			StartedAt:    time.Now().Unix(),
			OpponentType: opponentType,
			PersonaName:  personaName,
			PersonaJSON:  marshalPersona(persona),
		},
	}
}

// AddMessage appends one transcript line.
func (r *Recorder) AddMessage(sender, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.Messages = append(r.rec.Messages, Message{Sender: sender, Content: text, Ts: time.Now().Unix()})
}

// SetOutcome records the player's guess.
func (r *Recorder) SetOutcome(guess string, correct bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec.PlayerGuessed = guess
	r.rec.GuessCorrect = &correct
	r.rec.RevealHappened = true
}

// End stamps the session and saves it.
func (r *Recorder) End() {
	r.mu.Lock()
	r.rec.EndedAt = time.Now().Unix()
	snapshot := r.rec
	r.mu.Unlock()

	if r.store == nil {
		return
	}
	if err := r.store.Save(&snapshot); err != nil {
		logging.Error("failed to save session log", map[string]interface{}{
			"session_id": snapshot.ID,
			"error":      err.Error(),
		})
	}
}
