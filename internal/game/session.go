// Package game runs live sessions over duplex connections: the A-vs-bot
// driver and the human-vs-human driver share one mutex-guarded Session and
// differ only in how many peers they read and how messages are routed.
package game

import (
	"strings"
	"sync"
	"time"

	"github.com/neo/turring_backend/internal/clock"
	"github.com/neo/turring_backend/internal/commit"
	"github.com/neo/turring_backend/internal/mood"
	"github.com/neo/turring_backend/internal/persona"
	"github.com/neo/turring_backend/internal/types"
)

// maxChatChars is the inbound chat truncation limit.
const maxChatChars = 280

// Config carries the game limits and scoring constants.
type Config struct {
	RoundSeconds    int
	TurnSeconds     int
	ScoreCorrect    int
	ScoreWrong      int
	ScoreTimeoutWin int
	MinDelaySecs    float64
	MaxDelaySecs    float64
	AppVersion      string
}

// Recorder receives the session transcript for persistence. All methods are
// called from the session goroutine only.
type Recorder interface {
	AddMessage(sender, text string)
	SetOutcome(guess string, correct bool)
	End()
}

// Session is the shared state of one running match.
type Session struct {
	cfg        Config
	commitment commit.Commitment
	persona    persona.Persona

	mu            sync.Mutex
	mood          mood.State
	history       []string
	turn          types.Role
	roundDeadline time.Time
	turnDeadline  time.Time
	scoreA        int
	scoreB        int
	ended         bool
}

// NewSession builds a session bound to the given commitment. The persona is
// derived deterministically from the commitment's seed.
func NewSession(cfg Config, c commit.Commitment, lang types.LangPref) *Session {
	return &Session{
		cfg:           cfg,
		commitment:    c,
		persona:       persona.Generate(c.PersonaSeed(), lang),
		turn:          types.RoleA,
		roundDeadline: clock.DeadlineIn(cfg.RoundSeconds),
		turnDeadline:  clock.DeadlineIn(cfg.TurnSeconds),
	}
}

// Commitment returns the session's opponent commitment.
func (s *Session) Commitment() commit.Commitment { return s.commitment }

// Persona returns the session's persona card.
func (s *Session) Persona() *persona.Persona { return &s.persona }

// Turn returns whose turn it is.
func (s *Session) Turn() types.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// SwapTurn hands the turn to the other side and resets the turn timer.
func (s *Session) SwapTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turn = s.turn.Other()
	s.turnDeadline = clock.DeadlineIn(s.cfg.TurnSeconds)
}

// ResetTurnDeadline restarts the turn timer without changing the turn.
func (s *Session) ResetTurnDeadline() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turnDeadline = clock.DeadlineIn(s.cfg.TurnSeconds)
}

// TimeLeftRound returns the seconds remaining in the round, floored at zero.
func (s *Session) TimeLeftRound() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clock.TimeLeft(s.roundDeadline)
}

// TimeLeftTurn returns the seconds remaining in the current turn.
func (s *Session) TimeLeftTurn() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clock.TimeLeft(s.turnDeadline)
}

// Ended reports whether the session has finished.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// finish marks the session ended. Returns false when it already was, so only
// one goroutine sends the end frames.
func (s *Session) finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.ended = true
	return true
}

// AppendTurn records one tagged line in the history.
func (s *Session) AppendTurn(tag types.Role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, string(tag)+": "+text)
}

// HistoryTail returns a copy of the last n history lines.
func (s *Session) HistoryTail(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.history) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, len(s.history)-start)
	copy(out, s.history[start:])
	return out
}

// ObserveStyle folds a user message into the bot's mood.
func (s *Session) ObserveStyle(text string) {
	style := mood.AnalyzeStyle(text)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mood = mood.Update(s.mood, style, mood.DefaultAlpha)
}

// Mood returns the current mood snapshot.
func (s *Session) Mood() mood.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mood
}

// AddScore applies a delta to one side's score and returns the new total.
func (s *Session) AddScore(side types.Role, delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if side == types.RoleA {
		s.scoreA += delta
		return s.scoreA
	}
	s.scoreB += delta
	return s.scoreB
}

// Score returns one side's accumulated total.
func (s *Session) Score(side types.Role) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if side == types.RoleA {
		return s.scoreA
	}
	return s.scoreB
}

// matchStart builds the opening frame. Every client is told it plays role A.
func (s *Session) matchStart() MatchStartFrame {
	return MatchStartFrame{
		Type:         frameMatchStart,
		Role:         string(types.RoleA),
		CommitHash:   s.commitment.Hash,
		RoundSeconds: s.cfg.RoundSeconds,
		TurnSeconds:  s.cfg.TurnSeconds,
		Opponent:     string(s.commitment.Type),
		Persona:      s.persona.Name,
		Version:      s.cfg.AppVersion,
	}
}

// tick builds the countdown frame from the current deadlines.
func (s *Session) tick() TickFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TickFrame{
		Type:      frameTick,
		RoundLeft: clock.TimeLeft(s.roundDeadline),
		TurnLeft:  clock.TimeLeft(s.turnDeadline),
		Turn:      s.turn,
	}
}

// state builds the on-demand snapshot frame.
func (s *Session) state() StateFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StateFrame{
		Type:      frameState,
		Opponent:  string(s.commitment.Type),
		RoundLeft: clock.TimeLeft(s.roundDeadline),
		TurnLeft:  clock.TimeLeft(s.turnDeadline),
		Turn:      s.turn,
	}
}

// endFrame builds a termination frame for one recipient. scoreDelta carries
// the recipient's own accumulated total.
func (s *Session) endFrame(reason, winner string, correct *bool, scoreDelta int) EndFrame {
	return EndFrame{
		Type:       frameEnd,
		Reason:     reason,
		Winner:     winner,
		Correct:    correct,
		ScoreDelta: scoreDelta,
		Reveal:     s.commitment.Reveal(),
	}
}

// sanitizeChat trims and truncates inbound chat text.
func sanitizeChat(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > maxChatChars {
		text = string(runes[:maxChatChars])
	}
	return text
}
