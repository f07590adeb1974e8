package game

import (
	"github.com/neo/turring_backend/internal/commit"
	"github.com/neo/turring_backend/internal/types"
)

// Outbound frame kinds. Every frame is a JSON object with a type field.
const (
	frameMatchStart = "match_start"
	frameTick       = "tick"
	frameTyping     = "typing"
	frameChat       = "chat"
	frameState      = "state"
	frameEnd        = "end"
	frameGuess      = "guess"
)

// MatchStartFrame opens the session on the client side.
type MatchStartFrame struct {
	Type         string `json:"type"`
	Role         string `json:"role"`
	CommitHash   string `json:"commit_hash"`
	RoundSeconds int    `json:"round_seconds"`
	TurnSeconds  int    `json:"turn_seconds"`
	Opponent     string `json:"opponent"`
	Persona      string `json:"persona"`
	Version      string `json:"version"`
}

// TickFrame is the once-per-second countdown update.
type TickFrame struct {
	Type      string     `json:"type"`
	RoundLeft float64    `json:"round_left"`
	TurnLeft  float64    `json:"turn_left"`
	Turn      types.Role `json:"turn"`
}

// TypingFrame toggles the opponent's typing indicator.
type TypingFrame struct {
	Type string `json:"type"`
	Who  string `json:"who"`
	On   bool   `json:"on"`
}

// ChatFrame carries one message. From is rendered from the receiving
// client's perspective: "A" is always self, "B" the opponent.
type ChatFrame struct {
	Type string `json:"type"`
	From string `json:"from_"`
	Text string `json:"text"`
}

// StateFrame is the on-demand session snapshot.
type StateFrame struct {
	Type      string     `json:"type"`
	Opponent  string     `json:"opponent"`
	RoundLeft float64    `json:"round_left"`
	TurnLeft  float64    `json:"turn_left"`
	Turn      types.Role `json:"turn"`
}

// EndFrame terminates the session and discloses the commitment.
type EndFrame struct {
	Type       string        `json:"type"`
	Reason     string        `json:"reason"`
	Winner     string        `json:"winner,omitempty"`
	Correct    *bool         `json:"correct,omitempty"`
	ScoreDelta int           `json:"score_delta"`
	Reveal     commit.Reveal `json:"reveal"`
}

// InboundFrame is any client-to-server message.
type InboundFrame struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Guess string `json:"guess"`
}
