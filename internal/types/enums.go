package types

import (
	"fmt"
)

// Role identifies a side of a session. Each client always sees itself as A.
type Role string

const (
	RoleA Role = "A"
	RoleB Role = "B"
)

// Other returns the opposite side.
func (r Role) Other() Role {
	if r == RoleA {
		return RoleB
	}
	return RoleA
}

// OpponentType is what the player is trying to guess.
type OpponentType string

const (
	OpponentHuman OpponentType = "HUMAN"
	OpponentAI    OpponentType = "AI"
)

// MatchStatus is the lifecycle state of a matchmaking ticket.
type MatchStatus string

const (
	// StatusPending - ticket is inside its match window, not yet resolved
	StatusPending MatchStatus = "pending"

	// StatusReadyAI - ticket resolved to an AI opponent
	StatusReadyAI MatchStatus = "ready_ai"

	// StatusReadyH2H - ticket resolved to a human pairing
	StatusReadyH2H MatchStatus = "ready_h2h"

	// StatusCanceled - ticket canceled by its owner
	StatusCanceled MatchStatus = "canceled"
)

// LangPref is the requested conversation language.
type LangPref string

const (
	LangGerman  LangPref = "de"
	LangEnglish LangPref = "en"
	LangAuto    LangPref = "auto"
)

var (
	opponentTypeMap = map[string]OpponentType{
		string(OpponentHuman): OpponentHuman,
		string(OpponentAI):    OpponentAI,
	}

	langPrefMap = map[string]LangPref{
		string(LangGerman):  LangGerman,
		string(LangEnglish): LangEnglish,
		string(LangAuto):    LangAuto,
	}
)

// Error types for invalid values
var (
	ErrInvalidOpponentType = fmt.Errorf("invalid opponent type")
	ErrInvalidLangPref     = fmt.Errorf("invalid language preference")
)

// IsValid checks if the OpponentType is valid
func (o OpponentType) IsValid() bool {
	_, ok := opponentTypeMap[string(o)]
	return ok
}

// String converts the enum to string
func (o OpponentType) String() string {
	return string(o)
}

// ParseOpponentType parses a string into an OpponentType
func ParseOpponentType(s string) (OpponentType, error) {
	if o, ok := opponentTypeMap[s]; ok {
		return o, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidOpponentType, s)
}

// IsValid checks if the LangPref is valid
func (l LangPref) IsValid() bool {
	_, ok := langPrefMap[string(l)]
	return ok
}

// String converts the enum to string
func (l LangPref) String() string {
	return string(l)
}

// ParseLangPref parses a string into a LangPref, defaulting to English
// for empty input.
func ParseLangPref(s string) (LangPref, error) {
	if s == "" {
		return LangEnglish, nil
	}
	if l, ok := langPrefMap[s]; ok {
		return l, nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidLangPref, s)
}
