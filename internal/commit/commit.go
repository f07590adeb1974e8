// Package commit implements the commit-reveal primitive that binds the
// opponent assignment before a session starts. The hash goes out with
// match_start; the tuple behind it is disclosed only in the end frame so
// clients can verify the assignment was fixed up front.
package commit

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/neo/turring_backend/internal/clock"
	"github.com/neo/turring_backend/internal/types"
)

// Commitment binds an opponent type to a nonce and timestamp via SHA-256.
type Commitment struct {
	Type  types.OpponentType
	Nonce string
	TsMs  int64
	Hash  string
}

// Reveal is the disclosure sent in the end frame.
type Reveal struct {
	OpponentType string `json:"opponent_type"`
	Nonce        string `json:"nonce"`
	CommitTs     int64  `json:"commit_ts"`
}

// New creates a commitment for the given opponent type with a fresh
// 128-bit nonce and the current wall-clock milliseconds.
func New(opp types.OpponentType) Commitment {
	nonce := randomHex(16)
	ts := clock.NowMs()
	return Commitment{
		Type:  opp,
		Nonce: nonce,
		TsMs:  ts,
		Hash:  HashOf(opp, nonce, ts),
	}
}

// HashOf computes the commitment hash over "TYPE|nonce|tsMs".
func HashOf(opp types.OpponentType, nonce string, tsMs int64) string {
	payload := fmt.Sprintf("%s|%s|%d", opp, nonce, tsMs)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the hash from a reveal and compares it to the
// hash sent at match start.
func Verify(hash string, opp types.OpponentType, nonce string, tsMs int64) bool {
	return HashOf(opp, nonce, tsMs) == hash
}

// Reveal returns the disclosure tuple for this commitment.
func (c Commitment) Reveal() Reveal {
	return Reveal{
		OpponentType: string(c.Type),
		Nonce:        c.Nonce,
		CommitTs:     c.TsMs,
	}
}

// PersonaSeed derives the deterministic persona seed bound to this
// commitment, so replays of the same match produce the same persona.
func (c Commitment) PersonaSeed() string {
	return fmt.Sprintf("%s|%s|%s", c.Type, c.Hash, c.Nonce)
}

// randomHex returns n random bytes hex-encoded.
func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand read failure means the process has bigger problems
		panic(fmt.Sprintf("commit: rand.Read: %v", err))
	}
	return hex.EncodeToString(b)
}

// RandomToken returns a random identifier of n bytes, hex-encoded. Used for
// tickets, pair ids and pool tokens.
func RandomToken(n int) string {
	return randomHex(n)
}
