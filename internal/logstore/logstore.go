// Package logstore persists finished session transcripts to SQLite for admin
// review and analytics.
package logstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/neo/turring_backend/internal/logging"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	ended_at INTEGER,
	opponent_type TEXT NOT NULL,
	persona_name TEXT,
	persona_json TEXT,
	player_guessed TEXT,
	guess_correct INTEGER,
	reveal_happened INTEGER NOT NULL DEFAULT 0,
	total_messages INTEGER NOT NULL DEFAULT 0,
	player_messages INTEGER NOT NULL DEFAULT 0,
	opponent_messages INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	sender TEXT NOT NULL,
	content TEXT NOT NULL,
	ts INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
`

// Store is the SQLite-backed transcript store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the store under dataDir.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "conversations.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %v", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes a finished session and its messages in one transaction.
func (s *Store) Save(rec *SessionRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	playerMsgs, opponentMsgs := 0, 0
	for _, m := range rec.Messages {
		switch m.Sender {
		case "player":
			playerMsgs++
		case "opponent":
			opponentMsgs++
		}
	}

	var guessCorrect interface{}
	if rec.GuessCorrect != nil {
		guessCorrect = *rec.GuessCorrect
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO sessions
		(id, started_at, ended_at, opponent_type, persona_name, persona_json,
		 player_guessed, guess_correct, reveal_happened,
		 total_messages, player_messages, opponent_messages)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt, rec.EndedAt, rec.OpponentType, rec.PersonaName, rec.PersonaJSON,
		rec.PlayerGuessed, guessCorrect, rec.RevealHappened,
		len(rec.Messages), playerMsgs, opponentMsgs)
	if err != nil {
		return fmt.Errorf("failed to save session: %v", err)
	}

	for _, m := range rec.Messages {
		if _, err := tx.Exec(`INSERT INTO messages (session_id, sender, content, ts) VALUES (?, ?, ?, ?)`,
			rec.ID, m.Sender, m.Content, m.Ts); err != nil {
			return fmt.Errorf("failed to save message: %v", err)
		}
	}

	return tx.Commit()
}

// SessionSummary is the list-view projection of a session.
type SessionSummary struct {
	ID             string `json:"session_id"`
	StartedAt      int64  `json:"started_at"`
	EndedAt        *int64 `json:"ended_at"`
	OpponentType   string `json:"opponent_type"`
	PersonaName    string `json:"persona_name"`
	TotalMessages  int    `json:"total_messages"`
	PlayerGuessed  string `json:"player_guessed"`
	GuessCorrect   *bool  `json:"guess_correct"`
	RevealHappened bool   `json:"reveal_happened"`
}

// List returns session summaries, newest first.
func (s *Store) List(limit, offset int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(`SELECT id, started_at, ended_at, opponent_type, persona_name,
			total_messages, player_guessed, guess_correct, reveal_happened
		FROM sessions ORDER BY started_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %v", err)
	}
	defer rows.Close()

	summaries := make([]SessionSummary, 0)
	for rows.Next() {
		var sum SessionSummary
		var endedAt sql.NullInt64
		var guessed sql.NullString
		var correct sql.NullBool
		if err := rows.Scan(&sum.ID, &sum.StartedAt, &endedAt, &sum.OpponentType, &sum.PersonaName,
			&sum.TotalMessages, &guessed, &correct, &sum.RevealHappened); err != nil {
			return nil, fmt.Errorf("failed to scan session: %v", err)
		}
		if endedAt.Valid {
			sum.EndedAt = &endedAt.Int64
		}
		sum.PlayerGuessed = guessed.String
		if correct.Valid {
			sum.GuessCorrect = &correct.Bool
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Get returns one full session with its transcript, or nil when unknown.
func (s *Store) Get(id string) (*SessionRecord, error) {
	var rec SessionRecord
	var endedAt sql.NullInt64
	var guessed sql.NullString
	var correct sql.NullBool
	var personaJSON sql.NullString

	err := s.db.QueryRow(`SELECT id, started_at, ended_at, opponent_type, persona_name, persona_json,
			player_guessed, guess_correct, reveal_happened
		FROM sessions WHERE id = ?`, id).Scan(
		&rec.ID, &rec.StartedAt, &endedAt, &rec.OpponentType, &rec.PersonaName, &personaJSON,
		&guessed, &correct, &rec.RevealHappened)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get session: %v", err)
	}

	if endedAt.Valid {
		rec.EndedAt = endedAt.Int64
	}
	rec.PersonaJSON = personaJSON.String
	rec.PlayerGuessed = guessed.String
	if correct.Valid {
		rec.GuessCorrect = &correct.Bool
	}

	rows, err := s.db.Query(`SELECT sender, content, ts FROM messages WHERE session_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Sender, &m.Content, &m.Ts); err != nil {
			return nil, fmt.Errorf("failed to scan message: %v", err)
		}
		rec.Messages = append(rec.Messages, m)
	}
	return &rec, rows.Err()
}

// Analytics aggregates outcomes across all logged sessions.
type Analytics struct {
	TotalSessions      int     `json:"total_sessions"`
	AIOpponentSessions int     `json:"ai_opponent_sessions"`
	HumanOpponentGames int     `json:"human_opponent_sessions"`
	CorrectGuesses     int     `json:"correct_guesses"`
	IncorrectGuesses   int     `json:"incorrect_guesses"`
	TotalMessages      int     `json:"total_messages"`
	AvgMessagesPerGame float64 `json:"avg_messages_per_session"`
	GuessAccuracy      float64 `json:"guess_accuracy"`
}

// Analyze computes the aggregate stats.
func (s *Store) Analyze() (*Analytics, error) {
	var a Analytics
	err := s.db.QueryRow(`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN opponent_type = 'ai' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN opponent_type = 'human' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN reveal_happened AND guess_correct THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN reveal_happened AND NOT guess_correct THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(total_messages), 0)
		FROM sessions`).Scan(
		&a.TotalSessions, &a.AIOpponentSessions, &a.HumanOpponentGames,
		&a.CorrectGuesses, &a.IncorrectGuesses, &a.TotalMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze sessions: %v", err)
	}

	if a.TotalSessions > 0 {
		a.AvgMessagesPerGame = float64(a.TotalMessages) / float64(a.TotalSessions)
	}
	if decided := a.CorrectGuesses + a.IncorrectGuesses; decided > 0 {
		a.GuessAccuracy = float64(a.CorrectGuesses) / float64(decided)
	}
	return &a, nil
}

// marshalPersona renders the persona card for storage. Failures degrade to
// an empty blob rather than blocking the save.
func marshalPersona(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		logging.Warn("persona marshal failed", map[string]interface{}{"error": err.Error()})
		return ""
	}
	return string(data)
}
