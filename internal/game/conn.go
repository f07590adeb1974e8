package game

// Conn is the minimal duplex connection the session drivers need. The
// server wraps gorilla websockets behind it; tests use an in-memory pipe.
// WriteJSON must be safe for concurrent use.
type Conn interface {
	WriteJSON(v interface{}) error
	ReadMessage() ([]byte, error)
	Close() error
}
