package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn adapts a gorilla connection to the game runtime's Conn interface.
// Gorilla permits only one concurrent writer, so writes are serialized here;
// the session driver and its ticker goroutine both write.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

// alive probes the socket with a ping. Used as a preflight before a pair
// session starts, so a player who already left falls back to an AI match
// instead of stranding the survivor.
func (c *wsConn) alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(2*time.Second)) == nil
}
