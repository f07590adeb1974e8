package game

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

// pipeConn is an in-memory Conn for driver tests. Frames written by the
// driver land in out; the test feeds inbound frames through in.
type pipeConn struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newPipeConn() *pipeConn {
	return &pipeConn{
		in:     make(chan []byte, 64),
		out:    make(chan []byte, 256),
		closed: make(chan struct{}),
	}
}

func (c *pipeConn) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return fmt.Errorf("pipe closed")
	case c.out <- data:
		return nil
	}
}

func (c *pipeConn) ReadMessage() ([]byte, error) {
	select {
	case <-c.closed:
		return nil, fmt.Errorf("pipe closed")
	case data := <-c.in:
		return data, nil
	}
}

func (c *pipeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// send feeds one inbound frame to the driver.
func (c *pipeConn) send(t *testing.T, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal inbound: %v", err)
	}
	select {
	case c.in <- data:
	case <-time.After(time.Second):
		t.Fatal("inbound channel full")
	}
}

// nextFrame waits for the next outbound frame of the wanted type, skipping
// ticks and anything else in between.
func (c *pipeConn) nextFrame(t *testing.T, wantType string, timeout time.Duration) map[string]interface{} {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case data := <-c.out:
			var frame map[string]interface{}
			if err := json.Unmarshal(data, &frame); err != nil {
				t.Fatalf("unmarshal outbound: %v", err)
			}
			if frame["type"] == wantType {
				return frame
			}
		case <-deadline:
			t.Fatalf("no %q frame within %v", wantType, timeout)
		}
	}
}
