package rak811

import (
	"io"
	"sync"

	"github.com/edgekit/rak811/at"
)

// TestTransport is a test helper that simulates a blocking transport
// using channels. This is needed because the connection's reader
// goroutine continuously reads from the transport, and we need reads to
// block until data is available (like a real serial port would).
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	closed   bool
	written  [][]byte
}

// NewTestTransport creates a new test transport for testing.
// Exported for use in tests.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 10),
	}
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written = append(t.written, append([]byte(nil), p...))
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	return copy(p, data), nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues raw bytes to be read by the transport. This
// simulates receiving data from the module.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// SendLine queues a CRLF-terminated line, the way the module emits
// responses and events.
func (t *TestTransport) SendLine(line string) {
	t.SendData(line + at.CRLF)
}

// Written returns a copy of every Write payload so far, in order.
func (t *TestTransport) Written() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.written))
	for i, w := range t.written {
		out[i] = string(w)
	}
	return out
}

// TestDialer hands out a fixed transport, for driving a connection
// against scripted data.
type TestDialer struct {
	Transport Transport
}

func (d TestDialer) Dial() (Transport, error) {
	return d.Transport, nil
}
