package rak811

import (
	"bufio"
	"fmt"
	"sync"
	"time"

	"github.com/edgekit/rak811/at"
)

// Conn is the serial core of the driver. It owns the single reader
// goroutine, classifies incoming lines against the configured dialect
// markers and hands them to blocking callers in arrival order.
//
// Exactly one goroutine reads from the transport. Any number of callers
// may block in Receive or ReceiveBatch, but the AT protocol itself is
// request-at-a-time: issuing a second command before the first response
// has been drained is a caller error this layer does not guard against.
type Conn struct {
	transport Transport

	markers      at.Markers
	keepUntagged bool

	responseTimeout time.Duration
	eventTimeout    time.Duration
	settleWindow    time.Duration

	// mu guards pending, wake and alive. wake is closed and replaced
	// under mu whenever lines are appended, so a waiter that captured
	// the previous channel cannot miss the wakeup.
	mu      sync.Mutex
	pending []string
	wake    chan struct{}
	alive   bool

	readerDone chan struct{}
}

// Open dials the configured transport and starts the reader goroutine.
func Open(config Config) (*Conn, error) {
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	transport, err := config.Dialer.Dial()
	if err != nil {
		return nil, err
	}

	c := &Conn{
		transport:       transport,
		markers:         config.Markers,
		keepUntagged:    config.KeepUntagged,
		responseTimeout: config.ResponseTimeout,
		eventTimeout:    config.EventTimeout,
		settleWindow:    config.SettleWindow,
		wake:            make(chan struct{}),
		alive:           true,
		readerDone:      make(chan struct{}),
	}
	go c.readLoop()

	return c, nil
}

// readLoop drains the transport for the lifetime of the connection.
//
// A command response and closely-following event text can arrive in a
// single OS-level read. All lines of such a burst are published
// together, before any waiter is released: releasing earlier would let
// a caller act on a partial response, and its next command would then
// collide with the tail of this one.
func (c *Conn) readLoop() {
	defer close(c.readerDone)

	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.transport)
		scanner.Split(at.ScanLines)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		// A scanner error here is the transport going away, either on
		// Close or on a fatal port fault. Callers observe it as a
		// receive timeout, there is nothing to recover at this layer.
	}()

	for line := range lines {
		burst := c.keepLine(nil, line)
	drain:
		for {
			select {
			case next, ok := <-lines:
				if !ok {
					break drain
				}
				burst = c.keepLine(burst, next)
			case <-time.After(c.settleWindow):
				break drain
			}
		}
		c.publish(burst)
	}
}

// keepLine decodes and classifies line, returning burst with the line
// appended when it is worth keeping. Blank lines are always discarded;
// untagged lines only survive in keep-untagged mode.
func (c *Conn) keepLine(burst []string, line string) []string {
	line = at.DecodeLine(line)
	if line == "" {
		return burst
	}
	if !c.markers.Tagged(line) && !c.keepUntagged {
		return burst
	}
	return append(burst, line)
}

// publish appends a completed burst to the pending buffer and wakes
// waiters. The wake channel is replaced under the same lock waiters use
// to inspect the buffer, so no wakeup can be missed.
func (c *Conn) publish(burst []string) {
	if len(burst) == 0 {
		return
	}
	c.mu.Lock()
	c.pending = append(c.pending, burst...)
	close(c.wake)
	c.wake = make(chan struct{})
	c.mu.Unlock()
}

// Receive returns the oldest pending line, waiting up to timeout for
// one to arrive. A non-positive timeout falls back to the configured
// response timeout. Returns ErrTimeout when the wait expires with an
// empty buffer.
func (c *Conn) Receive(timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = c.responseTimeout
	}
	deadline := time.Now().Add(timeout)

	c.mu.Lock()
	for len(c.pending) == 0 {
		wake := c.wake
		c.mu.Unlock()
		if err := waitWake(wake, deadline); err != nil {
			return "", err
		}
		c.mu.Lock()
	}
	line := c.pending[0]
	c.pending = c.pending[1:]
	c.mu.Unlock()

	return line, nil
}

// ReceiveBatch atomically removes and returns every pending line,
// waiting up to timeout for at least one to arrive. A non-positive
// timeout falls back to the configured event timeout. The buffer is
// empty when the call returns; concurrent waiters never observe a
// partial drain.
func (c *Conn) ReceiveBatch(timeout time.Duration) ([]string, error) {
	if timeout <= 0 {
		timeout = c.eventTimeout
	}
	deadline := time.Now().Add(timeout)

	c.mu.Lock()
	for len(c.pending) == 0 {
		wake := c.wake
		c.mu.Unlock()
		if err := waitWake(wake, deadline); err != nil {
			return nil, err
		}
		c.mu.Lock()
	}
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	return batch, nil
}

// waitWake blocks until wake is closed or the deadline passes.
func waitWake(wake <-chan struct{}, deadline time.Time) error {
	wait := time.Until(deadline)
	if wait <= 0 {
		return ErrTimeout
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-wake:
		return nil
	case <-timer.C:
		return ErrTimeout
	}
}

// SendString writes raw bytes to the module.
func (c *Conn) SendString(s string) error {
	c.mu.Lock()
	alive := c.alive
	c.mu.Unlock()
	if !alive {
		return ErrClosed
	}

	if _, err := c.transport.Write([]byte(s)); err != nil {
		return fmt.Errorf("write %q: %w", s, err)
	}
	return nil
}

// SendCommand writes an AT command line (at+<command>\r\n).
func (c *Conn) SendCommand(command string) error {
	return c.SendString(at.CommandPrefix + command + at.CRLF)
}

// Close stops the reader goroutine and closes the transport. It is safe
// to call more than once; subsequent calls return nil. Callers blocked
// in Receive or ReceiveBatch at close time run into their timeout, as
// no further lines can arrive.
func (c *Conn) Close() error {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return nil
	}
	c.alive = false
	c.mu.Unlock()

	// Closing the transport unblocks the reader's pending Read; an
	// in-flight burst still completes from the scanner's buffered bytes
	// before the goroutine exits.
	err := c.transport.Close()
	<-c.readerDone
	return err
}
