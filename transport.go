package rak811

import (
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Transport represents an established, bidirectional byte stream to a
// RAK811 module.
//
// A Transport is assumed to be already connected and ready for use. It
// provides the low-level I/O primitives required to send AT commands and
// receive responses and events. Typical implementations include serial
// ports and in-memory fakes used for testing.
//
// Reads are expected to block until data is available; Close must
// unblock a pending Read. Writes must reach the wire immediately, the
// protocol is latency-sensitive.
type Transport interface {
	io.ReadWriteCloser
}

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=rak811

// Dialer opens a Transport to a RAK811 module.
//
// Dialer abstracts how the module connection is created (serial port or
// test double) and is intended to be used during driver construction
// only. Once a Transport is obtained, the Dialer is no longer needed.
type Dialer interface {
	Dial() (Transport, error)
}

// SerialDialer opens a RAK811 module over a serial port.
type SerialDialer struct {
	// PortName is the device path, e.g. "/dev/serial0".
	PortName string
	// BaudRate for the connection. The module default of 115200 is used
	// when zero.
	BaudRate int
	// Mode optionally overrides the full serial parameters, taking
	// precedence over BaudRate.
	Mode *serial.Mode
}

// Dial opens and flushes the serial port.
func (d SerialDialer) Dial() (Transport, error) {
	if d.PortName == "" {
		return nil, errors.New("rak811: serial port name is required")
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{BaudRate: baud}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.PortName, err)
	}

	// Stale output emitted before the port was opened must not be
	// mistaken for a response to the first command.
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flush %s: %w", d.PortName, err)
	}

	return port, nil
}
