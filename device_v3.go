package rak811

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edgekit/rak811/at"
)

// pendingFlushTimeout bounds the event-queue flush that precedes every
// V3 command. Pending events are already buffered, so the wait only
// needs to cover the lock handoff.
const pendingFlushTimeout = 10 * time.Millisecond

// DeviceV3 drives a module running V3 firmware (3.x). The V3 command
// set is organized around set_config/get_config strings instead of the
// V2 per-setting commands, and informational output arrives as
// untagged lines before the closing "OK".
//
// Like Device, all methods are blocking and must be called from a
// single goroutine.
type DeviceV3 struct {
	conn    lineConn
	markers at.Markers

	responseTimeout time.Duration
	eventTimeout    time.Duration

	downlink []*Downlink
}

// NewV3 opens the configured transport and returns a V3 device. The
// dialect markers are fixed by the firmware generation; untagged lines
// are always retained because V3 command output needs them.
func NewV3(config Config) (*DeviceV3, error) {
	config.Markers = at.DialectV3()
	config.KeepUntagged = true
	config.setDefaults()

	conn, err := Open(config)
	if err != nil {
		return nil, err
	}
	return &DeviceV3{
		conn:            conn,
		markers:         config.Markers,
		responseTimeout: config.ResponseTimeout,
		eventTimeout:    config.EventTimeout,
	}, nil
}

// Close releases the underlying connection. Safe to call twice.
func (d *DeviceV3) Close() error {
	return d.conn.Close()
}

// sendCommand issues an AT command and returns the response payload. A
// non-positive timeout falls back to the response timeout.
//
// Events that arrived since the previous command are flushed into the
// downlink buffer first, so they cannot be mistaken for the response.
func (d *DeviceV3) sendCommand(command string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = d.responseTimeout
	}

	if err := d.flushPendingEvents(); err != nil {
		return "", err
	}

	if err := d.conn.SendCommand(command); err != nil {
		return "", err
	}
	for {
		response, err := d.conn.Receive(timeout)
		if err != nil {
			return "", err
		}
		switch {
		case strings.HasPrefix(response, d.markers.Error):
			return "", newResponseError(strings.TrimPrefix(response, d.markers.Error), errorMessagesV3, ErrCodeV3Unknown)
		case strings.HasPrefix(response, d.markers.InitOK):
			return strings.TrimPrefix(response, d.markers.InitOK), nil
		case strings.HasPrefix(response, d.markers.OK):
			return strings.TrimPrefix(response, d.markers.OK), nil
		}
		// Untagged chatter ahead of the result line.
	}
}

// flushPendingEvents drains events queued since the last command. An
// empty queue and malformed events are both fine here; the flush only
// exists to keep stale events out of the next response.
func (d *DeviceV3) flushPendingEvents() error {
	err := d.processEvents(pendingFlushTimeout)
	if err == nil || errors.Is(err, ErrTimeout) {
		return nil
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return nil
	}
	return err
}

// sendCommandList issues an AT command whose output spans several
// lines and returns them all, the closing result line last with its
// marker stripped.
func (d *DeviceV3) sendCommandList(command string) ([]string, error) {
	if err := d.conn.SendCommand(command); err != nil {
		return nil, err
	}

	var prelude []string
	var response []string
	for {
		if len(response) == 0 {
			batch, err := d.conn.ReceiveBatch(d.responseTimeout)
			if err != nil {
				return nil, err
			}
			response = batch
		}
		head := response[0]
		switch {
		case strings.HasPrefix(head, d.markers.Error):
			return nil, newResponseError(strings.TrimPrefix(head, d.markers.Error), errorMessagesV3, ErrCodeV3Unknown)
		case strings.HasPrefix(head, d.markers.InitOK):
			response[0] = strings.TrimPrefix(head, d.markers.InitOK)
			return append(prelude, response...), nil
		case strings.HasPrefix(head, d.markers.OK):
			response[0] = strings.TrimPrefix(head, d.markers.OK)
			return append(prelude, response...), nil
		default:
			// Informational output ahead of the result line.
			prelude = append(prelude, head)
			response = response[1:]
		}
	}
}

// getEvents waits for asynchronous events and returns them with the
// event marker stripped. V3 delivers some events untagged, those pass
// through as-is.
func (d *DeviceV3) getEvents(timeout time.Duration) ([]string, error) {
	if timeout <= 0 {
		timeout = d.eventTimeout
	}
	batch, err := d.conn.ReceiveBatch(timeout)
	if err != nil {
		return nil, err
	}
	events := make([]string, 0, len(batch))
	for _, line := range batch {
		events = append(events, strings.TrimPrefix(line, d.markers.Event))
	}
	return events, nil
}

// processEvents drains the event queue into the downlink buffer. An
// event that does not match the downlink grammar is a protocol error.
func (d *DeviceV3) processEvents(timeout time.Duration) error {
	events, err := d.getEvents(timeout)
	if err != nil {
		return err
	}
	for _, event := range events {
		downlink, ok := parseDownlinkV3(event)
		if !ok {
			return &ResponseError{
				Code:    ErrCodeV3InvalidEvent,
				Raw:     event,
				Message: errorMessagesV3[ErrCodeV3InvalidEvent],
			}
		}
		d.downlink = append(d.downlink, downlink)
	}
	return nil
}

// SetConfig executes a set_config command. The config string has the
// form <type>:<topic>[:<param>]..., e.g. "lora:region:EU868" or
// "device:restart". Informational output, if any, is returned.
func (d *DeviceV3) SetConfig(config string) ([]string, error) {
	return d.sendCommandList("set_config=" + config)
}

// GetConfig reads a configuration item. The config string has the form
// <type>:<topic>[:<param>], e.g. "device:status" or "lora:channel".
func (d *DeviceV3) GetConfig(config string) ([]string, error) {
	return d.sendCommandList("get_config=" + config)
}

// Version returns the firmware version string.
func (d *DeviceV3) Version() (string, error) {
	return d.sendCommand("version", 0)
}

// Help returns the module's command help text.
func (d *DeviceV3) Help() ([]string, error) {
	return d.sendCommandList("help")
}

// Run exits boot mode and enters normal mode.
func (d *DeviceV3) Run() error {
	_, err := d.sendCommand("run", 0)
	return err
}

// SendUART sends data over one of the module's UARTs. Index selects
// the UART (1 or 3); UART1 carries the AT command interface itself, so
// 3 is the one to use.
func (d *DeviceV3) SendUART(data []byte, index int) error {
	_, err := d.sendCommand(fmt.Sprintf("send=uart:%d:%s", index, hex.EncodeToString(data)), 0)
	return err
}

// Join joins the configured network and blocks until the join
// completes. ABP needs dev_addr, nwks_key and apps_key configured,
// OTAA needs dev_eui, app_eui and app_key.
func (d *DeviceV3) Join() error {
	// OTAA joins complete on radio time, not response time.
	_, err := d.sendCommand("join", d.eventTimeout)
	return err
}

// Send transmits a LoRaWan message. Downlinks and send confirmations
// follow the "OK" response almost immediately and are queued for
// GetDownlink before Send returns.
func (d *DeviceV3) Send(data []byte, port int) error {
	_, err := d.sendCommand(fmt.Sprintf("send=lora:%d:%s", port, hex.EncodeToString(data)), d.eventTimeout)
	if err != nil {
		return err
	}
	if err := d.processEvents(100 * time.Millisecond); err != nil && !errors.Is(err, ErrTimeout) {
		return err
	}
	return nil
}

// SendP2P transmits a P2P message using the configured lorap2p
// channel.
func (d *DeviceV3) SendP2P(data []byte) error {
	_, err := d.sendCommand("send=lorap2p:"+hex.EncodeToString(data), 0)
	return err
}

// ReceiveP2P waits up to timeout for P2P messages and queues them for
// GetDownlink. Receiving nothing within the timeout is not an error.
func (d *DeviceV3) ReceiveP2P(timeout time.Duration) error {
	if err := d.processEvents(timeout); err != nil && !errors.Is(err, ErrTimeout) {
		return err
	}
	return nil
}

// NbDownlinks returns the number of queued downlink messages.
func (d *DeviceV3) NbDownlinks() int {
	return len(d.downlink)
}

// GetDownlink pops the oldest message from the downlink buffer, nil
// when the buffer is empty.
func (d *DeviceV3) GetDownlink() *Downlink {
	if len(d.downlink) == 0 {
		return nil
	}
	head := d.downlink[0]
	d.downlink = d.downlink[1:]
	return head
}
