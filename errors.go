package rak811

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNoDialer is returned when a driver is constructed without a
	// Dialer.
	//
	// This indicates a configuration error. A Dialer is required in
	// order to establish a connection to the module.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrTimeout is returned when no line arrives within the allotted
	// wait. It is recoverable and always surfaced to the caller; nothing
	// in this package retries on it.
	ErrTimeout = errors.New("timeout while waiting for data")

	// ErrClosed is returned when an operation is attempted on a closed
	// connection.
	ErrClosed = errors.New("connection closed")
)

// ResponseError is returned when the module answers a command with an
// explicit error marker, or with a line the driver cannot interpret.
type ResponseError struct {
	// Code is the numeric module error code. Zero when the response text
	// was not numeric, e.g. for an entirely unexpected line.
	Code int
	// Raw is the text after the error marker, or the whole line for an
	// unexpected response.
	Raw string
	// Message is the human-readable description from the firmware's
	// error table, or its unknown-error entry for unmapped codes.
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("rak811: response error [%s] %s", e.Raw, e.Message)
}

// EventError is returned when an asynchronous event reports a failure
// status, e.g. a join failure or a transmit timeout.
type EventError struct {
	// Code is the numeric event status code. Zero only for the
	// received-data status, which is never an error.
	Code int
	// Raw is the status field as received.
	Raw string
	// Message is the description from the event status table, or its
	// unknown entry for unmapped codes.
	Message string
}

func (e *EventError) Error() string {
	return fmt.Sprintf("rak811: event error [%s] %s", e.Raw, e.Message)
}

// newResponseError resolves raw against the given code table, falling
// back to the table's unknown entry.
func newResponseError(raw string, table map[int]string, unknown int) *ResponseError {
	e := &ResponseError{Raw: raw}
	if code, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		e.Code = code
	}
	message, ok := table[e.Code]
	if !ok {
		message = table[unknown]
	}
	e.Message = message
	return e
}

func newEventError(raw string, table map[int]string, unknown int) *EventError {
	e := &EventError{Raw: raw}
	if code, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		e.Code = code
	}
	message, ok := table[e.Code]
	if !ok {
		message = table[unknown]
	}
	e.Message = message
	return e
}
