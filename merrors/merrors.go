// Package merrors holds the error sum type shared by every layer of the
// stack: the message catalogue, the framing transports, the master
// scheduler and the slave dispatcher.
package merrors

import "fmt"

// InvalidArgument is returned by a message constructor when a field value
// is out of the range the MODBUS specification allows for it.
type InvalidArgument struct {
	Field  string
	Reason string
}

func (e *InvalidArgument) Error() string {
	return fmt.Sprintf("modbus: invalid argument %q: %s", e.Field, e.Reason)
}

// InvalidFrame is returned by a Codec or Stream when bytes cannot be
// interpreted as a well-formed ADU (bad length, bad magic, bad checksum,
// bad reference type, unknown function code).
type InvalidFrame struct {
	Reason string
}

func (e *InvalidFrame) Error() string {
	return fmt.Sprintf("modbus: invalid frame: %s", e.Reason)
}

// ChecksumMismatch is a subtype of InvalidFrame specific to RTU and ASCII
// framing, where a checksum (CRC-16 or LRC) was computed over the received
// bytes and did not match the one carried on the wire.
type ChecksumMismatch struct {
	Expected uint16
	Actual   uint16
}

func (e *ChecksumMismatch) Error() string {
	return fmt.Sprintf("modbus: checksum mismatch: expected 0x%04x, got 0x%04x", e.Expected, e.Actual)
}

// InvalidFrame lets ChecksumMismatch participate as one, for callers that
// only distinguish frame errors from everything else.
func (e *ChecksumMismatch) Unwrap() error {
	return &InvalidFrame{Reason: e.Error()}
}

// ResponseTimeout is delivered to a Transaction when no response arrived
// within its configured timeout.
var ErrResponseTimeout = fmt.Errorf("modbus: response timed out")

// IncompleteResponseFrame is raised when a transport's reassembly buffer
// exceeded its maximum length without ever yielding a complete frame; it
// always accompanies a bufferOverflow event.
var ErrIncompleteResponseFrame = fmt.Errorf("modbus: incomplete response frame (buffer overflow)")

// InvalidResponseData reports a response that decoded cleanly but is
// semantically wrong for the request it is paired with; the Master uses
// it for a unit mismatch. A non-zero MBAP protocol id is reported as an
// InvalidFrame instead.
type InvalidResponseData struct {
	Reason string
}

func (e *InvalidResponseData) Error() string {
	return fmt.Sprintf("modbus: invalid response data: %s", e.Reason)
}

// ErrConnectionClosed is delivered to every in-flight Transaction, and to
// the Master's OnDisconnected callback, when the Master's connection
// closes.
var ErrConnectionClosed = fmt.Errorf("modbus: connection is closed")

// ErrTransactionCancelled names the outcome of a cancelled transaction.
// Nothing in this module returns it: a cancelled Transaction completes
// with a nil error and a nil response.
var ErrTransactionCancelled = fmt.Errorf("modbus: transaction cancelled")
