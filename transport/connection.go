// Package transport provides the byte-level connections the master and
// slave packages read and write frames over: TCP, UDP, a TLS-wrapped TCP
// variant, serial (RTU/ASCII), and WebSocket, each behind the same small
// Connection interface. Grounded on the teacher's socketWrapper
// (socket.go) and tls_utils.go, generalized from "one socket type" to a
// set of adapters selected by connection type (spec.md §6).
package transport

import (
	"errors"
	"io"
	"time"
)

// ErrListenerClosed is returned by Accept once a Listener has been closed.
var ErrListenerClosed = errors.New("transport: listener closed")

// Connection is the minimal byte-stream surface master/slave need: a
// deadline-aware io.ReadWriteCloser. Every concrete adapter in this
// package implements it, whether the underlying link is a stream
// (TCP/TLS/serial) or a datagram (UDP) one.
type Connection interface {
	io.ReadWriteCloser
	SetDeadline(t time.Time) error
	// RemoteAddr identifies the peer for logging; not necessarily a
	// network address on non-IP transports (serial reports its device
	// path).
	RemoteAddr() string
}

// Listener accepts incoming Connections, one per remote client, on
// transports where that concept makes sense (TCP, TLS, WebSocket). UDP
// and serial are connectionless/point-to-point, so they don't implement
// it; they're addressed directly via their Dial/Listen constructors.
type Listener interface {
	Accept() (Connection, error)
	Close() error
	Addr() string
}
