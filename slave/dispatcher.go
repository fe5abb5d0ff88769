// Package slave implements the Slave (server) request dispatcher: accept
// remote clients from a Listener, decode each client's ADUs into typed
// Requests, invoke a user-supplied handler, encode the handler's result
// into a Response ADU, and write it back. Grounded on the teacher's
// ModbusServer (server.go), generalized from its four function-code-
// family handler methods into the catalogue-wide RequestHandler spec.md
// §4.4 describes.
package slave

import (
	"sync"
	"time"

	"github.com/nexusmb/gomodbus/adu"
	"github.com/nexusmb/gomodbus/internal/log"
	"github.com/nexusmb/gomodbus/pdu"
	"github.com/nexusmb/gomodbus/transport"
)

// RequestHandler decides how to answer one decoded Request for the given
// unit. Returning a non-nil Response sends it back to the client (its
// FunctionCode must match req.FunctionCode()). Returning a pdu.ExceptionCode
// as err builds an ExceptionResponse carrying that code; any other non-nil
// err builds an ExceptionResponse(SlaveDeviceFailure), matching the
// teacher's RequestHandler methods' `(result, error)` shape generalized
// across every function code (spec.md §4.4 step 4's polymorphic `respond`
// collapses to this single typed return in Go).
type RequestHandler func(unit uint8, req pdu.Request, client *RemoteClient) (pdu.Response, error)

// Option configures a Slave at construction time.
type Option func(*Slave) error

func WithMaxClients(n int) Option {
	return func(s *Slave) error { s.maxClients = n; return nil }
}

func WithSuppressClientErrors(v bool) Option {
	return func(s *Slave) error { s.suppressClientErrors = v; return nil }
}

func WithLogger(l log.Logger) Option {
	return func(s *Slave) error { s.logger = l; return nil }
}

// WithEOFTimeout sets the RTU inter-frame silence window each client's
// stream uses; meaningless outside ModeRTU.
func WithEOFTimeout(d time.Duration) Option {
	return func(s *Slave) error { s.eofTimeout = d; return nil }
}

// Slave owns a Listener and dispatches decoded requests from each
// accepted client to handler.
type Slave struct {
	listener transport.Listener
	mode     adu.Mode
	handler  RequestHandler
	logger   log.Logger

	maxClients           int
	suppressClientErrors bool
	eofTimeout           time.Duration

	mu      sync.Mutex
	clients map[*RemoteClient]struct{}
	closed  bool

	onRequest  func(client *RemoteClient, a adu.ADU, req pdu.Request)
	onResponse func(client *RemoteClient, a adu.ADU, req pdu.Request, resp pdu.Response)
}

// OnRequest registers the callback fired once a client's request has been
// decoded, before handler is invoked.
func (s *Slave) OnRequest(f func(client *RemoteClient, a adu.ADU, req pdu.Request)) { s.onRequest = f }

// OnResponse registers the callback fired once a response has been built
// (by handler or by invokeHandler's own error classification), before it
// is encoded and written back to the client.
func (s *Slave) OnResponse(f func(client *RemoteClient, a adu.ADU, req pdu.Request, resp pdu.Response)) {
	s.onResponse = f
}

// NewSlave constructs a Slave that accepts clients from listener and
// dispatches their decoded requests to handler, framed according to mode.
func NewSlave(listener transport.Listener, mode adu.Mode, handler RequestHandler, opts ...Option) (*Slave, error) {
	s := &Slave{
		listener:             listener,
		mode:                 mode,
		handler:              handler,
		logger:               log.Noop(),
		suppressClientErrors: true,
		clients:              make(map[*RemoteClient]struct{}),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	go s.acceptLoop()

	return s, nil
}

func (s *Slave) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		if s.maxClients > 0 && len(s.clients) >= s.maxClients {
			s.mu.Unlock()
			conn.Close()
			continue
		}
		var streamOpts []adu.StreamOption
		if s.mode == adu.ModeRTU {
			streamOpts = append(streamOpts, adu.WithEOFTimeout(s.eofTimeout))
		}
		client := newRemoteClient(conn, s.mode, s.logger, streamOpts...)
		s.clients[client] = struct{}{}
		s.mu.Unlock()

		go s.serveClient(client)
	}
}

func (s *Slave) serveClient(client *RemoteClient) {
	client.stream.OnADU(func(a adu.ADU) { s.handleADU(client, a) })
	client.stream.OnError(func(err error) {
		if !s.suppressClientErrors {
			s.logger.Warningf("client %s: %v", client.RemoteAddr(), err)
		}
	})
	client.stream.OnBufferOverflow(func(discarded []byte) {
		s.logger.Warningf("client %s: reassembly buffer overflow, discarding %d bytes", client.RemoteAddr(), len(discarded))
	})

	defer s.removeClient(client)

	buf := make([]byte, 512)
	for {
		n, err := client.conn.Read(buf)
		if n > 0 {
			client.stream.Feed(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (s *Slave) removeClient(client *RemoteClient) {
	client.Close()
	s.mu.Lock()
	delete(s.clients, client)
	s.mu.Unlock()
}

func (s *Slave) handleADU(client *RemoteClient, a adu.ADU) {
	req, err := pdu.DecodeRequest(a.PDU)
	if err != nil {
		if !s.suppressClientErrors {
			s.logger.Warningf("client %s: %v", client.RemoteAddr(), err)
		}
		return
	}

	if s.onRequest != nil {
		s.onRequest(client, a, req)
	}

	resp := s.invokeHandler(a.Unit, req, client)

	if s.onResponse != nil {
		s.onResponse(client, a, req, resp)
	}

	wire := client.codec.Encode(adu.ADU{TransactionID: a.TransactionID, Unit: a.Unit, PDU: resp.Encode()})
	if err := client.write(wire); err != nil {
		if !s.suppressClientErrors {
			s.logger.Warningf("client %s: write failed: %v", client.RemoteAddr(), err)
		}
	}
}

func (s *Slave) invokeHandler(unit uint8, req pdu.Request, client *RemoteClient) pdu.Response {
	resp, err := s.handler(unit, req, client)
	if err == nil {
		if resp == nil {
			return &pdu.ExceptionResponse{RequestCode: req.FunctionCode(), Code: pdu.SlaveDeviceFailure}
		}
		if resp.FunctionCode() != req.FunctionCode() {
			return &pdu.ExceptionResponse{RequestCode: req.FunctionCode(), Code: pdu.SlaveDeviceFailure}
		}
		return resp
	}

	if code, ok := err.(pdu.ExceptionCode); ok {
		return &pdu.ExceptionResponse{RequestCode: req.FunctionCode(), Code: code}
	}
	return &pdu.ExceptionResponse{RequestCode: req.FunctionCode(), Code: pdu.SlaveDeviceFailure}
}

// Addr reports the listener's bound address, as useful for ephemeral
// ports (e.g. "127.0.0.1:0") where the caller needs to learn the port
// actually chosen.
func (s *Slave) Addr() string { return s.listener.Addr() }

// Close stops accepting new clients and closes every currently connected
// client.
func (s *Slave) Close() error {
	s.mu.Lock()
	s.closed = true
	clients := make([]*RemoteClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	return s.listener.Close()
}
