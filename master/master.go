// Package master implements the Master (client) transaction scheduler: a
// bounded-concurrency request queue with per-transaction retry, timeout,
// interval-repeat and cancellation semantics, coordinated with connection
// open/close. Grounded on the teacher's Client (client.go), generalized
// from its one-Request-at-a-time ExecuteRequest into the spec's
// multi-transaction scheduler (spec.md §4.3).
package master

import (
	"sync"
	"time"

	"github.com/nexusmb/gomodbus/adu"
	"github.com/nexusmb/gomodbus/internal/log"
	"github.com/nexusmb/gomodbus/merrors"
	"github.com/nexusmb/gomodbus/pdu"
	"github.com/nexusmb/gomodbus/transport"
)

// Option configures a Master at construction time, following the
// teacher's functional-option pattern (server.go's `type Option
// func(*ModbusServer) error`).
type Option func(*Master) error

func WithSuppressTransactionErrors(v bool) Option {
	return func(m *Master) error { m.suppressTransactionErrors = v; return nil }
}

func WithRetryOnException(v bool) Option {
	return func(m *Master) error { m.retryOnException = v; return nil }
}

func WithMaxConcurrentRequests(n int) Option {
	return func(m *Master) error {
		if n < 1 {
			return &merrors.InvalidArgument{Field: "maxConcurrentRequests", Reason: "must be >= 1"}
		}
		m.maxConcurrentRequests = n
		return nil
	}
}

func WithDefaultUnit(unit uint8) Option {
	return func(m *Master) error { m.defaultUnit = unit; return nil }
}

func WithDefaultMaxRetries(n int) Option {
	return func(m *Master) error { m.defaultMaxRetries = n; return nil }
}

func WithDefaultTimeout(d time.Duration) Option {
	return func(m *Master) error { m.defaultTimeout = d; return nil }
}

// WithEOFTimeout sets the RTU inter-frame silence window (see
// adu.WithEOFTimeout); meaningless outside ModeRTU.
func WithEOFTimeout(d time.Duration) Option {
	return func(m *Master) error { m.eofTimeout = d; return nil }
}

func WithLogger(l log.Logger) Option {
	return func(m *Master) error { m.logger = l; return nil }
}

// Master owns one Connection and framing Mode; it schedules Transactions
// across it under a concurrency bound, matches responses, and applies
// retry/repeat/timeout policy (spec.md §4.3).
type Master struct {
	conn   transport.Connection
	mode   adu.Mode
	codec  adu.Codec
	stream *adu.Stream
	logger log.Logger

	suppressTransactionErrors bool
	retryOnException          bool
	maxConcurrentRequests     int
	defaultUnit               uint8
	defaultMaxRetries         int
	defaultTimeout            time.Duration
	eofTimeout                time.Duration

	mu             sync.Mutex
	pendingQueue   []*Transaction
	inFlight       map[uint16]*Transaction
	inFlightCount  int
	repeatable     map[*Transaction]struct{}
	nextID         uint64
	nextADUID      uint16
	connectionOpen bool
	closed         bool
	disconnectedOnce bool

	onDisconnected func(error)
	onError        func(error)
}

// NewMaster constructs a Master over an already-open Connection using the
// given framing mode.
func NewMaster(conn transport.Connection, mode adu.Mode, opts ...Option) (*Master, error) {
	m := &Master{
		conn:                  conn,
		mode:                  mode,
		retryOnException:      true,
		maxConcurrentRequests: 1,
		defaultMaxRetries:     3,
		defaultTimeout:        100 * time.Millisecond,
		logger:                log.Noop(),
		inFlight:              make(map[uint16]*Transaction),
		repeatable:            make(map[*Transaction]struct{}),
		connectionOpen:        true,
	}

	switch mode {
	case adu.ModeIP:
		m.codec = adu.IPCodec{}
	case adu.ModeRTU:
		m.codec = adu.RTUCodec{}
	case adu.ModeASCII:
		m.codec = adu.ASCIICodec{}
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	streamOpts := []adu.StreamOption{}
	if mode == adu.ModeRTU {
		streamOpts = append(streamOpts, adu.WithEOFTimeout(m.eofTimeout))
	}
	m.stream = adu.NewStream(mode, streamOpts...)
	m.stream.OnADU(m.handleADU)
	m.stream.OnError(m.handleFrameError)
	m.stream.OnBufferOverflow(m.handleBufferOverflow)

	go m.readLoop()

	return m, nil
}

// OnDisconnected registers the callback invoked the first time the
// underlying connection closes within one open/Reconnect cycle.
func (m *Master) OnDisconnected(f func(error)) { m.onDisconnected = f }

// OnError registers the callback invoked for connection-level errors that
// do not correspond to any single Transaction (reassembly buffer
// overflow and similar), as distinct from per-Transaction error events.
func (m *Master) OnError(f func(error)) { m.onError = f }

func (m *Master) emitError(err error) {
	if m.onError != nil {
		m.onError(err)
	}
}

// Reconnect replaces the Master's connection with conn, marks the
// connection open again, and re-queues every still-repeatable transaction
// before draining, per spec.md's "on connection.open: queue all
// repeatable transactions (append) and drain."
func (m *Master) Reconnect(conn transport.Connection) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.conn = conn
	m.connectionOpen = true
	m.disconnectedOnce = false
	for t := range m.repeatable {
		t.state = StateQueued
		m.pendingQueue = append(m.pendingQueue, t)
	}
	m.mu.Unlock()

	go m.readLoop()
	m.drain()
}

func (m *Master) readLoop() {
	buf := make([]byte, 512)
	for {
		n, err := m.conn.Read(buf)
		if n > 0 {
			m.stream.Feed(buf[:n])
		}
		if err != nil {
			m.handleConnectionClosed()
			return
		}
	}
}

// Execute enqueues a Transaction built from req and the supplied
// TxOptions, applying Master defaults for any field left unset, and
// drains the pending queue. It does not wait for a response, but when a
// concurrency slot is free the request is written to the connection
// before Execute returns, so Execute blocks for as long as that Write
// does. Results are delivered through the Transaction's callbacks.
func (m *Master) Execute(req pdu.Request, opts ...TxOption) *Transaction {
	t := newTransaction(req, m.defaultUnit, m.defaultMaxRetries, m.defaultTimeout, -1)
	for _, opt := range opts {
		opt(t)
	}
	if m.suppressTransactionErrors {
		t.OnError(func(error) {})
	}

	m.mu.Lock()
	t.id = m.nextID
	m.nextID++
	if t.isRepeatable() {
		m.repeatable[t] = struct{}{}
	}
	m.pendingQueue = append(m.pendingQueue, t)
	m.mu.Unlock()

	m.drain()
	return t
}

// Cancel cancels a transaction, removing it from the pending queue and
// the repeatable set if present. If it is in flight, the transport's
// bookkeeping is left intact so the eventual response/timeout is still
// consumed, but user-visible events are suppressed.
func (m *Master) Cancel(t *Transaction) {
	t.Cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.repeatable, t)
	for i, q := range m.pendingQueue {
		if q == t {
			m.pendingQueue = append(m.pendingQueue[:i], m.pendingQueue[i+1:]...)
			break
		}
	}
}

// Destroy cancels every pending and in-flight transaction and releases
// the connection. Further calls to Execute are no-ops.
func (m *Master) Destroy() error {
	m.mu.Lock()
	m.closed = true
	pending := append([]*Transaction(nil), m.pendingQueue...)
	m.pendingQueue = nil
	inFlight := make([]*Transaction, 0, len(m.inFlight))
	for _, t := range m.inFlight {
		inFlight = append(inFlight, t)
	}
	m.mu.Unlock()

	for _, t := range pending {
		t.Cancel()
	}
	for _, t := range inFlight {
		t.Cancel()
	}
	return m.conn.Close()
}

func (m *Master) drain() {
	for {
		m.mu.Lock()
		if m.closed || len(m.pendingQueue) == 0 || m.inFlightCount >= m.maxConcurrentRequests || !m.connectionOpen {
			m.mu.Unlock()
			return
		}
		t := m.pendingQueue[0]
		m.pendingQueue = m.pendingQueue[1:]
		m.mu.Unlock()
		m.dispatch(t)
	}
}

func (m *Master) dispatch(t *Transaction) {
	if t.isCancelled() {
		return
	}

	m.mu.Lock()
	var aduID uint16
	if m.mode == adu.ModeIP {
		aduID = m.nextADUID
		m.nextADUID++
		if m.nextADUID == 0xFFFF {
			m.nextADUID = 0
		}
	}
	t.aduID = aduID
	m.inFlight[aduID] = t
	m.inFlightCount++
	m.mu.Unlock()

	t.mu.Lock()
	t.state = StateInFlight
	wire := t.cachedWire
	if wire == nil || !m.codec.Update(wire, aduID) {
		wire = m.codec.Encode(adu.ADU{TransactionID: aduID, Unit: t.Unit, PDU: t.Request.Encode()})
		t.cachedWire = wire
	}
	t.mu.Unlock()

	if _, err := m.conn.Write(wire); err != nil {
		m.completeWithError(t, err)
		return
	}

	t.timer = time.AfterFunc(t.Timeout, func() {
		t.emitTimeout()
		m.completeWithError(t, merrors.ErrResponseTimeout)
	})
}

func (m *Master) lookupInFlight(a adu.ADU) (*Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == adu.ModeIP {
		t, ok := m.inFlight[a.TransactionID]
		return t, ok
	}
	// RTU/ASCII: the response always matches the single outstanding
	// transaction, since maxConcurrentRequests > 1 is only meaningful
	// for IP framing (spec.md §4.3).
	for _, t := range m.inFlight {
		return t, true
	}
	return nil, false
}

func (m *Master) handleADU(a adu.ADU) {
	t, ok := m.lookupInFlight(a)
	if !ok {
		m.logger.Warningf("received ADU with no matching outstanding transaction: %s", a)
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}

	if m.mode == adu.ModeIP && a.Unit != t.Unit {
		m.completeWithError(t, &merrors.InvalidResponseData{Reason: "unit mismatch"})
		return
	}

	resp, err := pdu.DecodeResponse(t.Request.FunctionCode(), a.PDU)
	if err != nil {
		m.completeWithError(t, err)
		return
	}
	m.completeWithResponse(t, resp)
}

func (m *Master) handleFrameError(err error) {
	// RTU/ASCII: a malformed frame can only belong to the single
	// outstanding transaction, if any.
	if m.mode == adu.ModeIP {
		m.logger.Warningf("dropped malformed frame: %v", err)
		return
	}
	m.mu.Lock()
	var t *Transaction
	for _, cand := range m.inFlight {
		t = cand
		break
	}
	m.mu.Unlock()
	if t == nil {
		m.logger.Warningf("dropped malformed frame: %v", err)
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	m.completeWithError(t, err)
}

func (m *Master) handleBufferOverflow(discarded []byte) {
	m.logger.Warningf("reassembly buffer overflow, discarding %d accumulated bytes", len(discarded))
	m.emitError(merrors.ErrIncompleteResponseFrame)
}

func (m *Master) handleConnectionClosed() {
	m.mu.Lock()
	wasOpen := m.connectionOpen
	m.connectionOpen = false
	inFlight := make([]*Transaction, 0, len(m.inFlight))
	for _, t := range m.inFlight {
		inFlight = append(inFlight, t)
	}
	m.mu.Unlock()

	for _, t := range inFlight {
		if t.timer != nil {
			t.timer.Stop()
		}
		m.completeWithError(t, merrors.ErrConnectionClosed)
	}

	if wasOpen && !m.disconnectedOnce {
		m.disconnectedOnce = true
		m.logger.Warning("connection closed")
		if m.onDisconnected != nil {
			m.onDisconnected(merrors.ErrConnectionClosed)
		}
	}
}

func (m *Master) removeInFlight(t *Transaction) {
	m.mu.Lock()
	delete(m.inFlight, t.aduID)
	m.inFlightCount--
	m.mu.Unlock()
}

func (m *Master) completeWithError(t *Transaction, err error) {
	m.removeInFlight(t)

	t.mu.Lock()
	t.failures++
	retry := t.failures <= t.MaxRetries
	t.mu.Unlock()

	if retry {
		t.emitError(err)
		t.emitComplete(err, nil)
		m.requeueHead(t)
		return
	}

	t.emitError(err)
	t.mu.Lock()
	if t.state != StateCancelled {
		t.state = StateCompleted
	}
	t.mu.Unlock()
	t.emitComplete(err, nil)
	m.scheduleRepeat(t)
}

func (m *Master) completeWithResponse(t *Transaction, resp pdu.Response) {
	m.removeInFlight(t)

	if ex, ok := resp.(*pdu.ExceptionResponse); ok && m.retryOnException {
		t.mu.Lock()
		t.failures++
		retry := t.failures <= t.MaxRetries
		t.mu.Unlock()
		if retry {
			m.requeueHead(t)
			return
		}
		t.emitResponse(ex)
		t.mu.Lock()
		if t.state != StateCancelled {
			t.state = StateCompleted
		}
		t.mu.Unlock()
		t.emitComplete(nil, ex)
		m.scheduleRepeat(t)
		return
	}

	t.mu.Lock()
	t.failures = 0
	if t.state != StateCancelled {
		t.state = StateCompleted
	}
	t.mu.Unlock()
	t.emitResponse(resp)
	t.emitComplete(nil, resp)
	m.scheduleRepeat(t)
}

func (m *Master) requeueHead(t *Transaction) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	t.state = StateQueued
	m.pendingQueue = append([]*Transaction{t}, m.pendingQueue...)
	m.mu.Unlock()
	m.drain()
}

func (m *Master) scheduleRepeat(t *Transaction) {
	if !t.isRepeatable() || t.isCancelled() {
		return
	}
	m.mu.Lock()
	_, stillRepeatable := m.repeatable[t]
	open := m.connectionOpen && !m.closed
	m.mu.Unlock()
	if !stillRepeatable || !open {
		return
	}
	time.AfterFunc(t.Interval, func() {
		m.mu.Lock()
		t.failures = 0
		t.state = StateQueued
		m.pendingQueue = append(m.pendingQueue, t)
		m.mu.Unlock()
		m.drain()
	})
}
