package master

import (
	"sync"
	"time"

	"github.com/nexusmb/gomodbus/pdu"
)

// State is a Transaction's position in its lifecycle.
type State int

const (
	StateQueued State = iota
	StateInFlight
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateInFlight:
		return "inFlight"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Transaction is a Master-side unit of work: a Request bound to a unit,
// with retry/timeout/repeat policy and a small set of observer callbacks.
// It replaces the teacher's one-shot ExecuteRequest call with an object
// that owns its own lifecycle, per spec.md Design Notes §9 ("each
// Transaction becomes an object owning one result channel and a small
// set of observer callbacks; the Master writes to the channel once").
type Transaction struct {
	id         uint64
	Request    pdu.Request
	Unit       uint8
	MaxRetries int
	Timeout    time.Duration
	// Interval is the repeat period; negative means non-repeatable.
	Interval time.Duration

	mu         sync.Mutex
	state      State
	cancelled  bool
	failures   int
	aduID      uint16
	timer      *time.Timer
	cachedWire []byte

	onResponse func(pdu.Response)
	onError    func(error)
	onTimeout  func()
	onComplete func(err error, resp pdu.Response)
	onCancel   func()
}

func newTransaction(req pdu.Request, unit uint8, maxRetries int, timeout, interval time.Duration) *Transaction {
	return &Transaction{
		Request:    req,
		Unit:       unit,
		MaxRetries: maxRetries,
		Timeout:    timeout,
		Interval:   interval,
		state:      StateQueued,
	}
}

// OnResponse registers the callback invoked when a non-exception (or a
// final, no-longer-retried) response arrives.
func (t *Transaction) OnResponse(f func(pdu.Response)) { t.onResponse = f }

// OnError registers the callback invoked for every failed attempt
// (timeout, invalid frame, transport error), including attempts that are
// then retried.
func (t *Transaction) OnError(f func(error)) { t.onError = f }

// OnTimeout registers the callback invoked once if the per-attempt
// timeout fires before a response or cancellation.
func (t *Transaction) OnTimeout(f func()) { t.onTimeout = f }

// OnComplete registers the callback that fires once for every failed
// attempt (retried or not), with a non-nil err, and once when a response
// ends the transaction, with a non-nil resp. An exception response that is
// retried does not fire it. After Cancel of a still-queued transaction it
// fires once with both err and resp nil.
func (t *Transaction) OnComplete(f func(err error, resp pdu.Response)) { t.onComplete = f }

// OnCancel registers the callback invoked when Cancel is called.
func (t *Transaction) OnCancel(f func()) { t.onCancel = f }

// State reports the transaction's current lifecycle state.
func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Cancel marks the transaction cancelled. It is idempotent. After Cancel,
// timeout/error/response callbacks are suppressed, but complete always
// still fires: if still queued, immediately (nothing will ever arrive for
// it); if in flight, once the outstanding attempt resolves naturally, so
// the timer is deliberately left running and the transport's bookkeeping
// intact.
func (t *Transaction) Cancel() {
	t.mu.Lock()
	if t.cancelled {
		t.mu.Unlock()
		return
	}
	t.cancelled = true
	wasQueued := t.state == StateQueued
	if t.state != StateCompleted {
		t.state = StateCancelled
	}
	onCancel := t.onCancel
	t.mu.Unlock()

	if onCancel != nil {
		onCancel()
	}
	if wasQueued {
		t.emitComplete(nil, nil)
	}
}

func (t *Transaction) isCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

func (t *Transaction) emitTimeout() {
	if !t.isCancelled() && t.onTimeout != nil {
		t.onTimeout()
	}
}

func (t *Transaction) emitError(err error) {
	if !t.isCancelled() && t.onError != nil {
		t.onError(err)
	}
}

func (t *Transaction) emitResponse(resp pdu.Response) {
	if !t.isCancelled() && t.onResponse != nil {
		t.onResponse(resp)
	}
}

func (t *Transaction) emitComplete(err error, resp pdu.Response) {
	if t.onComplete != nil {
		t.onComplete(err, resp)
	}
}

// isRepeatable reports whether the transaction should be re-executed
// after reaching a terminal outcome.
func (t *Transaction) isRepeatable() bool {
	return t.Interval >= 0
}
