package master

import (
	"net"
	"testing"
	"time"

	"github.com/nexusmb/gomodbus/adu"
	"github.com/nexusmb/gomodbus/pdu"
)

// pipeConn adapts one end of a net.Pipe to transport.Connection.
type pipeConn struct {
	net.Conn
}

func (p pipeConn) RemoteAddr() string { return "pipe" }

func newPipe() (pipeConn, net.Conn) {
	a, b := net.Pipe()
	return pipeConn{Conn: a}, b
}

// S7
func TestMasterTimeoutThenRetry(t *testing.T) {
	client, server := newPipe()
	defer server.Close()

	m, err := NewMaster(client, adu.ModeIP,
		WithMaxConcurrentRequests(1),
		WithDefaultMaxRetries(1),
		WithDefaultTimeout(30*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewMaster: %v", err)
	}

	req, _ := pdu.NewReadHoldingRegistersRequest(0, 1)

	var timeouts, errs, completes int
	done := make(chan struct{})

	tx := m.Execute(req)
	tx.OnTimeout(func() { timeouts++ })
	tx.OnError(func(error) { errs++ })
	tx.OnComplete(func(err error, resp pdu.Response) {
		completes++
		if completes == 2 {
			close(done)
		}
	})

	// drain and discard the first attempt's bytes off the wire so the
	// timeout fires; then answer the retried attempt.
	go func() {
		buf := make([]byte, 64)
		server.SetReadDeadline(time.Now().Add(time.Second))
		n, err := server.Read(buf)
		if err != nil || n == 0 {
			return
		}
		// let the first attempt time out without a response

		server.SetReadDeadline(time.Now().Add(time.Second))
		n, err = server.Read(buf)
		if err != nil || n == 0 {
			return
		}
		frame := append([]byte(nil), buf[:n]...)
		decoded, err := adu.IPCodec{}.Decode(frame)
		if err != nil {
			return
		}
		resp, _ := pdu.NewReadHoldingRegistersResponse([]byte{0x00, 0x2A})
		wire := adu.IPCodec{}.Encode(adu.ADU{TransactionID: decoded.TransactionID, Unit: decoded.Unit, PDU: resp.Encode()})
		server.Write(wire)
	}()

	tx := m.Execute(req)
	tx.OnTimeout(func() { timeouts++ })
	tx.OnError(func(error) { errs++ })
	tx.OnComplete(func(err error, resp pdu.Response) {
		completes++
		if completes == 2 {
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for transaction to complete twice (retry path)")
	}

	if timeouts == 0 {
		t.Fatalf("expected at least one timeout event")
	}
	if completes != 2 {
		t.Fatalf("completes = %d, want 2 (initial timeout + final response)", completes)
	}
}

// S8
func TestMasterExceptionRetry(t *testing.T) {
	client, server := newPipe()
	defer server.Close()

	m, err := NewMaster(client, adu.ModeIP,
		WithDefaultMaxRetries(1),
		WithDefaultTimeout(time.Second),
	)
	if err != nil {
		t.Fatalf("NewMaster: %v", err)
	}

	req, _ := pdu.NewReadHoldingRegistersRequest(0, 1)

	attempts := 0
	done := make(chan pdu.Response, 1)

	go func() {
		buf := make([]byte, 64)
		for i := 0; i < 2; i++ {
			server.SetReadDeadline(time.Now().Add(time.Second))
			n, err := server.Read(buf)
			if err != nil || n == 0 {
				return
			}
			decoded, err := adu.IPCodec{}.Decode(buf[:n])
			if err != nil {
				return
			}
			attempts++
			var pduBytes []byte
			if i == 0 {
				pduBytes = []byte{0x83, 0x02} // ExceptionResponse(IllegalDataAddress)
			} else {
				resp, _ := pdu.NewReadHoldingRegistersResponse([]byte{0x00, 0x01})
				pduBytes = resp.Encode()
			}
			wire := adu.IPCodec{}.Encode(adu.ADU{TransactionID: decoded.TransactionID, Unit: decoded.Unit, PDU: pduBytes})
			server.Write(wire)
		}
	}()

	tx := m.Execute(req)
	tx.OnComplete(func(err error, resp pdu.Response) {
		done <- resp
	})

	select {
	case resp := <-done:
		if _, ok := resp.(*pdu.ExceptionResponse); ok {
			t.Fatalf("final response should not be the exception, retry should have replaced it")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for completion")
	}

	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2 (original + retry-on-exception)", attempts)
	}
}

func TestTransactionCancelSuppressesEvents(t *testing.T) {
	client, server := newPipe()
	defer server.Close()
	go func() {
		buf := make([]byte, 64)
		server.Read(buf)
	}()

	m, err := NewMaster(client, adu.ModeIP, WithDefaultTimeout(50*time.Millisecond), WithDefaultMaxRetries(0))
	if err != nil {
		t.Fatalf("NewMaster: %v", err)
	}

	req, _ := pdu.NewReadHoldingRegistersRequest(0, 1)
	tx := m.Execute(req)

	var sawTimeout, sawError bool
	completed := make(chan struct{})
	tx.OnTimeout(func() { sawTimeout = true })
	tx.OnError(func(error) { sawError = true })
	tx.OnComplete(func(error, pdu.Response) { close(completed) })

	m.Cancel(tx)

	select {
	case <-completed:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected complete to still fire after cancel")
	}

	if sawTimeout || sawError {
		t.Fatalf("cancel should suppress timeout/error events")
	}
	if tx.State() != StateCancelled {
		t.Fatalf("State() = %v, want %v", tx.State(), StateCancelled)
	}
}
