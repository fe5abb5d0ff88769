package slave

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/nexusmb/gomodbus/adu"
	"github.com/nexusmb/gomodbus/pdu"
	"github.com/nexusmb/gomodbus/transport"
)

type pipeConn struct {
	net.Conn
}

func (p pipeConn) RemoteAddr() string { return "pipe" }

type pipeListener struct {
	mu      sync.Mutex
	pending []transport.Connection
	ready   chan struct{}
	closed  bool
}

func newPipeListener() *pipeListener {
	return &pipeListener{ready: make(chan struct{}, 8)}
}

func (l *pipeListener) push(c transport.Connection) {
	l.mu.Lock()
	l.pending = append(l.pending, c)
	l.mu.Unlock()
	l.ready <- struct{}{}
}

func (l *pipeListener) Accept() (transport.Connection, error) {
	<-l.ready
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.pending[0]
	l.pending = l.pending[1:]
	return c, nil
}

func (l *pipeListener) Close() error { l.closed = true; return nil }
func (l *pipeListener) Addr() string { return "pipe" }

func TestSlaveRespondsToReadHoldingRegisters(t *testing.T) {
	ln := newPipeListener()
	client, server := net.Pipe()
	ln.push(pipeConn{Conn: server})

	handler := func(unit uint8, req pdu.Request, c *RemoteClient) (pdu.Response, error) {
		r := req.(*pdu.ReadHoldingRegistersRequest)
		if r.Quantity != 1 {
			t.Fatalf("Quantity = %d, want 1", r.Quantity)
		}
		return pdu.NewReadHoldingRegistersResponse([]byte{0x00, 0x2A})
	}

	s, err := NewSlave(ln, adu.ModeIP, handler)
	if err != nil {
		t.Fatalf("NewSlave: %v", err)
	}
	defer s.Close()

	req, _ := pdu.NewReadHoldingRegistersRequest(0, 1)
	wire := adu.IPCodec{}.Encode(adu.ADU{TransactionID: 7, Unit: 1, PDU: req.Encode()})

	client.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := client.Write(wire); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, 64)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	decoded, err := adu.IPCodec{}.Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.TransactionID != 7 || decoded.Unit != 1 {
		t.Fatalf("decoded = %+v", decoded)
	}
	resp, err := pdu.DecodeResponse(pdu.ReadHoldingRegisters, decoded.PDU)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	rr, ok := resp.(*pdu.ReadHoldingRegistersResponse)
	if !ok {
		t.Fatalf("response is %T", resp)
	}
	if rr.Data[1] != 0x2A {
		t.Fatalf("Data = % x", rr.Data)
	}
}

func TestSlaveHandlerExceptionCode(t *testing.T) {
	ln := newPipeListener()
	client, server := net.Pipe()
	ln.push(pipeConn{Conn: server})

	handler := func(unit uint8, req pdu.Request, c *RemoteClient) (pdu.Response, error) {
		return nil, pdu.IllegalDataAddress
	}

	s, err := NewSlave(ln, adu.ModeIP, handler)
	if err != nil {
		t.Fatalf("NewSlave: %v", err)
	}
	defer s.Close()

	req, _ := pdu.NewReadHoldingRegistersRequest(0, 1)
	wire := adu.IPCodec{}.Encode(adu.ADU{TransactionID: 1, Unit: 1, PDU: req.Encode()})
	client.SetDeadline(time.Now().Add(2 * time.Second))
	client.Write(wire)

	buf := make([]byte, 64)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	decoded, err := adu.IPCodec{}.Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	resp, err := pdu.DecodeResponse(pdu.ReadHoldingRegisters, decoded.PDU)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	er, ok := resp.(*pdu.ExceptionResponse)
	if !ok {
		t.Fatalf("response is %T, want *pdu.ExceptionResponse", resp)
	}
	if er.Code != pdu.IllegalDataAddress {
		t.Fatalf("Code = %v, want IllegalDataAddress", er.Code)
	}
}
