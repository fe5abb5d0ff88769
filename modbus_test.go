package gomodbus

import (
	"testing"
	"time"

	"github.com/nexusmb/gomodbus/master"
	"github.com/nexusmb/gomodbus/pdu"
	"github.com/nexusmb/gomodbus/slave"
)

func TestTCPMasterSlaveRoundTrip(t *testing.T) {
	handler := func(unit uint8, req pdu.Request, c *slave.RemoteClient) (pdu.Response, error) {
		r, ok := req.(*pdu.ReadHoldingRegistersRequest)
		if !ok {
			return nil, pdu.IllegalFunctionCode
		}
		data := make([]byte, int(r.Quantity)*2)
		data[1] = 0x2A
		return pdu.NewReadHoldingRegistersResponse(data)
	}

	srv, err := NewTCPSlave("127.0.0.1:0", ModeIP, handler)
	if err != nil {
		t.Fatalf("NewTCPSlave: %v", err)
	}
	defer srv.Close()

	addr := srv.Addr()

	m, err := NewTCPMaster(addr, ModeIP, time.Second, master.WithDefaultTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewTCPMaster: %v", err)
	}
	defer m.Destroy()

	req, err := pdu.NewReadHoldingRegistersRequest(0, 1)
	if err != nil {
		t.Fatalf("NewReadHoldingRegistersRequest: %v", err)
	}

	done := make(chan struct{})
	var resp pdu.Response
	var txErr error
	tx := m.Execute(req)
	tx.OnComplete(func(err error, r pdu.Response) {
		txErr = err
		resp = r
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for round trip")
	}

	if txErr != nil {
		t.Fatalf("transaction error: %v", txErr)
	}
	rr, ok := resp.(*pdu.ReadHoldingRegistersResponse)
	if !ok {
		t.Fatalf("response is %T", resp)
	}
	if rr.Data[1] != 0x2A {
		t.Fatalf("Data = % x", rr.Data)
	}
}
