package pdu

import (
	"bytes"
	"testing"
)

// S1
func TestReadCoilsRequestEncodeDecode(t *testing.T) {
	req, err := NewReadCoilsRequest(0x0001, 2)
	if err != nil {
		t.Fatalf("NewReadCoilsRequest: %v", err)
	}
	got := req.Encode()
	want := []byte{0x01, 0x00, 0x01, 0x00, 0x02}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}

	decoded, err := DecodeRequest(want)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	rc, ok := decoded.(*ReadCoilsRequest)
	if !ok {
		t.Fatalf("DecodeRequest returned %T, want *ReadCoilsRequest", decoded)
	}
	if rc.StartingAddress != 1 || rc.Quantity != 2 {
		t.Fatalf("decoded = %+v, want StartingAddress=1 Quantity=2", rc)
	}
}

// S2
func TestReadDiscreteInputsResponseEncode(t *testing.T) {
	states := []bool{true, true, false, true, false, false, true, true, true, false, false, false, false, false, false, false}
	resp, err := NewReadDiscreteInputsResponse(states)
	if err != nil {
		t.Fatalf("NewReadDiscreteInputsResponse: %v", err)
	}
	got := resp.Encode()
	want := []byte{0x02, 0x02, 0xCB, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}
}

// S3
func TestWriteSingleCoilEncodeDecode(t *testing.T) {
	req, err := NewWriteSingleCoilRequest(0x0001, true)
	if err != nil {
		t.Fatalf("NewWriteSingleCoilRequest: %v", err)
	}
	got := req.Encode()
	want := []byte{0x05, 0x00, 0x01, 0xFF, 0x00}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}

	decoded, err := DecodeRequest([]byte{0x05, 0x00, 0x01, 0x00, 0x00})
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	wsc, ok := decoded.(*WriteSingleCoilRequest)
	if !ok {
		t.Fatalf("DecodeRequest returned %T, want *WriteSingleCoilRequest", decoded)
	}
	if wsc.State != false {
		t.Fatalf("State = %v, want false", wsc.State)
	}
}

// S4
func TestWriteMultipleRegistersRequestEncode(t *testing.T) {
	req, err := NewWriteMultipleRegistersRequest(0, []byte{0x00, 0x01, 0x00, 0x02})
	if err != nil {
		t.Fatalf("NewWriteMultipleRegistersRequest: %v", err)
	}
	got := req.Encode()
	want := []byte{0x10, 0x00, 0x00, 0x00, 0x02, 0x04, 0x00, 0x01, 0x00, 0x02}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode() = % x, want % x", got, want)
	}
	if req.Quantity() != 2 {
		t.Fatalf("Quantity() = %d, want 2", req.Quantity())
	}
}

func TestExceptionResponseRoundTrip(t *testing.T) {
	wire := []byte{0x83, 0x02}
	resp, err := DecodeResponse(ReadHoldingRegisters, wire)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	er, ok := resp.(*ExceptionResponse)
	if !ok {
		t.Fatalf("DecodeResponse returned %T, want *ExceptionResponse", resp)
	}
	if er.RequestCode != ReadHoldingRegisters || er.Code != IllegalDataAddress {
		t.Fatalf("decoded = %+v, want RequestCode=ReadHoldingRegisters Code=IllegalDataAddress", er)
	}
	if !bytes.Equal(er.Encode(), wire) {
		t.Fatalf("Encode() = % x, want % x", er.Encode(), wire)
	}
}

func TestReadHoldingRegistersRoundTrip(t *testing.T) {
	req, err := NewReadHoldingRegistersRequest(0x0010, 4)
	if err != nil {
		t.Fatalf("NewReadHoldingRegistersRequest: %v", err)
	}
	decoded, err := DecodeRequest(req.Encode())
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	got, ok := decoded.(*ReadHoldingRegistersRequest)
	if !ok {
		t.Fatalf("DecodeRequest returned %T", decoded)
	}
	if *got != *req {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, req)
	}

	resp, err := NewReadHoldingRegistersResponse([]byte{0x00, 0x0A, 0x00, 0x0B})
	if err != nil {
		t.Fatalf("NewReadHoldingRegistersResponse: %v", err)
	}
	decodedResp, err := DecodeResponse(ReadHoldingRegisters, resp.Encode())
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	rr, ok := decodedResp.(*ReadHoldingRegistersResponse)
	if !ok {
		t.Fatalf("DecodeResponse returned %T", decodedResp)
	}
	if !bytes.Equal(rr.Data, resp.Data) {
		t.Fatalf("Data = % x, want % x", rr.Data, resp.Data)
	}
}

func TestWriteSingleRegisterNegativeValue(t *testing.T) {
	req, err := NewWriteSingleRegisterRequest(5, -1)
	if err != nil {
		t.Fatalf("NewWriteSingleRegisterRequest: %v", err)
	}
	if req.Value != 0xFFFF {
		t.Fatalf("Value = 0x%04x, want 0xFFFF", req.Value)
	}
}

func TestReadWriteMultipleRegistersCap(t *testing.T) {
	tooLong := make([]byte, maxWriteRegisterBytes+2)
	if _, err := NewReadWriteMultipleRegistersRequest(0, 1, 0, tooLong); err == nil {
		t.Fatalf("expected error for write payload exceeding %d bytes", maxWriteRegisterBytes)
	}

	ok := make([]byte, maxWriteRegisterBytes)
	req, err := NewReadWriteMultipleRegistersRequest(0, 1, 0, ok)
	if err != nil {
		t.Fatalf("NewReadWriteMultipleRegistersRequest: %v", err)
	}
	decoded, err := DecodeRequest(req.Encode())
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if _, ok := decoded.(*ReadWriteMultipleRegistersRequest); !ok {
		t.Fatalf("DecodeRequest returned %T", decoded)
	}
}

func TestWriteFileRecordRoundTrip(t *testing.T) {
	items := []FileRecordRequestItem{
		{FileNumber: 4, RecordNumber: 1, RecordLength: 2, RecordData: []byte{0x00, 0x01, 0x00, 0x02}},
	}
	req, err := NewWriteFileRecordRequest(items)
	if err != nil {
		t.Fatalf("NewWriteFileRecordRequest: %v", err)
	}
	decoded, err := DecodeRequest(req.Encode())
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	wfr, ok := decoded.(*WriteFileRecordRequest)
	if !ok {
		t.Fatalf("DecodeRequest returned %T", decoded)
	}
	if len(wfr.Items) != 1 || wfr.Items[0].FileNumber != 4 || wfr.Items[0].RecordNumber != 1 {
		t.Fatalf("decoded items = %+v", wfr.Items)
	}
}

func TestFileRecordInvalidReferenceType(t *testing.T) {
	payload := []byte{0x07, 0x07, 0x00, 0x04, 0x00, 0x01, 0x00, 0x02}
	if _, err := decodeReadFileRecordRequest(payload); err == nil {
		t.Fatalf("expected invalid reference type error")
	}
}

func TestDecodeRequestUnknownFunctionCode(t *testing.T) {
	if _, err := DecodeRequest([]byte{0x99}); err == nil {
		t.Fatalf("expected error for unknown function code")
	}
}

func TestDecodeRequestEmptyPDU(t *testing.T) {
	if _, err := DecodeRequest(nil); err == nil {
		t.Fatalf("expected error for empty PDU")
	}
}
