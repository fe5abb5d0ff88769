package adu

import (
	"encoding/binary"
	"testing"
)

func TestIPCodecEncodeInvariant(t *testing.T) {
	a := ADU{TransactionID: 42, Unit: 7, PDU: []byte{0x03, 0x00, 0x00, 0x00, 0x01}}
	frame := IPCodec{}.Encode(a)

	if got, want := binary.BigEndian.Uint16(frame[2:4]), uint16(0); got != want {
		t.Fatalf("protocol id = %d, want %d", got, want)
	}
	if got, want := binary.BigEndian.Uint16(frame[4:6]), uint16(len(a.PDU)+1); got != want {
		t.Fatalf("length field = %d, want %d", got, want)
	}
}

func TestIPCodecRoundTrip(t *testing.T) {
	a := ADU{TransactionID: 1234, Unit: 0xAB, PDU: []byte{0x10, 0x00, 0x00, 0x00, 0x02, 0x04, 0x00, 0x01, 0x00, 0x02}}
	decoded, err := IPCodec{}.Decode(IPCodec{}.Encode(a))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.TransactionID != a.TransactionID || decoded.Unit != a.Unit {
		t.Fatalf("decoded = %+v, want %+v", decoded, a)
	}
}

func TestIPCodecRejectsBadLength(t *testing.T) {
	frame := IPCodec{}.Encode(ADU{TransactionID: 1, Unit: 1, PDU: []byte{0x03}})
	frame = frame[:len(frame)-1]
	if _, err := (IPCodec{}).Decode(frame); err == nil {
		t.Fatalf("expected error for truncated frame")
	}
}
