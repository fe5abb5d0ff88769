package adu

import "testing"

func TestCRC16Invariant(t *testing.T) {
	a := ADU{Unit: 1, PDU: []byte{0x03, 0x00, 0x00, 0x00, 0x0A}}
	frame := RTUCodec{}.Encode(a)
	body := frame[:len(frame)-2]
	trailing := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	if crc16(body) != trailing {
		t.Fatalf("crc16(unit||pdu) = 0x%04x, trailing bytes = 0x%04x", crc16(body), trailing)
	}
}

func TestRTUCodecRoundTrip(t *testing.T) {
	a := ADU{Unit: 0x11, PDU: []byte{0x05, 0x00, 0x01, 0xFF, 0x00}}
	decoded, err := RTUCodec{}.Decode(RTUCodec{}.Encode(a))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Unit != a.Unit {
		t.Fatalf("Unit = %d, want %d", decoded.Unit, a.Unit)
	}
}
