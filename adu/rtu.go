package adu

import "github.com/nexusmb/gomodbus/merrors"

// RTUCodec implements RTU framing: unit id (1), PDU, CRC-16 (2,
// little-endian). ExpectedResponseLength, used by the teacher's
// rtu_transport.go to predict how many more bytes to read off a serial
// link, is superseded here by Stream's eofTimeout-driven reassembly (see
// spec.md Design Notes §9 and stream.go), so RTUCodec itself only ever
// decodes a frame whose bounds Stream has already determined.
type RTUCodec struct{}

func (RTUCodec) Encode(a ADU) []byte {
	frame := make([]byte, 0, 1+len(a.PDU)+2)
	frame = append(frame, a.Unit)
	frame = append(frame, a.PDU...)
	c := newCRC()
	c.add(frame)
	crcBytes := c.bytes()
	frame = append(frame, crcBytes[0], crcBytes[1])
	return frame
}

// Update is a no-op: RTU frames carry no transaction id, so a retried
// request reuses the exact same bytes.
func (RTUCodec) Update(frame []byte, newID uint16) bool { return true }

func (RTUCodec) Decode(frame []byte) (ADU, error) {
	if len(frame) < 4 {
		return ADU{}, &merrors.InvalidFrame{Reason: "short RTU frame"}
	}
	body := frame[:len(frame)-2]
	expected := crc16(body)
	actual := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	if expected != actual {
		return ADU{}, &merrors.ChecksumMismatch{Expected: expected, Actual: actual}
	}
	return ADU{
		Unit:     body[0],
		PDU:      body[1:],
		Checksum: actual,
	}, nil
}
