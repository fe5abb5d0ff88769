package adu

import (
	"encoding/binary"
	"fmt"

	"github.com/nexusmb/gomodbus/merrors"
)

// mbapHeaderLength is the 7-byte MBAP prefix: transaction id (2), protocol
// id (2, always 0), length (2), unit (1).
const mbapHeaderLength = 7

// IPCodec implements the MBAP framing used by MODBUS TCP/UDP/TLS/WS
// transports.
type IPCodec struct{}

func (IPCodec) Encode(a ADU) []byte {
	buf := make([]byte, mbapHeaderLength+len(a.PDU))
	binary.BigEndian.PutUint16(buf[0:2], a.TransactionID)
	binary.BigEndian.PutUint16(buf[2:4], 0)
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(a.PDU)+1))
	buf[6] = a.Unit
	copy(buf[7:], a.PDU)
	return buf
}

func (IPCodec) Decode(frame []byte) (ADU, error) {
	if len(frame) < mbapHeaderLength {
		return ADU{}, &merrors.InvalidFrame{Reason: "short MBAP header"}
	}
	protocolID := binary.BigEndian.Uint16(frame[2:4])
	if protocolID != 0 {
		return ADU{}, &merrors.InvalidFrame{Reason: fmt.Sprintf("unexpected protocol id %d", protocolID)}
	}
	length := binary.BigEndian.Uint16(frame[4:6])
	if int(length) != len(frame)-6 {
		return ADU{}, &merrors.InvalidFrame{Reason: "MBAP length field does not match frame size"}
	}
	return ADU{
		TransactionID: binary.BigEndian.Uint16(frame[0:2]),
		Unit:          frame[6],
		PDU:           frame[7:],
	}, nil
}

// Update rewrites the MBAP transaction id (offset 0, 2 bytes) in place.
func (IPCodec) Update(frame []byte, newID uint16) bool {
	if len(frame) < 2 {
		return false
	}
	binary.BigEndian.PutUint16(frame[0:2], newID)
	return true
}

// ipFrameLength returns the number of bytes the complete frame occupies,
// given at least the 6-byte MBAP prefix (transaction id, protocol id,
// length), or ok=false if header has not been seen yet.
func ipFrameLength(header []byte) (n int, ok bool) {
	if len(header) < 6 {
		return 0, false
	}
	length := binary.BigEndian.Uint16(header[4:6])
	return mbapHeaderLength - 1 + int(length), true
}
