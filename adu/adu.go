// Package adu implements the three MODBUS Application Data Unit framings
// (IP/MBAP, RTU, ASCII) as a codec plus a resumable stream reassembler,
// replacing the teacher's per-transport inline framing with small,
// independently testable codecs (see spec.md Design Notes §9).
package adu

import "fmt"

// ADU is a fully decoded Application Data Unit: a unit address, the raw
// PDU bytes, and (for IP framing) a transaction id used to correlate
// requests and responses on a single connection.
type ADU struct {
	// TransactionID is only meaningful for IP framing; it is always 0 for
	// RTU and ASCII.
	TransactionID uint16
	Unit          uint8
	PDU           []byte
	// Checksum is only meaningful for RTU framing: the CRC-16 read off
	// the wire, little-endian bytes combined into one value. Zero for
	// IP and ASCII.
	Checksum uint16
}

func (a ADU) String() string {
	return fmt.Sprintf("ADU{TransactionID: %d, Unit: %d, PDU: % x, Checksum: 0x%04x}", a.TransactionID, a.Unit, a.PDU, a.Checksum)
}

// Codec turns an ADU into wire bytes and back. Each framing (IP, RTU,
// ASCII) has its own Codec implementation.
type Codec interface {
	// Encode renders a complete frame, ready to be written to the wire.
	Encode(a ADU) []byte
	// Decode parses exactly one frame's worth of bytes. A Stream calls
	// Decode only with bytes it has already determined form one complete
	// frame; Stream itself is responsible for framing.
	Decode(frame []byte) (ADU, error)
	// Update rewrites newID into an already-encoded frame in place, for
	// retrying a cached frame under a new transaction id instead of
	// re-encoding from scratch. It reports whether frame was long enough
	// to carry an id. RTU and ASCII carry no id, so their Update is a
	// no-op that always returns true.
	Update(frame []byte, newID uint16) bool
}
