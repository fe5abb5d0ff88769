package adu

import (
	"encoding/hex"

	"github.com/nexusmb/gomodbus/merrors"
)

// ASCIICodec implements MODBUS ASCII framing: a leading ':', the unit,
// function code and payload hex-encoded in uppercase, a one-byte LRC, and
// a trailing CRLF. Not grounded in the teacher (IP/RTU only); grounded on
// the MODBUS ASCII framing described in spec.md §4.2 and GLOSSARY.
type ASCIICodec struct{}

const (
	asciiStart = ':'
	asciiCR    = '\r'
	asciiLF    = '\n'
)

func (ASCIICodec) Encode(a ADU) []byte {
	body := make([]byte, 0, 1+len(a.PDU))
	body = append(body, a.Unit)
	body = append(body, a.PDU...)
	checksum := lrc(body)
	body = append(body, checksum)

	encoded := make([]byte, hex.EncodedLen(len(body)))
	hex.Encode(encoded, body)
	for i, b := range encoded {
		if b >= 'a' && b <= 'f' {
			encoded[i] = b - ('a' - 'A')
		}
	}

	frame := make([]byte, 0, 1+len(encoded)+2)
	frame = append(frame, asciiStart)
	frame = append(frame, encoded...)
	frame = append(frame, asciiCR, asciiLF)
	return frame
}

// Update is a no-op: ASCII frames carry no transaction id, so a retried
// request reuses the exact same bytes.
func (ASCIICodec) Update(frame []byte, newID uint16) bool { return true }

func (ASCIICodec) Decode(frame []byte) (ADU, error) {
	if len(frame) < 5 || frame[0] != asciiStart {
		return ADU{}, &merrors.InvalidFrame{Reason: "missing ':' frame start"}
	}
	if frame[len(frame)-2] != asciiCR || frame[len(frame)-1] != asciiLF {
		return ADU{}, &merrors.InvalidFrame{Reason: "missing trailing CR LF"}
	}
	hexPart := frame[1 : len(frame)-2]
	if len(hexPart)%2 != 0 {
		return ADU{}, &merrors.InvalidFrame{Reason: "odd number of hex digits"}
	}
	for _, b := range hexPart {
		isDigit := b >= '0' && b <= '9'
		isHexUpper := b >= 'A' && b <= 'F'
		if !isDigit && !isHexUpper {
			return ADU{}, &merrors.InvalidFrame{Reason: "invalid hex digit"}
		}
	}

	decoded := make([]byte, hex.DecodedLen(len(hexPart)))
	if _, err := hex.Decode(decoded, hexPart); err != nil {
		return ADU{}, &merrors.InvalidFrame{Reason: "malformed hex payload"}
	}
	if len(decoded) < 3 {
		return ADU{}, &merrors.InvalidFrame{Reason: "short ASCII frame"}
	}

	var sum byte
	for _, b := range decoded {
		sum += b
	}
	if sum != 0 {
		expected := lrc(decoded[:len(decoded)-1])
		return ADU{}, &merrors.ChecksumMismatch{Expected: uint16(expected), Actual: uint16(decoded[len(decoded)-1])}
	}

	return ADU{
		Unit: decoded[0],
		PDU:  decoded[1 : len(decoded)-1],
	}, nil
}
