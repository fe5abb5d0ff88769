package adu

import (
	"bytes"
	"testing"
	"time"
)

// S5
func TestIPStreamSingleFrame(t *testing.T) {
	frame := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0xFF, 0x03, 0x00, 0x00, 0x00, 0x0A}

	var got []ADU
	s := NewStream(ModeIP)
	s.OnADU(func(a ADU) { got = append(got, a) })
	s.OnError(func(err error) { t.Fatalf("unexpected error: %v", err) })

	s.Feed(frame)

	if len(got) != 1 {
		t.Fatalf("got %d ADUs, want 1", len(got))
	}
	if got[0].TransactionID != 1 || got[0].Unit != 0xFF {
		t.Fatalf("ADU = %+v", got[0])
	}
	if !bytes.Equal(got[0].PDU, []byte{0x03, 0x00, 0x00, 0x00, 0x0A}) {
		t.Fatalf("PDU = % x", got[0].PDU)
	}
}

func TestIPStreamSplitAcrossChunks(t *testing.T) {
	frame := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x06, 0xFF, 0x03, 0x00, 0x00, 0x00, 0x0A}

	for split := 1; split < len(frame); split++ {
		var got []ADU
		s := NewStream(ModeIP)
		s.OnADU(func(a ADU) { got = append(got, a) })
		s.OnError(func(err error) { t.Fatalf("split=%d: unexpected error: %v", split, err) })

		s.Feed(frame[:split])
		s.Feed(frame[split:])

		if len(got) != 1 {
			t.Fatalf("split=%d: got %d ADUs, want 1", split, len(got))
		}
	}
}

// S6
func TestRTUStreamDecodesImmediatelyWhenEOFTimeoutZero(t *testing.T) {
	frame := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}

	var got ADU
	var gotErr error
	s := NewStream(ModeRTU)
	s.OnADU(func(a ADU) { got = a })
	s.OnError(func(err error) { gotErr = err })

	s.Feed(frame)

	if gotErr != nil {
		t.Fatalf("unexpected error: %v", gotErr)
	}
	if got.Unit != 1 || got.Checksum != 0xCDC5 {
		t.Fatalf("ADU = %+v", got)
	}
	if !bytes.Equal(got.PDU, []byte{0x03, 0x00, 0x00, 0x00, 0x0A}) {
		t.Fatalf("PDU = % x", got.PDU)
	}
}

func TestRTUStreamChecksumMismatchOnByteFlip(t *testing.T) {
	base := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}

	for i := range base {
		frame := append([]byte(nil), base...)
		frame[i] ^= 0xFF

		var gotErr error
		s := NewStream(ModeRTU)
		s.OnError(func(err error) { gotErr = err })
		s.Feed(frame)

		if gotErr == nil {
			t.Fatalf("byte %d: expected a checksum error", i)
		}
	}
}

func TestRTUStreamEOFTimeoutAccumulates(t *testing.T) {
	frame := []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A, 0xC5, 0xCD}

	done := make(chan ADU, 1)
	s := NewStream(ModeRTU, WithEOFTimeout(20*time.Millisecond))
	s.OnADU(func(a ADU) { done <- a })

	s.Feed(frame[:3])
	s.Feed(frame[3:])

	select {
	case a := <-done:
		if a.Unit != 1 {
			t.Fatalf("ADU = %+v", a)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timed out waiting for eofTimeout flush")
	}
}

func TestASCIIStreamRoundTrip(t *testing.T) {
	original := ADU{Unit: 0x11, PDU: []byte{0x03, 0x00, 0x6B, 0x00, 0x03}}
	frame := ASCIICodec{}.Encode(original)

	var got ADU
	s := NewStream(ModeASCII)
	s.OnADU(func(a ADU) { got = a })
	s.OnError(func(err error) { t.Fatalf("unexpected error: %v", err) })
	s.Feed(frame)

	if got.Unit != original.Unit || !bytes.Equal(got.PDU, original.PDU) {
		t.Fatalf("got = %+v, want %+v", got, original)
	}
}

func TestMultipleIPFramesConcatenated(t *testing.T) {
	f1 := IPCodec{}.Encode(ADU{TransactionID: 1, Unit: 1, PDU: []byte{0x03, 0x00, 0x00, 0x00, 0x01}})
	f2 := IPCodec{}.Encode(ADU{TransactionID: 2, Unit: 1, PDU: []byte{0x03, 0x00, 0x00, 0x00, 0x02}})
	f3 := IPCodec{}.Encode(ADU{TransactionID: 3, Unit: 1, PDU: []byte{0x03, 0x00, 0x00, 0x00, 0x03}})
	all := append(append(append([]byte{}, f1...), f2...), f3...)

	var got []ADU
	s := NewStream(ModeIP)
	s.OnADU(func(a ADU) { got = append(got, a) })

	for _, chunk := range chunkify(all, 3) {
		s.Feed(chunk)
	}

	if len(got) != 3 {
		t.Fatalf("got %d ADUs, want 3", len(got))
	}
	for i, a := range got {
		if a.TransactionID != uint16(i+1) {
			t.Fatalf("ADU %d TransactionID = %d, want %d", i, a.TransactionID, i+1)
		}
	}
}

func chunkify(b []byte, size int) [][]byte {
	var chunks [][]byte
	for len(b) > 0 {
		n := size
		if n > len(b) {
			n = len(b)
		}
		chunks = append(chunks, b[:n])
		b = b[n:]
	}
	return chunks
}
