package adu

import (
	"sync"
	"time"
)

// Mode selects which framing a Stream reassembles.
type Mode int

const (
	ModeIP Mode = iota
	ModeRTU
	ModeASCII
)

// defaultMaxBufferLength bounds how many unconsumed bytes a Stream holds
// before declaring overflow and resetting, guarding against a
// misbehaving peer that never completes a frame.
const defaultMaxBufferLength = 1000

// StreamOption configures a Stream at construction time.
type StreamOption func(*Stream)

// WithMaxBufferLength overrides the default 1000-byte overflow bound.
func WithMaxBufferLength(n int) StreamOption {
	return func(s *Stream) { s.maxBufferLength = n }
}

// WithEOFTimeout sets the RTU inter-frame silence window used to detect a
// frame boundary when no length can be predicted ahead of time. A zero
// timeout (the default) makes a Stream in ModeRTU treat every Feed call
// as exactly one complete frame, matching the older behavior the spec's
// source disagreed on (see spec.md Design Notes §9); a positive timeout
// accumulates bytes across Feed calls and flushes them as one frame once
// eofTimeout has elapsed without new data.
func WithEOFTimeout(d time.Duration) StreamOption {
	return func(s *Stream) { s.eofTimeout = d }
}

// Stream reassembles a byte stream into complete ADUs and dispatches them
// through callbacks, regardless of how the underlying transport happens
// to chunk its reads. It replaces the teacher's per-transport blocking
// io.ReadFull framing with a push-based model so transports only need to
// hand Stream whatever bytes they read (see spec.md Design Notes §9,
// "event emitters ... replaced with explicit callback registration").
type Stream struct {
	mode            Mode
	codec           Codec
	maxBufferLength int
	eofTimeout      time.Duration

	mu    sync.Mutex
	buf   []byte
	timer *time.Timer

	onADU            func(ADU)
	onError          func(error)
	onBufferOverflow func([]byte)
}

// NewStream constructs a Stream for the given framing mode.
func NewStream(mode Mode, opts ...StreamOption) *Stream {
	s := &Stream{
		mode:            mode,
		maxBufferLength: defaultMaxBufferLength,
	}
	switch mode {
	case ModeIP:
		s.codec = IPCodec{}
	case ModeRTU:
		s.codec = RTUCodec{}
	case ModeASCII:
		s.codec = ASCIICodec{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnADU registers the callback invoked for every complete, successfully
// decoded frame.
func (s *Stream) OnADU(f func(ADU)) { s.onADU = f }

// OnError registers the callback invoked when a complete frame fails to
// decode (bad checksum, malformed header, and so on).
func (s *Stream) OnError(f func(error)) { s.onError = f }

// OnBufferOverflow registers the callback invoked when accumulated,
// unconsumed bytes exceed maxBufferLength; it receives the bytes that were
// discarded. The internal buffer is reset immediately beforehand.
func (s *Stream) OnBufferOverflow(f func([]byte)) { s.onBufferOverflow = f }

// Feed hands newly arrived bytes to the Stream. It may synchronously
// invoke OnADU/OnError any number of times, including zero, depending on
// how many complete frames `data` completes.
func (s *Stream) Feed(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeRTU && s.eofTimeout > 0 {
		s.feedRTUTimed(data)
		return
	}

	s.buf = append(s.buf, data...)
	if len(s.buf) > s.maxBufferLength {
		discarded := s.buf
		s.buf = nil
		if s.onBufferOverflow != nil {
			s.onBufferOverflow(discarded)
		}
		return
	}

	switch s.mode {
	case ModeIP:
		s.drainIP()
	case ModeASCII:
		s.drainASCII()
	case ModeRTU:
		// eofTimeout == 0: each Feed call is one complete frame.
		frame := s.buf
		s.buf = nil
		s.emit(frame)
	}
}

func (s *Stream) emit(frame []byte) {
	a, err := s.codec.Decode(frame)
	if err != nil {
		if s.onError != nil {
			s.onError(err)
		}
		return
	}
	if s.onADU != nil {
		s.onADU(a)
	}
}

func (s *Stream) drainIP() {
	for {
		n, ok := ipFrameLength(s.buf)
		if !ok || len(s.buf) < n {
			return
		}
		frame := s.buf[:n]
		s.buf = s.buf[n:]
		s.emit(frame)
	}
}

func (s *Stream) drainASCII() {
	for {
		start := -1
		for i, b := range s.buf {
			if b == asciiStart {
				start = i
				break
			}
		}
		if start == -1 {
			s.buf = nil
			return
		}
		if start > 0 {
			s.buf = s.buf[start:]
		}
		end := -1
		for i := 1; i+1 < len(s.buf); i++ {
			if s.buf[i] == asciiCR && s.buf[i+1] == asciiLF {
				end = i + 1
				break
			}
		}
		if end == -1 {
			return
		}
		frame := s.buf[:end+1]
		s.buf = s.buf[end+1:]
		s.emit(frame)
	}
}

// feedRTUTimed accumulates bytes and (re)starts an eofTimeout timer; the
// buffer is only flushed as a frame once the link has fallen silent for
// eofTimeout, since RTU carries no explicit frame length or delimiter.
func (s *Stream) feedRTUTimed(data []byte) {
	s.buf = append(s.buf, data...)
	if len(s.buf) > s.maxBufferLength {
		discarded := s.buf
		s.buf = nil
		if s.timer != nil {
			s.timer.Stop()
		}
		if s.onBufferOverflow != nil {
			s.onBufferOverflow(discarded)
		}
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.eofTimeout, s.flushRTUTimed)
}

func (s *Stream) flushRTUTimed() {
	s.mu.Lock()
	frame := s.buf
	s.buf = nil
	s.mu.Unlock()
	if len(frame) == 0 {
		return
	}
	s.emit(frame)
}

// Reset discards any partially accumulated bytes and cancels a pending
// RTU eofTimeout timer, without notifying OnBufferOverflow.
func (s *Stream) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.buf = nil
}
