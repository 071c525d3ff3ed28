package source

import (
	"io"
	"time"
)

// Memory serves a fixed byte stream, used in tests and as the fallback when
// no serial port is available. Once drained it either reports io.EOF or
// idles at the poll interval, depending on how it was built.
type Memory struct {
	data       []byte
	pos        int
	handshakes int
	idle       time.Duration
	eofOnEmpty bool
}

// FromBytes returns a source that yields data and then fails with io.EOF.
func FromBytes(data []byte) *Memory {
	return &Memory{data: data, eofOnEmpty: true}
}

// Idle returns a source that never produces data; each poll sleeps for
// pollInterval so the caller's idle loop keeps real-time pacing.
func Idle(pollInterval time.Duration) *Memory {
	return &Memory{idle: pollInterval}
}

func (m *Memory) Next() (byte, bool, error) {
	if m.pos < len(m.data) {
		b := m.data[m.pos]
		m.pos++
		return b, true, nil
	}
	if m.eofOnEmpty {
		return 0, false, io.EOF
	}
	if m.idle > 0 {
		time.Sleep(m.idle)
	}
	return 0, false, nil
}

func (m *Memory) Handshake() error {
	m.handshakes++
	return nil
}

// Handshakes reports how many times Handshake was called.
func (m *Memory) Handshakes() int {
	return m.handshakes
}

func (m *Memory) Close() error {
	return nil
}
