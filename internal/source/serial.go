package source

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/example/ambilight-rgbw/internal/protocol"
)

// Serial reads protocol bytes from a serial port. Reads use the port's
// timeout as the poll interval, so a quiet link yields back to the caller
// instead of blocking.
type Serial struct {
	port serial.Port
	buf  [64]byte
	r, n int
}

// OpenSerial opens portName at the given baud rate. pollInterval bounds how
// long Next blocks when the host is silent.
func OpenSerial(portName string, baud int, pollInterval time.Duration) (*Serial, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	if err := p.SetReadTimeout(pollInterval); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}
	return &Serial{port: p}, nil
}

func (s *Serial) Next() (byte, bool, error) {
	if s.r < s.n {
		b := s.buf[s.r]
		s.r++
		return b, true, nil
	}
	n, err := s.port.Read(s.buf[:])
	if err != nil {
		return 0, false, fmt.Errorf("serial read: %w", err)
	}
	if n == 0 {
		// Timeout: no data within the poll interval.
		return 0, false, nil
	}
	s.r, s.n = 1, n
	return s.buf[0], true, nil
}

func (s *Serial) Handshake() error {
	if _, err := s.port.Write(protocol.Handshake); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	return nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}
