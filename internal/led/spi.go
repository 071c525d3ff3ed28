package led

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/example/ambilight-rgbw/internal/frame"
)

// SK6812 data rate.
const nrzRate physic.Frequency = 800

var hostOnce sync.Once

// SPI drives an SK6812 RGBW strip through an NRZ-over-SPI encoder.
type SPI struct {
	mu   sync.Mutex
	port spi.PortCloser
	dev  *nrzled.Dev
	pack packer
	raw  []byte
}

// NewSPI opens the named SPI port (empty selects the first available) and
// prepares a 4-channel NRZ encoder for count LEDs. colorOrder is the
// device's native channel order, e.g. "GRBW". freqHz overrides the derived
// SPI clock when > 0.
func NewSPI(portName string, count int, colorOrder string, freqHz int) (*SPI, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	pk, err := newPacker(colorOrder)
	if err != nil {
		return nil, err
	}

	var hostErr error
	hostOnce.Do(func() { _, hostErr = host.Init() })
	if hostErr != nil {
		return nil, fmt.Errorf("host init: %w", hostErr)
	}

	p, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open spi port: %w", err)
	}

	freq := ((nrzRate * 3) + 100) * physic.KiloHertz
	if freqHz > 0 {
		freq = physic.Frequency(freqHz) * physic.Hertz
	}
	opts := nrzled.Opts{
		NumPixels: count,
		Channels:  4,
		Freq:      freq,
	}
	d, err := nrzled.NewSPI(p, &opts)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("nrzled init: %w", err)
	}
	if err := d.Halt(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("nrzled halt: %w", err)
	}

	return &SPI{
		port: p,
		dev:  d,
		pack: pk,
		raw:  make([]byte, count*4),
	}, nil
}

func (s *SPI) Write(colors []frame.Color, brightness uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("spi driver closed")
	}
	if len(colors)*4 != len(s.raw) {
		return fmt.Errorf("frame length %d does not match strip length %d", len(colors), len(s.raw)/4)
	}
	s.pack.packInto(s.raw, colors, brightness)
	if _, err := s.dev.Write(s.raw); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Halt()
	if cerr := s.port.Close(); err == nil {
		err = cerr
	}
	s.dev = nil
	return err
}

// packer maps frame colors into the strip's native channel order.
type packer struct {
	order [4]byte
}

func newPacker(colorOrder string) (packer, error) {
	if colorOrder == "" {
		colorOrder = "GRBW"
	}
	if len(colorOrder) != 4 {
		return packer{}, fmt.Errorf("color order %q: want 4 channels", colorOrder)
	}
	var p packer
	seen := map[byte]bool{}
	for i := 0; i < 4; i++ {
		c := colorOrder[i]
		switch c {
		case 'R', 'G', 'B', 'W':
			if seen[c] {
				return packer{}, fmt.Errorf("color order %q: duplicate channel %c", colorOrder, c)
			}
			seen[c] = true
			p.order[i] = c
		default:
			return packer{}, fmt.Errorf("color order %q: unknown channel %c", colorOrder, c)
		}
	}
	return p, nil
}

func (p packer) packInto(dst []byte, colors []frame.Color, brightness uint8) {
	for i, c := range colors {
		sc := c.Scaled(brightness)
		for j, ch := range p.order {
			var v uint8
			switch ch {
			case 'R':
				v = sc.R
			case 'G':
				v = sc.G
			case 'B':
				v = sc.B
			case 'W':
				v = sc.W
			}
			dst[i*4+j] = v
		}
	}
}
