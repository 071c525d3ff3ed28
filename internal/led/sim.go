package led

import (
	"image"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"

	"github.com/example/ambilight-rgbw/internal/frame"
)

// Sim renders the strip as a row of ANSI color blocks in the terminal, the
// same console fallback used when no SPI port is present.
type Sim struct {
	mu  sync.Mutex
	dev display.Drawer
	img *image.NRGBA
}

func NewSim(count int) *Sim {
	return &Sim{
		dev: screen.New(count),
		img: image.NewNRGBA(image.Rect(0, 0, count, 1)),
	}
}

func (s *Sim) Write(colors []frame.Color, brightness uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for x, c := range colors {
		// Fold the white channel back into RGB for display. The residual
		// invariant guarantees the sums fit in a byte.
		sc := c.Scaled(brightness)
		s.img.Pix[x*4+0] = sc.R + sc.W
		s.img.Pix[x*4+1] = sc.G + sc.W
		s.img.Pix[x*4+2] = sc.B + sc.W
		s.img.Pix[x*4+3] = 255
	}
	return s.dev.Draw(s.dev.Bounds(), s.img, image.Point{})
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.Halt()
}
