package led

import "github.com/example/ambilight-rgbw/internal/frame"

// Driver abstracts an LED strip output sink.
type Driver interface {
	// Write pushes a full frame at the given global brightness.
	// len(colors) must equal the strip length.
	Write(colors []frame.Color, brightness uint8) error
	// Close releases resources, leaving the strip dark.
	Close() error
}
