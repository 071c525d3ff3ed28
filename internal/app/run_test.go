package app_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/ambilight-rgbw/internal/app"
	"github.com/example/ambilight-rgbw/internal/display"
	"github.com/example/ambilight-rgbw/internal/frame"
	"github.com/example/ambilight-rgbw/internal/protocol"
	"github.com/example/ambilight-rgbw/internal/source"
)

type captureDriver struct {
	writes []capture
}

type capture struct {
	colors     []frame.Color
	brightness uint8
}

func (d *captureDriver) Write(colors []frame.Color, brightness uint8) error {
	d.writes = append(d.writes, capture{
		colors:     append([]frame.Color(nil), colors...),
		brightness: brightness,
	})
	return nil
}

func (d *captureDriver) Close() error { return nil }

func TestRunDecodesStreamEndToEnd(t *testing.T) {
	drv := &captureDriver{}
	buf := frame.NewBuffer(3)
	dec := protocol.NewDecoder(buf)
	ctrl := display.NewController(drv, buf, display.Config{})

	// One pure-red LED, then garbage, then a full 3-LED frame.
	stream := []byte{'A', 'd', 'a', 0x00, 0x00, 0x55, 255, 0, 0}
	stream = append(stream, 'x', 'A', 0x02)
	stream = append(stream, 'A', 'd', 'a', 0x00, 0x02, 0x57,
		10, 20, 30,
		0, 0, 0,
		200, 100, 50)

	src := source.FromBytes(stream)
	err := app.Run(context.Background(), src, dec, ctrl)
	assert.True(t, errors.Is(err, io.EOF), "drained source ends the loop")

	assert.Equal(t, 1, src.Handshakes(), "readiness signal sent once")

	// Startup blank + two accepted frames.
	assert.Len(t, drv.writes, 3)
	assert.Equal(t, frame.Color{}, drv.writes[0].colors[0])
	assert.Equal(t, frame.Color{R: 255}, drv.writes[1].colors[0])

	last := drv.writes[2]
	assert.Equal(t, uint8(255), last.brightness)
	assert.Equal(t, frame.FromRGB(10, 20, 30), last.colors[0])
	assert.Equal(t, frame.Color{}, last.colors[1])
	assert.Equal(t, frame.Color{R: 150, G: 50, B: 0, W: 50}, last.colors[2])

	assert.Equal(t, uint64(2), dec.Stats().Frames)
}

func TestRunStopsOnCancel(t *testing.T) {
	drv := &captureDriver{}
	buf := frame.NewBuffer(1)
	dec := protocol.NewDecoder(buf)
	ctrl := display.NewController(drv, buf, display.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := app.Run(ctx, source.Idle(0), dec, ctrl)
	assert.True(t, errors.Is(err, context.Canceled))
}
