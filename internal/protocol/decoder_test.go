package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/ambilight-rgbw/internal/frame"
	"github.com/example/ambilight-rgbw/internal/protocol"
)

// message builds a well-formed wire message for the given RGB triples.
func message(triples ...[3]byte) []byte {
	count := len(triples) - 1 // wire field is count-1
	hi, lo := byte(count>>8), byte(count&0xFF)
	msg := []byte{'A', 'd', 'a', hi, lo, hi ^ lo ^ 0x55}
	for _, t := range triples {
		msg = append(msg, t[0], t[1], t[2])
	}
	return msg
}

// feed pushes every byte and returns how many frames were accepted.
func feed(d *protocol.Decoder, stream []byte) int {
	frames := 0
	for _, b := range stream {
		if d.Feed(b) {
			frames++
		}
	}
	return frames
}

func TestDecodeSingleRedLed(t *testing.T) {
	buf := frame.NewBuffer(73)
	d := protocol.NewDecoder(buf)

	stream := []byte{'A', 'd', 'a', 0x00, 0x00, 0x55, 255, 0, 0}
	assert.Equal(t, 1, feed(d, stream))

	assert.Equal(t, frame.Color{R: 255}, buf.At(0))
	for i := 1; i < buf.Len(); i++ {
		assert.Equal(t, frame.Color{}, buf.At(i), "undeclared LEDs must be off")
	}
	assert.Equal(t, uint64(1), d.Stats().Frames)
}

func TestDecodeConvertsToRGBW(t *testing.T) {
	buf := frame.NewBuffer(8)
	d := protocol.NewDecoder(buf)

	feed(d, message([3]byte{200, 100, 50}, [3]byte{60, 60, 60}))

	assert.Equal(t, frame.Color{R: 150, G: 50, B: 0, W: 50}, buf.At(0))
	assert.Equal(t, frame.Color{W: 60}, buf.At(1))
}

func TestChecksumMismatchRejectsWithoutConsumingPayload(t *testing.T) {
	buf := frame.NewBuffer(4)
	d := protocol.NewDecoder(buf)

	// Checksum off by one, then a well-formed message immediately after.
	bad := []byte{'A', 'd', 'a', 0x00, 0x00, 0x54}
	good := message([3]byte{0, 255, 0})

	assert.Equal(t, 0, feed(d, bad), "corrupt checksum must reject the message")
	assert.Equal(t, frame.Color{}, buf.At(0), "rejected message must not touch the buffer")

	assert.Equal(t, 1, feed(d, good), "decoder must recover after one bad frame")
	assert.Equal(t, frame.Color{G: 255}, buf.At(0))

	st := d.Stats()
	assert.Equal(t, uint64(1), st.ChecksumFails)
	assert.Equal(t, uint64(1), st.Frames)
}

func TestHeaderResyncRetestsFailedByte(t *testing.T) {
	buf := frame.NewBuffer(4)
	d := protocol.NewDecoder(buf)

	// A stray 'A' in front: the second 'A' breaks the 'd' match but starts
	// a fresh header match itself.
	stream := append([]byte{'A'}, message([3]byte{1, 2, 3})...)
	assert.Equal(t, 1, feed(d, stream))

	// Mid-header break: "AdA" fails at position 2, and that 'A' must count
	// as the start of the following real header.
	d2 := protocol.NewDecoder(frame.NewBuffer(4))
	stream = append([]byte{'A', 'd'}, message([3]byte{1, 2, 3})...)
	assert.Equal(t, 1, feed(d2, stream))
	assert.Equal(t, uint64(1), d2.Stats().Resyncs)
}

func TestHeaderNoise(t *testing.T) {
	buf := frame.NewBuffer(4)
	d := protocol.NewDecoder(buf)

	noise := []byte{0x00, 'x', 'A', 'd', 'q', 0xFF, 'd', 'a'}
	stream := append(noise, message([3]byte{9, 9, 9})...)
	assert.Equal(t, 1, feed(d, stream))
}

func TestOverlengthFrameClampsAndDrains(t *testing.T) {
	buf := frame.NewBuffer(2)
	d := protocol.NewDecoder(buf)

	// Declares 4 LEDs against a 2-LED strip.
	stream := message(
		[3]byte{10, 0, 0},
		[3]byte{0, 10, 0},
		[3]byte{0, 0, 10},
		[3]byte{10, 10, 10},
	)
	assert.Equal(t, 1, feed(d, stream))
	assert.Equal(t, frame.Color{R: 10}, buf.At(0))
	assert.Equal(t, frame.Color{G: 10}, buf.At(1))
	assert.Equal(t, uint64(1), d.Stats().Clamped)

	// The excess triples were drained, so the stream is still aligned.
	assert.Equal(t, 1, feed(d, message([3]byte{1, 1, 1})))
	assert.Equal(t, frame.Color{W: 1}, buf.At(0))
}

func TestShortFrameZeroFillsRemainder(t *testing.T) {
	buf := frame.NewBuffer(4)
	d := protocol.NewDecoder(buf)

	feed(d, message([3]byte{5, 5, 5}, [3]byte{6, 6, 6}, [3]byte{7, 7, 7}, [3]byte{8, 8, 8}))
	feed(d, message([3]byte{1, 2, 3}))

	assert.Equal(t, frame.FromRGB(1, 2, 3), buf.At(0))
	for i := 1; i < buf.Len(); i++ {
		assert.Equal(t, frame.Color{}, buf.At(i), "stale entries must be cleared")
	}
}

func TestRepeatedMessageIsIdempotent(t *testing.T) {
	buf := frame.NewBuffer(3)
	d := protocol.NewDecoder(buf)
	msg := message([3]byte{200, 100, 50}, [3]byte{1, 2, 3})

	var first []frame.Color
	for round := 0; round < 3; round++ {
		assert.Equal(t, 1, feed(d, msg))
		got := append([]frame.Color(nil), buf.Colors()...)
		if round == 0 {
			first = got
			continue
		}
		assert.Equal(t, first, got, "same message must decode identically")
	}
}
