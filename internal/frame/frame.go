package frame

// Color is one RGBW LED value. R, G and B hold the residual channel values
// after white extraction, so R+W, G+W and B+W never overflow a byte.
type Color struct {
	R, G, B, W uint8
}

// FromRGB converts an RGB triple into RGBW by pulling the shared minimum of
// the three channels into the dedicated white emitter. The transform is
// lossless: RGB() reconstructs the original triple exactly.
func FromRGB(r, g, b uint8) Color {
	w := min(r, g, b)
	return Color{
		R: r - w,
		G: g - w,
		B: b - w,
		W: w,
	}
}

// RGB reconstructs the original RGB triple.
func (c Color) RGB() (r, g, b uint8) {
	return c.R + c.W, c.G + c.W, c.B + c.W
}

// Scaled returns the color with all four channels scaled by brightness/255.
func (c Color) Scaled(brightness uint8) Color {
	if brightness == 255 {
		return c
	}
	s := uint16(brightness)
	return Color{
		R: uint8(uint16(c.R) * s / 255),
		G: uint8(uint16(c.G) * s / 255),
		B: uint8(uint16(c.B) * s / 255),
		W: uint8(uint16(c.W) * s / 255),
	}
}

// Buffer is a fixed-length strip frame, allocated once at startup and mutated
// in place. Index 0 is the start of the left segment; indexes increase along
// the wiring path.
type Buffer struct {
	colors []Color
}

func NewBuffer(count int) *Buffer {
	return &Buffer{colors: make([]Color, count)}
}

func (b *Buffer) Len() int {
	return len(b.colors)
}

// Clear zeroes every entry.
func (b *Buffer) Clear() {
	for i := range b.colors {
		b.colors[i] = Color{}
	}
}

// Fill sets every entry to c.
func (b *Buffer) Fill(c Color) {
	for i := range b.colors {
		b.colors[i] = c
	}
}

func (b *Buffer) Set(i int, c Color) {
	b.colors[i] = c
}

func (b *Buffer) At(i int) Color {
	return b.colors[i]
}

// Colors exposes the backing slice for drivers. Callers must treat it as
// read-only.
func (b *Buffer) Colors() []Color {
	return b.colors
}
