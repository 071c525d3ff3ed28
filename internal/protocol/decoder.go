// Package protocol implements the Adalight wire protocol decoder.
package protocol

import (
	"sync/atomic"

	"github.com/example/ambilight-rgbw/internal/frame"
)

// Protocol constants
const (
	headerLen    = 3
	checksumSalt = 0x55 // checksum = countHigh ^ countLow ^ 0x55
)

var header = [headerLen]byte{'A', 'd', 'a'}

// Handshake is emitted once at startup to signal readiness to the sender.
var Handshake = []byte("Ada\n")

type state int

const (
	stateHeader state = iota
	stateLenHigh
	stateLenLow
	stateChecksum
	statePayload
)

// Stats is a snapshot of the decode counters.
type Stats struct {
	Frames        uint64 `json:"frames"`
	ChecksumFails uint64 `json:"checksum_fails"`
	Resyncs       uint64 `json:"resyncs"`
	Clamped       uint64 `json:"clamped"`
}

// counters are atomic so the diagnostics endpoints can read them while the
// receive task is mid-frame.
type counters struct {
	frames        atomic.Uint64
	checksumFails atomic.Uint64
	resyncs       atomic.Uint64
	clamped       atomic.Uint64
}

// Decoder turns a noisy byte stream into validated frames, resynchronizing
// on any malformed input. It writes decoded pixels into the shared strip
// buffer; Feed reports when a full frame has been accepted.
//
// Wire format:
//
//	offset 0  3 bytes  "Ada"
//	offset 3  2 bytes  LED count - 1, big endian
//	offset 5  1 byte   checksum (high ^ low ^ 0x55)
//	offset 6  3N       R,G,B per LED, in strip order
type Decoder struct {
	buf *frame.Buffer

	st      state
	matched int // header bytes matched so far
	hi, lo  byte
	total   int // declared LED count for the frame being read
	idx     int // next strip index to populate
	channel int // 0=R 1=G 2=B within the current triple
	r, g    byte

	stats counters
}

// NewDecoder returns a decoder that populates buf. The buffer's length is the
// physical capacity; declared counts above it are clamped.
func NewDecoder(buf *frame.Buffer) *Decoder {
	return &Decoder{buf: buf}
}

// Feed consumes one byte and returns true when it completes a valid frame.
// After a true return the buffer holds the decoded frame until the next
// message's payload begins.
func (d *Decoder) Feed(b byte) bool {
	switch d.st {
	case stateHeader:
		if b == header[d.matched] {
			d.matched++
			if d.matched == headerLen {
				d.matched = 0
				d.st = stateLenHigh
			}
			return false
		}
		if d.matched > 0 {
			d.stats.resyncs.Add(1)
		}
		// The mismatched byte is itself a candidate for the first header
		// byte, so a stray 'A' before a real header does not lose sync.
		d.matched = 0
		if b == header[0] {
			d.matched = 1
		}

	case stateLenHigh:
		d.hi = b
		d.st = stateLenLow

	case stateLenLow:
		d.lo = b
		d.st = stateChecksum

	case stateChecksum:
		if b != d.hi^d.lo^checksumSalt {
			d.stats.checksumFails.Add(1)
			d.reset()
			return false
		}
		// Wire value is count-1.
		d.total = (int(d.hi)<<8 | int(d.lo)) + 1
		if d.total > d.buf.Len() {
			d.stats.clamped.Add(1)
		}
		d.buf.Clear()
		d.idx = 0
		d.channel = 0
		d.st = statePayload

	case statePayload:
		switch d.channel {
		case 0:
			d.r = b
			d.channel = 1
		case 1:
			d.g = b
			d.channel = 2
		case 2:
			// Triples beyond capacity are drained but not stored, keeping
			// the stream aligned for the next header scan.
			if d.idx < d.buf.Len() {
				d.buf.Set(d.idx, frame.FromRGB(d.r, d.g, b))
			}
			d.idx++
			d.channel = 0
			if d.idx == d.total {
				d.stats.frames.Add(1)
				d.reset()
				return true
			}
		}
	}
	return false
}

// Buffer returns the strip buffer the decoder writes into.
func (d *Decoder) Buffer() *frame.Buffer {
	return d.buf
}

// Stats returns a snapshot of the decode counters.
func (d *Decoder) Stats() Stats {
	return Stats{
		Frames:        d.stats.frames.Load(),
		ChecksumFails: d.stats.checksumFails.Load(),
		Resyncs:       d.stats.resyncs.Load(),
		Clamped:       d.stats.clamped.Load(),
	}
}

func (d *Decoder) reset() {
	d.st = stateHeader
	d.matched = 0
}
