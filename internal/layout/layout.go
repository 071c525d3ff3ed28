// Package layout describes the physical wiring of the strip around the
// monitor: left edge bottom-to-top, top edge left-to-right, right edge
// top-to-bottom. Strip index 0 is the bottom of the left edge.
package layout

type Side string

const (
	Left  Side = "left"
	Top   Side = "top"
	Right Side = "right"
)

// Strip holds the per-edge LED counts.
type Strip struct {
	Left  int
	Top   int
	Right int
}

// Default matches the reference deployment: 19 + 35 + 19 = 73 LEDs.
var Default = Strip{Left: 19, Top: 35, Right: 19}

func (s Strip) Count() int {
	return s.Left + s.Top + s.Right
}

// Side reports which edge the given strip index sits on.
func (s Strip) Side(i int) Side {
	switch {
	case i < s.Left:
		return Left
	case i < s.Left+s.Top:
		return Top
	default:
		return Right
	}
}

// Segment returns the [start, end) index range of an edge.
func (s Strip) Segment(side Side) (start, end int) {
	switch side {
	case Left:
		return 0, s.Left
	case Top:
		return s.Left, s.Left + s.Top
	default:
		return s.Left + s.Top, s.Count()
	}
}
