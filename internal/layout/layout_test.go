package layout

import "testing"

func TestDefaultCount(t *testing.T) {
	if got := Default.Count(); got != 73 {
		t.Fatalf("expected 73 LEDs, got %d", got)
	}
}

func TestSides(t *testing.T) {
	s := Strip{Left: 2, Top: 3, Right: 2}
	want := []Side{Left, Left, Top, Top, Top, Right, Right}
	for i, side := range want {
		if got := s.Side(i); got != side {
			t.Fatalf("index %d: expected %s, got %s", i, side, got)
		}
	}
}

func TestSegments(t *testing.T) {
	s := Strip{Left: 19, Top: 35, Right: 19}
	cases := []struct {
		side       Side
		start, end int
	}{
		{Left, 0, 19},
		{Top, 19, 54},
		{Right, 54, 73},
	}
	for _, c := range cases {
		start, end := s.Segment(c.side)
		if start != c.start || end != c.end {
			t.Fatalf("%s: expected [%d,%d), got [%d,%d)", c.side, c.start, c.end, start, end)
		}
	}
}
