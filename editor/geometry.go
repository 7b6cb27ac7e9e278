package editor

// Basic canvas geometry. Coordinates are canvas-local, origin top-left,
// y growing downwards.

type (
	// Point is a position on the canvas.
	Point struct {
		X, Y float64
	}

	// Size is a width/height pair.
	Size struct {
		Width, Height float64
	}

	// Rect is an axis-aligned rectangle given by min corner and size.
	Rect struct {
		X, Y, Width, Height float64
	}
)

// Center returns the midpoint of a box with top-left corner p.
func (p Point) Center(s Size) Point {
	return Point{X: p.X + s.Width/2, Y: p.Y + s.Height/2}
}

// Contains reports whether pt lies in r, bounds inclusive.
func (r Rect) Contains(pt Point) bool {
	return pt.X >= r.X && pt.X <= r.X+r.Width &&
		pt.Y >= r.Y && pt.Y <= r.Y+r.Height
}

// Pinch-scale factors are bounded to this range.
const (
	minScale = 0.5
	maxScale = 3.0
)

// ClampPosition bounds pos so an element of size elem stays on the
// canvas, allowing it to overhang by up to padding on every side. The
// overhang gives dragging a soft stop instead of a hard wall; a fully
// off-canvas drop is never possible.
func ClampPosition(pos Point, elem, canvas Size, padding float64) Point {
	return Point{
		X: clamp(pos.X, -padding, canvas.Width-elem.Width+padding),
		Y: clamp(pos.Y, -padding, canvas.Height-elem.Height+padding),
	}
}

// ClampScale bounds a pinch-scale factor to [0.5, 3.0].
func ClampScale(scale float64) float64 {
	return clamp(scale, minScale, maxScale)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
