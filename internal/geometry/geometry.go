package geometry

import (
	"errors"
	"math"
)

// ErrOddCoordinates is returned when a flat coordinate list cannot be split into x,y pairs.
var ErrOddCoordinates = errors.New("odd number of coordinates")

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// XYWH returns the box as [x_min, y_min, width, height].
func (b Box) XYWH() [4]float64 {
	return [4]float64{b.MinX, b.MinY, b.Width(), b.Height()}
}

// Contains reports whether p lies inside the box, edges included.
func (b Box) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// PointsFromFlat pairs a flat x1,y1,x2,y2,... sequence into points.
func PointsFromFlat(coords []float64) ([]Point, error) {
	if len(coords)%2 != 0 {
		return nil, ErrOddCoordinates
	}
	pts := make([]Point, 0, len(coords)/2)
	for i := 0; i < len(coords); i += 2 {
		pts = append(pts, Point{X: coords[i], Y: coords[i+1]})
	}
	return pts, nil
}

// Flatten returns the points as one alternating x,y sequence.
func Flatten(pts []Point) []float64 {
	out := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		out = append(out, p.X, p.Y)
	}
	return out
}

// ScalePoints returns a scaled copy of points.
func ScalePoints(pts []Point, sx, sy float64) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// Denormalize maps normalized [0,1] coordinates to pixel coordinates of a
// width x height image. Vertex order is preserved.
func Denormalize(pts []Point, width, height int) []Point {
	return ScalePoints(pts, float64(width), float64(height))
}

// Normalize is the inverse of Denormalize. Zero dimensions yield zero coordinates.
func Normalize(pts []Point, width, height int) []Point {
	sx, sy := 0.0, 0.0
	if width > 0 {
		sx = 1 / float64(width)
	}
	if height > 0 {
		sy = 1 / float64(height)
	}
	return ScalePoints(pts, sx, sy)
}

// Bounds returns the tight axis-aligned box around pts.
// An empty slice yields the zero Box.
func Bounds(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	b := Box{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range pts {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// PolygonArea computes the area of a simple polygon with the shoelace formula.
// The last vertex wraps to the first; winding order does not matter.
// Fewer than three vertices enclose no area.
func PolygonArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := range pts {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[i].Y*pts[j].X
	}
	return 0.5 * math.Abs(sum)
}

// AllFinite reports whether none of vs is NaN or infinite.
func AllFinite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
