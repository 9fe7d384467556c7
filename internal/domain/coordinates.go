package domain

import "math"

// Immutable coordinate pair.
// E holds the easting (LV03) or longitude (WGS84), N the northing or latitude.
// The pair carries no system tag; the Direction of a conversion says which
// system the values belong to.
type Point struct {
	E float64
	N float64
}

// Return the point as [e, n] for external API compatibility.
func (p Point) ToList() []float64 { return []float64{p.E, p.N} }

// PointFromList builds a Point from a two element slice.
func PointFromList(v []float64) (Point, bool) {
	if len(v) != 2 {
		return Point{}, false
	}
	return Point{E: v[0], N: v[1]}, true
}

// Finite reports whether both coordinates are neither NaN nor infinite.
func (p Point) Finite() bool {
	return !math.IsNaN(p.E) && !math.IsInf(p.E, 0) && !math.IsNaN(p.N) && !math.IsInf(p.N, 0)
}

// Distance is the Euclidean distance between a and b in the units of the points.
// For WGS84 points the value is in degrees and only indicative.
func Distance(a, b Point) float64 {
	return math.Hypot(a.E-b.E, a.N-b.N)
}

// Axis-aligned rectangle in one coordinate system.
type BoundingBox struct {
	Min Point
	Max Point
}

// Contains reports whether p lies inside the box, borders included.
func (b BoundingBox) Contains(p Point) bool {
	return p.E >= b.Min.E && p.E <= b.Max.E && p.N >= b.Min.N && p.N <= b.Max.N
}

// Sample boxes covering Switzerland and some surroundings.
var (
	WGS84Bounds = BoundingBox{Min: Point{E: 6, N: 46}, Max: Point{E: 10, N: 47}}
	LV03Bounds  = BoundingBox{Min: Point{E: 490000, N: 95295}, Max: Point{E: 792960, N: 264177}}
)

// Return the sample box for points on the source side of d.
func SourceBounds(d Direction) (BoundingBox, bool) {
	switch d {
	case LV03ToWGS84:
		return LV03Bounds, true
	case WGS84ToLV03:
		return WGS84Bounds, true
	}
	return BoundingBox{}, false
}
