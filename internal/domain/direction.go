package domain

import (
	"fmt"
	"math"
	"strings"
)

// Direction of a conversion between LV03 and WGS84.
// The values match the names of the REFRAME endpoints.
type Direction string

const (
	// Infer from the magnitude of the input values.
	DirectionAuto Direction = ""
	LV03ToWGS84   Direction = "lv03towgs84"
	WGS84ToLV03   Direction = "wgs84tolv03"
)

// Both concrete directions in reporting order.
var Directions = []Direction{LV03ToWGS84, WGS84ToLV03}

// Geodetic values never exceed these magnitudes; LV03 values always do.
const (
	maxAbsLon = 360.0
	maxAbsLat = 90.0
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DirectionAuto, nil
	case string(LV03ToWGS84):
		return LV03ToWGS84, nil
	case string(WGS84ToLV03):
		return WGS84ToLV03, nil
	}
	return DirectionAuto, fmt.Errorf("parse direction: unknown direction %q", s)
}

func (d Direction) String() string {
	if d == DirectionAuto {
		return "auto"
	}
	return string(d)
}

// ClassifyPoint guesses the source system of a single point.
// The answer is a heuristic relying on the disjoint value ranges of the
// two systems; malformed input can be misclassified.
func ClassifyPoint(p Point) Direction {
	if math.Abs(p.E) > maxAbsLon || math.Abs(p.N) > maxAbsLat {
		return LV03ToWGS84
	}
	return WGS84ToLV03
}

// InferDirection classifies a whole batch at once: a single point outside
// the geodetic range makes the batch LV03 -> WGS84.
func InferDirection(points []Point) Direction {
	for _, p := range points {
		if ClassifyPoint(p) == LV03ToWGS84 {
			return LV03ToWGS84
		}
	}
	return WGS84ToLV03
}

// ValidateDirection asserts the magnitude heuristic against a batch.
// With d == DirectionAuto only mixed batches are rejected.
func ValidateDirection(points []Point, d Direction) error {
	var grid, geo int
	firstGrid, firstGeo := -1, -1
	for i, p := range points {
		if ClassifyPoint(p) == LV03ToWGS84 {
			grid++
			if firstGrid < 0 {
				firstGrid = i
			}
		} else {
			geo++
			if firstGeo < 0 {
				firstGeo = i
			}
		}
	}

	if grid > 0 && geo > 0 {
		return fmt.Errorf("%w: %d grid points, %d geodetic points (first geodetic at index %d)",
			ErrMixedBatch, grid, geo, firstGeo)
	}

	switch d {
	case LV03ToWGS84:
		if geo > 0 {
			return fmt.Errorf("%w: point %d looks geodetic for direction %s", ErrDirectionMismatch, firstGeo, d)
		}
	case WGS84ToLV03:
		if grid > 0 {
			return fmt.Errorf("%w: point %d looks like a grid point for direction %s", ErrDirectionMismatch, firstGrid, d)
		}
	}

	return nil
}
