package services

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/platform/obs"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Largest sample accepted by CheckConversion.
const MaxCheckPoints = 1000

// Aggregate of the per-point distances of one direction.
type DistanceSummary struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// CheckReport compares remote and local conversions of random points.
//
// Distances are Euclidean in the target system: meters for WGS84 -> LV03,
// degrees for LV03 -> WGS84. No threshold is applied; interpreting the
// numbers is up to the caller.
type CheckReport struct {
	Points    map[domain.Direction][]domain.Point
	Results   map[domain.Direction]map[domain.Method][]domain.Point
	Distances map[domain.Direction][]float64
	Summary   map[domain.Direction]DistanceSummary
}

// SamplePoints draws n points uniformly from box.
func SamplePoints(r *rand.Rand, box domain.BoundingBox, n int) []domain.Point {
	out := make([]domain.Point, n)
	for i := range out {
		out[i] = domain.Point{
			E: box.Min.E + r.Float64()*(box.Max.E-box.Min.E),
			N: box.Min.N + r.Float64()*(box.Max.N-box.Min.N),
		}
	}
	return out
}

// Summarize computes count, mean, population standard deviation, min and max.
func Summarize(distances []float64) DistanceSummary {
	if len(distances) == 0 {
		return DistanceSummary{}
	}
	mean, std := stat.PopMeanStdDev(distances, nil)
	return DistanceSummary{
		Count:  len(distances),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(distances),
		Max:    floats.Max(distances),
	}
}

func (c *Converter) samples(box domain.BoundingBox, n int) []domain.Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SamplePoints(c.rnd, box, n)
}

// CheckConversion converts n random points per direction with both methods
// and reports how far apart the results are.
func (c *Converter) CheckConversion(ctx context.Context, n int) (_ *CheckReport, err error) {
	defer obs.Time(ctx, "converter.CheckConversion")(&err)

	if n < 1 || n > MaxCheckPoints {
		return nil, fmt.Errorf("check conversion: n must be between 1 and %d, got %d", MaxCheckPoints, n)
	}

	report := &CheckReport{
		Points:    make(map[domain.Direction][]domain.Point, len(domain.Directions)),
		Results:   make(map[domain.Direction]map[domain.Method][]domain.Point, len(domain.Directions)),
		Distances: make(map[domain.Direction][]float64, len(domain.Directions)),
		Summary:   make(map[domain.Direction]DistanceSummary, len(domain.Directions)),
	}

	for _, direction := range domain.Directions {
		box, _ := domain.SourceBounds(direction)
		points := c.samples(box, n)
		report.Points[direction] = points
		report.Results[direction] = make(map[domain.Method][]domain.Point, len(domain.Methods))

		for _, method := range domain.Methods {
			res, err := c.Convert(ctx, ConvertRequest{Points: points, Method: method, Direction: direction})
			if err != nil {
				return nil, fmt.Errorf("check conversion: %w", err)
			}
			report.Results[direction][method] = res.Points
		}

		local := report.Results[direction][domain.MethodLocal]
		remote := report.Results[direction][domain.MethodRemote]
		dists := make([]float64, len(points))
		for i := range points {
			dists[i] = domain.Distance(local[i], remote[i])
			if math.IsInf(dists[i], 0) || math.IsNaN(dists[i]) {
				return nil, fmt.Errorf("check conversion: %s distance %d: %w", direction, i, domain.ErrNonFinite)
			}
		}
		report.Distances[direction] = dists
		report.Summary[direction] = Summarize(dists)
	}

	return report, nil
}
