//go:build cgo

package projengine

import (
	"context"
	"errors"
	"fmt"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/platform/obs"
	"swissgrid-converter/internal/ports"
	"sync"

	"github.com/pebbe/proj/v5"
)

// Engine evaluates a single PROJ pipeline in both directions.
// A PROJ context must not be used concurrently, so calls are serialized.
type Engine struct {
	mu         sync.Mutex
	pctx       *proj.Context
	pj         *proj.PJ
	definition string
}

var _ ports.ClosableConverter = (*Engine)(nil)

// New builds the grid <-> geodetic pipeline. gridPath is the absolute path of
// the correction grid; empty selects the Helmert fallback.
func New(grid, geodetic domain.ProjectionDefinition, gridPath string) (*Engine, error) {
	definition, err := domain.TransformPipeline(grid, geodetic, gridPath)
	if err != nil {
		return nil, fmt.Errorf("new proj engine: %w", err)
	}

	pctx := proj.NewContext()
	pj, err := pctx.Create(definition)
	if err != nil {
		pctx.Close()
		return nil, fmt.Errorf("new proj engine: create %q: %w", definition, err)
	}

	return &Engine{pctx: pctx, pj: pj, definition: definition}, nil
}

// Definition returns the pipeline string handed to PROJ.
func (e *Engine) Definition() string { return e.definition }

// Convert transforms the batch with one TransSlice call.
func (e *Engine) Convert(
	ctx context.Context,
	direction domain.Direction,
	points []domain.Point,
) (_ []domain.Point, err error) {
	defer obs.Time(ctx, "proj.Convert")(&err)

	var pdir proj.Direction
	switch direction {
	case domain.LV03ToWGS84:
		pdir = proj.Fwd
	case domain.WGS84ToLV03:
		pdir = proj.Inv
	default:
		return nil, fmt.Errorf("proj convert: unsupported direction %q", direction)
	}

	if len(points) == 0 {
		return []domain.Point{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u := make([]float64, len(points))
	v := make([]float64, len(points))
	for i, p := range points {
		u[i] = p.E
		v[i] = p.N
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pj == nil {
		return nil, errors.New("proj convert: engine is closed")
	}

	u2, v2, _, _, err := e.pj.TransSlice(pdir, u, v, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("proj convert %s: %w", direction, err)
	}
	if len(u2) != len(points) || len(v2) != len(points) {
		return nil, fmt.Errorf("proj convert %s: got %d/%d values for %d points", direction, len(u2), len(v2), len(points))
	}

	out := make([]domain.Point, len(points))
	for i := range out {
		out[i] = domain.Point{E: u2[i], N: v2[i]}
	}

	return out, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pj != nil {
		e.pj.Close()
		e.pj = nil
	}
	if e.pctx != nil {
		e.pctx.Close()
		e.pctx = nil
	}
	return nil
}

// Version reports the linked PROJ release.
func Version() string {
	return proj.Info().Release
}
