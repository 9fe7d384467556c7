//go:build !cgo

package projengine

import (
	"context"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/ports"
)

// Engine is a stub for builds without cgo.
type Engine struct {
	definition string
}

var _ ports.ClosableConverter = (*Engine)(nil)

func New(grid, geodetic domain.ProjectionDefinition, gridPath string) (*Engine, error) {
	definition, err := domain.TransformPipeline(grid, geodetic, gridPath)
	if err != nil {
		return nil, err
	}
	return &Engine{definition: definition}, nil
}

func (e *Engine) Definition() string { return e.definition }

func (e *Engine) Convert(context.Context, domain.Direction, []domain.Point) ([]domain.Point, error) {
	return nil, domain.ErrEngineUnavailable
}

func (e *Engine) Close() error { return nil }

func Version() string { return "unavailable" }
