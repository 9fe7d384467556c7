package ports

import (
	"context"
	"swissgrid-converter/internal/domain"
)

// Contract for converting a batch of points in a given direction.
// Implementations return exactly one output point per input point, in
// input order, or an error and no points.
type Converter interface {
	Convert(ctx context.Context, direction domain.Direction, points []domain.Point) ([]domain.Point, error)
}

// Optional extension for converters holding native resources.
type ClosableConverter interface {
	Converter
	Close() error
}
