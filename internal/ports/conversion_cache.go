package ports

import (
	"context"
	"swissgrid-converter/internal/domain"
)

// Port: a store for previously computed remote conversions.
type ConversionCache interface {
	// Return the cached outputs for the inputs that have one.
	GetMany(ctx context.Context, direction domain.Direction, points []domain.Point) (map[domain.Point]domain.Point, error)
	// Store input -> output mappings.
	PutMany(ctx context.Context, direction domain.Direction, results map[domain.Point]domain.Point) error
}
