package cache

import (
	"context"
	"fmt"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/ports"
	"sync"
)

// MemoryConversionCache keeps conversions for the lifetime of the process.
type MemoryConversionCache struct {
	mu sync.RWMutex
	m  map[domain.Direction]map[string]domain.Point
}

var _ ports.ConversionCache = (*MemoryConversionCache)(nil)

func NewMemoryConversionCache() *MemoryConversionCache {
	return &MemoryConversionCache{m: make(map[domain.Direction]map[string]domain.Point)}
}

func (s *MemoryConversionCache) GetMany(
	ctx context.Context,
	direction domain.Direction,
	points []domain.Point,
) (map[domain.Point]domain.Point, error) {
	if !validDirection(direction) {
		return nil, fmt.Errorf("get memory cache: invalid direction %q", direction)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.Point]domain.Point)
	for _, p := range points {
		if r, ok := s.m[direction][pointKey(p)]; ok {
			out[p] = r
		}
	}
	return out, nil
}

func (s *MemoryConversionCache) PutMany(
	ctx context.Context,
	direction domain.Direction,
	results map[domain.Point]domain.Point,
) error {
	if !validDirection(direction) {
		return fmt.Errorf("insert memory cache: invalid direction %q", direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.m[direction] == nil {
		s.m[direction] = make(map[string]domain.Point, len(results))
	}
	for in, out := range results {
		s.m[direction][pointKey(in)] = out
	}
	return nil
}
