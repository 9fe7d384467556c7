package mock

import (
	"context"
	"fmt"
	"swissgrid-converter/internal/domain"
	"sync"
)

// MockConverter applies a pure function per point and records its calls.
type MockConverter struct {
	mu    sync.Mutex
	fn    func(domain.Direction, domain.Point) domain.Point
	err   error
	calls []domain.Direction
}

// NewMockConverter returns a converter applying fn to every point.
func NewMockConverter(fn func(domain.Direction, domain.Point) domain.Point) *MockConverter {
	return &MockConverter{fn: fn}
}

// NewFailingConverter returns a converter failing every call with err.
func NewFailingConverter(err error) *MockConverter {
	return &MockConverter{err: err}
}

// Offset shifts points by (de, dn) in both directions.
func Offset(de, dn float64) func(domain.Direction, domain.Point) domain.Point {
	return func(_ domain.Direction, p domain.Point) domain.Point {
		return domain.Point{E: p.E + de, N: p.N + dn}
	}
}

func (m *MockConverter) Convert(ctx context.Context, direction domain.Direction, points []domain.Point) ([]domain.Point, error) {
	m.mu.Lock()
	m.calls = append(m.calls, direction)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	if direction != domain.LV03ToWGS84 && direction != domain.WGS84ToLV03 {
		return nil, fmt.Errorf("mock convert: unsupported direction %q", direction)
	}

	out := make([]domain.Point, len(points))
	for i, p := range points {
		out[i] = m.fn(direction, p)
	}
	return out, nil
}

// Calls returns the directions of all calls so far.
func (m *MockConverter) Calls() []domain.Direction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Direction, len(m.calls))
	copy(out, m.calls)
	return out
}
