package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/platform/obs"
	"swissgrid-converter/internal/ports"
	"sync"
)

type ConvertRequest struct {
	Points []domain.Point
	// Empty selects the local transform.
	Method domain.Method
	// DirectionAuto infers the direction from the input magnitude.
	Direction domain.Direction
	// Reject batches whose magnitude contradicts the direction or that mix
	// both systems, instead of converting them anyway.
	Strict bool
}

type ConvertResult struct {
	Direction domain.Direction
	Method    domain.Method
	Points    []domain.Point
}

// Converter dispatches conversions to the local transform or the remote service.
// It is safe for concurrent use when both strategies are.
type Converter struct {
	local  ports.Converter
	remote ports.Converter
	grid   ports.GridInfo

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*Converter)

// WithRand sets the random source used for check points.
func WithRand(r *rand.Rand) Option {
	return func(c *Converter) { c.rnd = r }
}

// WithGridInfo records where the correction grid was found.
func WithGridInfo(info ports.GridInfo) Option {
	return func(c *Converter) { c.grid = info }
}

func NewConverter(local, remote ports.Converter, opts ...Option) (*Converter, error) {
	if local == nil || remote == nil {
		return nil, errors.New("new converter: local and remote converters are required")
	}

	c := &Converter{local: local, remote: remote}
	for _, opt := range opts {
		opt(c)
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return c, nil
}

func (c *Converter) GridInfo() ports.GridInfo { return c.grid }

// ResolveDirection returns the direction a request converts in.
func ResolveDirection(req ConvertRequest) (domain.Direction, error) {
	d := req.Direction
	if d != domain.DirectionAuto && d != domain.LV03ToWGS84 && d != domain.WGS84ToLV03 {
		return "", fmt.Errorf("resolve direction: unknown direction %q", d)
	}

	if req.Strict {
		if err := domain.ValidateDirection(req.Points, d); err != nil {
			return "", err
		}
	} else if d == domain.DirectionAuto {
		if err := domain.ValidateDirection(req.Points, d); err != nil {
			log.Printf("convert: %v; converting whole batch as %s", err, domain.InferDirection(req.Points))
		}
	}

	if d == domain.DirectionAuto {
		d = domain.InferDirection(req.Points)
	}
	return d, nil
}

// Convert converts the batch with the requested method. The result has the
// same length and order as the input; on error no points are returned.
func (c *Converter) Convert(ctx context.Context, req ConvertRequest) (_ ConvertResult, err error) {
	defer obs.Time(ctx, "converter.Convert")(&err)

	method := req.Method
	if method == "" {
		method = domain.MethodLocal
	}

	var strategy ports.Converter
	switch method {
	case domain.MethodLocal:
		strategy = c.local
	case domain.MethodRemote:
		strategy = c.remote
	default:
		return ConvertResult{}, fmt.Errorf("convert: unknown method %q", method)
	}

	if len(req.Points) == 0 {
		d := req.Direction
		if d == domain.DirectionAuto {
			d = domain.WGS84ToLV03
		}
		return ConvertResult{Direction: d, Method: method, Points: []domain.Point{}}, nil
	}

	direction, err := ResolveDirection(req)
	if err != nil {
		return ConvertResult{}, fmt.Errorf("convert: %w", err)
	}

	out, err := strategy.Convert(ctx, direction, req.Points)
	if err != nil {
		return ConvertResult{}, fmt.Errorf("convert %s via %s: %w", direction, method, err)
	}
	if len(out) != len(req.Points) {
		return ConvertResult{}, fmt.Errorf("convert %s via %s: got %d points for %d inputs", direction, method, len(out), len(req.Points))
	}
	for i, p := range out {
		if !p.Finite() {
			return ConvertResult{}, fmt.Errorf("convert %s via %s: point %d: %w", direction, method, i, domain.ErrNonFinite)
		}
	}

	return ConvertResult{Direction: direction, Method: method, Points: out}, nil
}
