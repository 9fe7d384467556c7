package reframe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/platform/obs"
	"swissgrid-converter/internal/ports"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Options configure the REFRAME client.
type Options struct {
	// Endpoint per direction.
	Endpoints map[domain.Direction]string
	// Concurrent single-point requests; 1 keeps requests sequential.
	Parallelism int
	// Requests per second, 0 disables the limiter.
	RateLimit float64
	// Attempts per request; 1 disables retries.
	MaxAttempts int
	// Per-request timeout, 0 disables it.
	Timeout time.Duration
	// Optional store in front of the network.
	Cache ports.ConversionCache
}

// Client implements ports.Converter on top of swisstopo's REFRAME web service.
//
// The service converts one point per request. A batch is converted as a set
// of independent GET requests which either all succeed or fail the batch.
//
// The client is safe for concurrent use.
type Client struct {
	session     *http.Client
	endpoints   map[domain.Direction]string
	parallelism int
	maxAttempts int
	limiter     *rate.Limiter
	cache       ports.ConversionCache
}

var _ ports.Converter = (*Client)(nil)

func NewClient(opts Options, session *http.Client) (*Client, error) {
	endpoints := make(map[domain.Direction]string, len(domain.Directions))
	for _, d := range domain.Directions {
		u := opts.Endpoints[d]
		if u == "" {
			return nil, fmt.Errorf("reframe client: no endpoint for %s", d)
		}
		endpoints[d] = u
	}

	if session == nil {
		session = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		session:     session,
		endpoints:   endpoints,
		parallelism: max(opts.Parallelism, 1),
		maxAttempts: max(opts.MaxAttempts, 1),
		cache:       opts.Cache,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), c.parallelism)
	}

	return c, nil
}

// Convert converts points one request at a time (or Parallelism at a time),
// keeping results in input order.
func (c *Client) Convert(
	ctx context.Context,
	direction domain.Direction,
	points []domain.Point,
) (_ []domain.Point, err error) {
	defer obs.Time(ctx, "reframe.Convert")(&err)

	endpoint, ok := c.endpoints[direction]
	if !ok {
		return nil, fmt.Errorf("reframe convert: unsupported direction %q", direction)
	}

	if len(points) == 0 {
		return []domain.Point{}, nil
	}

	hits := make(map[domain.Point]domain.Point)
	// Check persistent cache before issuing external API calls.
	if c.cache != nil {
		hits, err = c.cache.GetMany(ctx, direction, points)
		if err != nil {
			return nil, fmt.Errorf("reframe get conversion cache: %w", err)
		}
	}

	out := make([]domain.Point, len(points))
	pending := make([]int, 0, len(points))
	for i, p := range points {
		if r, ok := hits[p]; ok {
			out[i] = r
			continue
		}
		pending = append(pending, i)
	}

	if len(pending) > 0 {
		if err := c.fetchAll(ctx, endpoint, points, pending, out); err != nil {
			return nil, fmt.Errorf("reframe convert %s: %w", direction, err)
		}
	}

	if c.cache != nil && len(pending) > 0 {
		fresh := make(map[domain.Point]domain.Point, len(pending))
		for _, i := range pending {
			fresh[points[i]] = out[i]
		}
		if err := c.cache.PutMany(ctx, direction, fresh); err != nil {
			log.Printf("conversion cache write failed: %v", err)
		}
	}

	return out, nil
}

// fetchAll requests points[idx] for every idx in pending and writes the
// results into out at the same index. The first failure cancels the others.
func (c *Client) fetchAll(
	ctx context.Context,
	endpoint string,
	points []domain.Point,
	pending []int,
	out []domain.Point,
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)

	for _, i := range pending {
		g.Go(func() error {
			if c.limiter != nil {
				if err := c.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			r, err := c.convertOne(gctx, endpoint, points[i])
			if err != nil {
				return fmt.Errorf("point %d (%v, %v): %w", i, points[i].E, points[i].N, err)
			}
			out[i] = r
			return nil
		})
	}

	err := g.Wait()
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
