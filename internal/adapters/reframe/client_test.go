package reframe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"swissgrid-converter/internal/adapters/cache"
	"swissgrid-converter/internal/domain"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReframe shifts every point by +1000/+500 and echoes it as strings.
type fakeReframe struct {
	hits    atomic.Int32
	failAt  int32 // 1-based request number answered with failStatus, 0 = never
	failFor int32 // number of consecutive failures starting at failAt
	status  int
	omit    string
	// Fixed field values replacing the shifted coordinates.
	values  map[string]string
	delay   time.Duration
	queries chan string
}

func (f *fakeReframe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := f.hits.Add(1)
	if f.queries != nil {
		f.queries <- r.URL.RawQuery
	}
	if f.failAt > 0 && n >= f.failAt && n < f.failAt+max(f.failFor, 1) {
		http.Error(w, "service unavailable", f.status)
		return
	}

	q := r.URL.Query()
	e, err1 := strconv.ParseFloat(q.Get("easting"), 64)
	no, err2 := strconv.ParseFloat(q.Get("northing"), 64)
	if err1 != nil || err2 != nil || q.Get("format") != "json" {
		http.Error(w, "bad query", http.StatusBadRequest)
		return
	}

	// Later points answer faster so completion order differs from input order.
	time.Sleep(f.delay + time.Duration(1000-int(e)%1000)*time.Microsecond)

	body := map[string]string{
		"easting":  strconv.FormatFloat(e+1000, 'f', -1, 64),
		"northing": strconv.FormatFloat(no+500, 'f', -1, 64),
		"altitude": "0",
	}
	for k, v := range f.values {
		body[k] = v
	}
	delete(body, f.omit)
	parts := make([]string, 0, len(body))
	for k, v := range body {
		parts = append(parts, fmt.Sprintf("%q:%q", k, v))
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, "{%s}", strings.Join(parts, ","))
}

func newTestClient(t *testing.T, f *fakeReframe, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	opts.Endpoints = map[domain.Direction]string{
		domain.WGS84ToLV03: srv.URL + "/reframe/wgs84tolv03",
		domain.LV03ToWGS84: srv.URL + "/reframe/lv03towgs84",
	}
	c, err := NewClient(opts, srv.Client())
	require.NoError(t, err)
	return c
}

func gridPoints(n int) []domain.Point {
	out := make([]domain.Point, n)
	for i := range out {
		out[i] = domain.Point{E: 600000 + float64(i*37), N: 200000 + float64(i)}
	}
	return out
}

func TestConvertPreservesOrder(t *testing.T) {
	for _, parallelism := range []int{1, 4} {
		t.Run(fmt.Sprintf("parallelism=%d", parallelism), func(t *testing.T) {
			f := &fakeReframe{}
			c := newTestClient(t, f, Options{Parallelism: parallelism})

			in := gridPoints(12)
			got, err := c.Convert(context.Background(), domain.LV03ToWGS84, in)
			require.NoError(t, err)

			want := make([]domain.Point, len(in))
			for i, p := range in {
				want[i] = domain.Point{E: p.E + 1000, N: p.N + 500}
			}
			if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Fatalf("Convert() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, int32(len(in)), f.hits.Load())
		})
	}
}

func TestConvertSendsFourteenDecimals(t *testing.T) {
	f := &fakeReframe{queries: make(chan string, 1)}
	c := newTestClient(t, f, Options{})

	_, err := c.Convert(context.Background(), domain.WGS84ToLV03, []domain.Point{{E: 7.5, N: 46.5}})
	require.NoError(t, err)

	q := <-f.queries
	assert.Contains(t, q, "easting=7.50000000000000")
	assert.Contains(t, q, "northing=46.50000000000000")
	assert.Contains(t, q, "format=json")
}

func TestConvertAbortsOnNonSuccess(t *testing.T) {
	f := &fakeReframe{failAt: 3, status: http.StatusServiceUnavailable}
	c := newTestClient(t, f, Options{})

	got, err := c.Convert(context.Background(), domain.LV03ToWGS84, gridPoints(5))
	require.Error(t, err)
	assert.Nil(t, got)

	var te *domain.TransportError
	require.True(t, errors.As(err, &te), "err = %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	// Sequential and not retried: the batch stops at the failing request.
	assert.Equal(t, int32(3), f.hits.Load())
}

func TestConvertRetriesWhenEnabled(t *testing.T) {
	f := &fakeReframe{failAt: 1, failFor: 2, status: http.StatusBadGateway}
	c := newTestClient(t, f, Options{MaxAttempts: 3})

	got, err := c.Convert(context.Background(), domain.LV03ToWGS84, gridPoints(1))
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(3), f.hits.Load())
}

func TestConvertDoesNotRetryClientErrors(t *testing.T) {
	f := &fakeReframe{failAt: 1, status: http.StatusBadRequest}
	c := newTestClient(t, f, Options{MaxAttempts: 3})

	_, err := c.Convert(context.Background(), domain.LV03ToWGS84, gridPoints(1))
	assert.True(t, domain.IsTransport(err))
	assert.Equal(t, int32(1), f.hits.Load())
}

func TestConvertMalformedResponse(t *testing.T) {
	f := &fakeReframe{omit: "northing"}
	c := newTestClient(t, f, Options{})

	_, err := c.Convert(context.Background(), domain.LV03ToWGS84, gridPoints(1))
	require.Error(t, err)

	var me *domain.MalformedResponseError
	require.True(t, errors.As(err, &me), "err = %v", err)
	assert.Equal(t, "northing", me.Field)
}

func TestConvertUsesCache(t *testing.T) {
	f := &fakeReframe{}
	c := newTestClient(t, f, Options{Cache: cache.NewMemoryConversionCache()})

	in := gridPoints(3)
	first, err := c.Convert(context.Background(), domain.LV03ToWGS84, in)
	require.NoError(t, err)
	second, err := c.Convert(context.Background(), domain.LV03ToWGS84, in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(3), f.hits.Load())
}

func TestConvertEmptyAndUnknownDirection(t *testing.T) {
	f := &fakeReframe{}
	c := newTestClient(t, f, Options{})

	got, err := c.Convert(context.Background(), domain.WGS84ToLV03, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = c.Convert(context.Background(), domain.DirectionAuto, gridPoints(1))
	assert.Error(t, err)
	assert.Zero(t, f.hits.Load())
}

func TestNewClientRequiresEndpoints(t *testing.T) {
	_, err := NewClient(Options{Endpoints: map[domain.Direction]string{domain.WGS84ToLV03: "http://x"}}, nil)
	assert.Error(t, err)
}

func TestDecimalAcceptsStringsAndNumbers(t *testing.T) {
	var d decimal
	require.NoError(t, d.UnmarshalJSON([]byte(`"2600000.123"`)))
	assert.InDelta(t, 2600000.123, d.value, 1e-9)

	var n decimal
	require.NoError(t, n.UnmarshalJSON([]byte(`46.5`)))
	assert.True(t, n.set)

	var bad decimal
	assert.Error(t, bad.UnmarshalJSON([]byte(`"north"`)))
}

func TestConvertRejectsNonFiniteValues(t *testing.T) {
	mem := cache.NewMemoryConversionCache()
	f := &fakeReframe{values: map[string]string{"easting": "NaN", "northing": "Inf"}}
	c := newTestClient(t, f, Options{Cache: mem})

	in := gridPoints(1)
	got, err := c.Convert(context.Background(), domain.LV03ToWGS84, in)
	require.Error(t, err)
	assert.Nil(t, got)

	var me *domain.MalformedResponseError
	require.True(t, errors.As(err, &me), "err = %v", err)
	assert.Equal(t, "easting", me.Field)

	cached, err := mem.GetMany(context.Background(), domain.LV03ToWGS84, in)
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestConvertRateLimited(t *testing.T) {
	f := &fakeReframe{}
	c := newTestClient(t, f, Options{RateLimit: 20})

	start := time.Now()
	got, err := c.Convert(context.Background(), domain.LV03ToWGS84, gridPoints(5))
	require.NoError(t, err)
	assert.Len(t, got, 5)

	// Burst of one, then a token every 50ms.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, int32(5), f.hits.Load())
}

func TestConvertRateLimitHonorsCancel(t *testing.T) {
	f := &fakeReframe{}
	c := newTestClient(t, f, Options{RateLimit: 0.5})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := c.Convert(ctx, domain.LV03ToWGS84, gridPoints(3))
	require.Error(t, err)
	assert.LessOrEqual(t, f.hits.Load(), int32(1))
}

func TestConvertParallelFailureCancelsRemaining(t *testing.T) {
	f := &fakeReframe{failAt: 1, status: http.StatusBadRequest, delay: 20 * time.Millisecond}
	c := newTestClient(t, f, Options{Parallelism: 4})

	got, err := c.Convert(context.Background(), domain.LV03ToWGS84, gridPoints(40))
	require.Error(t, err)
	assert.Nil(t, got)

	var te *domain.TransportError
	require.True(t, errors.As(err, &te), "err = %v", err)
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	// Only requests already in flight when the first one failed reach the server.
	assert.Less(t, f.hits.Load(), int32(10))
}
