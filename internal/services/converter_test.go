package services

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"swissgrid-converter/internal/adapters/mock"
	"swissgrid-converter/internal/adapters/reframe"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/ports"
	"testing"
)

func newTestConverter(t *testing.T, local, remote *mock.MockConverter) *Converter {
	t.Helper()
	c, err := NewConverter(local, remote, WithRand(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestConvertInfersDirectionAndDispatches(t *testing.T) {
	local := mock.NewMockConverter(mock.Offset(1, 1))
	remote := mock.NewMockConverter(mock.Offset(2, 2))
	c := newTestConverter(t, local, remote)

	res, err := c.Convert(context.Background(), ConvertRequest{
		Points: []domain.Point{{E: 7.5, N: 46.5}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Direction != domain.WGS84ToLV03 {
		t.Fatalf("direction = %s, want %s", res.Direction, domain.WGS84ToLV03)
	}
	if res.Method != domain.MethodLocal {
		t.Fatalf("method = %s, want local by default", res.Method)
	}
	if res.Points[0] != (domain.Point{E: 8.5, N: 47.5}) {
		t.Fatalf("point = %v", res.Points[0])
	}

	res, err = c.Convert(context.Background(), ConvertRequest{
		Points: []domain.Point{{E: 600000.0, N: 200000.0}},
		Method: domain.MethodRemote,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Direction != domain.LV03ToWGS84 {
		t.Fatalf("direction = %s, want %s", res.Direction, domain.LV03ToWGS84)
	}
	if got := remote.Calls(); len(got) != 1 || got[0] != domain.LV03ToWGS84 {
		t.Fatalf("remote calls = %v", got)
	}
	if got := local.Calls(); len(got) != 1 {
		t.Fatalf("local calls = %v, want exactly one", got)
	}
}

func TestConvertPreservesLengthAndOrder(t *testing.T) {
	c := newTestConverter(t, mock.NewMockConverter(mock.Offset(0, 10)), mock.NewMockConverter(mock.Offset(0, 0)))

	in := []domain.Point{{E: 6.1, N: 46.1}, {E: 9.9, N: 46.9}, {E: 7, N: 46.2}, {E: 8, N: 46.7}}
	res, err := c.Convert(context.Background(), ConvertRequest{Points: in})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Points) != len(in) {
		t.Fatalf("len = %d, want %d", len(res.Points), len(in))
	}
	for i := range in {
		if res.Points[i].E != in[i].E || res.Points[i].N != in[i].N+10 {
			t.Errorf("point %d = %v, want shifted %v", i, res.Points[i], in[i])
		}
	}
}

func TestConvertExplicitDirection(t *testing.T) {
	c := newTestConverter(t, mock.NewMockConverter(mock.Offset(0, 0)), mock.NewMockConverter(mock.Offset(0, 0)))
	geo := []domain.Point{{E: 7.5, N: 46.5}}

	// Non-strict: the caller's direction wins over the heuristic.
	res, err := c.Convert(context.Background(), ConvertRequest{Points: geo, Direction: domain.LV03ToWGS84})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Direction != domain.LV03ToWGS84 {
		t.Fatalf("direction = %s", res.Direction)
	}

	_, err = c.Convert(context.Background(), ConvertRequest{Points: geo, Direction: domain.LV03ToWGS84, Strict: true})
	if !errors.Is(err, domain.ErrDirectionMismatch) {
		t.Fatalf("err = %v, want ErrDirectionMismatch", err)
	}
}

func TestConvertMixedBatch(t *testing.T) {
	c := newTestConverter(t, mock.NewMockConverter(mock.Offset(0, 0)), mock.NewMockConverter(mock.Offset(0, 0)))
	mixed := []domain.Point{{E: 7.5, N: 46.5}, {E: 600000, N: 200000}}

	res, err := c.Convert(context.Background(), ConvertRequest{Points: mixed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Direction != domain.LV03ToWGS84 {
		t.Fatalf("direction = %s, want whole batch as grid", res.Direction)
	}

	_, err = c.Convert(context.Background(), ConvertRequest{Points: mixed, Strict: true})
	if !errors.Is(err, domain.ErrMixedBatch) {
		t.Fatalf("err = %v, want ErrMixedBatch", err)
	}
}

func TestConvertEmptyBatchAndUnknownMethod(t *testing.T) {
	local := mock.NewMockConverter(mock.Offset(0, 0))
	c := newTestConverter(t, local, mock.NewMockConverter(mock.Offset(0, 0)))

	res, err := c.Convert(context.Background(), ConvertRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Points) != 0 || len(local.Calls()) != 0 {
		t.Fatalf("empty batch converted: %v, calls %v", res.Points, local.Calls())
	}

	if _, err := c.Convert(context.Background(), ConvertRequest{Points: []domain.Point{{E: 7, N: 46}}, Method: "abacus"}); err == nil {
		t.Fatal("expected error for unknown method")
	}
}

func TestConvertRemoteFailureAbortsBatch(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 2 {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"easting":"2600000.0","northing":"1200000.0"}`))
	}))
	defer srv.Close()

	remote, err := reframe.NewClient(reframe.Options{Endpoints: map[domain.Direction]string{
		domain.WGS84ToLV03: srv.URL + "/wgs84tolv03",
		domain.LV03ToWGS84: srv.URL + "/lv03towgs84",
	}}, srv.Client())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, err := NewConverter(mock.NewMockConverter(mock.Offset(0, 0)), remote)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := c.Convert(context.Background(), ConvertRequest{
		Points: []domain.Point{{E: 7.1, N: 46.1}, {E: 7.2, N: 46.2}, {E: 7.3, N: 46.3}},
		Method: domain.MethodRemote,
	})
	if !domain.IsTransport(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
	if res.Points != nil {
		t.Fatalf("partial result returned: %v", res.Points)
	}
}

func TestNewConverterRequiresBothStrategies(t *testing.T) {
	if _, err := NewConverter(nil, mock.NewMockConverter(mock.Offset(0, 0))); err == nil {
		t.Fatal("expected error for missing local converter")
	}
}

func TestConverterGridInfo(t *testing.T) {
	info := ports.GridInfo{Path: "/grids/chenyx06etrs.gsb", SearchPath: "/usr/share/proj:/grids"}
	c, err := NewConverter(mock.NewMockConverter(mock.Offset(0, 0)), mock.NewMockConverter(mock.Offset(0, 0)), WithGridInfo(info))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.GridInfo(); got != info {
		t.Fatalf("GridInfo() = %+v, want %+v", got, info)
	}
}

func TestConvertRejectsNonFiniteOutput(t *testing.T) {
	nan := mock.NewMockConverter(func(_ domain.Direction, p domain.Point) domain.Point {
		return domain.Point{E: math.NaN(), N: p.N}
	})
	c := newTestConverter(t, mock.NewMockConverter(mock.Offset(0, 0)), nan)

	res, err := c.Convert(context.Background(), ConvertRequest{
		Points: []domain.Point{{E: 600000, N: 200000}},
		Method: domain.MethodRemote,
	})
	if !errors.Is(err, domain.ErrNonFinite) {
		t.Fatalf("err = %v, want %v", err, domain.ErrNonFinite)
	}
	if res.Points != nil {
		t.Fatalf("partial result returned: %v", res.Points)
	}
}
