package api

import (
	"encoding/json"
	"math/rand/v2"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"swissgrid-converter/internal/adapters/mock"
	"swissgrid-converter/internal/api/dto"
	"swissgrid-converter/internal/api/handlers"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/ports"
	"swissgrid-converter/internal/services"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linear approximates the Swiss grid around Bern.
func linear(d domain.Direction, p domain.Point) domain.Point {
	if d == domain.WGS84ToLV03 {
		return domain.Point{E: 600000 + (p.E-7.44)*76000, N: 200000 + (p.N-46.95)*111000}
	}
	return domain.Point{E: 7.44 + (p.E-600000)/76000, N: 46.95 + (p.N-200000)/111000}
}

func newTestRouter(t *testing.T, remote *mock.MockConverter) http.Handler {
	t.Helper()
	local := mock.NewMockConverter(linear)
	if remote == nil {
		shift := mock.Offset(0.5, 0)
		remote = mock.NewMockConverter(func(d domain.Direction, p domain.Point) domain.Point {
			return shift(d, linear(d, p))
		})
	}
	c, err := services.NewConverter(local, remote, services.WithRand(rand.New(rand.NewPCG(7, 7))),
		services.WithGridInfo(ports.GridInfo{Path: "/grids/chenyx06etrs.gsb", SearchPath: "/grids"}))
	require.NoError(t, err)
	return NewRouter(c, &handlers.HealthHandler{Grid: c.GridInfo(), ProjVersion: "test"})
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"grid":"/grids/chenyx06etrs.gsb"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, newTestRouter(t, nil), http.MethodPost, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestConversionsInfersDirection(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), http.MethodPost, "/conversions",
		`{"points":[[7.44,46.95],[7.5,46.5]]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res dto.ConversionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "wgs84tolv03", res.Direction)
	assert.Equal(t, "local", res.Method)
	require.Len(t, res.Points, 2)
	assert.InDelta(t, 600000, res.Points[0][0], 1e-6)
	assert.InDelta(t, 200000, res.Points[0][1], 1e-6)
}

func TestConversionsRemoteMethod(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), http.MethodPost, "/conversions",
		`{"points":[[600000,200000]],"method":"rest"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res dto.ConversionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "lv03towgs84", res.Direction)
	assert.Equal(t, "remote", res.Method)
	require.Len(t, res.Points, 1)
	assert.InDelta(t, 7.94, res.Points[0][0], 1e-9)
	assert.InDelta(t, 46.95, res.Points[0][1], 1e-9)
}

func TestConversionsRejectsBadInput(t *testing.T) {
	h := newTestRouter(t, nil)
	for name, body := range map[string]string{
		"not json":        `{`,
		"unknown field":   `{"points":[],"datum":"x"}`,
		"short point":     `{"points":[[7.5]]}`,
		"bad method":      `{"points":[[7.5,46.5]],"method":"abacus"}`,
		"bad direction":   `{"points":[[7.5,46.5]],"direction":"up"}`,
		"trailing object": `{"points":[]}{}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/conversions", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestConversionsStrictMixedBatch(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), http.MethodPost, "/conversions",
		`{"points":[[7.5,46.5],[600000,200000]],"strict":true}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestConversionsRemoteFailure(t *testing.T) {
	failing := mock.NewFailingConverter(&domain.TransportError{Op: "reframe request", URL: "http://reframe", StatusCode: 503})
	rec := do(t, newTestRouter(t, failing), http.MethodPost, "/conversions",
		`{"points":[[600000,200000]],"method":"remote"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "points")
}

func TestChecks(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), http.MethodGet, "/checks?n=4", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res dto.CheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Checks, 2)
	for _, c := range res.Checks {
		assert.Len(t, c.Points, 4)
		assert.Len(t, c.Distances, 4)
		assert.Equal(t, 4, c.Summary.Count)
		for _, d := range c.Distances {
			assert.InDelta(t, 0.5, d, 1e-6)
		}
	}

	rec = do(t, newTestRouter(t, nil), http.MethodGet, "/checks?n=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChecksRejectsNonFiniteRemote(t *testing.T) {
	nan := mock.NewMockConverter(func(d domain.Direction, p domain.Point) domain.Point {
		return domain.Point{E: math.NaN(), N: linear(d, p).N}
	})
	rec := do(t, newTestRouter(t, nan), http.MethodGet, "/checks?n=2", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "conversion produced invalid coordinates")
}

func TestConversionsRejectsNonFiniteRemote(t *testing.T) {
	nan := mock.NewMockConverter(func(domain.Direction, domain.Point) domain.Point {
		return domain.Point{E: math.Inf(1), N: 0}
	})
	rec := do(t, newTestRouter(t, nan), http.MethodPost, "/conversions",
		`{"points":[[600000,200000]],"method":"remote"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "points")
}
