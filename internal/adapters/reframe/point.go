package reframe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"swissgrid-converter/internal/domain"
)

// Decimal digits sent to the service for each coordinate.
const queryPrecision = 14

// decimal accepts both "123.4" and 123.4; the service sends strings.
type decimal struct {
	set   bool
	value float64
}

func (d *decimal) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	d.set = true
	d.value = v
	return nil
}

type pointResponse struct {
	Easting  decimal `json:"easting"`
	Northing decimal `json:"northing"`
}

// FormatCoordinate renders a coordinate the way it is sent to the service.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', queryPrecision, 64)
}

// convertOne issues a single GET request for p against endpoint.
func (c *Client) convertOne(ctx context.Context, endpoint string, p domain.Point) (domain.Point, error) {
	easting := FormatCoordinate(p.E)
	northing := FormatCoordinate(p.N)

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("easting", easting)
		q.Set("northing", northing)
		q.Set("format", "json")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Point{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	var decoded pointResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Point{}, &domain.MalformedResponseError{URL: endpoint, Field: "body", Err: err}
	}

	if !decoded.Easting.set {
		return domain.Point{}, &domain.MalformedResponseError{URL: endpoint, Field: "easting"}
	}
	if !decoded.Northing.set {
		return domain.Point{}, &domain.MalformedResponseError{URL: endpoint, Field: "northing"}
	}

	// ParseFloat accepts "NaN" and "Inf"; the service never means either.
	if err := finite(decoded.Easting.value); err != nil {
		return domain.Point{}, &domain.MalformedResponseError{URL: endpoint, Field: "easting", Err: err}
	}
	if err := finite(decoded.Northing.value); err != nil {
		return domain.Point{}, &domain.MalformedResponseError{URL: endpoint, Field: "northing", Err: err}
	}

	return domain.Point{E: decoded.Easting.value, N: decoded.Northing.value}, nil
}

func finite(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("non-finite value %v", v)
	}
	return nil
}
