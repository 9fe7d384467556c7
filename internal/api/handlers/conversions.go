package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"swissgrid-converter/internal/api/dto"
	"swissgrid-converter/internal/domain"
	"swissgrid-converter/internal/services"
)

// Largest batch accepted by POST /conversions.
const maxPoints = 10000

// ConversionService is the part of services.Converter the handlers use.
type ConversionService interface {
	Convert(ctx context.Context, req services.ConvertRequest) (services.ConvertResult, error)
	CheckConversion(ctx context.Context, n int) (*services.CheckReport, error)
}

type ConversionHandler struct {
	Converter ConversionService
}

// Convert converts a batch of points with the requested method and direction.
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.ConversionRequest

	dec := json.NewDecoder(io.LimitReader(r.Body, 8<<20))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if len(req.Points) > maxPoints {
		writeError(w, r, http.StatusBadRequest, "too many points (max "+strconv.Itoa(maxPoints)+")")
		return
	}

	points := make([]domain.Point, 0, len(req.Points))
	for i, raw := range req.Points {
		p, ok := domain.PointFromList(raw)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "points["+strconv.Itoa(i)+"] must be [easting, northing]")
			return
		}
		points = append(points, p)
	}

	method, err := domain.ParseMethod(req.Method)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "method must be local or remote")
		return
	}

	direction, err := domain.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "direction must be auto, lv03towgs84 or wgs84tolv03")
		return
	}

	res, err := h.Converter.Convert(r.Context(), services.ConvertRequest{
		Points:    points,
		Method:    method,
		Direction: direction,
		Strict:    req.Strict,
	})
	if err != nil {
		writeConversionError(w, r, err)
		return
	}

	out := toLists(res.Points)
	if out == nil {
		log.Printf("convert produced non-finite coordinates: direction=%s method=%s", res.Direction, res.Method)
		writeError(w, r, http.StatusInternalServerError, "conversion produced invalid coordinates")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ConversionResponse{
		Direction: res.Direction.String(),
		Method:    res.Method.String(),
		Points:    out,
	})
}

// Check runs the local/remote self-check on ?n= random points per direction.
func (h *ConversionHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	n := 10
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > services.MaxCheckPoints {
			writeError(w, r, http.StatusBadRequest, "n must be between 1 and "+strconv.Itoa(services.MaxCheckPoints))
			return
		}
		n = parsed
	}

	report, err := h.Converter.CheckConversion(r.Context(), n)
	if err != nil {
		writeConversionError(w, r, err)
		return
	}

	res := dto.CheckResponse{Checks: make([]dto.DirectionCheckResponse, 0, len(domain.Directions))}
	for _, d := range domain.Directions {
		s := report.Summary[d]
		res.Checks = append(res.Checks, dto.DirectionCheckResponse{
			Direction: d.String(),
			Points:    toLists(report.Points[d]),
			Local:     toLists(report.Results[d][domain.MethodLocal]),
			Remote:    toLists(report.Results[d][domain.MethodRemote]),
			Distances: report.Distances[d],
			Summary: dto.DistanceSummaryResponse{
				Count:  s.Count,
				Mean:   s.Mean,
				StdDev: s.StdDev,
				Min:    s.Min,
				Max:    s.Max,
			},
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func writeConversionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrMixedBatch), errors.Is(err, domain.ErrDirectionMismatch):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case domain.IsTransport(err), domain.IsMalformed(err):
		log.Printf("remote conversion failed: %v", err)
		writeError(w, r, http.StatusBadGateway, "remote conversion service failed")
	case errors.Is(err, domain.ErrNonFinite):
		log.Printf("conversion produced non-finite coordinates: %v", err)
		writeError(w, r, http.StatusInternalServerError, "conversion produced invalid coordinates")
	case errors.Is(err, domain.ErrEngineUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "local projection engine unavailable")
	default:
		log.Printf("conversion failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// toLists renders points as [e, n] pairs; nil if any value is not finite.
func toLists(points []domain.Point) [][]float64 {
	out := make([][]float64, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.E) || math.IsInf(p.E, 0) || math.IsNaN(p.N) || math.IsInf(p.N, 0) {
			return nil
		}
		out = append(out, p.ToList())
	}
	return out
}
