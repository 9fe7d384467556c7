package handlers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteJSONUnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/checks", nil)

	writeJSON(rec, req, http.StatusOK, map[string]float64{"mean": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
