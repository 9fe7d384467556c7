package dto

type ConversionRequest struct {
	Points    [][]float64 `json:"points"`
	Method    string      `json:"method"`
	Direction string      `json:"direction"`
	Strict    bool        `json:"strict"`
}

type ConversionResponse struct {
	Direction string      `json:"direction"`
	Method    string      `json:"method"`
	Points    [][]float64 `json:"points"`
}
