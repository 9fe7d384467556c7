package dto

type DistanceSummaryResponse struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

type DirectionCheckResponse struct {
	Direction string                  `json:"direction"`
	Points    [][]float64             `json:"points"`
	Local     [][]float64             `json:"local"`
	Remote    [][]float64             `json:"remote"`
	Distances []float64               `json:"distances"`
	Summary   DistanceSummaryResponse `json:"summary"`
}

type CheckResponse struct {
	Checks []DirectionCheckResponse `json:"checks"`
}
