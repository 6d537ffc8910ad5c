package model

// TimeDistribItem is a raw time-bucketed frequency as returned by an API.
type TimeDistribItem struct {
	Datetime string  `json:"datetime"`
	Freq     float64 `json:"freq"`
	Norm     float64 `json:"norm"`
}

// DataItemWithWCI is a time-bucketed frequency enriched with its ipm and
// Wilson confidence interval (both in per-million units).
//
// Freq and Norm are additive when chunks are merged; IPM and IPMInterval
// are always recomputed from the summed values.
type DataItemWithWCI struct {
	Datetime    string     `json:"datetime"`
	Freq        float64    `json:"freq"`
	Norm        float64    `json:"norm"`
	IPM         float64    `json:"ipm"`
	IPMInterval [2]float64 `json:"ipmInterval"`
}
