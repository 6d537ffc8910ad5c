package stats

import "math"

// RoundFloat rounds v to the given number of decimal places using
// half-away-from-zero rounding.
func RoundFloat(v float64, places int) float64 {
	m := math.Pow(10, float64(places))
	return math.Round(v*m) / m
}

// CalcIPM returns the instances-per-million value of freq within a
// domain of norm tokens, rounded to two decimals. Zero norm yields 0.
func CalcIPM(freq, norm float64) float64 {
	if norm <= 0 {
		return 0
	}
	return RoundFloat(freq/norm*1e6, 2)
}

// IPMInterval converts a Wilson interval of freq within norm into
// per-million units rounded to two decimals.
func IPMInterval(freq, norm float64, alpha AlphaLevel) [2]float64 {
	ci := WilsonConfInterval(freq, norm, alpha)
	return [2]float64{RoundFloat(ci[0]*1e6, 2), RoundFloat(ci[1]*1e6, 2)}
}

// FreqBand classifies an ipm value into one of five frequency bands.
func FreqBand(ipm float64) int {
	switch {
	case ipm < 1:
		return 1
	case ipm < 10:
		return 2
	case ipm < 100:
		return 3
	case ipm < 1000:
		return 4
	default:
		return 5
	}
}
