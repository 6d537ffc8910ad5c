package stats

import (
	"errors"
	"fmt"
	"math"
)

// AlphaLevel is a significance level used to pick the z quantile
// of a two-sided confidence interval.
type AlphaLevel string

// Supported significance levels.
const (
	AlphaLevel10  AlphaLevel = "0.1"
	AlphaLevel5   AlphaLevel = "0.05"
	AlphaLevel1   AlphaLevel = "0.01"
	AlphaLevel05  AlphaLevel = "0.005"
	AlphaLevel01  AlphaLevel = "0.001"
	DefaultAlpha             = AlphaLevel5
)

// ErrUnknownAlphaLevel is returned by ParseAlphaLevel for unsupported values.
var ErrUnknownAlphaLevel = errors.New("unknown alpha level")

// zValues maps each supported alpha level to the (1 - alpha/2) quantile
// of the standard normal distribution.
var zValues = map[AlphaLevel]float64{
	AlphaLevel10: 1.6448536269514722,
	AlphaLevel5:  1.959963984540054,
	AlphaLevel1:  2.5758293035489004,
	AlphaLevel05: 2.807033768343811,
	AlphaLevel01: 3.2905267314919255,
}

// ParseAlphaLevel converts a configuration value into an AlphaLevel.
// An empty string yields DefaultAlpha.
func ParseAlphaLevel(s string) (AlphaLevel, error) {
	if s == "" {
		return DefaultAlpha, nil
	}
	a := AlphaLevel(s)
	if _, ok := zValues[a]; !ok {
		return "", fmt.Errorf("%w: %q (supported: 0.1, 0.05, 0.01, 0.005, 0.001)", ErrUnknownAlphaLevel, s)
	}
	return a, nil
}

// Z returns the z quantile for the level. Unknown levels fall back to
// the quantile of DefaultAlpha.
func (a AlphaLevel) Z() float64 {
	if z, ok := zValues[a]; ok {
		return z
	}
	return zValues[DefaultAlpha]
}

// WilsonConfInterval returns the Wilson score interval [low, high] for
// the proportion successes/total at the given significance level.
// Both bounds are fractions within [0, 1] and low <= high.
// A non-positive total yields [0, 0].
func WilsonConfInterval(successes, total float64, alpha AlphaLevel) [2]float64 {
	if total <= 0 {
		return [2]float64{0, 0}
	}
	if successes < 0 {
		successes = 0
	}
	if successes > total {
		successes = total
	}

	p := successes / total
	z := alpha.Z()
	z2 := z * z

	center := p + z2/(2*total)
	spread := z * math.Sqrt(p*(1-p)/total+z2/(4*total*total))
	denom := 1 + z2/total

	low := clamp01((center - spread) / denom)
	high := clamp01((center + spread) / denom)
	if low > high {
		low, high = high, low
	}
	return [2]float64{low, high}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
