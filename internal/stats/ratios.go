package stats

import (
	"cmp"
	"math"
	"slices"
)

// CalcPercentRatios assigns each item its share of the total weight in
// percent, rounded to one decimal place. The rounding drift is settled in
// 0.1 steps: items with the largest remainder gain a step when the
// rounded sum falls short of 100, items with the smallest remainder lose
// one when it overshoots. No ratio drops below 0 and the ratios sum to
// exactly 100.
//
// Items are returned in their original order. When the total weight is
// zero every item gets a ratio of 0.
func CalcPercentRatios[T any](items []T, weight func(T) float64, withRatio func(T, float64) T) []T {
	ans := make([]T, len(items))
	if len(items) == 0 {
		return ans
	}

	var total float64
	for _, item := range items {
		total += weight(item)
	}
	if total <= 0 {
		for i, item := range items {
			ans[i] = withRatio(item, 0)
		}
		return ans
	}

	ratios := make([]float64, len(items))
	remainders := make([]float64, len(items))
	var sum float64
	for i, item := range items {
		exact := weight(item) / total * 100
		ratios[i] = RoundFloat(exact, 1)
		remainders[i] = exact - ratios[i]
		sum += ratios[i]
	}

	steps := int(math.Round((100 - sum) * 10))
	if steps != 0 {
		order := make([]int, len(items))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			if steps > 0 {
				return cmp.Compare(remainders[b], remainders[a])
			}
			return cmp.Compare(remainders[a], remainders[b])
		})
		for i := 0; steps != 0; i = (i + 1) % len(order) {
			idx := order[i]
			switch {
			case steps > 0:
				ratios[idx] = RoundFloat(ratios[idx]+0.1, 1)
				steps--
			case ratios[idx] >= 0.1:
				ratios[idx] = RoundFloat(ratios[idx]-0.1, 1)
				steps++
			}
		}
	}

	for i, item := range items {
		ans[i] = withRatio(item, ratios[i])
	}
	return ans
}
