package stats

import "math"

// FilterRareVariants removes items considered too rare to be reliable.
//
// Two measures are checked for each item, both based on the lower bound
// of its Wilson interval:
//  1. the share among all items (in percent)
//  2. the absolute count within the whole corpus
//
// An item is kept only if neither measure rounds to zero. Items with a
// zero frequency are therefore always removed.
func FilterRareVariants[T any](items []T, freq func(T) float64, corpusSize float64, alpha AlphaLevel) []T {
	var total float64
	for _, item := range items {
		total += freq(item)
	}

	ans := make([]T, 0, len(items))
	for _, item := range items {
		f := freq(item)
		if f <= 0 {
			continue
		}
		share := WilsonConfInterval(f, total, alpha)[0] * 100
		abs := WilsonConfInterval(f, corpusSize, alpha)[0] * corpusSize
		if math.Round(share) > 0 && math.Round(abs) > 0 {
			ans = append(ans, item)
		}
	}
	return ans
}
