// Package stats provides the statistical helpers used by tiles to
// post-process corpus API data before it is handed to a consumer.
//
// The package covers:
//   - Wilson score confidence intervals for binomial proportions
//   - Largest-remainder percent allocation (ratios summing to exactly 100)
//   - Instances-per-million (ipm) calculation and rounding
//   - Rare variant filtering for word form lists
//   - Additive merging of time distribution chunks
//
// All functions are pure and safe for concurrent use.
package stats
