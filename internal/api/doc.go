// Package api defines the backend neutral interfaces tiles use to fetch
// their data, together with the normalized argument and response types.
//
// Vendor packages (kontext, noske, mquery, elastic, freqdbapi) implement
// the interfaces and the factory package selects an implementation by the
// apiType string of a tile configuration.
package api
