// Package server exposes dashboards over HTTP.
//
// The server serves the tile and layout configuration, proxies the
// corpus API authentication of tiles, runs dashboard queries and streams
// tile events over a WebSocket connection. Every HTTP query gets its own
// dashboard. A WebSocket connection keeps one dashboard for its whole
// lifetime so UI actions (paging, view modes) apply to the tiles of its
// previous queries.
package server
