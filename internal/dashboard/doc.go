// Package dashboard runs a set of tiles as one dashboard.
//
// A Dashboard builds its tiles from the client configuration, starts one
// goroutine per tile and issues queries over the tile action bus. Every
// query gets a new, increasing id; tiles drop anything belonging to an
// older one. Query returns once every tile settled (or the context ends)
// and reports the tile snapshots together with the query metadata.
//
// Dashboards are cheap to create. The server creates one per HTTP query
// and one per WebSocket connection, so tile state is never shared between
// users. BatchProcessor runs many independent queries concurrently.
package dashboard
