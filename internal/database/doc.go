// Package database provides the SQLite storage of the wdglance server.
//
// The database keeps:
//   - cached backend responses keyed by a hash of the request, with expiry
//   - a log of dashboard queries with their serialized results
//
// SQLite (via modernc.org/sqlite) keeps the server free of external
// services and of CGO. The word distribution databases are separate
// read-only files handled by package freqdb.
package database
