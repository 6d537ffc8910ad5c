// Package model defines the data structures shared by the API clients,
// the tiles and the reports.
//
// The main types are:
//   - QueryMatch: a lemma found for a searched word
//   - ConcResponse: a page of concordance lines
//   - FreqDataBlock: frequency rows loaded for one criterion
//   - BacklinkWithArgs: a link back to the corpus tool of a tile
//   - RequestError: a failed backend call
//
// All types are serializable to JSON so they can be stored in the query
// log and streamed to clients.
package model
