// Package kontext implements the data APIs on top of the KonText corpus
// query engine.
//
// Most tiles derive their data from a concordance created by a
// concordance tile; follow-up queries refer to it as q=~<concId>.
package kontext
