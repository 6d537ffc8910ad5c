// Package mquery implements the data APIs on top of MQuery, a query
// service that answers CQL queries directly without a persistent
// concordance. The CQL query therefore serves as the concordance
// identifier of dependent tiles.
package mquery
