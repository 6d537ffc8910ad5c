package freqdb

import "errors"

var (
	// ErrDatabaseNotFound is returned when the database file does not exist.
	ErrDatabaseNotFound = errors.New("word distribution database not found")

	// ErrSourceNotFound is returned when source_info has no matching row.
	ErrSourceNotFound = errors.New("source information not found")

	// ErrNoDatabase is returned when no database is configured for a language.
	ErrNoDatabase = errors.New("no word distribution database for the language")
)
