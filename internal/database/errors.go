package database

import "errors"

// ErrDatabaseNotFound is returned by Open when the database must exist but does not.
var ErrDatabaseNotFound = errors.New("database not found")
