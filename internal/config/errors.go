package config

import "errors"

// Configuration errors. Tile related errors are usually wrapped with the
// name of the offending tile.
var (
	// ErrConfigNotFound is returned when a configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidTimeout is returned for a non-positive timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned for a non-positive batch size.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrNoCacheDir is returned when the cache is enabled without a directory.
	ErrNoCacheDir = errors.New("cache enabled but no database directory configured")

	// ErrInvalidPort is returned for a port outside 1..65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrIncompleteKorpusAPI is returned when korpusApi lacks the URL or token.
	ErrIncompleteKorpusAPI = errors.New("korpusApi requires both authenticateURL and token")

	// ErrInvalidFreqDB is returned for a word database without a path or corpus size.
	ErrInvalidFreqDB = errors.New("word distribution database requires path and a positive corpusSize")

	// ErrUnknownQueryLang is returned when queryLang has no word database.
	ErrUnknownQueryLang = errors.New("queryLang has no word distribution database")

	// ErrNoTiles is returned when the client configuration defines no tile.
	ErrNoTiles = errors.New("no tiles configured")

	// ErrUnknownTileType is returned for an unsupported tileType.
	ErrUnknownTileType = errors.New("unknown tile type")

	// ErrMissingAPIURL is returned when a tile lacks apiURL.
	ErrMissingAPIURL = errors.New("missing apiURL")

	// ErrMissingAPIType is returned when a tile lacks apiType.
	ErrMissingAPIType = errors.New("missing apiType")

	// ErrUnknownDependency is returned when waitFor names an unknown or disabled tile.
	ErrUnknownDependency = errors.New("waitFor refers to an unknown or disabled tile")

	// ErrDependencyCycle is returned when tiles wait for each other.
	ErrDependencyCycle = errors.New("waitFor dependency cycle")

	// ErrUnknownLayoutTile is returned when a layout refers to an unknown or disabled tile.
	ErrUnknownLayoutTile = errors.New("layout refers to an unknown or disabled tile")

	// ErrMissingCorpname is returned when a corpus backed tile has no corpname.
	ErrMissingCorpname = errors.New("missing corpname")

	// ErrMissingFCrit is returned when a frequency tile has no fcrit.
	ErrMissingFCrit = errors.New("missing fcrit")

	// ErrMissingWaitFor is returned when a tile working on a concordance
	// (speeches) does not wait for any.
	ErrMissingWaitFor = errors.New("missing waitFor")
)
