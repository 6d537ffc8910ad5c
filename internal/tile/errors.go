package tile

import "errors"

var (
	// ErrDependencyFailed is reported when the tile waited for another
	// tile which failed or did not answer in time.
	ErrDependencyFailed = errors.New("failed to obtain required data")

	// ErrNoConcordance is returned by tiles that need a concordance tile
	// to wait for but have none.
	ErrNoConcordance = errors.New("tile requires a concordance to wait for")

	// ErrEmptyQuery is returned for a query without words.
	ErrEmptyQuery = errors.New("query contains no words")

	// ErrUnsupportedTileType is returned by New for an unknown tile type.
	ErrUnsupportedTileType = errors.New("unsupported tile type")
)
