package bus

// ActionName identifies the kind of an action.
type ActionName string

// Actions understood by tiles.
const (
	// RequestQueryResponse starts a new query in every tile.
	RequestQueryResponse ActionName = "RequestQueryResponse"

	// TileDataLoaded is published by a tile once its query settled.
	TileDataLoaded ActionName = "TileDataLoaded"

	// PartialTileDataLoaded is published for each chunk of a multi-chunk tile.
	PartialTileDataLoaded ActionName = "PartialTileDataLoaded"

	// NextPage and PreviousPage move the page pointer of a tile.
	NextPage     ActionName = "NextPage"
	PreviousPage ActionName = "PreviousPage"

	// EnableTileTweakMode and DisableTileTweakMode toggle the tweak mode.
	EnableTileTweakMode  ActionName = "EnableTileTweakMode"
	DisableTileTweakMode ActionName = "DisableTileTweakMode"

	// EnableAltViewMode and DisableAltViewMode toggle the alternative view.
	EnableAltViewMode  ActionName = "EnableAltViewMode"
	DisableAltViewMode ActionName = "DisableAltViewMode"

	// TileStateChanged is published after a tile applied a UI action.
	TileStateChanged ActionName = "TileStateChanged"
)

// UIActions are the actions a client may send to a tile.
var UIActions = []ActionName{
	NextPage,
	PreviousPage,
	EnableTileTweakMode,
	DisableTileTweakMode,
	EnableAltViewMode,
	DisableAltViewMode,
}

// Action is a message passed through the bus.
type Action struct {
	Name ActionName

	// Tile is the name of the tile the action belongs to. It is empty for
	// actions addressed to all tiles.
	Tile string

	// QueryID ties the action to a dashboard query.
	QueryID uint64

	// Payload is action specific.
	Payload any

	// Error is set when a tile failed.
	Error error
}

// Predicate selects actions for a subscription.
type Predicate func(Action) bool

// Any accepts every action.
func Any(Action) bool { return true }

// Named accepts actions with one of the given names.
func Named(names ...ActionName) Predicate {
	return func(a Action) bool {
		for _, n := range names {
			if a.Name == n {
				return true
			}
		}
		return false
	}
}

// ForTile accepts actions addressed to the tile or to all tiles.
func ForTile(tile string) Predicate {
	return func(a Action) bool {
		return a.Tile == "" || a.Tile == tile
	}
}

// From accepts actions of the given name published by the tile.
func From(name ActionName, tile string) Predicate {
	return func(a Action) bool {
		return a.Name == name && a.Tile == tile
	}
}

// Or combines predicates.
func Or(preds ...Predicate) Predicate {
	return func(a Action) bool {
		for _, p := range preds {
			if p(a) {
				return true
			}
		}
		return false
	}
}

// And combines predicates.
func And(preds ...Predicate) Predicate {
	return func(a Action) bool {
		for _, p := range preds {
			if !p(a) {
				return false
			}
		}
		return true
	}
}
