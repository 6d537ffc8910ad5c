package tile

// Status is the position of a tile in its query cycle.
type Status string

// Tile statuses.
const (
	StatusIdle  Status = "idle"
	StatusBusy  Status = "busy"
	StatusReady Status = "ready"
	StatusError Status = "error"
)

// Settled reports whether the tile finished its query.
func (s Status) Settled() bool {
	return s == StatusReady || s == StatusError
}
