package tile

import "github.com/nao1215/wdglance/internal/model"

// Snapshot is a copy of a tile state.
type Snapshot struct {
	Tile          string                    `json:"tile"`
	Kind          string                    `json:"kind"`
	Label         string                    `json:"label"`
	QueryID       uint64                    `json:"queryId"`
	Status        Status                    `json:"status"`
	Error         string                    `json:"error,omitempty"`
	WaitingFor    string                    `json:"waitingFor,omitempty"`
	Page          int                       `json:"page"`
	NumPages      int                       `json:"numPages"`
	IsTweakMode   bool                      `json:"isTweakMode"`
	IsAltViewMode bool                      `json:"isAltViewMode"`
	PendingChunks int                       `json:"pendingChunks"`
	FailedChunks  int                       `json:"failedChunks"`
	Backlinks     []*model.BacklinkWithArgs `json:"backlinks,omitempty"`

	// Data is the kind specific state (ConcData, FreqData, ...).
	Data any `json:"data"`
}
