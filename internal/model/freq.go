package model

// DataRow is a single observation of a frequency distribution.
// Freq is an absolute count while IPM is the backend-computed relative
// frequency (instances per million) within Norm tokens.
type DataRow struct {
	// Name is the value of the frequency criterion (e.g. a text type
	// value or a word form). Multi-token values are joined by spaces.
	Name string `json:"name"`

	// Freq is the absolute frequency.
	Freq float64 `json:"freq"`

	// IPM is the relative frequency in instances per million.
	IPM float64 `json:"ipm"`

	// Norm is the size of the domain the IPM was computed against.
	Norm float64 `json:"norm"`

	// Order keeps the position of the row as returned by the backend.
	// It is nil when the backend does not define an order.
	Order *int `json:"order,omitempty"`
}

// FreqDataBlock is a named group of rows tied to one frequency criterion.
// A block is created empty when a tile query starts and populated once
// the API responds.
type FreqDataBlock[T any] struct {
	// Ident is a stable identifier of the block (usually the fcrit value).
	Ident string `json:"ident"`

	// Label is a human readable label of the criterion.
	Label string `json:"label"`

	// Rows contains the loaded data. It is nil until the block is ready.
	Rows []T `json:"rows"`

	// IsReady reports whether the block has been populated.
	IsReady bool `json:"isReady"`
}

// NewEmptyFreqDataBlock returns a block waiting for data.
func NewEmptyFreqDataBlock[T any](ident, label string) FreqDataBlock[T] {
	return FreqDataBlock[T]{Ident: ident, Label: label}
}

// WithRows returns a copy of the block populated with rows.
func (b FreqDataBlock[T]) WithRows(rows []T) FreqDataBlock[T] {
	b.Rows = rows
	b.IsReady = true
	return b
}
