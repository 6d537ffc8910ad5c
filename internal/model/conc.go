package model

// LineElement is a single piece of a concordance line.
type LineElement struct {
	// Class is the backend-specific element class (e.g. "coll", "strc").
	Class string `json:"class"`
	Str   string `json:"str"`
}

// ConcLine is a KWIC concordance line.
type ConcLine struct {
	Left   []LineElement `json:"left"`
	Kwic   []LineElement `json:"kwic"`
	Right  []LineElement `json:"right"`
	Toknum int           `json:"toknum"`
}

// ConcResponse is the normalized result of a concordance query.
type ConcResponse struct {
	// ConcID identifies the persisted concordance on the backend.
	// Other tiles refer to it as "~<ConcID>" in follow-up queries.
	ConcID   string     `json:"concId"`
	Query    string     `json:"query"`
	CorpName string     `json:"corpname"`
	SubcName string     `json:"subcname,omitempty"`
	ConcSize int        `json:"concsize"`
	IPM      float64    `json:"ipm"`
	ARF      float64    `json:"arf"`
	Lines    []ConcLine `json:"lines"`
}
