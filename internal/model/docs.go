package model

// MatchingDoc is a document (or any text type value) matching a query.
type MatchingDoc struct {
	// SearchValues are the values of the attributes used for searching.
	SearchValues []string `json:"searchValues"`

	// DisplayValues are the values presented to the user.
	DisplayValues []string `json:"displayValues"`

	// Score is the relevance score of the document.
	Score float64 `json:"score"`
}
