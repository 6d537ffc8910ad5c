package model

import "strings"

// QueryMatch is a lemma matching a searched word as found in the word
// distribution database.
type QueryMatch struct {
	Word      string   `json:"word"`
	Lemma     string   `json:"lemma"`
	Pos       []string `json:"pos"`
	Abs       float64  `json:"abs"`
	IPM       float64  `json:"ipm"`
	ARF       float64  `json:"arf"`
	FLevel    int      `json:"flevel,omitempty"`
	IsCurrent bool     `json:"isCurrent"`
}

// PosString returns the part of speech tags joined the way they are
// stored in the database.
func (q QueryMatch) PosString() string {
	return strings.Join(q.Pos, " ")
}

// CitationInfo describes how a data source should be cited.
type CitationInfo struct {
	SourceName        string   `json:"sourceName"`
	Main              string   `json:"main"`
	Papers            []string `json:"papers"`
	OtherBibliography string   `json:"otherBibliography,omitempty"`
}

// SourceDetails describes the data source of a tile.
type SourceDetails struct {
	Tile         string       `json:"tile"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Author       string       `json:"author"`
	Href         string       `json:"href,omitempty"`
	Size         int64        `json:"size,omitempty"`
	CitationInfo CitationInfo `json:"citationInfo"`
}
