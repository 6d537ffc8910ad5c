package tile

import (
	"strings"

	"github.com/nao1215/wdglance/internal/model"
)

// Query is one dashboard query as seen by the tiles.
type Query struct {
	// ID increases with every query of a dashboard.
	ID uint64 `json:"id"`

	// Lang is the language of the searched words.
	Lang string `json:"lang"`

	// UILang is the language of the user interface.
	UILang string `json:"uiLang"`

	Words []QueryWord `json:"words"`
}

// QueryWord is one searched word together with the lemma it was matched to.
type QueryWord struct {
	Value string           `json:"value"`
	Match model.QueryMatch `json:"match"`
}

// NewQueryWord returns a word matched to itself, used when no word
// distribution database knows the word.
func NewQueryWord(value string) QueryWord {
	return QueryWord{
		Value: value,
		Match: model.QueryMatch{Word: value, Lemma: value, IsCurrent: true},
	}
}

// String returns the searched words separated by commas.
func (q Query) String() string {
	values := make([]string, len(q.Words))
	for i, w := range q.Words {
		values[i] = w.Value
	}
	return strings.Join(values, ", ")
}
