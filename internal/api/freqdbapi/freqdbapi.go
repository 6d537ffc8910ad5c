// Package freqdbapi serves tile data from the local word distribution
// database (API type "wdglance").
package freqdbapi

import (
	"context"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/freqdb"
	"github.com/nao1215/wdglance/internal/model"
)

// WordFormsAPI implements api.WordFormsAPI on top of freqdb.
type WordFormsAPI struct {
	db *freqdb.DB
}

// NewWordFormsAPI creates the local word forms API.
func NewWordFormsAPI(db *freqdb.DB) *WordFormsAPI {
	return &WordFormsAPI{db: db}
}

// Call returns the forms of args.Lemma. Corpus arguments are ignored.
func (a *WordFormsAPI) Call(ctx context.Context, args api.WordFormsArgs) ([]model.WordFormItem, error) {
	forms, err := a.db.WordForms(ctx, args.Lemma, args.Pos)
	if err != nil {
		return nil, err
	}
	ans := make([]model.WordFormItem, len(forms))
	for i, f := range forms {
		ans[i] = model.WordFormItem{Value: f.Word, Freq: f.Abs}
	}
	return ans, nil
}

// Backlink is not supported.
func (a *WordFormsAPI) Backlink(_ *model.Backlink, _ api.WordFormsArgs) *model.BacklinkWithArgs {
	return nil
}

// SourceInfoAPI implements api.SourceInfoAPI with the source_info table.
type SourceInfoAPI struct {
	db *freqdb.DB
}

// NewSourceInfoAPI creates the local source info API.
func NewSourceInfoAPI(db *freqdb.DB) *SourceInfoAPI {
	return &SourceInfoAPI{db: db}
}

// SourceInfo implements api.SourceInfoAPI.
func (a *SourceInfoAPI) SourceInfo(ctx context.Context, corpName, lang string) (*model.SourceDetails, error) {
	return a.db.SourceInfo(ctx, corpName, lang)
}
