package kontext

import (
	"context"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// wordFormsCrit groups the concordance by case-insensitive KWIC word.
const wordFormsCrit = "word/ie 0~0>0"

// WordFormsAPI obtains word forms as a frequency distribution of the
// KWIC words of a lemma concordance.
type WordFormsAPI struct {
	freqs *FreqDistribAPI
}

// NewWordFormsAPI creates a KonText word forms API.
func NewWordFormsAPI(c *upstream.Client, opts api.Options) *WordFormsAPI {
	return &WordFormsAPI{freqs: NewFreqDistribAPI(c, opts)}
}

func wordFormsFreqArgs(args api.WordFormsArgs) api.FreqArgs {
	return api.FreqArgs{
		CorpName: args.CorpName,
		SubcName: args.SubcName,
		ConcID:   args.ConcID,
		FCrit:    wordFormsCrit,
		FreqType: "tokens",
		FLimit:   1,
		FreqSort: "freq",
		FPage:    1,
	}
}

// Call returns the forms ordered as KonText sorted them.
func (a *WordFormsAPI) Call(ctx context.Context, args api.WordFormsArgs) ([]model.WordFormItem, error) {
	resp, err := a.freqs.Call(ctx, wordFormsFreqArgs(args))
	if err != nil {
		return nil, err
	}
	forms := make([]model.WordFormItem, len(resp.Rows))
	for i, r := range resp.Rows {
		forms[i] = model.WordFormItem{Value: r.Name, Freq: r.Freq}
	}
	return forms, nil
}

// Backlink opens the word form distribution in KonText.
func (a *WordFormsAPI) Backlink(tpl *model.Backlink, args api.WordFormsArgs) *model.BacklinkWithArgs {
	return freqBacklink(tpl, wordFormsFreqArgs(args))
}
