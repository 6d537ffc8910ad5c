package mquery

import (
	"context"
	"net/url"
	"strings"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// WordFormsAPI reads the forms of a lemma from /word-forms.
type WordFormsAPI struct {
	client
}

// NewWordFormsAPI creates an MQuery word forms API.
func NewWordFormsAPI(c *upstream.Client, opts api.Options) *WordFormsAPI {
	return &WordFormsAPI{client: newClient(c, opts)}
}

type lemmaItem struct {
	Lemma string    `json:"lemma"`
	Pos   string    `json:"pos"`
	Forms []freqRow `json:"forms"`
}

// Call returns the forms of the first matching lemma.
func (a *WordFormsAPI) Call(ctx context.Context, args api.WordFormsArgs) ([]model.WordFormItem, error) {
	v := url.Values{}
	v.Set("lemma", args.Lemma)
	v.Set("pos", strings.Join(args.Pos, " "))
	var resp []lemmaItem
	if err := a.http.GetJSON(ctx, a.endpoint("word-forms", args.CorpName), v, a.headers, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return []model.WordFormItem{}, nil
	}
	forms := make([]model.WordFormItem, len(resp[0].Forms))
	for i, f := range resp[0].Forms {
		forms[i] = model.WordFormItem{Value: f.Word, Freq: f.Freq}
	}
	return forms, nil
}

// Backlink is not supported.
func (a *WordFormsAPI) Backlink(_ *model.Backlink, _ api.WordFormsArgs) *model.BacklinkWithArgs {
	return nil
}
