package kontext

import (
	"context"
	"log/slog"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// MatchingDocsAPI lists the values of a document attribute ordered by the
// relative frequency of the searched word within them.
type MatchingDocsAPI struct {
	freqs *FreqDistribAPI
}

// NewMatchingDocsAPI creates a KonText matching documents API.
func NewMatchingDocsAPI(c *upstream.Client, opts api.Options) *MatchingDocsAPI {
	return &MatchingDocsAPI{freqs: NewFreqDistribAPI(c, opts)}
}

func matchingDocsFreqArgs(args api.MatchingDocsArgs) api.FreqArgs {
	if len(args.SearchAttrs) > 1 {
		slog.Warn("KonText matching documents use only the first search attribute",
			"searchAttrs", args.SearchAttrs)
	}
	var fcrit string
	if len(args.SearchAttrs) > 0 {
		fcrit = args.SearchAttrs[0] + " 0"
	}
	return api.FreqArgs{
		CorpName: args.CorpName,
		SubcName: args.SubcName,
		ConcID:   args.ConcID,
		FCrit:    fcrit,
		FLimit:   args.MinFreq,
		FreqSort: "rel",
		FPage:    1,
		MaxItems: args.MaxItems,
	}
}

// Call returns one document per attribute value scored by its ipm.
func (a *MatchingDocsAPI) Call(ctx context.Context, args api.MatchingDocsArgs) ([]model.MatchingDoc, error) {
	resp, err := a.freqs.Call(ctx, matchingDocsFreqArgs(args))
	if err != nil {
		return nil, err
	}
	docs := make([]model.MatchingDoc, len(resp.Rows))
	for i, r := range resp.Rows {
		docs[i] = model.MatchingDoc{
			SearchValues:  []string{r.Name},
			DisplayValues: []string{r.Name},
			Score:         r.IPM,
		}
	}
	return docs, nil
}

// Backlink opens the attribute distribution in KonText.
func (a *MatchingDocsAPI) Backlink(tpl *model.Backlink, args api.MatchingDocsArgs) *model.BacklinkWithArgs {
	return freqBacklink(tpl, matchingDocsFreqArgs(args))
}

// LiveattrsMatchingDocsAPI extends MatchingDocsAPI by filling the display
// attributes of each found document from the KonText liveattrs service.
type LiveattrsMatchingDocsAPI struct {
	MatchingDocsAPI
}

// NewLiveattrsMatchingDocsAPI creates the composite freqs + fill_attrs API.
func NewLiveattrsMatchingDocsAPI(c *upstream.Client, opts api.Options) *LiveattrsMatchingDocsAPI {
	return &LiveattrsMatchingDocsAPI{MatchingDocsAPI: *NewMatchingDocsAPI(c, opts)}
}

type fillAttrsRequest struct {
	CorpName string   `json:"corpname"`
	Search   string   `json:"search"`
	Values   []string `json:"values"`
	Fill     []string `json:"fill"`
}

// fillAttrsResponse maps a search value to the display attribute values.
type fillAttrsResponse map[string]map[string]string

// Call performs the frequency query followed by a fill_attrs request.
// Values missing in the fill_attrs answer are displayed as the search value.
func (a *LiveattrsMatchingDocsAPI) Call(ctx context.Context, args api.MatchingDocsArgs) ([]model.MatchingDoc, error) {
	docs, err := a.MatchingDocsAPI.Call(ctx, args)
	if err != nil || len(docs) == 0 || len(args.DisplayAttrs) == 0 || len(args.SearchAttrs) == 0 {
		return docs, err
	}
	values := make([]string, len(docs))
	for i, d := range docs {
		values[i] = d.SearchValues[0]
	}
	c := a.freqs.client
	var filled fillAttrsResponse
	err = c.http.PostJSON(ctx, c.endpoint("fill_attrs"), nil, fillAttrsRequest{
		CorpName: args.CorpName,
		Search:   args.SearchAttrs[0],
		Values:   values,
		Fill:     args.DisplayAttrs,
	}, c.headers, &filled)
	if err != nil {
		return nil, err
	}
	for i, d := range docs {
		attrs := filled[d.SearchValues[0]]
		display := make([]string, len(args.DisplayAttrs))
		for j, attr := range args.DisplayAttrs {
			if v, ok := attrs[attr]; ok {
				display[j] = v
			} else {
				display[j] = d.SearchValues[0]
			}
		}
		docs[i].DisplayValues = display
	}
	return docs, nil
}
