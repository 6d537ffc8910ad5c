package mquery

import (
	"cmp"
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

const (
	pathFreqs     = "freqs"
	pathTextTypes = "text-types"
)

// FreqDistribAPI implements api.FreqDistribAPI. Text type criteria
// (freqType "text-types") are read from /text-types, anything else from
// /freqs, where all returned rows describe a single lemma and are merged
// into one row.
type FreqDistribAPI struct {
	client
}

// NewFreqDistribAPI creates an MQuery frequency distribution API.
func NewFreqDistribAPI(c *upstream.Client, opts api.Options) *FreqDistribAPI {
	return &FreqDistribAPI{client: newClient(c, opts)}
}

type freqsResponse struct {
	ConcSize   int       `json:"concSize"`
	CorpusSize int       `json:"corpusSize"`
	Freqs      []freqRow `json:"freqs"`
	Error      string    `json:"error"`
}

// critAttr strips the KonText style position suffix ("doc.genre 0").
func critAttr(fcrit string) string {
	if f := strings.Fields(fcrit); len(f) > 0 {
		return f[0]
	}
	return ""
}

func (a *FreqDistribAPI) path(args api.FreqArgs) string {
	if args.FreqType == pathTextTypes {
		return pathTextTypes
	}
	return pathFreqs
}

func (a *FreqDistribAPI) queryArgs(args api.FreqArgs) url.Values {
	v := url.Values{}
	attr := critAttr(args.FCrit)
	if a.path(args) == pathTextTypes {
		setNonEmpty(v, "textProperty", attr)
	} else {
		setNonEmpty(v, "attr", attr)
	}
	setNonEmpty(v, "flimit", itoaNonZero(args.FLimit))
	matchCase := a.customArgs["matchCase"]
	if matchCase == "" {
		matchCase = "0"
	}
	v.Set("matchCase", matchCase)
	setNonEmpty(v, "maxItems", itoaNonZero(args.MaxItems))
	setNonEmpty(v, "q", args.ConcID)
	setNonEmpty(v, "subcorpus", args.SubcName)
	return v
}

// Call fetches the distribution. args.ConcID holds the CQL query.
func (a *FreqDistribAPI) Call(ctx context.Context, args api.FreqArgs) (*api.FreqResponse, error) {
	var resp freqsResponse
	path := a.path(args)
	if err := a.http.GetJSON(ctx, a.endpoint(path, args.CorpName), a.queryArgs(args), a.headers, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &model.RequestError{URL: a.endpoint(path, args.CorpName), Message: resp.Error}
	}
	ans := &api.FreqResponse{
		ConcID:   args.ConcID,
		CorpName: args.CorpName,
		SubcName: args.SubcName,
		ConcSize: resp.ConcSize,
	}
	if path == pathTextTypes {
		ans.Rows = make([]model.DataRow, len(resp.Freqs))
		for i, r := range resp.Freqs {
			ans.Rows[i] = model.DataRow{Name: r.name(), Freq: r.Freq, IPM: r.IPM, Norm: r.Base}
		}
		return ans, nil
	}
	ans.Rows = []model.DataRow{mergeLemmaRows(resp.Freqs)}
	return ans, nil
}

// mergeLemmaRows sums the rows of one lemma split into multiple values
// (e.g. multivalue lemmatization). The most frequent value names the row.
func mergeLemmaRows(rows []freqRow) model.DataRow {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(x, y freqRow) int {
		return cmp.Compare(y.Freq, x.Freq)
	})
	var ans model.DataRow
	for i, r := range sorted {
		if i == 0 {
			ans.Name = r.name()
		}
		ans.Freq += r.Freq
		ans.IPM += r.IPM
		ans.Norm = r.Base
	}
	return ans
}

// Backlink is not supported; MQuery has no user interface to link to.
func (a *FreqDistribAPI) Backlink(_ *model.Backlink, _ api.FreqArgs) *model.BacklinkWithArgs {
	return nil
}
