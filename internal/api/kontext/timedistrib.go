package kontext

import (
	"context"
	"strconv"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// TimeDistribAPI computes a time distribution as a text type frequency
// distribution over a date attribute (customArgs fcrit and flimit).
type TimeDistribAPI struct {
	freqs  *FreqDistribAPI
	fcrit  string
	flimit int
}

// NewTimeDistribAPI creates a KonText time distribution API.
func NewTimeDistribAPI(c *upstream.Client, opts api.Options) *TimeDistribAPI {
	flimit, _ := strconv.Atoi(opts.CustomArgs["flimit"]) //nolint:errcheck // zero means no limit
	return &TimeDistribAPI{
		freqs:  NewFreqDistribAPI(c, opts),
		fcrit:  opts.CustomArgs["fcrit"],
		flimit: flimit,
	}
}

func (a *TimeDistribAPI) freqArgs(args api.TimeDistribArgs) api.FreqArgs {
	return api.FreqArgs{
		CorpName: args.CorpName,
		SubcName: args.SubcName,
		ConcID:   args.ConcID,
		FCrit:    a.fcrit,
		FreqType: "text-types",
		FLimit:   a.flimit,
		FreqSort: "rel",
		FPage:    1,
	}
}

// Call emits the whole distribution at once.
func (a *TimeDistribAPI) Call(ctx context.Context, args api.TimeDistribArgs, emit func(api.TimeDistribResponse)) error {
	resp, err := a.freqs.Call(ctx, a.freqArgs(args))
	if err != nil {
		return err
	}
	items := make([]model.TimeDistribItem, len(resp.Rows))
	for i, r := range resp.Rows {
		items[i] = model.TimeDistribItem{Datetime: r.Name, Freq: r.Freq, Norm: r.Norm}
	}
	emit(api.TimeDistribResponse{
		CorpName: args.CorpName,
		SubcName: args.SubcName,
		ConcID:   resp.ConcID,
		Items:    items,
	})
	return nil
}

// Backlink opens the underlying frequency distribution in KonText.
func (a *TimeDistribAPI) Backlink(tpl *model.Backlink, args api.TimeDistribArgs) *model.BacklinkWithArgs {
	return freqBacklink(tpl, a.freqArgs(args))
}
