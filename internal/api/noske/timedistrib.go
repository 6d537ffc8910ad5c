package noske

import (
	"context"
	"strconv"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// TimeDistribAPI reads a time distribution as a frequency distribution
// over the date attribute given by customArgs fcrit.
type TimeDistribAPI struct {
	freqs  *FreqDistribAPI
	fcrit  string
	flimit int
}

// NewTimeDistribAPI creates a NoSke time distribution API.
func NewTimeDistribAPI(c *upstream.Client, opts api.Options) *TimeDistribAPI {
	flimit, _ := strconv.Atoi(opts.CustomArgs["flimit"]) //nolint:errcheck // zero means no limit
	return &TimeDistribAPI{
		freqs:  NewFreqDistribAPI(c, opts),
		fcrit:  opts.CustomArgs["fcrit"],
		flimit: flimit,
	}
}

// Call emits the distribution in a single response.
func (a *TimeDistribAPI) Call(ctx context.Context, args api.TimeDistribArgs, emit func(api.TimeDistribResponse)) error {
	resp, err := a.freqs.Call(ctx, api.FreqArgs{
		CorpName: args.CorpName,
		SubcName: args.SubcName,
		ConcID:   args.ConcID,
		FCrit:    a.fcrit,
		FLimit:   a.flimit,
		FreqSort: "rel",
		FPage:    1,
	})
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
		ConcID:   args.ConcID,
		Items:    items,
	})
	return nil
}

// Backlink opens the source concordance.
func (a *TimeDistribAPI) Backlink(tpl *model.Backlink, args api.TimeDistribArgs) *model.BacklinkWithArgs {
	if tpl == nil {
		return nil
	}
	bargs := []model.BacklinkArg{
		model.Arg("corpname", args.CorpName),
		model.Arg("usesubcorp", tpl.SubcName),
	}
	for _, q := range ConcOperations(args.ConcID) {
		bargs = append(bargs, model.Arg("q", q))
	}
	return model.NewBacklinkWithArgs(tpl, "view", bargs...)
}
