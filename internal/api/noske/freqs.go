package noske

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// FreqDistribAPI implements api.FreqDistribAPI and
// api.MultiBlockFreqDistribAPI.
type FreqDistribAPI struct {
	client
}

// NewFreqDistribAPI creates a NoSke frequency distribution API.
func NewFreqDistribAPI(c *upstream.Client, opts api.Options) *FreqDistribAPI {
	return &FreqDistribAPI{client: newClient(c, opts)}
}

func (a *FreqDistribAPI) respConcID(resp *freqsResponse, def string) string {
	if id := concID(resp.Request.Q); id != "" {
		return id
	}
	return def
}

// Call fetches a single criterion distribution.
func (a *FreqDistribAPI) Call(ctx context.Context, args api.FreqArgs) (*api.FreqResponse, error) {
	resp, err := a.freqs(ctx, args, []string{args.FCrit})
	if err != nil {
		return nil, err
	}
	if len(resp.Blocks) == 0 {
		return nil, fmt.Errorf("%w (fcrit %q)", api.ErrEmptyResponse, args.FCrit)
	}
	return &api.FreqResponse{
		ConcID:   a.respConcID(resp, args.ConcID),
		CorpName: args.CorpName,
		SubcName: args.SubcName,
		ConcSize: resp.ConcSize,
		Rows:     resp.rows(0),
	}, nil
}

// CallMulti fetches all criteria at once. Rows of each block are sorted
// by absolute frequency and numbered accordingly.
func (a *FreqDistribAPI) CallMulti(ctx context.Context, args api.FreqArgs, fcrit []string) (*api.MultiBlockFreqResponse, error) {
	resp, err := a.freqs(ctx, args, fcrit)
	if err != nil {
		return nil, err
	}
	if len(resp.Blocks) != len(fcrit) {
		return nil, fmt.Errorf("%w: expected %d blocks, got %d", api.ErrEmptyResponse, len(fcrit), len(resp.Blocks))
	}
	blocks := make([][]model.DataRow, len(resp.Blocks))
	for i := range resp.Blocks {
		rows := resp.rows(i)
		slices.SortStableFunc(rows, func(x, y model.DataRow) int {
			return cmp.Compare(y.Freq, x.Freq)
		})
		for j := range rows {
			order := j
			rows[j].Order = &order
		}
		blocks[i] = rows
	}
	return &api.MultiBlockFreqResponse{
		ConcID:   a.respConcID(resp, args.ConcID),
		CorpName: args.CorpName,
		SubcName: args.SubcName,
		ConcSize: resp.ConcSize,
		Blocks:   blocks,
	}, nil
}

// Backlink opens the distribution in NoSke.
func (a *FreqDistribAPI) Backlink(tpl *model.Backlink, args api.FreqArgs) *model.BacklinkWithArgs {
	return freqBacklink(tpl, args, []string{args.FCrit})
}
