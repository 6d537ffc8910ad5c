package kontext

import (
	"context"
	"fmt"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// FreqDistribAPI implements both api.FreqDistribAPI and
// api.MultiBlockFreqDistribAPI.
type FreqDistribAPI struct {
	client
}

// NewFreqDistribAPI creates a KonText frequency distribution API.
func NewFreqDistribAPI(c *upstream.Client, opts api.Options) *FreqDistribAPI {
	return &FreqDistribAPI{client: newClient(c, opts)}
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
		ConcID:   concIDOrDefault(resp.ConcPersistenceOpID, args.ConcID),
		CorpName: args.CorpName,
		SubcName: args.SubcName,
		ConcSize: resp.ConcSize,
		Rows:     convertItems(resp.Blocks[0].Items),
	}, nil
}

// CallMulti fetches all criteria in a single request. KonText answers with
// one block per fcrit in the requested order.
func (a *FreqDistribAPI) CallMulti(ctx context.Context, args api.FreqArgs, fcrit []string) (*api.MultiBlockFreqResponse, error) {
	resp, err := a.freqs(ctx, args, fcrit)
	if err != nil {
		return nil, err
	}
	if len(resp.Blocks) != len(fcrit) {
		return nil, fmt.Errorf("%w: expected %d blocks, got %d", api.ErrEmptyResponse, len(fcrit), len(resp.Blocks))
	}
	blocks := make([][]model.DataRow, len(resp.Blocks))
	for i, b := range resp.Blocks {
		blocks[i] = convertItems(b.Items)
	}
	return &api.MultiBlockFreqResponse{
		ConcID:   concIDOrDefault(resp.ConcPersistenceOpID, args.ConcID),
		CorpName: args.CorpName,
		SubcName: args.SubcName,
		ConcSize: resp.ConcSize,
		Blocks:   blocks,
	}, nil
}

// Backlink opens the distribution in KonText.
func (a *FreqDistribAPI) Backlink(tpl *model.Backlink, args api.FreqArgs) *model.BacklinkWithArgs {
	return freqBacklink(tpl, args)
}

func concIDOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
