package mquery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// TimeDistribAPI reads the streamed yearly frequencies. Each chunk carries
// the cumulative distribution so far and replaces the previous one.
type TimeDistribAPI struct {
	client
}

// NewTimeDistribAPI creates an MQuery streaming time distribution API.
func NewTimeDistribAPI(c *upstream.Client, opts api.Options) *TimeDistribAPI {
	return &TimeDistribAPI{client: newClient(c, opts)}
}

type streamChunk struct {
	ChunkNum    int    `json:"chunkNum"`
	TotalChunks int    `json:"totalChunks"`
	Error       string `json:"error"`
	Entries     struct {
		ConcSize int       `json:"concSize"`
		Freqs    []freqRow `json:"freqs"`
	} `json:"entries"`
}

// Call emits one response per received chunk and returns once all
// announced chunks have arrived. A chunk reporting an error aborts the
// stream.
func (a *TimeDistribAPI) Call(ctx context.Context, args api.TimeDistribArgs, emit func(api.TimeDistribResponse)) error {
	v := url.Values{}
	for k, val := range a.customArgs {
		v.Set(k, val)
	}
	v.Set("q", args.ConcID)
	setNonEmpty(v, "subcorpus", args.SubcName)
	req := upstream.Request{
		URL:     a.endpoint("freqs-by-year-streamed", args.CorpName),
		Args:    v,
		Headers: a.headers,
	}

	processed := make(map[int]struct{})
	complete := false
	err := a.http.Stream(ctx, req, func(ev upstream.Event) (bool, error) {
		var chunk streamChunk
		if err := json.Unmarshal(ev.Data, &chunk); err != nil {
			return false, fmt.Errorf("failed to decode stream chunk: %w", err)
		}
		if chunk.Error != "" {
			return false, &model.RequestError{URL: req.URL, Message: chunk.Error}
		}
		items := make([]model.TimeDistribItem, len(chunk.Entries.Freqs))
		for i, r := range chunk.Entries.Freqs {
			items[i] = model.TimeDistribItem{Datetime: r.name(), Freq: r.Freq, Norm: r.Base}
		}
		emit(api.TimeDistribResponse{
			CorpName:  args.CorpName,
			SubcName:  args.SubcName,
			ConcID:    args.ConcID,
			Items:     items,
			Overwrite: true,
		})
		// chunk numbers start with 1
		if chunk.ChunkNum > 0 {
			processed[chunk.ChunkNum] = struct{}{}
		}
		complete = chunk.TotalChunks > 0 && len(processed) >= chunk.TotalChunks
		return complete, nil
	})
	if err != nil {
		return err
	}
	if !complete {
		return upstream.ErrStreamIncomplete
	}
	return nil
}

// Backlink is not supported.
func (a *TimeDistribAPI) Backlink(_ *model.Backlink, _ api.TimeDistribArgs) *model.BacklinkWithArgs {
	return nil
}
