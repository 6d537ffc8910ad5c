package tile

import (
	"context"
	"slices"
	"sort"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/stats"
)

// TimeDistribData is the state of a time distribution tile. Data of all
// subcorpora are merged into a single series.
type TimeDistribData struct {
	CorpName string                  `json:"corpname"`
	Data     []model.DataItemWithWCI `json:"data"`
}

// timeChunks keeps the raw items of each chunk so a cumulative stream can
// replace its previous items before everything is merged again.
type timeChunks map[string][]model.TimeDistribItem

func (c timeChunks) add(chunkID string, resp api.TimeDistribResponse) {
	if resp.Overwrite {
		c[chunkID] = slices.Clone(resp.Items)
		return
	}
	c[chunkID] = append(slices.Clone(c[chunkID]), resp.Items...)
}

func (c timeChunks) merge(alpha stats.AlphaLevel, include func(chunkID string) bool) []model.DataItemWithWCI {
	ids := make([]string, 0, len(c))
	for id := range c {
		if include(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	var ans []model.DataItemWithWCI
	for _, id := range ids {
		ans = stats.MergeTimeChunks(ans, c[id], alpha)
	}
	return ans
}

type timeDistribTile struct {
	api   api.TimeDistribAPI
	conf  *config.TileConf
	alpha stats.AlphaLevel

	chunks timeChunks
	merged []model.DataItemWithWCI
	links  []*model.BacklinkWithArgs
}

func (t *timeDistribTile) reset() {
	t.chunks = timeChunks{}
	t.merged = nil
	t.links = nil
}

func (t *timeDistribTile) plan(q Query, dep Concordances) ([]chunk, error) {
	if len(q.Words) == 0 {
		return nil, ErrEmptyQuery
	}
	var chunks []chunk
	for _, subc := range subcorpora(t.conf) {
		args := api.TimeDistribArgs{
			CorpName: t.conf.CorpName,
			SubcName: subc,
			ConcID:   concID(t.conf, q, dep, 0),
		}
		t.links = append(t.links, t.api.Backlink(t.conf.Backlink, args))
		chunks = append(chunks, chunk{
			id:  chunkID(0, subc),
			run: timeDistribRunner(t.api, args),
		})
	}
	return chunks, nil
}

func timeDistribRunner(a api.TimeDistribAPI, args api.TimeDistribArgs) func(context.Context, func(any)) (any, error) {
	return func(ctx context.Context, emit func(any)) (any, error) {
		err := a.Call(ctx, args, func(resp api.TimeDistribResponse) {
			emit(resp)
		})
		return nil, err
	}
}

func (t *timeDistribTile) apply(chunkID string, data any) {
	resp, ok := data.(api.TimeDistribResponse)
	if !ok {
		return
	}
	t.chunks.add(chunkID, resp)
	t.merged = t.chunks.merge(t.alpha, func(string) bool { return true })
}

func (t *timeDistribTile) numPages() int {
	return 1
}

func (t *timeDistribTile) data() any {
	return TimeDistribData{CorpName: t.conf.CorpName, Data: t.merged}
}

func (t *timeDistribTile) result() any {
	return t.data()
}

func (t *timeDistribTile) backlinks() []*model.BacklinkWithArgs {
	return compactBacklinks(t.links...)
}
