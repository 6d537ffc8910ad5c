package tile

import (
	"context"
	"slices"
	"strconv"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/model"
)

// ConcData is the state of a concordance tile. Each page shows the
// concordance of one searched word.
type ConcData struct {
	CorpName     string                `json:"corpname"`
	Concordances []*model.ConcResponse `json:"concordances"`
}

type concordanceTile struct {
	api   api.ConcordanceAPI
	conf  *config.TileConf
	concs []*model.ConcResponse
	links []*model.BacklinkWithArgs
}

func (t *concordanceTile) reset() {
	t.concs = nil
	t.links = nil
}

func (t *concordanceTile) plan(q Query, _ Concordances) ([]chunk, error) {
	if len(q.Words) == 0 {
		return nil, ErrEmptyQuery
	}
	t.concs = make([]*model.ConcResponse, len(q.Words))
	t.links = make([]*model.BacklinkWithArgs, len(q.Words))
	chunks := make([]chunk, len(q.Words))
	for i, w := range q.Words {
		args := api.ConcArgs{
			CorpName:     t.conf.CorpName,
			SubcName:     t.conf.SubcName,
			Query:        t.api.MkMatchQuery(w.Match, t.conf.PosQueryGenerator),
			PageSize:     t.conf.PageSize,
			Page:         1,
			KwicLeftCtx:  t.conf.KwicLeftCtx,
			KwicRightCtx: t.conf.KwicRightCtx,
		}
		chunks[i] = chunk{
			id: strconv.Itoa(i),
			run: func(ctx context.Context, _ func(any)) (any, error) {
				return t.api.Call(ctx, args)
			},
		}
	}
	return chunks, nil
}

func (t *concordanceTile) apply(chunkID string, data any) {
	resp, ok := data.(*model.ConcResponse)
	if !ok {
		return
	}
	i, err := strconv.Atoi(chunkID)
	if err != nil || i >= len(t.concs) {
		return
	}
	t.concs = slices.Clone(t.concs)
	t.concs[i] = resp
	t.links = slices.Clone(t.links)
	t.links[i] = t.api.Backlink(t.conf.Backlink, resp)
}

func (t *concordanceTile) numPages() int {
	return len(t.concs)
}

func (t *concordanceTile) data() any {
	return ConcData{CorpName: t.conf.CorpName, Concordances: slices.Clone(t.concs)}
}

func (t *concordanceTile) result() any {
	return Concordances(slices.Clone(t.concs))
}

func (t *concordanceTile) backlinks() []*model.BacklinkWithArgs {
	return compactBacklinks(t.links...)
}
