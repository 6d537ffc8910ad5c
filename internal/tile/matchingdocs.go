package tile

import (
	"context"
	"slices"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/model"
)

// defaultDocsPerPage is used when maxNumCategoriesPerPage is not set.
const defaultDocsPerPage = 10

// MatchingDocsData is the state of a matching documents tile.
type MatchingDocsData struct {
	PerPage int                 `json:"perPage"`
	Docs    []model.MatchingDoc `json:"docs"`
}

// Page returns the documents shown on the page (starting from 1).
func (d MatchingDocsData) Page(page int) []model.MatchingDoc {
	from := (page - 1) * d.PerPage
	if from < 0 || from >= len(d.Docs) {
		return nil
	}
	return d.Docs[from:min(from+d.PerPage, len(d.Docs))]
}

type matchingDocsTile struct {
	api  api.MatchingDocsAPI
	conf *config.TileConf

	docs []model.MatchingDoc
	link *model.BacklinkWithArgs
}

func (t *matchingDocsTile) perPage() int {
	if t.conf.MaxNumCategoriesPerPage > 0 {
		return t.conf.MaxNumCategoriesPerPage
	}
	return defaultDocsPerPage
}

func (t *matchingDocsTile) reset() {
	t.docs = nil
	t.link = nil
}

func (t *matchingDocsTile) plan(q Query, dep Concordances) ([]chunk, error) {
	if len(q.Words) == 0 {
		return nil, ErrEmptyQuery
	}
	args := api.MatchingDocsArgs{
		CorpName:     t.conf.CorpName,
		SubcName:     t.conf.SubcName,
		ConcID:       concID(t.conf, q, dep, 0),
		Query:        q.Words[0].Value,
		SearchAttrs:  t.conf.SearchAttrs,
		DisplayAttrs: t.conf.DisplayAttrs,
		MinFreq:      t.conf.MinFreq,
		MaxItems:     t.conf.MaxNumCategories,
	}
	t.link = t.api.Backlink(t.conf.Backlink, args)
	return []chunk{{
		id: "0",
		run: func(ctx context.Context, _ func(any)) (any, error) {
			return t.api.Call(ctx, args)
		},
	}}, nil
}

func (t *matchingDocsTile) apply(_ string, data any) {
	if docs, ok := data.([]model.MatchingDoc); ok {
		t.docs = docs
	}
}

func (t *matchingDocsTile) numPages() int {
	return numPagesOf(len(t.docs), t.perPage())
}

func (t *matchingDocsTile) data() any {
	return MatchingDocsData{PerPage: t.perPage(), Docs: slices.Clone(t.docs)}
}

func (t *matchingDocsTile) result() any {
	return t.data()
}

func (t *matchingDocsTile) backlinks() []*model.BacklinkWithArgs {
	return compactBacklinks(t.link)
}
