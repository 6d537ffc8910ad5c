package tile

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/stats"
)

// WordFormsData is the state of a word forms tile.
type WordFormsData struct {
	Lemma string               `json:"lemma"`
	Forms []model.WordFormItem `json:"forms"`
}

type wordFormsTile struct {
	api   api.WordFormsAPI
	conf  *config.TileConf
	alpha stats.AlphaLevel

	lemma string
	forms []model.WordFormItem
	link  *model.BacklinkWithArgs
}

func (t *wordFormsTile) reset() {
	t.lemma = ""
	t.forms = nil
	t.link = nil
}

func (t *wordFormsTile) plan(q Query, dep Concordances) ([]chunk, error) {
	if len(q.Words) == 0 {
		return nil, ErrEmptyQuery
	}
	match := q.Words[0].Match
	args := api.WordFormsArgs{
		CorpName: t.conf.CorpName,
		SubcName: t.conf.SubcName,
		ConcID:   concID(t.conf, q, dep, 0),
		Lemma:    match.Lemma,
		Pos:      match.Pos,
	}
	t.lemma = match.Lemma
	t.link = t.api.Backlink(t.conf.Backlink, args)
	return []chunk{{
		id: "0",
		run: func(ctx context.Context, _ func(any)) (any, error) {
			return t.api.Call(ctx, args)
		},
	}}, nil
}

// processWordForms computes the ratios, sorts the forms by frequency and
// removes the rare ones. Every form gets a new interaction id.
func processWordForms(items []model.WordFormItem, corpusSize float64, alpha stats.AlphaLevel) []model.WordFormItem {
	forms := stats.CalcPercentRatios(
		items,
		func(item model.WordFormItem) float64 { return item.Freq },
		func(item model.WordFormItem, ratio float64) model.WordFormItem {
			item.Ratio = ratio
			item.InteractionID = uuid.NewString()
			return item
		},
	)
	sort.SliceStable(forms, func(i, j int) bool {
		return forms[i].Freq > forms[j].Freq
	})
	if corpusSize > 0 {
		forms = stats.FilterRareVariants(
			forms,
			func(item model.WordFormItem) float64 { return item.Freq },
			corpusSize,
			alpha,
		)
	}
	return forms
}

func (t *wordFormsTile) apply(_ string, data any) {
	if items, ok := data.([]model.WordFormItem); ok {
		t.forms = processWordForms(items, t.conf.CorpusSize, t.alpha)
	}
}

func (t *wordFormsTile) numPages() int {
	return 1
}

func (t *wordFormsTile) data() any {
	forms := make([]model.WordFormItem, len(t.forms))
	copy(forms, t.forms)
	return WordFormsData{Lemma: t.lemma, Forms: forms}
}

func (t *wordFormsTile) result() any {
	return t.data()
}

func (t *wordFormsTile) backlinks() []*model.BacklinkWithArgs {
	return compactBacklinks(t.link)
}
