package tile

import (
	"context"
	"slices"
	"strconv"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/stats"
)

// FreqRow is a frequency row with its share among all rows of the block.
// Ratio is only computed by pie tiles.
type FreqRow struct {
	model.DataRow
	Ratio float64 `json:"ratio,omitempty"`
}

// FreqData is the state of a frequency bar or pie tile. There is one
// block per frequency criterion and each page shows one block.
type FreqData struct {
	CorpName string                         `json:"corpname"`
	SubcName string                         `json:"subcname,omitempty"`
	ConcSize int                            `json:"concsize"`
	Blocks   []model.FreqDataBlock[FreqRow] `json:"blocks"`
}

// multiBlockChunk identifies the single chunk of a multi criteria call.
const multiBlockChunk = "multi"

type freqTile struct {
	single     api.FreqDistribAPI
	multi      api.MultiBlockFreqDistribAPI
	conf       *config.TileConf
	withRatios bool

	concSize int
	blocks   []model.FreqDataBlock[FreqRow]
	link     *model.BacklinkWithArgs
}

func (t *freqTile) critLabel(i int) string {
	if i < len(t.conf.CritLabels) {
		return t.conf.CritLabels[i]
	}
	return t.conf.FCrit[i]
}

func (t *freqTile) reset() {
	t.concSize = 0
	t.link = nil
	t.blocks = make([]model.FreqDataBlock[FreqRow], len(t.conf.FCrit))
	for i, fcrit := range t.conf.FCrit {
		t.blocks[i] = model.NewEmptyFreqDataBlock[FreqRow](fcrit, t.critLabel(i))
	}
}

func (t *freqTile) args(q Query, dep Concordances, fcrit string) api.FreqArgs {
	return api.FreqArgs{
		CorpName:        t.conf.CorpName,
		SubcName:        t.conf.SubcName,
		ConcID:          concID(t.conf, q, dep, 0),
		FCrit:           fcrit,
		FreqType:        t.conf.FreqType,
		FLimit:          t.conf.FLimit,
		FreqSort:        t.conf.FreqSort,
		FPage:           t.conf.FPage,
		FTTIncludeEmpty: t.conf.FTTIncludeEmpty,
		MaxItems:        t.conf.FMaxItems,
	}
}

func (t *freqTile) plan(q Query, dep Concordances) ([]chunk, error) {
	if len(q.Words) == 0 {
		return nil, ErrEmptyQuery
	}
	if len(t.conf.FCrit) > 1 && t.multi != nil {
		args := t.args(q, dep, "")
		t.link = t.multi.Backlink(t.conf.Backlink, args)
		fcrit := t.conf.FCrit
		return []chunk{{
			id: multiBlockChunk,
			run: func(ctx context.Context, _ func(any)) (any, error) {
				return t.multi.CallMulti(ctx, args, fcrit)
			},
		}}, nil
	}

	chunks := make([]chunk, len(t.conf.FCrit))
	for i, fcrit := range t.conf.FCrit {
		args := t.args(q, dep, fcrit)
		if i == 0 {
			t.link = t.single.Backlink(t.conf.Backlink, args)
		}
		chunks[i] = chunk{
			id: strconv.Itoa(i),
			run: func(ctx context.Context, _ func(any)) (any, error) {
				return t.single.Call(ctx, args)
			},
		}
	}
	return chunks, nil
}

func (t *freqTile) rows(src []model.DataRow) []FreqRow {
	rows := make([]FreqRow, len(src))
	for i, r := range src {
		rows[i] = FreqRow{DataRow: r}
	}
	if t.withRatios {
		rows = stats.CalcPercentRatios(
			rows,
			func(r FreqRow) float64 { return r.Freq },
			func(r FreqRow, ratio float64) FreqRow {
				r.Ratio = ratio
				return r
			},
		)
	}
	return rows
}

func (t *freqTile) apply(chunkID string, data any) {
	t.blocks = slices.Clone(t.blocks)
	switch resp := data.(type) {
	case *api.MultiBlockFreqResponse:
		t.concSize = resp.ConcSize
		for i, rows := range resp.Blocks {
			if i < len(t.blocks) {
				t.blocks[i] = t.blocks[i].WithRows(t.rows(rows))
			}
		}
	case *api.FreqResponse:
		i, err := strconv.Atoi(chunkID)
		if err != nil || i >= len(t.blocks) {
			return
		}
		t.concSize = resp.ConcSize
		t.blocks[i] = t.blocks[i].WithRows(t.rows(resp.Rows))
	}
}

func (t *freqTile) numPages() int {
	return len(t.blocks)
}

func (t *freqTile) data() any {
	return FreqData{
		CorpName: t.conf.CorpName,
		SubcName: t.conf.SubcName,
		ConcSize: t.concSize,
		Blocks:   slices.Clone(t.blocks),
	}
}

func (t *freqTile) result() any {
	return t.data()
}

func (t *freqTile) backlinks() []*model.BacklinkWithArgs {
	return compactBacklinks(t.link)
}
