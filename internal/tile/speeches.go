package tile

import (
	"context"
	"slices"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/model"
)

// SpeechesData is the state of a speeches tile.
type SpeechesData struct {
	CorpName    string             `json:"corpname"`
	Pos         int                `json:"pos"`
	Speakers    []string           `json:"speakers"`
	Lines       []model.SpeechLine `json:"lines"`
	ExpandLeft  *api.ExpandArgs    `json:"expandLeft,omitempty"`
	ExpandRight *api.ExpandArgs    `json:"expandRight,omitempty"`
}

type speechesTile struct {
	api    api.SpeechesAPI
	conf   *config.TileConf
	parser *speechParser

	resp  *api.SpeechResponse
	lines []model.SpeechLine
}

func (t *speechesTile) reset() {
	t.resp = nil
	t.lines = nil
}

func (t *speechesTile) structs() []string {
	var ans []string
	for _, p := range []attrPair{t.parser.speaker, t.parser.segment, t.parser.overlap} {
		if s := p.String(); s != "" && !slices.Contains(ans, s) {
			ans = append(ans, s)
		}
	}
	return ans
}

func (t *speechesTile) plan(_ Query, dep Concordances) ([]chunk, error) {
	conc := dep.forWord(0)
	if conc == nil {
		return nil, ErrNoConcordance
	}
	if len(conc.Lines) == 0 {
		return nil, nil
	}
	args := api.SpeechArgs{
		CorpName: t.conf.CorpName,
		Pos:      conc.Lines[0].Toknum,
		Structs:  t.structs(),
		LeftCtx:  t.conf.KwicLeftCtx,
		RightCtx: t.conf.KwicRightCtx,
	}
	return []chunk{{
		id: "0",
		run: func(ctx context.Context, _ func(any)) (any, error) {
			return t.api.Call(ctx, args)
		},
	}}, nil
}

func (t *speechesTile) apply(_ string, data any) {
	resp, ok := data.(*api.SpeechResponse)
	if !ok {
		return
	}
	t.resp = resp
	t.lines = normalizeSpeechesRange(t.parser.extract(resp.Content), t.conf.MaxNumSpeeches)
}

func (t *speechesTile) numPages() int {
	return 1
}

func (t *speechesTile) data() any {
	d := SpeechesData{
		CorpName: t.conf.CorpName,
		Speakers: speakers(t.lines),
		Lines:    slices.Clone(t.lines),
	}
	if t.resp != nil {
		d.Pos = t.resp.Pos
		d.ExpandLeft = t.resp.ExpandLeft
		d.ExpandRight = t.resp.ExpandRight
	}
	return d
}

func (t *speechesTile) result() any {
	return t.data()
}

func (t *speechesTile) backlinks() []*model.BacklinkWithArgs {
	return nil
}
