package kontext

import (
	"context"
	"net/url"
	"strconv"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// ConcAPI creates concordances with query_submit and loads lines with view.
type ConcAPI struct {
	client
}

// NewConcAPI creates a KonText concordance API.
func NewConcAPI(c *upstream.Client, opts api.Options) *ConcAPI {
	return &ConcAPI{client: newClient(c, opts)}
}

type submitQuery struct {
	CorpName     string `json:"corpname"`
	QType        string `json:"qtype"`
	Query        string `json:"query"`
	PcqPosNeg    string `json:"pcq_pos_neg"`
	IncludeEmpty bool   `json:"include_empty"`
	DefaultAttr  string `json:"default_attr"`
}

type submitArgs struct {
	Type         string        `json:"type"`
	Queries      []submitQuery `json:"queries"`
	MainCorp     string        `json:"maincorp"`
	UseSubcorp   string        `json:"usesubcorp,omitempty"`
	ViewMode     string        `json:"viewmode"`
	AttrVMode    string        `json:"attr_vmode"`
	Attrs        []string      `json:"attrs"`
	CtxAttrs     []string      `json:"ctxattrs"`
	BaseViewAttr string        `json:"base_viewattr"`
	Structs      []string      `json:"structs"`
	Refs         []string      `json:"refs"`
	PageSize     int           `json:"pagesize"`
	FromP        int           `json:"fromp"`
	TextTypes    struct{}      `json:"text_types"`
	KwicLeftCtx  int           `json:"kwicleftctx"`
	KwicRightCtx int           `json:"kwicrightctx"`
}

type submitResponse struct {
	ConcPersistenceOpID string `json:"conc_persistence_op_id"`
	Size                int    `json:"size"`
}

type kontextLine struct {
	Left   []model.LineElement `json:"Left"`
	Kwic   []model.LineElement `json:"Kwic"`
	Right  []model.LineElement `json:"Right"`
	Toknum int                 `json:"toknum"`
}

type viewResponse struct {
	ConcPersistenceOpID string        `json:"conc_persistence_op_id"`
	Lines               []kontextLine `json:"Lines"`
	ConcSize            int           `json:"concsize"`
	ResultARF           float64       `json:"result_arf"`
	ResultRelativeFreq  float64       `json:"result_relative_freq"`
}

// MkMatchQuery builds a CQL query for a query match.
func (a *ConcAPI) MkMatchQuery(qm model.QueryMatch, generator []string) string {
	return api.MkMatchQuery(qm, generator, api.EscapeQuote)
}

// Call submits args.Query (unless args.ConcID refers to an existing
// concordance) and loads the requested page of lines. With a zero page
// size only the concordance identifier and size are returned.
func (a *ConcAPI) Call(ctx context.Context, args api.ConcArgs) (*model.ConcResponse, error) {
	ans := &model.ConcResponse{
		ConcID:   args.ConcID,
		Query:    args.Query,
		CorpName: args.CorpName,
		SubcName: args.SubcName,
	}
	page := max(args.Page, 1)

	if args.ConcID == "" {
		var sub submitResponse
		err := a.http.PostJSON(ctx, a.endpoint("query_submit"), nil, submitArgs{
			Type: "concQueryArgs",
			Queries: []submitQuery{{
				CorpName:    args.CorpName,
				QType:       "advanced",
				Query:       args.Query,
				PcqPosNeg:   "pos",
				DefaultAttr: "word",
			}},
			MainCorp:     args.CorpName,
			UseSubcorp:   args.SubcName,
			ViewMode:     "kwic",
			AttrVMode:    "mouseover",
			Attrs:        []string{"word"},
			CtxAttrs:     []string{},
			BaseViewAttr: "word",
			Structs:      []string{},
			Refs:         []string{},
			PageSize:     args.PageSize,
			FromP:        page,
			KwicLeftCtx:  -args.KwicLeftCtx,
			KwicRightCtx: args.KwicRightCtx,
		}, a.headers, &sub)
		if err != nil {
			return nil, err
		}
		ans.ConcID = sub.ConcPersistenceOpID
		ans.ConcSize = sub.Size
	}
	if args.PageSize <= 0 {
		return ans, nil
	}

	v := url.Values{}
	v.Set("corpname", args.CorpName)
	if args.SubcName != "" {
		v.Set("usesubcorp", args.SubcName)
	}
	v.Set("q", concQuery(ans.ConcID))
	v.Set("kwicleftctx", strconv.Itoa(-args.KwicLeftCtx))
	v.Set("kwicrightctx", strconv.Itoa(args.KwicRightCtx))
	v.Set("pagesize", strconv.Itoa(args.PageSize))
	v.Set("fromp", strconv.Itoa(page))
	v.Set("attr_vmode", "mouseover")
	v.Set("attrs", "word")
	v.Set("viewmode", "kwic")
	v.Set("format", "json")

	var view viewResponse
	if err := a.http.GetJSON(ctx, a.endpoint("view"), v, a.headers, &view); err != nil {
		return nil, err
	}
	if view.ConcPersistenceOpID != "" {
		ans.ConcID = view.ConcPersistenceOpID
	}
	ans.ConcSize = view.ConcSize
	ans.ARF = view.ResultARF
	ans.IPM = view.ResultRelativeFreq
	ans.Lines = make([]model.ConcLine, len(view.Lines))
	for i, l := range view.Lines {
		ans.Lines[i] = model.ConcLine{Left: l.Left, Kwic: l.Kwic, Right: l.Right, Toknum: l.Toknum}
	}
	return ans, nil
}

// Backlink opens the concordance in KonText.
func (a *ConcAPI) Backlink(tpl *model.Backlink, resp *model.ConcResponse) *model.BacklinkWithArgs {
	if resp == nil {
		return nil
	}
	return model.NewBacklinkWithArgs(tpl, "view",
		model.Arg("corpname", resp.CorpName),
		model.Arg("usesubcorp", resp.SubcName),
		model.Arg("q", concQuery(resp.ConcID)),
	)
}
