package noske

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// ConcAPI creates concordances with /first and pages them with /view.
type ConcAPI struct {
	client
}

// NewConcAPI creates a NoSke concordance API.
func NewConcAPI(c *upstream.Client, opts api.Options) *ConcAPI {
	return &ConcAPI{client: newClient(c, opts)}
}

type concLine struct {
	Left   []model.LineElement `json:"Left"`
	Kwic   []model.LineElement `json:"Kwic"`
	Right  []model.LineElement `json:"Right"`
	Toknum int                 `json:"toknum"`
}

type concResponse struct {
	Request struct {
		CorpName string `json:"corpname"`
	} `json:"request"`
	ConcSize int        `json:"concsize"`
	RelSize  float64    `json:"relsize"`
	Lines    []concLine `json:"Lines"`
	Desc     []struct {
		ToURL string `json:"tourl"`
	} `json:"Desc"`
}

// escapeFirst escapes only the first double quote of a value, which is
// what NoSke clients traditionally do.
func escapeFirst(v string) string {
	return strings.Replace(v, `"`, `\"`, 1)
}

// MkMatchQuery builds a CQL query for a query match.
func (a *ConcAPI) MkMatchQuery(qm model.QueryMatch, generator []string) string {
	return api.MkMatchQuery(qm, generator, escapeFirst)
}

func concArgs(args api.ConcArgs) (string, url.Values) {
	v := url.Values{}
	v.Set("corpname", args.CorpName)
	if args.SubcName != "" {
		v.Set("usesubcorp", args.SubcName)
	}
	v.Set("kwicleftctx", strconv.Itoa(-args.KwicLeftCtx))
	v.Set("kwicrightctx", strconv.Itoa(args.KwicRightCtx))
	v.Set("async", "0")
	v.Set("pagesize", strconv.Itoa(max(args.PageSize, 1)))
	v.Set("fromp", strconv.Itoa(max(args.Page, 1)))
	v.Set("attr_vmode", "mouseover")
	v.Set("attrs", "word")
	v.Set("viewmode", "kwic")
	v.Set("default_attr", "word")
	v.Set("format", "json")

	if args.ConcID != "" {
		for _, q := range ConcOperations(args.ConcID) {
			v.Add("q", q)
		}
		return "view", v
	}
	v.Set("queryselector", "cqlrow")
	v.Set("cql", args.Query)
	return "first", v
}

// Call creates the concordance (or reuses args.ConcID) and returns one
// page of lines. NoSke does not compute ARF.
func (a *ConcAPI) Call(ctx context.Context, args api.ConcArgs) (*model.ConcResponse, error) {
	action, v := concArgs(args)
	var resp concResponse
	if err := a.http.GetJSON(ctx, a.endpoint(action), v, a.headers, &resp); err != nil {
		return nil, err
	}
	ans := &model.ConcResponse{
		ConcID:   args.ConcID,
		Query:    args.Query,
		CorpName: resp.Request.CorpName,
		SubcName: args.SubcName,
		ConcSize: resp.ConcSize,
		IPM:      resp.RelSize,
		ARF:      -1,
		Lines:    make([]model.ConcLine, len(resp.Lines)),
	}
	if ans.CorpName == "" {
		ans.CorpName = args.CorpName
	}
	if n := len(resp.Desc); n > 0 && resp.Desc[n-1].ToURL != "" {
		ans.ConcID = resp.Desc[n-1].ToURL
	}
	for i, l := range resp.Lines {
		ans.Lines[i] = model.ConcLine{Left: l.Left, Kwic: l.Kwic, Right: l.Right, Toknum: l.Toknum}
	}
	return ans, nil
}

// Backlink opens the concordance in NoSke.
func (a *ConcAPI) Backlink(tpl *model.Backlink, resp *model.ConcResponse) *model.BacklinkWithArgs {
	if resp == nil {
		return nil
	}
	bargs := []model.BacklinkArg{
		model.Arg("corpname", resp.CorpName),
		model.Arg("usesubcorp", resp.SubcName),
	}
	for _, q := range ConcOperations(resp.ConcID) {
		bargs = append(bargs, model.Arg("q", q))
	}
	return model.NewBacklinkWithArgs(tpl, "view", bargs...)
}
