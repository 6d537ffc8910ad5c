package mquery

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// kwicClass marks KWIC tokens the same way KonText does.
const kwicClass = "coll"

// ConcAPI reads concordance lines from /concordance.
type ConcAPI struct {
	client
}

// NewConcAPI creates an MQuery concordance API.
func NewConcAPI(c *upstream.Client, opts api.Options) *ConcAPI {
	return &ConcAPI{client: newClient(c, opts)}
}

type token struct {
	Word   string `json:"word"`
	Strong bool   `json:"strong"`
}

type concResponse struct {
	ConcSize  int     `json:"concSize"`
	ResultIPM float64 `json:"ipm"`
	Lines     []struct {
		Text []token `json:"text"`
		Ref  string  `json:"ref"`
	} `json:"lines"`
	Error string `json:"error"`
}

// MkMatchQuery builds a CQL query for a query match.
func (a *ConcAPI) MkMatchQuery(qm model.QueryMatch, generator []string) string {
	return MkMatchQuery(qm, generator)
}

// splitLine places tokens before the first strong token to the left
// context and tokens after the last one to the right context.
func splitLine(tokens []token, toknum int) model.ConcLine {
	first, last := -1, -1
	for i, t := range tokens {
		if t.Strong {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	line := model.ConcLine{
		Left:   []model.LineElement{},
		Kwic:   []model.LineElement{},
		Right:  []model.LineElement{},
		Toknum: toknum,
	}
	for i, t := range tokens {
		switch {
		case first < 0 || i < first:
			line.Left = append(line.Left, model.LineElement{Str: t.Word})
		case i > last:
			line.Right = append(line.Right, model.LineElement{Str: t.Word})
		default:
			line.Kwic = append(line.Kwic, model.LineElement{Class: kwicClass, Str: t.Word})
		}
	}
	return line
}

// parseRef reads the token number from a "#123" reference.
func parseRef(ref string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(ref, "#"))
	if err != nil {
		return 0
	}
	return n
}

// Call runs args.Query (or args.ConcID, which for MQuery is the same
// query) and returns one page of lines. MQuery does not compute ARF.
func (a *ConcAPI) Call(ctx context.Context, args api.ConcArgs) (*model.ConcResponse, error) {
	query := args.Query
	if query == "" {
		query = args.ConcID
	}
	pageSize := max(args.PageSize, 1)
	v := url.Values{}
	v.Set("q", query)
	v.Set("maxRows", strconv.Itoa(pageSize))
	v.Set("rowsOffset", strconv.Itoa((max(args.Page, 1)-1)*pageSize))
	v.Set("contextWidth", strconv.Itoa(max(args.KwicLeftCtx, args.KwicRightCtx)))
	setNonEmpty(v, "contextStruct", a.customArgs["contextStruct"])
	setNonEmpty(v, "subcorpus", args.SubcName)

	u := a.endpoint("concordance", args.CorpName)
	var resp concResponse
	if err := a.http.GetJSON(ctx, u, v, a.headers, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &model.RequestError{URL: u, Message: resp.Error}
	}
	ans := &model.ConcResponse{
		ConcID:   query,
		Query:    query,
		CorpName: args.CorpName,
		SubcName: args.SubcName,
		ConcSize: resp.ConcSize,
		IPM:      resp.ResultIPM,
		ARF:      -1,
		Lines:    make([]model.ConcLine, len(resp.Lines)),
	}
	for i, l := range resp.Lines {
		ans.Lines[i] = splitLine(l.Text, parseRef(l.Ref))
	}
	return ans, nil
}

// Backlink is not supported.
func (a *ConcAPI) Backlink(_ *model.Backlink, _ *model.ConcResponse) *model.BacklinkWithArgs {
	return nil
}
