package kontext

import (
	"context"
	"maps"
	"net/url"
	"strconv"
	"strings"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// webAppHeader makes KonText treat the request as coming from its own UI.
const webAppHeader = "X-Is-Web-App"

// freqsResponse is the relevant part of the KonText /freqs answer.
type freqsResponse struct {
	ConcPersistenceOpID string `json:"conc_persistence_op_id"`
	ConcSize            int    `json:"concsize"`
	Blocks              []struct {
		Items []freqItem `json:"Items"`
	} `json:"Blocks"`
}

type freqItem struct {
	Word []struct {
		N string `json:"n"`
	} `json:"Word"`
	Freq float64 `json:"freq"`
	Rel  float64 `json:"rel"`
	Norm float64 `json:"norm"`
}

func (it freqItem) name() string {
	parts := make([]string, len(it.Word))
	for i, w := range it.Word {
		parts[i] = w.N
	}
	return strings.Join(parts, " ")
}

func convertItems(items []freqItem) []model.DataRow {
	rows := make([]model.DataRow, len(items))
	for i, it := range items {
		order := i
		rows[i] = model.DataRow{
			Name:  it.name(),
			Freq:  it.Freq,
			IPM:   it.Rel,
			Norm:  it.Norm,
			Order: &order,
		}
	}
	return rows
}

// client holds what all KonText APIs share.
type client struct {
	http    *upstream.Client
	apiURL  string
	headers map[string]string
}

func newClient(c *upstream.Client, opts api.Options) client {
	headers := make(map[string]string, len(opts.Headers)+1)
	maps.Copy(headers, opts.Headers)
	if opts.IsWebApp {
		headers[webAppHeader] = "1"
	}
	return client{
		http:    c,
		apiURL:  strings.TrimRight(opts.URL, "/"),
		headers: headers,
	}
}

func (c client) endpoint(action string) string {
	return c.apiURL + "/" + action
}

func boolArg(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func concQuery(concID string) string {
	return "~" + concID
}

// freqArgs encodes the /freqs arguments; fcrit may be repeated.
func freqArgs(args api.FreqArgs, fcrit []string) url.Values {
	v := url.Values{}
	v.Set("corpname", args.CorpName)
	if args.SubcName != "" {
		v.Set("usesubcorp", args.SubcName)
	}
	v.Set("q", concQuery(args.ConcID))
	for _, fc := range fcrit {
		v.Add("fcrit", fc)
	}
	if args.FreqType != "" {
		v.Set("freq_type", args.FreqType)
	}
	v.Set("flimit", strconv.Itoa(args.FLimit))
	if args.FreqSort != "" {
		v.Set("freq_sort", args.FreqSort)
	}
	fpage := args.FPage
	if fpage < 1 {
		fpage = 1
	}
	v.Set("fpage", strconv.Itoa(fpage))
	v.Set("ftt_include_empty", boolArg(args.FTTIncludeEmpty))
	if args.MaxItems > 0 {
		v.Set("fmaxitems", strconv.Itoa(args.MaxItems))
	}
	v.Set("format", "json")
	return v
}

func (c client) freqs(ctx context.Context, args api.FreqArgs, fcrit []string) (*freqsResponse, error) {
	var resp freqsResponse
	if err := c.http.GetJSON(ctx, c.endpoint("freqs"), freqArgs(args, fcrit), c.headers, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// freqBacklink mirrors the /freqs arguments so the user can open the same
// distribution in KonText.
func freqBacklink(tpl *model.Backlink, args api.FreqArgs) *model.BacklinkWithArgs {
	subc := args.SubcName
	if subc == "" && tpl != nil {
		subc = tpl.SubcName
	}
	fpage := args.FPage
	if fpage < 1 {
		fpage = 1
	}
	return model.NewBacklinkWithArgs(tpl, "freqs",
		model.Arg("corpname", args.CorpName),
		model.Arg("usesubcorp", subc),
		model.Arg("q", concQuery(args.ConcID)),
		model.Arg("fcrit", args.FCrit),
		model.Arg("freq_type", args.FreqType),
		model.Arg("flimit", strconv.Itoa(args.FLimit)),
		model.Arg("freq_sort", args.FreqSort),
		model.Arg("fpage", strconv.Itoa(fpage)),
		model.Arg("ftt_include_empty", boolArg(args.FTTIncludeEmpty)),
	)
}
