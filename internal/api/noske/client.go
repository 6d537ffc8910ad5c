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

type client struct {
	http    *upstream.Client
	apiURL  string
	headers map[string]string
}

func newClient(c *upstream.Client, opts api.Options) client {
	return client{
		http:    c,
		apiURL:  strings.TrimRight(opts.URL, "/"),
		headers: opts.Headers,
	}
}

func (c client) endpoint(action string) string {
	return c.apiURL + "/" + action
}

// ConcOperations expands a concordance identifier into the q operations
// NoSke expects. Identifiers taken from a "tourl" value (q=...;q=...) are
// decoded, anything else is treated as a single operation.
func ConcOperations(concID string) []string {
	if concID == "" {
		return nil
	}
	if strings.HasPrefix(concID, "q=") {
		if v, err := url.ParseQuery(strings.ReplaceAll(concID, ";", "&")); err == nil && len(v["q"]) > 0 {
			return v["q"]
		}
	}
	return []string{concID}
}

// concID encodes the q operations of a response back into an identifier.
func concID(ops []string) string {
	switch len(ops) {
	case 0:
		return ""
	case 1:
		return ops[0]
	}
	v := url.Values{"q": ops}
	return v.Encode()
}

type freqsResponse struct {
	Request struct {
		Q qList `json:"q"`
	} `json:"request"`
	ConcSize int `json:"concsize"`
	Blocks   []struct {
		Items []struct {
			Word []struct {
				N string `json:"n"`
			} `json:"Word"`
			Freq float64 `json:"freq"`
			Rel  float64 `json:"rel"`
			Norm float64 `json:"norm"`
		} `json:"Items"`
	} `json:"Blocks"`
}

func (r *freqsResponse) rows(block int) []model.DataRow {
	items := r.Blocks[block].Items
	rows := make([]model.DataRow, len(items))
	for i, it := range items {
		names := make([]string, len(it.Word))
		for j, w := range it.Word {
			names[j] = w.N
		}
		rows[i] = model.DataRow{
			Name: strings.Join(names, " "),
			Freq: it.Freq,
			IPM:  it.Rel,
			Norm: it.Norm,
		}
	}
	return rows
}

func freqArgs(args api.FreqArgs, fcrit []string) url.Values {
	v := url.Values{}
	v.Set("corpname", args.CorpName)
	if args.SubcName != "" {
		v.Set("usesubcorp", args.SubcName)
	}
	for _, q := range ConcOperations(args.ConcID) {
		v.Add("q", q)
	}
	for _, fc := range fcrit {
		v.Add("fcrit", fc)
	}
	v.Set("flimit", strconv.Itoa(args.FLimit))
	if args.FreqSort != "" {
		v.Set("freq_sort", args.FreqSort)
	}
	v.Set("fpage", strconv.Itoa(max(args.FPage, 1)))
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

func freqBacklink(tpl *model.Backlink, args api.FreqArgs, fcrit []string) *model.BacklinkWithArgs {
	subc := args.SubcName
	if subc == "" && tpl != nil {
		subc = tpl.SubcName
	}
	bargs := []model.BacklinkArg{
		model.Arg("corpname", args.CorpName),
		model.Arg("usesubcorp", subc),
	}
	for _, q := range ConcOperations(args.ConcID) {
		bargs = append(bargs, model.Arg("q", q))
	}
	for _, fc := range fcrit {
		bargs = append(bargs, model.Arg("fcrit", fc))
	}
	bargs = append(bargs,
		model.Arg("flimit", strconv.Itoa(args.FLimit)),
		model.Arg("freq_sort", args.FreqSort),
		model.Arg("fpage", strconv.Itoa(max(args.FPage, 1))),
	)
	return model.NewBacklinkWithArgs(tpl, "freqs", bargs...)
}
