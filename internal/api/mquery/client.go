package mquery

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

type client struct {
	http       *upstream.Client
	apiURL     string
	headers    map[string]string
	customArgs map[string]string
}

func newClient(c *upstream.Client, opts api.Options) client {
	return client{
		http:       c,
		apiURL:     strings.TrimRight(opts.URL, "/"),
		headers:    opts.Headers,
		customArgs: opts.CustomArgs,
	}
}

// endpoint joins the action and the corpus name into a URL.
func (c client) endpoint(action, corpName string) string {
	return c.apiURL + "/" + action + "/" + url.PathEscape(corpName)
}

// freqRow is the common MQuery frequency row. Time distribution rows
// carry the bucket in value instead of word.
type freqRow struct {
	Word  string  `json:"word"`
	Value string  `json:"value"`
	Freq  float64 `json:"freq"`
	Base  float64 `json:"base"`
	IPM   float64 `json:"ipm"`
}

func (r freqRow) name() string {
	if r.Value != "" {
		return r.Value
	}
	return r.Word
}

// setNonEmpty adds only arguments with a value.
func setNonEmpty(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func itoaNonZero(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// MkMatchQuery builds the CQL query MQuery understands.
func MkMatchQuery(qm model.QueryMatch, generator []string) string {
	return api.MkMatchQuery(qm, generator, api.EscapeRegexp)
}
