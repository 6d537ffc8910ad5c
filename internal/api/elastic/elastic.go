// Package elastic finds matching documents with an Elasticsearch URI
// search.
package elastic

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

// MatchingDocsAPI implements api.MatchingDocsAPI. The searched word is
// looked up in all search attributes and hits are ordered by score.
type MatchingDocsAPI struct {
	http    *upstream.Client
	apiURL  string
	headers map[string]string
}

// NewMatchingDocsAPI creates an Elasticsearch matching documents API.
// The URL points to the _search endpoint of an index.
func NewMatchingDocsAPI(c *upstream.Client, opts api.Options) *MatchingDocsAPI {
	return &MatchingDocsAPI{http: c, apiURL: opts.URL, headers: opts.Headers}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64        `json:"_score"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func searchArgs(args api.MatchingDocsArgs) url.Values {
	terms := make([]string, len(args.SearchAttrs))
	for i, attr := range args.SearchAttrs {
		terms[i] = attr + ":" + args.Query
	}
	source := slices.Clone(args.SearchAttrs)
	for _, attr := range args.DisplayAttrs {
		if !slices.Contains(source, attr) {
			source = append(source, attr)
		}
	}
	v := url.Values{}
	v.Set("q", strings.Join(terms, " OR "))
	v.Set("_source", strings.Join(source, ","))
	v.Set("sort", "_score:desc")
	if args.MaxItems > 0 {
		v.Set("size", strconv.Itoa(args.MaxItems))
	}
	return v
}

// lookup resolves a dotted attribute path within a document source.
func lookup(src map[string]any, path string) string {
	var curr any = src
	for _, key := range strings.Split(path, ".") {
		m, ok := curr.(map[string]any)
		if !ok {
			return ""
		}
		curr = m[key]
	}
	switch v := curr.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Call runs the search. Unlike concordance based APIs it uses the
// searched word, not a concordance.
func (a *MatchingDocsAPI) Call(ctx context.Context, args api.MatchingDocsArgs) ([]model.MatchingDoc, error) {
	var resp searchResponse
	if err := a.http.GetJSON(ctx, a.apiURL, searchArgs(args), a.headers, &resp); err != nil {
		return nil, err
	}
	docs := make([]model.MatchingDoc, len(resp.Hits.Hits))
	for i, hit := range resp.Hits.Hits {
		doc := model.MatchingDoc{
			SearchValues:  make([]string, len(args.SearchAttrs)),
			DisplayValues: make([]string, len(args.DisplayAttrs)),
			Score:         hit.Score,
		}
		for j, attr := range args.SearchAttrs {
			doc.SearchValues[j] = lookup(hit.Source, attr)
		}
		for j, attr := range args.DisplayAttrs {
			doc.DisplayValues[j] = lookup(hit.Source, attr)
		}
		docs[i] = doc
	}
	return docs, nil
}

// Backlink is not supported.
func (a *MatchingDocsAPI) Backlink(_ *model.Backlink, _ api.MatchingDocsArgs) *model.BacklinkWithArgs {
	return nil
}
