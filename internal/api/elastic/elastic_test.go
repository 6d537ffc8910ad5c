package elastic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

func TestMatchingDocsAPI_Call(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/docs/_search", r.URL.Path)
		assert.Equal(t, "title:dog OR body.text:dog", q.Get("q"))
		assert.Equal(t, "title,body.text,meta.year", q.Get("_source"))
		assert.Equal(t, "_score:desc", q.Get("sort"))
		assert.Equal(t, "5", q.Get("size"))
		fmt.Fprint(w, `{"hits": {"hits": [
			{"_score": 3.5, "_source": {"title": "Dogs", "body": {"text": "dog days"}, "meta": {"year": 2001}}},
			{"_score": 1.25, "_source": {"title": "Cats"}}
		]}}`)
	}))
	t.Cleanup(srv.Close)

	c, err := upstream.New()
	require.NoError(t, err)
	a := NewMatchingDocsAPI(c, api.Options{URL: srv.URL + "/docs/_search"})
	docs, err := a.Call(context.Background(), api.MatchingDocsArgs{
		Query:        "dog",
		SearchAttrs:  []string{"title", "body.text"},
		DisplayAttrs: []string{"title", "meta.year"},
		MaxItems:     5,
	})
	require.NoError(t, err)
	want := []model.MatchingDoc{
		{SearchValues: []string{"Dogs", "dog days"}, DisplayValues: []string{"Dogs", "2001"}, Score: 3.5},
		{SearchValues: []string{"Cats", ""}, DisplayValues: []string{"Cats", ""}, Score: 1.25},
	}
	assert.Equal(t, want, docs)
	assert.Nil(t, a.Backlink(&model.Backlink{URL: "x"}, api.MatchingDocsArgs{}))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	src := map[string]any{"a": map[string]any{"b": "x", "n": 1.5}, "s": "top"}
	tests := []struct {
		path string
		want string
	}{
		{path: "s", want: "top"},
		{path: "a.b", want: "x"},
		{path: "a.n", want: "1.5"},
		{path: "a.missing", want: ""},
		{path: "s.deeper", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, lookup(src, tt.path))
		})
	}
}
