package kontext

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/upstream"
)

const freqsBody = `{
	"conc_persistence_op_id": "abc123",
	"concsize": 150,
	"Blocks": [
		{"Items": [
			{"Word": [{"n": "fiction"}], "freq": 100, "rel": 12.5, "norm": 8000000},
			{"Word": [{"n": "news"}, {"n": "paper"}], "freq": 50, "rel": 3.2, "norm": 15625000}
		]},
		{"Items": [
			{"Word": [{"n": "1990"}], "freq": 7, "rel": 1.1, "norm": 6363636}
		]}
	]
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*upstream.Client, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := upstream.New()
	require.NoError(t, err)
	return c, srv.URL
}

func TestFreqDistribAPI_Call(t *testing.T) {
	t.Parallel()

	c, u := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/freqs", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "syn2020", q.Get("corpname"))
		assert.Equal(t, "~abc123", q.Get("q"))
		assert.Equal(t, []string{"doc.genre 0"}, q["fcrit"])
		assert.Equal(t, "rel", q.Get("freq_sort"))
		assert.Equal(t, "1", q.Get("fpage"))
		assert.Equal(t, "0", q.Get("ftt_include_empty"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "1", r.Header.Get("X-Is-Web-App"))
		fmt.Fprint(w, freqsBody)
	})

	a := NewFreqDistribAPI(c, api.Options{URL: u + "/", IsWebApp: true})
	resp, err := a.Call(context.Background(), api.FreqArgs{
		CorpName: "syn2020",
		ConcID:   "abc123",
		FCrit:    "doc.genre 0",
		FreqSort: "rel",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", resp.ConcID)
	assert.Equal(t, 150, resp.ConcSize)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "fiction", resp.Rows[0].Name)
	assert.Equal(t, 12.5, resp.Rows[0].IPM)
	assert.Equal(t, "news paper", resp.Rows[1].Name)
	assert.Equal(t, float64(15625000), resp.Rows[1].Norm)
	require.NotNil(t, resp.Rows[1].Order)
	assert.Equal(t, 1, *resp.Rows[1].Order)
}

func TestFreqDistribAPI_CallMulti(t *testing.T) {
	t.Parallel()

	c, u := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if fcrit := r.URL.Query()["fcrit"]; len(fcrit) == 2 {
			assert.Equal(t, []string{"doc.genre 0", "doc.year 0"}, fcrit)
		}
		assert.Empty(t, r.Header.Get("X-Is-Web-App"))
		fmt.Fprint(w, freqsBody)
	})

	a := NewFreqDistribAPI(c, api.Options{URL: u})
	resp, err := a.CallMulti(context.Background(), api.FreqArgs{CorpName: "syn2020", ConcID: "abc123"},
		[]string{"doc.genre 0", "doc.year 0"})
	require.NoError(t, err)
	require.Len(t, resp.Blocks, 2)
	assert.Len(t, resp.Blocks[0], 2)
	assert.Equal(t, "1990", resp.Blocks[1][0].Name)

	_, err = a.CallMulti(context.Background(), api.FreqArgs{}, []string{"a 0", "b 0", "c 0"})
	assert.ErrorIs(t, err, api.ErrEmptyResponse)
}

func TestFreqDistribAPI_EmptyBlocks(t *testing.T) {
	t.Parallel()

	c, u := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"Blocks": []}`)
	})
	_, err := NewFreqDistribAPI(c, api.Options{URL: u}).Call(context.Background(), api.FreqArgs{FCrit: "x 0"})
	assert.ErrorIs(t, err, api.ErrEmptyResponse)
}

func TestFreqDistribAPI_BackendError(t *testing.T) {
	t.Parallel()

	c, u := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"messages": ["conc not found"]}`)
	})
	_, err := NewFreqDistribAPI(c, api.Options{URL: u}).Call(context.Background(), api.FreqArgs{})
	re, ok := model.AsRequestError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, "conc not found", re.Message)
}

func TestFreqDistribAPI_Backlink(t *testing.T) {
	t.Parallel()

	a := NewFreqDistribAPI(nil, api.Options{URL: "http://kontext"})
	tpl := &model.Backlink{URL: "https://kontext.example/", Label: "KonText", SubcName: "sub1"}
	bl := a.Backlink(tpl, api.FreqArgs{
		CorpName: "syn2020",
		ConcID:   "abc",
		FCrit:    "doc.genre 0",
		FLimit:   1,
		FreqSort: "rel",
	})
	require.NotNil(t, bl)
	assert.Equal(t, "GET", bl.Method)
	assert.Equal(t,
		"https://kontext.example/freqs?corpname=syn2020&usesubcorp=sub1&q=~abc&fcrit=doc.genre+0&flimit=1&freq_sort=rel&fpage=1&ftt_include_empty=0",
		bl.FinalURL())
	assert.Nil(t, a.Backlink(nil, api.FreqArgs{}))
}

func TestTimeDistribAPI_Call(t *testing.T) {
	t.Parallel()

	c, u := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "doc.pubyear 0", q.Get("fcrit"))
		assert.Equal(t, "text-types", q.Get("freq_type"))
		assert.Equal(t, "3", q.Get("flimit"))
		assert.Equal(t, "sub1", q.Get("usesubcorp"))
		fmt.Fprint(w, freqsBody)
	})

	a := NewTimeDistribAPI(c, api.Options{
		URL:        u,
		CustomArgs: map[string]string{"fcrit": "doc.pubyear 0", "flimit": "3"},
	})
	var got []api.TimeDistribResponse
	err := a.Call(context.Background(), api.TimeDistribArgs{CorpName: "syn2020", SubcName: "sub1", ConcID: "abc123"},
		func(r api.TimeDistribResponse) { got = append(got, r) })
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sub1", got[0].SubcName)
	assert.False(t, got[0].Overwrite)
	assert.Equal(t, model.TimeDistribItem{Datetime: "fiction", Freq: 100, Norm: 8000000}, got[0].Items[0])
}

func TestWordFormsAPI_Call(t *testing.T) {
	t.Parallel()

	c, u := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "word/ie 0~0>0", q.Get("fcrit"))
		assert.Equal(t, "tokens", q.Get("freq_type"))
		assert.Equal(t, "freq", q.Get("freq_sort"))
		assert.Equal(t, "1", q.Get("flimit"))
		fmt.Fprint(w, freqsBody)
	})

	forms, err := NewWordFormsAPI(c, api.Options{URL: u}).Call(context.Background(), api.WordFormsArgs{ConcID: "x"})
	require.NoError(t, err)
	assert.Equal(t, []model.WordFormItem{{Value: "fiction", Freq: 100}, {Value: "news paper", Freq: 50}}, forms)
}

func TestMatchingDocsAPI_Call(t *testing.T) {
	t.Parallel()

	c, u := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "doc.title 0", q.Get("fcrit"))
		assert.Equal(t, "5", q.Get("flimit"))
		assert.Equal(t, "20", q.Get("fmaxitems"))
		fmt.Fprint(w, freqsBody)
	})

	docs, err := NewMatchingDocsAPI(c, api.Options{URL: u}).Call(context.Background(), api.MatchingDocsArgs{
		ConcID:      "x",
		SearchAttrs: []string{"doc.title"},
		MinFreq:     5,
		MaxItems:    20,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, model.MatchingDoc{SearchValues: []string{"fiction"}, DisplayValues: []string{"fiction"}, Score: 12.5}, docs[0])
}

func TestLiveattrsMatchingDocsAPI_Call(t *testing.T) {
	t.Parallel()

	c, u := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/freqs":
			fmt.Fprint(w, freqsBody)
		case "/fill_attrs":
			assert.Equal(t, http.MethodPost, r.Method)
			var req fillAttrsRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "doc.id", req.Search)
			assert.Equal(t, []string{"fiction", "news paper"}, req.Values)
			assert.Equal(t, []string{"doc.title", "doc.author"}, req.Fill)
			fmt.Fprint(w, `{"fiction": {"doc.title": "A Novel", "doc.author": "Doe"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	docs, err := NewLiveattrsMatchingDocsAPI(c, api.Options{URL: u}).Call(context.Background(), api.MatchingDocsArgs{
		CorpName:     "syn2020",
		ConcID:       "x",
		SearchAttrs:  []string{"doc.id"},
		DisplayAttrs: []string{"doc.title", "doc.author"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, []string{"A Novel", "Doe"}, docs[0].DisplayValues)
	assert.Equal(t, []string{"news paper", "news paper"}, docs[1].DisplayValues)
}

func TestConcAPI_Call(t *testing.T) {
	t.Parallel()

	c, u := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/query_submit":
			var req submitArgs
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, `[lemma="dog" & tag="N"]`, req.Queries[0].Query)
			assert.Equal(t, -5, req.KwicLeftCtx)
			fmt.Fprint(w, `{"conc_persistence_op_id": "conc1", "size": 1234}`)
		case "/view":
			q := r.URL.Query()
			assert.Equal(t, "~conc1", q.Get("q"))
			assert.Equal(t, "10", q.Get("pagesize"))
			assert.Equal(t, "-5", q.Get("kwicleftctx"))
			fmt.Fprint(w, `{
				"conc_persistence_op_id": "conc1",
				"concsize": 1234,
				"result_arf": 800.5,
				"result_relative_freq": 10.3,
				"Lines": [{"Left": [{"class": "", "str": "a big"}], "Kwic": [{"class": "coll", "str": "dog"}],
					"Right": [{"class": "", "str": "barks"}], "toknum": 42}]
			}`)
		}
	})

	a := NewConcAPI(c, api.Options{URL: u})
	query := a.MkMatchQuery(model.QueryMatch{Lemma: "dog", Pos: []string{"N"}}, []string{"tag", "directPos"})
	resp, err := a.Call(context.Background(), api.ConcArgs{
		CorpName:     "syn2020",
		Query:        query,
		PageSize:     10,
		KwicLeftCtx:  5,
		KwicRightCtx: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "conc1", resp.ConcID)
	assert.Equal(t, 1234, resp.ConcSize)
	assert.Equal(t, 800.5, resp.ARF)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "dog", resp.Lines[0].Kwic[0].Str)
	assert.Equal(t, 42, resp.Lines[0].Toknum)

	bl := a.Backlink(&model.Backlink{URL: "https://kontext.example", Label: "KonText"}, resp)
	assert.Equal(t, "https://kontext.example/view?corpname=syn2020&q=~conc1", bl.FinalURL())
}

func TestConcAPI_SubmitOnly(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c, u := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"conc_persistence_op_id": "conc2", "size": 7}`)
	})
	resp, err := NewConcAPI(c, api.Options{URL: u}).Call(context.Background(), api.ConcArgs{CorpName: "c", Query: "[word=\"x\"]"})
	require.NoError(t, err)
	assert.Equal(t, "conc2", resp.ConcID)
	assert.Equal(t, 7, resp.ConcSize)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSpeechesAPI_Call(t *testing.T) {
	t.Parallel()

	c, u := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/widectx", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1000", q.Get("pos"))
		assert.Equal(t, "sp.num,seg.soundfile", q.Get("structs"))
		assert.Equal(t, "all", q.Get("attr_allpos"))
		assert.Equal(t, "1", r.Header.Get("X-Is-Web-App"))
		fmt.Fprint(w, `{
			"pos": 1000,
			"content": [{"class": "strc", "str": "<sp num=\"1\">"}, {"class": "", "str": "hello"}],
			"expand_left_args": {"detail_left_ctx": 40, "detail_right_ctx": 0, "pos": 960},
			"expand_right_args": null
		}`)
	})

	resp, err := NewSpeechesAPI(c, api.Options{URL: u}).Call(context.Background(), api.SpeechArgs{
		CorpName: "oral",
		Pos:      1000,
		Structs:  []string{"sp.num", "seg.soundfile"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Content, 2)
	require.NotNil(t, resp.ExpandLeft)
	assert.Equal(t, 960, resp.ExpandLeft.Pos)
	assert.Nil(t, resp.ExpandRight)
}

func TestCorpusInfoAPI_SourceInfo(t *testing.T) {
	t.Parallel()

	c, u := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/corpora/ajax_get_corp_details", r.URL.Path)
		assert.Equal(t, "syn2020", r.URL.Query().Get("corpname"))
		fmt.Fprint(w, `{"corpname": "syn2020", "description": "written", "size": 100000000,
			"web_url": "https://wiki.example/syn2020",
			"citationInfo": {"default_ref": "Ref 2020", "article_ref": ["Paper A"], "other_bibliography": ""}}`)
	})

	info, err := NewCorpusInfoAPI(c, api.Options{URL: u}).SourceInfo(context.Background(), "syn2020", "en")
	require.NoError(t, err)
	assert.Equal(t, "syn2020", info.Title)
	assert.Equal(t, int64(100000000), info.Size)
	assert.Equal(t, "Ref 2020", info.CitationInfo.Main)
	assert.Equal(t, []string{"Paper A"}, info.CitationInfo.Papers)
}
