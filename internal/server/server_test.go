package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/dashboard"
	"github.com/nao1215/wdglance/internal/freqdb"
	"github.com/nao1215/wdglance/internal/model"
	"github.com/nao1215/wdglance/internal/tile"
	"github.com/nao1215/wdglance/internal/upstream"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeBackend serves the MQuery endpoints used by the test layout.
type fakeBackend struct {
	infoLang atomic.Value
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/concordance/syn2020":
		fmt.Fprintf(w, `{"concSize": 1, "ipm": 0.5, "lines": [
			{"text": [{"word": %q, "strong": true}], "ref": "#1"}
		]}`, r.URL.Query().Get("q"))
	case "/text-types/syn2020":
		fmt.Fprint(w, `{"concSize": 1, "freqs": [{"word": "fiction", "freq": 1, "base": 10, "ipm": 100000}]}`)
	case "/info/syn2020":
		f.infoLang.Store(r.URL.Query().Get("lang"))
		fmt.Fprint(w, `{"corpus": {"data": {"corpname": "syn2020", "description": "written", "size": 100}}}`)
	default:
		http.NotFound(w, r)
	}
}

func testLayout(apiURL string) *config.ClientConf {
	return &config.ClientConf{
		MaxQueryWords: 2,
		Tiles: map[string]*config.TileConf{
			"conc": {
				TileType:   config.TileTypeConcordance,
				APIType:    "mquery",
				APIURL:     apiURL,
				CorpName:   "syn2020",
				PageSize:   10,
				APIHeaders: map[string]string{"X-Api-Key": "top-secret"},
			},
			"genres": {
				TileType: config.TileTypeFreqBar,
				APIType:  "mquery",
				APIURL:   apiURL,
				CorpName: "syn2020",
				WaitFor:  "conc",
				FCrit:    []string{"doc.genre 0"},
				FreqType: "text-types",
			},
		},
		Layouts: config.LayoutsConf{Single: config.LayoutConf{Groups: []config.GroupConf{
			{GroupLabel: "main", Tiles: []config.TileRef{{Tile: "conc", Width: 1}, {Tile: "genres", Width: 1}}},
		}}},
	}
}

const fixtureSchema = `
CREATE TABLE lemma (value TEXT, pos TEXT, count INTEGER, arf REAL, is_pname INTEGER);
CREATE TABLE word (value TEXT, lemma TEXT, pos TEXT, count INTEGER);
INSERT INTO lemma VALUES ('dog', 'N', 5000, 4000, 0), ('dog', 'V', 20, 10, 0);
INSERT INTO word VALUES ('dog', 'dog', 'N', 3000), ('dogs', 'dog', 'N', 2000), ('dog', 'dog', 'V', 15);
`

func newFreqDBs(t *testing.T) freqdb.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.db")
	w, err := sql.Open("sqlite", "file:"+path+"?mode=rwc")
	require.NoError(t, err)
	_, err = w.Exec(fixtureSchema)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	reg, err := freqdb.OpenRegistry(map[string]freqdb.Source{"en": {Path: path, CorpusSize: 1e6}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

type testEnv struct {
	srv     *Server
	ts      *httptest.Server
	backend *fakeBackend
}

func newTestEnv(t *testing.T, conf *config.ServerConf) *testEnv {
	t.Helper()
	backend := &fakeBackend{}
	bs := httptest.NewServer(backend)
	t.Cleanup(bs.Close)

	client, err := upstream.New(upstream.WithHTTPClient(bs.Client()))
	require.NoError(t, err)

	layout := testLayout(bs.URL)
	reg := newFreqDBs(t)
	factory := func() (*dashboard.Dashboard, error) {
		return dashboard.New(layout,
			dashboard.WithLogger(discardLogger),
			dashboard.WithClient(client),
			dashboard.WithLang("en"),
			dashboard.WithFreqDBs(reg, 0),
		)
	}
	if conf == nil {
		conf = config.NewServerConf()
	}
	srv, err := New(conf, layout, factory, WithLogger(discardLogger), WithUpstream(client))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, ts: ts, backend: backend}
}

func (e *testEnv) get(t *testing.T, path string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.ts.URL+path, nil)
	require.NoError(t, err)
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid configuration", func(t *testing.T) {
		t.Parallel()

		conf := config.NewServerConf()
		conf.Port = 0
		_, err := New(conf, testLayout("http://localhost"), func() (*dashboard.Dashboard, error) {
			t.Error("dashboard must not be created")
			return nil, nil
		})
		assert.ErrorIs(t, err, config.ErrInvalidPort)
	})

	t.Run("reports dashboard errors", func(t *testing.T) {
		t.Parallel()

		_, err := New(config.NewServerConf(), testLayout("http://localhost"), func() (*dashboard.Dashboard, error) {
			return nil, config.ErrNoTiles
		}, WithLogger(discardLogger))
		assert.ErrorIs(t, err, config.ErrNoTiles)
	})
}

func TestServer_Health(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	got := decode[APIResponse](t, body)
	assert.True(t, got.Success)

	resp, _ = env.get(t, "/healthz", http.Header{RequestIDHeader: {"req-42"}})
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
}

func TestServer_Configuration(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/conf/wdglance.json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, string(body), "top-secret")
	layout := decode[config.ClientConf](t, body)
	assert.Len(t, layout.Tiles, 2)
	require.Len(t, layout.Layouts.Single.Groups, 1)
	assert.Equal(t, "main", layout.Layouts.Single.Groups[0].GroupLabel)

	resp, body = env.get(t, "/conf/tiles", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tiles := decode[struct {
		Data []dashboard.TileInfo `json:"data"`
	}](t, body)
	assert.Equal(t, []dashboard.TileInfo{
		{Name: "conc", Kind: config.TileTypeConcordance},
		{Name: "genres", Kind: config.TileTypeFreqBar, WaitFor: "conc"},
	}, tiles.Data)
}

func TestServer_URLRootPath(t *testing.T) {
	t.Parallel()

	conf := config.NewServerConf()
	conf.URLRootPath = "https://example.com/wag/"
	env := newTestEnv(t, conf)

	resp, _ := env.get(t, "/wag/conf/tiles", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = env.get(t, "/conf/tiles", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = env.get(t, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type queryResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		QueryID uint64 `json:"queryId"`
		Query   struct {
			UILang string `json:"uiLang"`
		} `json:"query"`
		Tiles []struct {
			Tile   string      `json:"tile"`
			Status tile.Status `json:"status"`
		} `json:"tiles"`
	} `json:"data"`
}

func TestServer_Query(t *testing.T) {
	t.Parallel()

	conf := config.NewServerConf()
	conf.Languages = map[string]string{"cs": "Čeština", "en": "English"}
	env := newTestEnv(t, conf)

	resp, body := env.get(t, "/api/query?q=house&lang=en-GB", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	got := decode[queryResponse](t, body)
	assert.True(t, got.Success)
	assert.Equal(t, uint64(1), got.Data.QueryID)
	assert.Equal(t, "en", got.Data.Query.UILang)
	require.Len(t, got.Data.Tiles, 2)
	for _, s := range got.Data.Tiles {
		assert.Equal(t, tile.StatusReady, s.Status, s.Tile)
	}

	// Every request runs on a fresh dashboard.
	_, body = env.get(t, "/api/query?q=house", nil)
	assert.Equal(t, uint64(1), decode[queryResponse](t, body).Data.QueryID)
}

func TestServer_QueryErrors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"missing query", "/api/query", http.StatusBadRequest},
		{"blank query", "/api/query?q=+", http.StatusBadRequest},
		{"too many words", "/api/query?q=a&q=b&q=c", http.StatusBadRequest},
		{"wrong method", "/api/query?q=a", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			method := http.MethodGet
			if tt.want == http.StatusMethodNotAllowed {
				method = http.MethodPost
			}
			req, err := http.NewRequest(method, env.ts.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := env.ts.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestServer_QueryMatches(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/api/query-matches?q=dog", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	got := decode[struct {
		Data []model.QueryMatch `json:"data"`
	}](t, body)
	require.Len(t, got.Data, 2)
	assert.True(t, got.Data[0].IsCurrent)
	assert.Equal(t, []string{"N"}, got.Data[0].Pos)
	assert.False(t, got.Data[1].IsCurrent)

	resp, _ = env.get(t, "/api/query-matches?q=dog&queryLang=xx", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.get(t, "/api/query-matches", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_SourceInfo(t *testing.T) {
	t.Parallel()

	conf := config.NewServerConf()
	conf.Languages = map[string]string{"cs": "Čeština", "en": "English"}
	env := newTestEnv(t, conf)

	tests := []struct {
		name     string
		query    string
		header   http.Header
		wantLang string
	}{
		{"explicit language", "?lang=en-US", nil, "en"},
		{"accept language", "", http.Header{"Accept-Language": {"cs-CZ,cs;q=0.9"}}, "cs"},
		{"unsupported falls back", "?lang=de", nil, "cs"},
	}
	for _, tt := range tests {
		resp, body := env.get(t, "/conc/source-info"+tt.query, tt.header)
		require.Equal(t, http.StatusOK, resp.StatusCode, tt.name)
		got := decode[struct {
			Data model.SourceDetails `json:"data"`
		}](t, body)
		assert.Equal(t, "conc", got.Data.Tile, tt.name)
		assert.Equal(t, "written", got.Data.Description, tt.name)
		assert.Equal(t, tt.wantLang, env.backend.infoLang.Load(), tt.name)
	}

	resp, _ := env.get(t, "/missing/source-info", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Authenticate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		tile       string
		configured bool
		upstream   http.HandlerFunc
		wantStatus int
		wantBody   string
	}{
		{
			name:       "not configured",
			tile:       "conc",
			wantStatus: http.StatusNotImplemented,
		},
		{
			name:       "unknown tile",
			tile:       "missing",
			configured: true,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "session cookie",
			tile:       "conc",
			configured: true,
			upstream: func(w http.ResponseWriter, _ *http.Request) {
				http.SetCookie(w, &http.Cookie{Name: "cnc_toolbar_sid", Value: "s3ss10n", Path: "/"})
				fmt.Fprint(w, `["OK"]`)
			},
			wantStatus: http.StatusOK,
			wantBody:   `["cnc_toolbar_sid","s3ss10n"]`,
		},
		{
			name:       "invalid credentials",
			tile:       "conc",
			configured: true,
			upstream: func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, `["Invalid credentials"]`)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "upstream error is relayed",
			tile:       "conc",
			configured: true,
			upstream: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, "forbidden")
			},
			wantStatus: http.StatusForbidden,
			wantBody:   "forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conf := config.NewServerConf()
			if tt.configured {
				var gotForm atomic.Value
				handler := tt.upstream
				if handler == nil {
					handler = func(http.ResponseWriter, *http.Request) {}
				}
				auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if err := r.ParseForm(); err == nil {
						gotForm.Store(r.PostForm)
					}
					handler(w, r)
				}))
				t.Cleanup(auth.Close)
				t.Cleanup(func() {
					if tt.upstream == nil {
						return
					}
					form, ok := gotForm.Load().(url.Values)
					if assert.True(t, ok) {
						assert.Equal(t, "secret", form.Get("personal_access_token"))
					}
				})
				conf.KorpusAPI = &config.KorpusAPIConf{AuthenticateURL: auth.URL, Token: "secret"}
			}
			env := newTestEnv(t, conf)

			resp, err := env.ts.Client().Post(env.ts.URL+"/"+tt.tile+"/authenticate", "application/json", nil)
			require.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, strings.TrimSpace(string(body)))
			}
		})
	}
}

func TestServer_Recovery(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	h := env.srv.requestID(env.srv.recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	got := decode[APIResponse](t, rec.Body.Bytes())
	assert.False(t, got.Success)
	assert.NotEmpty(t, got.Error)
}

func TestServer_UILang(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		languages map[string]string
		target    string
		accept    string
		want      string
	}{
		{"no languages configured", nil, "/?lang=fr", "", "fr"},
		{"exact match", map[string]string{"cs": "", "en": ""}, "/?lang=en", "", "en"},
		{"regional variant", map[string]string{"cs": "", "en": ""}, "/?lang=en-US", "", "en"},
		{"accept language", map[string]string{"cs": "", "en": ""}, "/", "en-GB,en;q=0.8", "en"},
		{"fallback", map[string]string{"cs": "", "en": ""}, "/", "", "cs"},
		{"invalid code ignored", map[string]string{"!!": "", "en": ""}, "/?lang=cs", "", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := &Server{logger: discardLogger}
			s.langs, s.matcher = newLangMatcher(tt.languages, discardLogger)
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			assert.Equal(t, tt.want, s.uiLang(r))
		})
	}
}
