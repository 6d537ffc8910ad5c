package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/wdglance/internal/config"
	"github.com/nao1215/wdglance/internal/report"
	"github.com/nao1215/wdglance/internal/upstream"
)

// fakeMQuery serves the MQuery endpoints used by testLayout.
func fakeMQuery(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/concordance/syn2020":
		fmt.Fprintf(w, `{"concSize": 1, "ipm": 0.5, "lines": [
			{"text": [{"word": %q, "strong": true}], "ref": "#1"}
		]}`, r.URL.Query().Get("q"))
	case "/text-types/syn2020":
		fmt.Fprint(w, `{"concSize": 1, "freqs": [{"word": "fiction", "freq": 1, "base": 10, "ipm": 100000}]}`)
	default:
		http.NotFound(w, r)
	}
}

func testLayout(apiURL string) *config.ClientConf {
	return &config.ClientConf{
		MaxQueryWords: 2,
		Tiles: map[string]*config.TileConf{
			"conc": {
				TileType: config.TileTypeConcordance,
				APIType:  "mquery",
				APIURL:   apiURL,
				CorpName: "syn2020",
				PageSize: 10,
			},
			"genres": {
				TileType: config.TileTypeFreqBar,
				APIType:  "mquery",
				APIURL:   apiURL,
				CorpName: "syn2020",
				Label:    "Genres",
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

// cliEnv holds configuration files pointing to a fake backend.
type cliEnv struct {
	dir        string
	serverConf string
	clientConf string
	dbDir      string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(fakeMQuery))
	t.Cleanup(backend.Close)

	dir := t.TempDir()
	env := &cliEnv{
		dir:        dir,
		serverConf: filepath.Join(dir, config.DefaultServerConfFile),
		clientConf: filepath.Join(dir, config.DefaultClientConfFile),
		dbDir:      filepath.Join(dir, "data"),
	}
	layout, err := json.Marshal(testLayout(backend.URL))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(env.clientConf, layout, 0600))
	require.NoError(t, os.WriteFile(env.serverConf, []byte(`{"port": 3000, "queryLang": "en"}`), 0600))
	return env
}

// run executes the root command with the configuration flags of env.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	args = append(args, "--server-conf", e.serverConf, "--conf", e.clientConf, "--db-dir", e.dbDir)
	return executeCmd(t, args...)
}

func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQueryCmd(t *testing.T) {
	t.Parallel()

	t.Run("text report", func(t *testing.T) {
		t.Parallel()
		env := newCLIEnv(t)

		out, err := env.run(t, "query", "house")
		require.NoError(t, err)
		assert.Contains(t, out, "WDGLANCE QUERY")
		assert.Contains(t, out, "Query:    house")
		assert.Contains(t, out, "Language: en")
		assert.Contains(t, out, "[+] conc (ConcordanceTile)")
		assert.Contains(t, out, "[+] Genres (FreqBarTile)")
		assert.Contains(t, out, "Status:   Complete")
	})

	t.Run("JSON report", func(t *testing.T) {
		t.Parallel()
		env := newCLIEnv(t)

		out, err := env.run(t, "query", "--json", "house")
		require.NoError(t, err)

		var rep report.JSONReport
		require.NoError(t, json.Unmarshal([]byte(out), &rep))
		assert.NotEmpty(t, rep.Version)
		require.NotNil(t, rep.Result)
		assert.Equal(t, uint64(1), rep.Result.QueryID)
		assert.Len(t, rep.Result.Tiles, 2)
		assert.Zero(t, rep.Result.NumErrors())
	})

	t.Run("Markdown report to file", func(t *testing.T) {
		t.Parallel()
		env := newCLIEnv(t)
		path := filepath.Join(env.dir, "reports", "house.md")

		out, err := env.run(t, "query", "--markdown", "-o", path, "house")
		require.NoError(t, err)
		assert.Empty(t, out)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "# wdglance: house")
		assert.Contains(t, string(data), "## Genres")
	})

	t.Run("batch", func(t *testing.T) {
		t.Parallel()
		env := newCLIEnv(t)
		batch := filepath.Join(env.dir, "words.txt")
		require.NoError(t, os.WriteFile(batch, []byte("house\n# skipped\n\nhome, flat\none, two, three\n"), 0600))

		out, err := env.run(t, "query", "--json", "--batch", batch, "--concurrency", "2")
		require.NoError(t, err)

		var rep report.JSONReport
		require.NoError(t, json.Unmarshal([]byte(out), &rep))
		require.Len(t, rep.Batch, 3)
		assert.Equal(t, []string{"house"}, rep.Batch[0].Words)
		assert.Empty(t, rep.Batch[0].Error)
		assert.Equal(t, []string{"home", "flat"}, rep.Batch[1].Words)
		assert.Empty(t, rep.Batch[1].Error)
		assert.Contains(t, rep.Batch[2].Error, "too many query words")
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		env := newCLIEnv(t)

		tests := []struct {
			name string
			args []string
			want string
		}{
			{"no words", []string{"query"}, "no words provided"},
			{"both formats", []string{"query", "--json", "--markdown", "house"}, "conflicting report formats"},
			{"zero concurrency", []string{"query", "--concurrency", "0", "house"}, "invalid batch size"},
			{"missing batch file", []string{"query", "--batch", filepath.Join(env.dir, "missing.txt")}, "failed to open batch file"},
			{"too many words", []string{"query", "a", "b", "c"}, "query failed"},
		}
		for _, tt := range tests {
			_, err := env.run(t, tt.args...)
			if assert.Error(t, err, tt.name) {
				assert.Contains(t, err.Error(), tt.want, tt.name)
			}
		}
	})
}

func TestQueryCmdMissingConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := executeCmd(t, "query", "--conf", filepath.Join(dir, "none.json"), "--db-dir", dir, "house")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigNotFound)

	_, err = executeCmd(t, "query", "--server-conf", filepath.Join(dir, "none.json"), "--db-dir", dir, "house")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestReadBatchFile(t *testing.T) {
	t.Parallel()

	t.Run("stdin", func(t *testing.T) {
		t.Parallel()
		reqs, err := readBatchFile(strings.NewReader("a\n b , c \n,\n"), "-")
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, []string{"a"}, reqs[0].Words)
		assert.Equal(t, []string{"b", "c"}, reqs[1].Words)
	})

	t.Run("no queries", func(t *testing.T) {
		t.Parallel()
		_, err := readBatchFile(strings.NewReader("# nothing\n\n"), "-")
		assert.EqualError(t, err, "batch file contains no queries")
	})
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)

	_, err := executeCmd(t, "history", "--db-dir", env.dbDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no queries logged yet")

	_, err = env.run(t, "query", "house")
	require.NoError(t, err)
	_, err = env.run(t, "query", "home")
	require.NoError(t, err)

	out, err := executeCmd(t, "history", "--db-dir", env.dbDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Query history (2 queries)")
	assert.Less(t, strings.Index(out, "home"), strings.Index(out, "house"), "newest first")

	out, err = executeCmd(t, "history", "--db-dir", env.dbDir, "house")
	require.NoError(t, err)
	assert.Contains(t, out, "Query history (1 queries)")

	out, err = executeCmd(t, "history", "--db-dir", env.dbDir, "--limit", "1", "missing")
	require.NoError(t, err)
	assert.Contains(t, out, "No queries found.")

	out, err = executeCmd(t, "history", "--db-dir", env.dbDir, "--id", "1", "--json")
	require.NoError(t, err)
	var rep report.JSONReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	require.NotNil(t, rep.Result)
	assert.Equal(t, "house", rep.Result.Query.String())

	out, err = executeCmd(t, "history", "--db-dir", env.dbDir, "--id", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Query:    home")

	_, err = executeCmd(t, "history", "--db-dir", env.dbDir, "--id", "99")
	assert.EqualError(t, err, "no logged query with id 99")
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "house", truncate("house", 5))
	assert.Equal(t, "hou…", truncate("houses", 4))
}

func TestServeCmdUnreachableProxy(t *testing.T) {
	t.Parallel()
	env := newCLIEnv(t)
	conf := `{"port": 3000, "upstream": {"proxyAddress": "127.0.0.1:1"}}`
	require.NoError(t, os.WriteFile(env.serverConf, []byte(conf), 0600))

	_, err := env.run(t, "serve")
	require.Error(t, err)
	assert.ErrorIs(t, err, upstream.ErrProxyCannotConnect)
}
