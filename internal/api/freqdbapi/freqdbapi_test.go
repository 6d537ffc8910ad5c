package freqdbapi

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/wdglance/internal/api"
	"github.com/nao1215/wdglance/internal/freqdb"
	"github.com/nao1215/wdglance/internal/model"
)

func newDB(t *testing.T) *freqdb.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.db")
	w, err := sql.Open("sqlite", "file:"+path+"?mode=rwc")
	require.NoError(t, err)
	_, err = w.Exec(`
		CREATE TABLE lemma (value TEXT, pos TEXT, count INTEGER, arf REAL, is_pname INTEGER);
		CREATE TABLE word (value TEXT, lemma TEXT, pos TEXT, count INTEGER);
		CREATE TABLE source_info (corpname TEXT, ui_lang TEXT, title TEXT, description TEXT,
			author TEXT, href TEXT, citation_source_name TEXT, citation_main TEXT,
			citation_paper1 TEXT, citation_paper2 TEXT, citation_paper3 TEXT,
			citation_other_bibliography TEXT);
		INSERT INTO lemma VALUES ('pes', 'N', 100, 80, 0);
		INSERT INTO word VALUES ('pes', 'pes', 'N', 70), ('psa', 'pes', 'N', 30);
		INSERT INTO source_info (corpname, ui_lang, title) VALUES ('syn', 'cs', 'SYN');`)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	db, err := freqdb.Open(path, 1e6)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestWordFormsAPI_Call(t *testing.T) {
	t.Parallel()

	a := NewWordFormsAPI(newDB(t))
	forms, err := a.Call(context.Background(), api.WordFormsArgs{Lemma: "pes", Pos: []string{"N"}})
	require.NoError(t, err)
	assert.Equal(t, []model.WordFormItem{{Value: "pes", Freq: 70}, {Value: "psa", Freq: 30}}, forms)
	assert.Nil(t, a.Backlink(&model.Backlink{URL: "x"}, api.WordFormsArgs{}))
}

func TestSourceInfoAPI(t *testing.T) {
	t.Parallel()

	info, err := NewSourceInfoAPI(newDB(t)).SourceInfo(context.Background(), "syn", "cs")
	require.NoError(t, err)
	assert.Equal(t, "SYN", info.Title)
	assert.Empty(t, info.CitationInfo.Papers)
}
