package freqdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/wdglance/internal/model"
)

const fixtureSchema = `
CREATE TABLE lemma (value TEXT, pos TEXT, count INTEGER, arf REAL, is_pname INTEGER);
CREATE TABLE word (value TEXT, lemma TEXT, pos TEXT, count INTEGER);
CREATE TABLE source_info (
	corpname TEXT, ui_lang TEXT, title TEXT, description TEXT, author TEXT, href TEXT,
	citation_source_name TEXT, citation_main TEXT, citation_paper1 TEXT, citation_paper2 TEXT,
	citation_paper3 TEXT, citation_other_bibliography TEXT,
	PRIMARY KEY (corpname, ui_lang)
);
INSERT INTO lemma VALUES
	('dog', 'N', 5000, 4000, 0),
	('dog', 'V', 20, 10, 0),
	('cat', 'N', 4500, 3900, 0),
	('horse', 'N', 6000, 4200, 0),
	('london', 'N', 5500, 4100, 1),
	('mouse', 'N', 3000, 2500, 0),
	('ant', 'N', 10, 5, 0);
INSERT INTO word VALUES
	('dog', 'dog', 'N', 3000),
	('dogs', 'dog', 'N', 2000),
	('dog', 'dog', 'V', 15),
	('dogged', 'dog', 'V', 5);
INSERT INTO source_info VALUES
	('syn2020', 'en', 'SYN2020', 'Written corpus', 'ICNC', 'https://wiki.example',
	 'SYN2020', 'Ref 2020', 'Paper 1', NULL, 'Paper 3', 'Other');
`

func newFixtureDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.db")
	w, err := sql.Open("sqlite", "file:"+path+"?mode=rwc")
	require.NoError(t, err)
	_, err = w.Exec(fixtureSchema)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	db, err := Open(path, 1e6)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "none.db"), 1)
	assert.ErrorIs(t, err, ErrDatabaseNotFound)
}

func TestCalcFreqBand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ipm  float64
		want int
	}{
		{0, 1}, {0.99, 1}, {1, 2}, {9.9, 2}, {10, 3}, {99, 3}, {100, 4}, {999, 4}, {1000, 5}, {1e6, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CalcFreqBand(tt.ipm), "ipm %v", tt.ipm)
	}
}

func TestFindQueryMatches(t *testing.T) {
	t.Parallel()
	db := newFixtureDB(t)

	matches, err := db.FindQueryMatches(context.Background(), "Dogs", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "dogs", matches[0].Word)
	assert.Equal(t, "dog", matches[0].Lemma)
	assert.Equal(t, []string{"N"}, matches[0].Pos)
	assert.Equal(t, float64(5000), matches[0].IPM)
	assert.Equal(t, 5, matches[0].FLevel)

	matches, err = db.FindQueryMatches(context.Background(), "dog", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, []string{"N"}, matches[0].Pos, "ordered by ARF")
	assert.Equal(t, []string{"V"}, matches[1].Pos)

	matches, err = db.FindQueryMatches(context.Background(), "dog", 100)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestWordForms(t *testing.T) {
	t.Parallel()
	db := newFixtureDB(t)

	forms, err := db.WordForms(context.Background(), "dog", []string{"N"})
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, "dog", forms[0].Word)
	assert.Equal(t, float64(3000), forms[0].Abs)
	assert.Equal(t, "dogs", forms[1].Word)

	forms, err = db.WordForms(context.Background(), "unknown", []string{"N"})
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestSimilarFreqWords(t *testing.T) {
	t.Parallel()
	db := newFixtureDB(t)

	words, err := db.SimilarFreqWords(context.Background(), "dog", []string{"N"}, 1)
	require.NoError(t, err)
	lemmas := make([]string, len(words))
	for i, w := range words {
		lemmas[i] = w.Lemma
	}
	// london is a proper name and is skipped
	assert.Equal(t, []string{"horse", "dog", "cat"}, lemmas)
	assert.True(t, words[1].IsCurrent)

	words, err = db.SimilarFreqWords(context.Background(), "nothing", nil, 2)
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestSourceInfo(t *testing.T) {
	t.Parallel()
	db := newFixtureDB(t)

	info, err := db.SourceInfo(context.Background(), "syn2020", "en")
	require.NoError(t, err)
	assert.Equal(t, &model.SourceDetails{
		Title:       "SYN2020",
		Description: "Written corpus",
		Author:      "ICNC",
		Href:        "https://wiki.example",
		CitationInfo: model.CitationInfo{
			SourceName:        "SYN2020",
			Main:              "Ref 2020",
			Papers:            []string{"Paper 1", "Paper 3"},
			OtherBibliography: "Other",
		},
	}, info)

	_, err = db.SourceInfo(context.Background(), "syn2020", "cs")
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r, err := OpenRegistry(map[string]Source{"en": {Path: filepath.Join(t.TempDir(), "missing.db"), CorpusSize: 1}})
	assert.ErrorIs(t, err, ErrDatabaseNotFound)
	assert.Nil(t, r)

	r = Registry{}
	_, err = r.Get("en")
	assert.ErrorIs(t, err, ErrNoDatabase)
	assert.NoError(t, r.Close())
}
