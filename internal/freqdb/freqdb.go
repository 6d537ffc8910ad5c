package freqdb

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wdglance/internal/model"
)

// DB is an opened word distribution database.
type DB struct {
	db         *sql.DB
	corpusSize float64
}

// Open opens the database at path in read-only mode. corpusSize is the
// number of tokens of the corpus the counts come from; ipm values are
// computed against it.
func Open(path string, corpusSize float64) (*DB, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &DB{db: db, corpusSize: corpusSize}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// CorpusSize returns the corpus size the database was opened with.
func (d *DB) CorpusSize() float64 {
	return d.corpusSize
}

func (d *DB) ipm(abs float64) float64 {
	if d.corpusSize <= 0 {
		return -1
	}
	return abs / d.corpusSize * 1e6
}

// CalcFreqBand maps an ipm value to a frequency band 1 (rare) to 5 (very
// frequent), one band per order of magnitude.
func CalcFreqBand(ipm float64) int {
	switch {
	case ipm < 1:
		return 1
	case ipm < 10:
		return 2
	case ipm < 100:
		return 3
	case ipm < 1000:
		return 4
	default:
		return 5
	}
}

// splitPos converts the stored space separated tags into a list.
func splitPos(pos string) []string {
	fields := strings.Fields(pos)
	for i, f := range fields {
		fields[i] = strings.ToUpper(f)
	}
	return fields
}

// FindQueryMatches returns the lemmas the word belongs to (or which it is)
// ordered by ARF. Lemmas below minFreq are omitted.
func (d *DB) FindQueryMatches(ctx context.Context, word string, minFreq int) ([]model.QueryMatch, error) {
	srch := strings.ToLower(word)
	rows, err := d.db.QueryContext(ctx, `
		SELECT w.lemma, w.pos, m.count, m.arf
		FROM word AS w
		JOIN lemma AS m ON w.lemma = m.value AND w.pos = m.pos
		WHERE (w.value = ? OR w.lemma = ?) AND m.count >= ?
		GROUP BY w.lemma, w.pos
		ORDER BY m.arf DESC`, srch, srch, minFreq)
	if err != nil {
		return nil, fmt.Errorf("failed to find query matches: %w", err)
	}
	defer rows.Close()

	ans := []model.QueryMatch{}
	for rows.Next() {
		var (
			lemma, pos string
			abs, arf   float64
		)
		if err := rows.Scan(&lemma, &pos, &abs, &arf); err != nil {
			return nil, fmt.Errorf("failed to scan query match: %w", err)
		}
		ipm := d.ipm(abs)
		ans = append(ans, model.QueryMatch{
			Word:   srch,
			Lemma:  lemma,
			Pos:    splitPos(pos),
			Abs:    abs,
			IPM:    ipm,
			ARF:    arf,
			FLevel: CalcFreqBand(ipm),
		})
	}
	return ans, rows.Err()
}

// WordForms returns the forms of a lemma with their absolute frequencies.
func (d *DB) WordForms(ctx context.Context, lemma string, pos []string) ([]model.QueryMatch, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT w.value, w.pos, w.count
		FROM lemma AS m
		JOIN word AS w ON m.value = w.lemma AND m.pos = w.pos
		WHERE m.value = ? AND m.pos = ?
		ORDER BY w.count DESC`, lemma, strings.Join(pos, " "))
	if err != nil {
		return nil, fmt.Errorf("failed to load word forms: %w", err)
	}
	defer rows.Close()

	ans := []model.QueryMatch{}
	for rows.Next() {
		var (
			value, p string
			abs      float64
		)
		if err := rows.Scan(&value, &p, &abs); err != nil {
			return nil, fmt.Errorf("failed to scan word form: %w", err)
		}
		ans = append(ans, model.QueryMatch{
			Word:      value,
			Lemma:     lemma,
			Pos:       splitPos(p),
			Abs:       abs,
			IPM:       d.ipm(abs),
			IsCurrent: true,
		})
	}
	return ans, rows.Err()
}

// SimilarFreqWords returns the lemma itself together with up to rng lemmas
// of a slightly higher and rng lemmas of a lower ARF. Proper names are
// skipped. The result is ordered by ARF descending; an unknown lemma
// yields an empty result.
func (d *DB) SimilarFreqWords(ctx context.Context, lemma string, pos []string, rng int) ([]model.QueryMatch, error) {
	q := "SELECT SUM(count), SUM(arf) FROM lemma WHERE value = ?"
	args := []any{lemma}
	if len(pos) > 0 {
		q += " AND pos = ?"
		args = append(args, strings.Join(pos, " "))
	}
	var abs, arf sql.NullFloat64
	if err := d.db.QueryRowContext(ctx, q, args...).Scan(&abs, &arf); err != nil {
		return nil, fmt.Errorf("failed to load lemma: %w", err)
	}
	if !abs.Valid {
		return []model.QueryMatch{}, nil
	}
	curr := model.QueryMatch{
		Lemma:     lemma,
		Pos:       pos,
		Abs:       abs.Float64,
		IPM:       d.ipm(abs.Float64),
		ARF:       arf.Float64,
		IsCurrent: true,
	}
	higher, err := d.nearFreqItems(ctx, curr, true, rng)
	if err != nil {
		return nil, err
	}
	lower, err := d.nearFreqItems(ctx, curr, false, rng)
	if err != nil {
		return nil, err
	}
	ans := slices.Concat(higher, lower, []model.QueryMatch{curr})
	slices.SortStableFunc(ans, func(x, y model.QueryMatch) int {
		return cmp.Compare(y.ARF, x.ARF)
	})
	return ans, nil
}

func (d *DB) nearFreqItems(ctx context.Context, curr model.QueryMatch, above bool, limit int) ([]model.QueryMatch, error) {
	var sb strings.Builder
	sb.WriteString("SELECT value, pos, count, arf FROM lemma WHERE is_pname = 0")
	args := []any{}
	if len(curr.Pos) > 0 {
		sb.WriteString(" AND (value <> ? OR pos <> ?)")
		args = append(args, curr.Lemma, curr.PosString())
	} else {
		sb.WriteString(" AND value <> ?")
		args = append(args, curr.Lemma)
	}
	if above {
		sb.WriteString(" AND arf >= ? ORDER BY arf ASC")
	} else {
		sb.WriteString(" AND arf < ? ORDER BY arf DESC")
	}
	sb.WriteString(" LIMIT ?")
	args = append(args, curr.ARF, limit)

	rows, err := d.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load similar words: %w", err)
	}
	defer rows.Close()

	ans := []model.QueryMatch{}
	for rows.Next() {
		var (
			value, pos string
			abs, arf   float64
		)
		if err := rows.Scan(&value, &pos, &abs, &arf); err != nil {
			return nil, fmt.Errorf("failed to scan similar word: %w", err)
		}
		ans = append(ans, model.QueryMatch{
			Lemma: value,
			Pos:   splitPos(pos),
			Abs:   abs,
			IPM:   d.ipm(abs),
			ARF:   arf,
		})
	}
	return ans, rows.Err()
}

// SourceInfo reads the description of a corpus in the given UI language.
func (d *DB) SourceInfo(ctx context.Context, corpName, uiLang string) (*model.SourceDetails, error) {
	var (
		title, description, author, href sql.NullString
		srcName, main, other             sql.NullString
		paper1, paper2, paper3           sql.NullString
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT title, description, author, href, citation_source_name, citation_main,
			citation_paper1, citation_paper2, citation_paper3, citation_other_bibliography
		FROM source_info
		WHERE corpname = ? AND ui_lang = ?`, corpName, uiLang).Scan(
		&title, &description, &author, &href, &srcName, &main,
		&paper1, &paper2, &paper3, &other)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w (corpus %q, language %q)", ErrSourceNotFound, corpName, uiLang)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load source info: %w", err)
	}
	papers := []string{}
	for _, p := range []sql.NullString{paper1, paper2, paper3} {
		if p.String != "" {
			papers = append(papers, p.String)
		}
	}
	return &model.SourceDetails{
		Title:       title.String,
		Description: description.String,
		Author:      author.String,
		Href:        href.String,
		CitationInfo: model.CitationInfo{
			SourceName:        srcName.String,
			Main:              main.String,
			Papers:            papers,
			OtherBibliography: other.String,
		},
	}, nil
}
