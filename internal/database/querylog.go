package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// QueryRecord is one logged dashboard query.
type QueryRecord struct {
	ID        int64
	Query     string
	Lang      string
	Timestamp time.Time
	NumTiles  int
	NumErrors int
	Duration  time.Duration

	// ResultJSON is the serialized dashboard result.
	ResultJSON []byte
}

// LogQuery stores a query record and returns its id.
func (d *DB) LogQuery(ctx context.Context, rec *QueryRecord) (int64, error) {
	query := `
	INSERT INTO query_log (query, lang, num_tiles, num_errors, duration_ms, result_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	res, err := d.db.ExecContext(ctx, query,
		rec.Query,
		rec.Lang,
		rec.NumTiles,
		rec.NumErrors,
		rec.Duration.Milliseconds(),
		string(rec.ResultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to log query: %w", err)
	}
	return res.LastInsertId()
}

const queryRecordColumns = "id, query, lang, timestamp, num_tiles, num_errors, duration_ms, result_json"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueryRecord(s rowScanner) (*QueryRecord, error) {
	var (
		rec        QueryRecord
		lang       sql.NullString
		timestamp  string
		durationMS int64
		result     sql.NullString
	)
	err := s.Scan(&rec.ID, &rec.Query, &lang, &timestamp, &rec.NumTiles, &rec.NumErrors, &durationMS, &result)
	if err != nil {
		return nil, err
	}
	rec.Lang = lang.String
	rec.Timestamp = parseTimestamp(timestamp)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	if result.Valid {
		rec.ResultJSON = []byte(result.String)
	}
	return &rec, nil
}

// GetQueryRecord returns a logged query by id, or nil if there is none.
func (d *DB) GetQueryRecord(ctx context.Context, id int64) (*QueryRecord, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+queryRecordColumns+" FROM query_log WHERE id = ?", id)
	rec, err := scanQueryRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query record: %w", err)
	}
	return rec, nil
}

// RecentQueries returns the latest logged queries, newest first. An empty
// query string returns records of all queries.
func (d *DB) RecentQueries(ctx context.Context, query string, limit int) ([]QueryRecord, error) {
	q := "SELECT " + queryRecordColumns + " FROM query_log WHERE 1=1"
	args := make([]any, 0, 2)
	if query != "" {
		q += " AND query = ?"
		args = append(args, query)
	}
	q += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query log: %w", err)
	}
	defer rows.Close()

	var ans []QueryRecord
	for rows.Next() {
		rec, err := scanQueryRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query record: %w", err)
		}
		ans = append(ans, *rec)
	}
	return ans, rows.Err()
}
