package directory

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// SQLiteSource reads JSON host records from a kv(key, value) table.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource opens the database at path with writes disabled.
func NewSQLiteSource(path string) (*SQLiteSource, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite directory path is empty")
	}
	dsn := path + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(5000)",
			"query_only(1)",
		},
	}.Encode()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite directory: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Name() string { return "sqlite" }

func (s *SQLiteSource) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM kv WHERE key LIKE 'server\_%' ESCAPE '\' ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query kv: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan kv row: %w", err)
		}
		fields, err := DecodeJSON([]byte(value))
		entries = append(entries, Entry{Key: key, Fields: fields, Err: err})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kv: %w", err)
	}
	return entries, nil
}

func (s *SQLiteSource) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
