package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/sushant-115/pagewindow/core/pagemap"
)

// SQLiteStore keeps the collection in a SQLite table; pos is the logical
// index of a record.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serialises appends
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store %s: %w", path, err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS records (
		pos     INTEGER PRIMARY KEY,
		id      TEXT NOT NULL UNIQUE,
		payload BLOB
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init records table: %w", err)
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) TotalCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) LoadPage(ctx context.Context, page, pageSize int) ([]pagemap.Record, error) {
	if err := checkPageArgs(page, pageSize); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, payload FROM records ORDER BY pos ASC LIMIT ? OFFSET ?",
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("load page %d: %w", page, err)
	}
	defer rows.Close()

	records := make([]pagemap.Record, 0, pageSize)
	for rows.Next() {
		var (
			rawID   string
			payload []byte
		)
		if err := rows.Scan(&rawID, &payload); err != nil {
			return nil, fmt.Errorf("load page %d: %w", page, err)
		}
		id, err := pagemap.ParseRecordID(rawID)
		if err != nil {
			return nil, err
		}
		records = append(records, &pagemap.Item{RecordID: id, Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load page %d: %w", page, err)
	}
	return records, nil
}

func (s *SQLiteStore) Append(ctx context.Context, items []*pagemap.Item) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	var next int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(pos) + 1, 0) FROM records").Scan(&next); err != nil {
		tx.Rollback()
		return fmt.Errorf("append: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO records (pos, id, payload) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, next+int64(i), it.RecordID.String(), it.Payload); err != nil {
			tx.Rollback()
			return fmt.Errorf("append record %s: %w", it.RecordID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
