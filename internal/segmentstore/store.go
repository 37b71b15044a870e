package segmentstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"musica/internal/segment"
	"musica/internal/services"
)

const tableName = "text_segments"

const createTableSQL = `CREATE TABLE IF NOT EXISTS text_segments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    segment_type INTEGER NOT NULL,
    content TEXT NOT NULL
)`

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Record is one persisted segment row.
type Record struct {
	ID      int64
	Segment segment.Segment
}

// Store is the segment table of a single script.
type Store struct {
	name string
	db   *sql.DB
}

func openStore(name, dsn string, memory bool) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "", "open", name, err)
	}
	if memory {
		// The database exists only while a connection is open; pin one.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout = 5000"} {
			if _, execErr := db.Exec(pragma); execErr != nil {
				_ = db.Close()
				return nil, services.Wrap(services.ErrStore, "", "open", fmt.Sprintf("apply pragma %q", pragma), execErr)
			}
		}
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, services.Wrap(services.ErrStore, "", "open", name, err)
	}
	return &Store{name: name, db: db}, nil
}

// Name returns the script name the store belongs to.
func (s *Store) Name() string {
	return s.name
}

// EnsureSchema creates the segment table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, createTableSQL)
		return err
	}); err != nil {
		return services.Wrap(services.ErrStore, "", "ensure schema", s.name, err)
	}
	return nil
}

// Insert appends seg and returns its row id.
func (s *Store) Insert(ctx context.Context, seg segment.Segment) (int64, error) {
	kind, content, err := segment.Encode(seg)
	if err != nil {
		return 0, err
	}
	query, args, err := sq.Insert(tableName).
		Columns("segment_type", "content").
		Values(int(kind), string(content)).
		ToSql()
	if err != nil {
		return 0, services.Wrap(services.ErrStore, "", "insert", "build statement", err)
	}
	var res sql.Result
	if err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return 0, services.Wrap(services.ErrStore, "", "insert", s.name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, services.Wrap(services.ErrStore, "", "insert", "last insert id", err)
	}
	return id, nil
}

// Reset deletes every stored segment so the script can be extracted again.
func (s *Store) Reset(ctx context.Context) error {
	query, args, err := sq.Delete(tableName).ToSql()
	if err != nil {
		return services.Wrap(services.ErrStore, "", "reset", "build statement", err)
	}
	if err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return services.Wrap(services.ErrStore, "", "reset", s.name, err)
	}
	return nil
}

// List returns every stored segment in insertion order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	query, args, err := sq.Select("id", "segment_type", "content").
		From(tableName).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "", "list", "build statement", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "", "list", s.name, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			id      int64
			kind    int
			content string
		)
		if err := rows.Scan(&id, &kind, &content); err != nil {
			return nil, services.Wrap(services.ErrStore, "", "list", "scan row", err)
		}
		seg, err := segment.Decode(segment.Type(kind), []byte(content))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", id, err)
		}
		records = append(records, Record{ID: id, Segment: seg})
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStore, "", "list", s.name, err)
	}
	return records, nil
}

// Count returns the number of stored segments by type.
func (s *Store) Count(ctx context.Context) (map[segment.Type]int, error) {
	query, args, err := sq.Select("segment_type", "COUNT(1)").
		From(tableName).
		GroupBy("segment_type").
		ToSql()
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "", "count", "build statement", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "", "count", s.name, err)
	}
	defer rows.Close()

	counts := make(map[segment.Type]int, 2)
	for rows.Next() {
		var kind, count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, services.Wrap(services.ErrStore, "", "count", "scan row", err)
		}
		counts[segment.Type(kind)] = count
	}
	return counts, rows.Err()
}

// Close releases the store's connection. A memory store's data is dropped
// once its last connection closes.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			return lastErr
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
