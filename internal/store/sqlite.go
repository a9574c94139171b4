package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/jbonatakis/reqmatrix/internal/matrix"
)

const DefaultSQLitePath = ".reqmatrix/reqmatrix.db"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS mappings (
		service_id TEXT NOT NULL,
		location_id TEXT NOT NULL,
		requirement_id TEXT NOT NULL,
		selected INTEGER NOT NULL,
		PRIMARY KEY (service_id, location_id, requirement_id)
	)`,
	`CREATE TABLE IF NOT EXISTS availability (
		service_id TEXT NOT NULL,
		location_id TEXT NOT NULL,
		available INTEGER NOT NULL,
		PRIMARY KEY (service_id, location_id)
	)`,
	`CREATE TABLE IF NOT EXISTS revisions (
		service_id TEXT PRIMARY KEY,
		revision TEXT NOT NULL,
		saved_at TEXT NOT NULL
	)`,
}

// SQLStore keeps mappings and availability as rows. Each save replaces a
// service's rows inside one transaction.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLStore wraps an open database whose schema already exists.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		path = DefaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return NewSQLStore(db), nil
}

func (s *SQLStore) Load(ctx context.Context, serviceID string) (Record, error) {
	if err := checkServiceID(serviceID); err != nil {
		return Record{}, err
	}
	rec := emptyRecord(serviceID)

	var savedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT revision, saved_at FROM revisions WHERE service_id = ?`, serviceID,
	).Scan(&rec.Revision, &savedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return rec, nil
	case err != nil:
		return Record{}, fmt.Errorf("select revision: %w", err)
	}
	if rec.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return Record{}, fmt.Errorf("parse saved_at %q: %w", savedAt, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT location_id, requirement_id, selected FROM mappings WHERE service_id = ?`, serviceID)
	if err != nil {
		return Record{}, fmt.Errorf("select mappings: %w", err)
	}
	for rows.Next() {
		var loc, req string
		var selected bool
		if err := rows.Scan(&loc, &req, &selected); err != nil {
			_ = rows.Close()
			return Record{}, fmt.Errorf("scan mapping: %w", err)
		}
		rec.State.Mappings[joinMappingKey(loc, req)] = selected
	}
	if err := closeRows(rows); err != nil {
		return Record{}, fmt.Errorf("select mappings: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT location_id, available FROM availability WHERE service_id = ?`, serviceID)
	if err != nil {
		return Record{}, fmt.Errorf("select availability: %w", err)
	}
	for rows.Next() {
		var loc string
		var available bool
		if err := rows.Scan(&loc, &available); err != nil {
			_ = rows.Close()
			return Record{}, fmt.Errorf("scan availability: %w", err)
		}
		rec.State.Availability[loc] = available
	}
	if err := closeRows(rows); err != nil {
		return Record{}, fmt.Errorf("select availability: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) Save(ctx context.Context, serviceID string, state matrix.State) (rec Record, retErr error) {
	if err := checkServiceID(serviceID); err != nil {
		return Record{}, err
	}
	rec = newRecord(serviceID, state, s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM mappings WHERE service_id = ?`, serviceID); err != nil {
		return Record{}, fmt.Errorf("clear mappings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM availability WHERE service_id = ?`, serviceID); err != nil {
		return Record{}, fmt.Errorf("clear availability: %w", err)
	}
	for _, key := range sortedKeys(rec.State.Mappings) {
		loc, req := splitMappingKey(key)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mappings(service_id, location_id, requirement_id, selected) VALUES(?,?,?,?)`,
			serviceID, loc, req, rec.State.Mappings[key],
		); err != nil {
			return Record{}, fmt.Errorf("insert mapping %s: %w", key, err)
		}
	}
	for _, loc := range sortedKeys(rec.State.Availability) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO availability(service_id, location_id, available) VALUES(?,?,?)`,
			serviceID, loc, rec.State.Availability[loc],
		); err != nil {
			return Record{}, fmt.Errorf("insert availability %s: %w", loc, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO revisions(service_id, revision, saved_at) VALUES(?,?,?)
		ON CONFLICT(service_id) DO UPDATE SET revision=excluded.revision, saved_at=excluded.saved_at`,
		serviceID, rec.Revision, rec.SavedAt.Format(time.RFC3339Nano),
	); err != nil {
		return Record{}, fmt.Errorf("upsert revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

// DB exposes the underlying handle for tests.
func (s *SQLStore) DB() *sql.DB { return s.db }

// Keys that never went through migration have no separator; they are kept
// whole in location_id with an empty requirement_id.
func splitMappingKey(key string) (string, string) {
	loc, req, ok := matrix.SplitKey(key)
	if !ok {
		return key, ""
	}
	return loc, req
}

func joinMappingKey(loc, req string) string {
	if req == "" {
		return loc
	}
	return matrix.Key(loc, req)
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	return rows.Close()
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
