package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps values in a single kv table. Each Save is one upsert, so
// a failed write leaves the previous value in place.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (and creates) a SQLite database file.
func OpenSQLite(path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite store: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	// one writer at a time, sqlite serializes anyway
	db.SetMaxOpenConns(1)
	return NewSQLStore(db, DialectSQLite)
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(databaseURL string) (*SQLStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres store: open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres store: verify connection: %w", err)
	}
	return NewSQLStore(db, DialectPostgres)
}

// NewSQLStore creates the kv table if needed.
func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("sql store: db is nil")
	}
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("sql store: init schema: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	var v string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT value FROM kv WHERE key = ?`), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, Unavailable("sql store: load "+key, err)
	}
	return []byte(v), nil
}

func (s *SQLStore) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
	INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`), key, string(value), time.Now().Unix())
	if err != nil {
		return Unavailable("sql store: save "+key, err)
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(q string) string {
	if s.dialect != DialectPostgres {
		return q
	}
	out := make([]byte, 0, len(q)+8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, q[i])
	}
	return string(out)
}
