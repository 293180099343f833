package objectstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/foundry/mavenrepo/internal/core/services"
	"github.com/foundry/mavenrepo/internal/util/hashing"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements ConditionalStore backed by a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates objects.db in dataDir and runs migrations.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dsn := filepath.Join(dataDir, "objects.db") + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection serializes writers instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS objects (
			key          TEXT PRIMARY KEY NOT NULL,
			data         BLOB,
			size         INTEGER NOT NULL,
			etag         TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			updated_at   INTEGER NOT NULL
		);
	`)
	return err
}

func (s *SQLiteStore) List(ctx context.Context, opts services.ListOptions) (services.ListResult, error) {
	p := newPager(opts)
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, size, updated_at FROM objects WHERE key >= ? ORDER BY key", p.start())
	if err != nil {
		return services.ListResult{}, unavailable("listing objects", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			info    services.ObjectInfo
			updated int64
		)
		if err := rows.Scan(&info.Key, &info.Size, &updated); err != nil {
			return services.ListResult{}, unavailable("scanning object", err)
		}
		if !p.inRange(info.Key) {
			break
		}
		info.LastModified = time.Unix(0, updated).UTC()
		if !p.add(info) {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return services.ListResult{}, unavailable("listing objects", err)
	}
	return p.finish(), nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*services.Object, error) {
	obj := services.Object{Key: key}
	var updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT data, size, etag, content_type, updated_at FROM objects WHERE key = ?", key,
	).Scan(&obj.Data, &obj.Size, &obj.ETag, &obj.ContentType, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", services.ErrNotFound, key)
	}
	if err != nil {
		return nil, unavailable("getting object", err)
	}
	obj.LastModified = time.Unix(0, updated).UTC()
	return &obj, nil
}

func (s *SQLiteStore) Head(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM objects WHERE key = ?", key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("checking object", err)
	}
	return true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := validKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO objects (key, data, size, etag, content_type, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			data = excluded.data, size = excluded.size, etag = excluded.etag,
			content_type = excluded.content_type, updated_at = excluded.updated_at
	`, key, data, len(data), hashing.SHA256Hex(data), contentType, time.Now().UnixNano())
	if err != nil {
		return unavailable("putting object", err)
	}
	return nil
}

func (s *SQLiteStore) PutIfMatch(ctx context.Context, key string, data []byte, contentType, etag string) error {
	if err := validKey(key); err != nil {
		return err
	}
	var (
		result sql.Result
		err    error
		now    = time.Now().UnixNano()
		sum    = hashing.SHA256Hex(data)
	)
	if etag == "" {
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO objects (key, data, size, etag, content_type, updated_at) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`, key, data, len(data), sum, contentType, now)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE objects SET data = ?, size = ?, etag = ?, content_type = ?, updated_at = ?
			WHERE key = ? AND etag = ?
		`, data, len(data), sum, contentType, now, key, etag)
	}
	if err != nil {
		return unavailable("conditional put", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return unavailable("conditional put", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", services.ErrPreconditionFailed, key)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("deleting objects", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM objects WHERE key = ?")
	if err != nil {
		return unavailable("deleting objects", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.ExecContext(ctx, key); err != nil {
			return unavailable("deleting object", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable("deleting objects", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
