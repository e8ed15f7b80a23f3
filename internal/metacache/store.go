package metacache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mediatree/internal/logging"
	"mediatree/internal/media"
	"mediatree/internal/services"
)

// schemaVersion is bumped whenever the stored layout changes. A mismatched
// database is dropped and recreated since its contents are re-derivable.
const schemaVersion = 2

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS metadata (
    path        TEXT PRIMARY KEY,
    mtime_ns    INTEGER NOT NULL,
    payload     TEXT NOT NULL,
    probed_at   TEXT NOT NULL
);
`

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Entry is one cached row.
type Entry struct {
	Path     string
	ModTime  time.Time
	ProbedAt time.Time
	Metadata *media.Metadata
}

// Store is the SQLite-backed metadata cache.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens or creates the cache database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "metacache", "open", "empty database path", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, logger: logging.NewComponentLogger(logger, "metacache")}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 1 {
		var version int
		err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
		if err == nil && version == schemaVersion {
			return nil
		}
		s.logger.Info("recreating metadata cache",
			logging.Int("found_version", version),
			logging.Int("expected_version", schemaVersion),
			logging.String(logging.FieldEventType, "cache_schema_reset"),
		)
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS metadata; DROP TABLE IF EXISTS schema_version;"); err != nil {
			return fmt.Errorf("drop stale schema: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Lookup returns cached metadata for path when the stored mtime matches.
// Decode failures drop the row and report a miss.
func (s *Store) Lookup(ctx context.Context, path string, mtime time.Time) (*media.Metadata, bool) {
	ctx = ensureContext(ctx)
	var (
		storedNS int64
		payload  string
	)
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			"SELECT mtime_ns, payload FROM metadata WHERE path = ?", path,
		).Scan(&storedNS, &payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.Debug("metadata cache read failed", logging.Path(path), logging.Error(err))
		return nil, false
	}
	if storedNS != mtime.UnixNano() {
		return nil, false
	}
	var md media.Metadata
	if err := json.Unmarshal([]byte(payload), &md); err != nil {
		logging.WarnWithContext(s.logger, "discarding unreadable cache row", "cache_row_corrupt",
			logging.Path(path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file will be probed again"),
			logging.String(logging.FieldErrorHint, "run 'mediatree cache clear' if this repeats"),
		)
		s.delete(ctx, path)
		return nil, false
	}
	return &md, true
}

// Store records md for path at mtime, replacing any earlier row.
func (s *Store) Store(ctx context.Context, path string, mtime time.Time, md *media.Metadata) error {
	if md == nil {
		return services.Wrap(services.ErrCache, "metacache", "store", "nil metadata", nil)
	}
	ctx = ensureContext(ctx)
	payload, err := json.Marshal(md)
	if err != nil {
		return services.Wrap(services.ErrCache, "metacache", "store", "encode metadata", err)
	}
	err = retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO metadata (path, mtime_ns, payload, probed_at) VALUES (?, ?, ?, ?)
             ON CONFLICT(path) DO UPDATE SET mtime_ns = excluded.mtime_ns, payload = excluded.payload, probed_at = excluded.probed_at`,
			path, mtime.UnixNano(), string(payload), time.Now().UTC().Format(time.RFC3339Nano),
		)
		return execErr
	})
	if err != nil {
		return services.Wrap(services.ErrCache, "metacache", "store", path, err)
	}
	return nil
}

// List returns every cached row ordered by path. Rows that fail to decode
// are returned with nil Metadata.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT path, mtime_ns, payload, probed_at FROM metadata ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			path, payload, probed string
			mtimeNS               int64
		)
		if err := rows.Scan(&path, &mtimeNS, &payload, &probed); err != nil {
			return nil, fmt.Errorf("scan metadata row: %w", err)
		}
		entry := Entry{Path: path, ModTime: time.Unix(0, mtimeNS)}
		if ts, err := time.Parse(time.RFC3339Nano, probed); err == nil {
			entry.ProbedAt = ts
		}
		var md media.Metadata
		if json.Unmarshal([]byte(payload), &md) == nil {
			entry.Metadata = &md
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Clear removes every row and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, "DELETE FROM metadata")
		if execErr != nil {
			return execErr
		}
		removed, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("clear metadata: %w", err)
	}
	return int(removed), nil
}

// Prune deletes rows whose file is gone or whose mtime moved on.
func (s *Store) Prune(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		info, statErr := os.Stat(entry.Path)
		if statErr == nil && info.ModTime().UnixNano() == entry.ModTime.UnixNano() && entry.Metadata != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if s.delete(ctx, entry.Path) {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) delete(ctx context.Context, path string) bool {
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, "DELETE FROM metadata WHERE path = ?", path)
		return execErr
	})
	if err != nil {
		s.logger.Debug("metadata cache delete failed", logging.Path(path), logging.Error(err))
		return false
	}
	return true
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
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
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
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
