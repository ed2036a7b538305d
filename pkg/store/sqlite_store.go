package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-gamestate/internal/hydrate"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS save_slots (
	ref_id      TEXT PRIMARY KEY,
	profile     TEXT NOT NULL,
	slot        INTEGER NOT NULL,
	format      TEXT NOT NULL,
	payload     BLOB NOT NULL,
	snapshot_id TEXT NOT NULL DEFAULT '',
	etag        TEXT NOT NULL DEFAULT '',
	extra_json  TEXT NOT NULL DEFAULT '',
	updated_at  INTEGER NOT NULL DEFAULT 0
)`

// SQLiteStore keeps save slots in a single SQLite table using the pure-Go
// modernc.org/sqlite driver.
type SQLiteStore[T any] struct {
	sqlDB   *sql.DB
	codec   Codec
	decoder *hydrate.Decoder[T]
	now     func() time.Time
}

// OpenSQLite opens (creating when needed) the database at path and ensures
// the save_slots table exists.
func OpenSQLite[T any](path string, opts ...FileStoreOption) (*SQLiteStore[T], error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store: sqlite path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("store: ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	cfg := applyFileStoreOptions(opts)
	return &SQLiteStore[T]{
		sqlDB:   sqlDB,
		codec:   cfg.codec,
		decoder: newDecoder[T](cfg.migrations),
		now:     cfg.now,
	}, nil
}

// Close releases the underlying SQLite connection.
func (s *SQLiteStore[T]) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	if s == nil || s.sqlDB == nil {
		return zero, Meta{}, false, fmt.Errorf("store: sqlite store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return zero, Meta{}, false, err
	}
	id, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT format, payload, snapshot_id, etag, extra_json, updated_at
		 FROM save_slots
		 WHERE ref_id = ?`,
		id,
	)

	var format string
	var payload []byte
	var extraJSON string
	var updatedAt int64
	var meta Meta
	if err := row.Scan(&format, &payload, &meta.SnapshotID, &meta.ETag, &extraJSON, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, Meta{}, false, nil
		}
		return zero, Meta{}, false, fmt.Errorf("store: load %s: %w", id, err)
	}

	codec, err := CodecByName(format)
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("store: load %s: %w", id, err)
	}
	snapshot, err := decodeSnapshot(s.decoder, codec, id, payload)
	if err != nil {
		return zero, Meta{}, false, err
	}
	if extraJSON != "" {
		if err := json.Unmarshal([]byte(extraJSON), &meta.Extra); err != nil {
			return zero, Meta{}, false, fmt.Errorf("store: load %s extra: %w", id, err)
		}
	}
	meta.UpdatedAt = unixMillisToTime(updatedAt)
	return snapshot, meta, true, nil
}

func (s *SQLiteStore[T]) Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	if s == nil || s.sqlDB == nil {
		return Meta{}, fmt.Errorf("store: sqlite store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	id, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	payload, err := s.codec.Marshal(snapshot)
	if err != nil {
		return Meta{}, fmt.Errorf("store: encode %s: %w", id, err)
	}
	saved := stampMeta(meta, payload, s.now())
	extraJSON := ""
	if len(saved.Extra) > 0 {
		raw, err := json.Marshal(saved.Extra)
		if err != nil {
			return Meta{}, fmt.Errorf("store: encode %s extra: %w", id, err)
		}
		extraJSON = string(raw)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO save_slots (
		    ref_id, profile, slot, format, payload, snapshot_id, etag, extra_json, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(ref_id) DO UPDATE SET
		    format = excluded.format,
		    payload = excluded.payload,
		    snapshot_id = excluded.snapshot_id,
		    etag = excluded.etag,
		    extra_json = excluded.extra_json,
		    updated_at = excluded.updated_at`,
		id,
		strings.TrimSpace(ref.Profile),
		ref.Slot,
		s.codec.Name(),
		payload,
		saved.SnapshotID,
		saved.ETag,
		extraJSON,
		timeToUnixMillis(saved.UpdatedAt),
	)
	if err != nil {
		return Meta{}, fmt.Errorf("store: save %s: %w", id, err)
	}
	return cloneMeta(saved), nil
}

// Slots lists the stored slot numbers for profile in ascending order.
func (s *SQLiteStore[T]) Slots(ctx context.Context, profile string) ([]int, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("store: sqlite store is not configured")
	}
	profile = strings.TrimSpace(profile)
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT slot FROM save_slots WHERE profile = ? ORDER BY slot`, profile)
	if err != nil {
		return nil, fmt.Errorf("store: list slots for %q: %w", profile, err)
	}
	defer rows.Close()

	var slots []int
	for rows.Next() {
		var slot int
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("store: list slots for %q: %w", profile, err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list slots for %q: %w", profile, err)
	}
	return slots, nil
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}
