package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-gamestate/internal/hydrate"
)

// FileStore keeps one file per save slot under a private directory.
// Writes go to a temp file in the same directory and are renamed into place.
type FileStore[T any] struct {
	dir     string
	codec   Codec
	decoder *hydrate.Decoder[T]
	now     func() time.Time
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*fileStoreConfig)

type fileStoreConfig struct {
	codec      Codec
	migrations []Migration
	now        func() time.Time
}

// WithCodec selects the on-disk encoding. JSON is the default.
func WithCodec(codec Codec) FileStoreOption {
	return func(cfg *fileStoreConfig) {
		if codec != nil {
			cfg.codec = codec
		}
	}
}

// WithMigrations registers payload migrations applied, in order, on load.
func WithMigrations(migrations ...Migration) FileStoreOption {
	return func(cfg *fileStoreConfig) {
		cfg.migrations = append(cfg.migrations, migrations...)
	}
}

// WithClock overrides the time source used to stamp Meta.UpdatedAt.
func WithClock(now func() time.Time) FileStoreOption {
	return func(cfg *fileStoreConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

func applyFileStoreOptions(opts []FileStoreOption) fileStoreConfig {
	cfg := fileStoreConfig{
		codec: JSONCodec(),
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// NewFileStore creates dir (0700) when missing and returns a store rooted there.
func NewFileStore[T any](dir string, opts ...FileStoreOption) (*FileStore[T], error) {
	if dir == "" {
		return nil, fmt.Errorf("store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create directory %q: %w", dir, err)
	}
	cfg := applyFileStoreOptions(opts)
	return &FileStore[T]{
		dir:     dir,
		codec:   cfg.codec,
		decoder: newDecoder[T](cfg.migrations),
		now:     cfg.now,
	}, nil
}

// Path returns the file backing ref.
func (s *FileStore[T]) Path(ref Ref) (string, error) {
	if _, err := ref.Identifier(); err != nil {
		return "", err
	}
	name := fmt.Sprintf("slot-%d%s", ref.Slot, s.codec.Extension())
	return filepath.Join(s.dir, ref.Profile, name), nil
}

func (s *FileStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, Meta{}, false, err
	}
	id, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}
	path, err := s.Path(ref)
	if err != nil {
		return zero, Meta{}, false, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return zero, Meta{}, false, nil
	}
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("store: read %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return zero, Meta{}, false, err
	}

	snapshot, meta, err := decodePayload(s.decoder, s.codec, id, data)
	if err != nil {
		return zero, Meta{}, false, err
	}
	return snapshot, meta, true, nil
}

func (s *FileStore[T]) Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	id, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	path, err := s.Path(ref)
	if err != nil {
		return Meta{}, err
	}

	body, err := s.codec.Marshal(snapshot)
	if err != nil {
		return Meta{}, fmt.Errorf("store: encode %s: %w", id, err)
	}
	saved := stampMeta(meta, body, s.now())

	data, err := s.codec.Marshal(envelope{Meta: saved, Snapshot: snapshot})
	if err != nil {
		return Meta{}, fmt.Errorf("store: encode %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return Meta{}, fmt.Errorf("store: write %s: %w", id, err)
	}
	return cloneMeta(saved), nil
}

// Delete removes the file for ref. Missing files are not an error.
func (s *FileStore[T]) Delete(ctx context.Context, ref Ref) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: delete %s: %w", ref, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".save-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

// stampMeta fills the storage-owned fields: a snapshot id when the caller
// gave none, a content etag and the write time.
func stampMeta(meta Meta, body []byte, now time.Time) Meta {
	out := cloneMeta(meta)
	if out.SnapshotID == "" {
		out.SnapshotID = uuid.NewString()
	}
	out.ETag = contentETag(body)
	out.UpdatedAt = now.UTC()
	return out
}

func contentETag(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:8])
}
