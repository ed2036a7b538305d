package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-gamestate/pkg/store"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func TestFileStoreRoundTrip(t *testing.T) {
	for _, codec := range []store.Codec{store.JSONCodec(), store.YAMLCodec()} {
		codec := codec
		t.Run(codec.Name(), func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			s, err := store.NewFileStore[saveSlot](dir, store.WithCodec(codec), store.WithClock(fixedClock))
			if err != nil {
				t.Fatalf("new store: %v", err)
			}
			ref := store.Ref{Profile: "alice", Slot: 1}

			if _, _, ok, err := s.Load(ctx, ref); err != nil || ok {
				t.Fatalf("expected absent slot, got ok=%v err=%v", ok, err)
			}

			want := saveSlot{Version: 1, Name: "alice", Score: 42, Items: []string{"sword", "lamp"}}
			saved, err := s.Save(ctx, ref, want, store.Meta{Extra: map[string]string{"device": "deck"}})
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if saved.SnapshotID == "" || saved.ETag == "" {
				t.Fatalf("expected stamped meta, got %+v", saved)
			}
			if !saved.UpdatedAt.Equal(fixedClock()) {
				t.Fatalf("expected updated_at %v, got %v", fixedClock(), saved.UpdatedAt)
			}

			path, err := s.Path(ref)
			if err != nil {
				t.Fatalf("path: %v", err)
			}
			if filepath.Base(path) != "slot-1"+codec.Extension() {
				t.Fatalf("unexpected file name %q", path)
			}

			got, meta, ok, err := s.Load(ctx, ref)
			if err != nil || !ok {
				t.Fatalf("load: ok=%v err=%v", ok, err)
			}
			if got.Name != want.Name || got.Score != want.Score || strings.Join(got.Items, ",") != "sword,lamp" {
				t.Fatalf("expected %+v, got %+v", want, got)
			}
			if meta.ETag != saved.ETag || meta.SnapshotID != saved.SnapshotID {
				t.Fatalf("expected meta %+v, got %+v", saved, meta)
			}
			if meta.Extra["device"] != "deck" {
				t.Fatalf("expected extra meta to round-trip, got %+v", meta.Extra)
			}
			if !meta.UpdatedAt.Equal(fixedClock()) {
				t.Fatalf("expected updated_at to round-trip, got %v", meta.UpdatedAt)
			}
		})
	}
}

func TestFileStoreETagTracksContent(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewFileStore[saveSlot](t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref := store.Ref{Profile: "alice", Slot: 0}

	first, err := s.Save(ctx, ref, saveSlot{Name: "alice", Score: 1}, store.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	same, err := s.Save(ctx, ref, saveSlot{Name: "alice", Score: 1}, store.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	changed, err := s.Save(ctx, ref, saveSlot{Name: "alice", Score: 2}, store.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first.ETag != same.ETag {
		t.Fatalf("expected identical content to share an etag")
	}
	if first.ETag == changed.ETag {
		t.Fatalf("expected changed content to change the etag")
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.NewFileStore[saveSlot](dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for slot := 0; slot < 3; slot++ {
		if _, err := s.Save(ctx, store.Ref{Profile: "alice", Slot: slot}, saveSlot{Score: slot}, store.Meta{}); err != nil {
			t.Fatalf("save slot %d: %v", slot, err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(dir, "alice"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 slot files, got %d", len(entries))
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("unexpected temp file %q", entry.Name())
		}
	}
}

func TestFileStoreCancelledContextWritesNothing(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewFileStore[saveSlot](dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref := store.Ref{Profile: "alice", Slot: 0}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Save(ctx, ref, saveSlot{Name: "alice"}, store.Meta{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	path, _ := s.Path(ref)
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no file after cancelled save, got %v", err)
	}
	if _, _, _, err := s.Load(ctx, ref); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled on load, got %v", err)
	}
}

func TestFileStoreMigratesBareLegacyPayload(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	var seen []int
	migrate := func(version int, payload map[string]any) (map[string]any, error) {
		seen = append(seen, version)
		if version > 0 {
			return payload, nil
		}
		if raw, ok := payload["items"].(string); ok {
			var items []any
			for _, item := range strings.Split(raw, ",") {
				items = append(items, strings.TrimSpace(item))
			}
			payload["items"] = items
		}
		payload["version"] = 1
		return payload, nil
	}
	s, err := store.NewFileStore[saveSlot](dir, store.WithMigrations(migrate))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref := store.Ref{Profile: "legacy", Slot: 0}
	path, _ := s.Path(ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	legacy := `{"name": "old timer", "score": 9, "items": "rope, lamp"}`
	if err := os.WriteFile(path, []byte(legacy), 0o600); err != nil {
		t.Fatalf("write legacy: %v", err)
	}

	got, meta, ok, err := s.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Version != 1 || got.Name != "old timer" || strings.Join(got.Items, "|") != "rope|lamp" {
		t.Fatalf("unexpected migrated snapshot %+v", got)
	}
	if meta.ETag != "" {
		t.Fatalf("expected empty meta for bare payload, got %+v", meta)
	}
	if fmt.Sprint(seen) != "[0]" {
		t.Fatalf("expected migration to see version 0, got %v", seen)
	}
}

func TestFileStoreMigrationErrorSurfaces(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("unsupported save version")
	s, err := store.NewFileStore[saveSlot](t.TempDir(), store.WithMigrations(func(int, map[string]any) (map[string]any, error) {
		return nil, boom
	}))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref := store.Ref{Profile: "alice", Slot: 0}
	if _, err := s.Save(ctx, ref, saveSlot{Name: "alice"}, store.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, _, _, err := s.Load(ctx, ref); !errors.Is(err, boom) {
		t.Fatalf("expected migration error, got %v", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewFileStore[saveSlot](t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref := store.Ref{Profile: "alice", Slot: 0}
	path, _ := s.Path(ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, ok, err := s.Load(ctx, ref)
	if err == nil || ok {
		t.Fatalf("expected decode error, got ok=%v err=%v", ok, err)
	}
	if !strings.Contains(err.Error(), "profile/alice/slot/0") {
		t.Fatalf("expected ref in error, got %v", err)
	}
}

func TestFileStoreDelete(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewFileStore[saveSlot](t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ref := store.Ref{Profile: "alice", Slot: 0}
	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, err := s.Save(ctx, ref, saveSlot{Name: "alice"}, store.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, ok, err := s.Load(ctx, ref); err != nil || ok {
		t.Fatalf("expected slot gone, got ok=%v err=%v", ok, err)
	}
}

func TestCodecByName(t *testing.T) {
	cases := map[string]string{"": "json", "json": "json", "YAML": "yaml", "yml": "yaml"}
	for input, want := range cases {
		codec, err := store.CodecByName(input)
		if err != nil {
			t.Fatalf("codec %q: %v", input, err)
		}
		if codec.Name() != want {
			t.Fatalf("codec %q: expected %s, got %s", input, want, codec.Name())
		}
	}
	if _, err := store.CodecByName("toml"); err == nil {
		t.Fatalf("expected error for unsupported codec")
	}
}
