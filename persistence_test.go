package gamestate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/goliatone/go-gamestate/pkg/activity"
	"github.com/goliatone/go-gamestate/pkg/store"
)

var testRef = store.Ref{Profile: "ada", Slot: 0}

type failingStore struct {
	err error
}

func (f failingStore) Load(context.Context, store.Ref) (PersistentState, store.Meta, bool, error) {
	return PersistentState{}, store.Meta{}, false, f.err
}

func (f failingStore) Save(context.Context, store.Ref, PersistentState, store.Meta) (store.Meta, error) {
	return store.Meta{}, f.err
}

func TestSessionLoadAbsentSlotUsesDefault(t *testing.T) {
	s, capture := newTestSession(t, New("Ada"))
	s.AddScore(50)

	found, err := s.Load(context.Background(), store.NewMemoryStore[PersistentState](), testRef)
	if err != nil || found {
		t.Fatalf("expected absent slot, got %v %v", found, err)
	}
	if !s.Snapshot().Equal(Default()) {
		t.Fatalf("expected default state, got %+v", s.Snapshot())
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no save.loaded for an absent slot")
	}
}

func TestSessionSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	slots := store.NewMemoryStore[PersistentState]()

	s, capture := newTestSession(t, New("Ada"))
	if _, err := s.PickUp(ctx, InventoryItem{Name: "lamp", Quantity: 1, UniqueID: "lamp-1"}); err != nil {
		t.Fatalf("pick up: %v", err)
	}
	s.CompleteEvent(ctx, "intro")
	s.AddScore(75)

	if _, err := s.Save(ctx, slots, testRef); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !s.Snapshot().UpdatedAt.Equal(sessionClock()) {
		t.Fatalf("expected UpdatedAt stamped from the session clock")
	}
	saved := s.Snapshot()

	restored, restoredCapture := newTestSession(t, nil)
	cond := NewMultipleEventCondition(restored.History(), "intro")
	loads := 0
	cond.OnConditionChanged(func() { loads++ })

	found, err := restored.Load(ctx, slots, testRef)
	if err != nil || !found {
		t.Fatalf("load: %v %v", found, err)
	}
	if !restored.Snapshot().Equal(saved) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", saved, restored.Snapshot())
	}
	if !restored.HasItem("lamp") || !cond.IsSatisfied() || loads != 1 {
		t.Fatalf("expected ledgers rehydrated with one load notification, got %d", loads)
	}
	if !slices.Contains(capture.Verbs(), activity.VerbSaveCompleted) {
		t.Fatalf("expected save.completed, got %v", capture.Verbs())
	}
	if !slices.Equal(restoredCapture.Verbs(), []string{activity.VerbSaveLoaded}) {
		t.Fatalf("expected save.loaded, got %v", restoredCapture.Verbs())
	}

	restored.AddScore(1)
	again, _, _, _ := slots.Load(ctx, testRef)
	if again.Score != saved.Score {
		t.Fatalf("expected loaded state detached from the store")
	}
}

func TestSessionFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, codec := range []store.Codec{store.JSONCodec(), store.YAMLCodec()} {
		t.Run(codec.Name(), func(t *testing.T) {
			slots, err := store.NewFileStore[PersistentState](t.TempDir(),
				store.WithCodec(codec),
				store.WithMigrations(MigrateSave),
				store.WithClock(sessionClock),
			)
			if err != nil {
				t.Fatalf("new store: %v", err)
			}
			s, _ := newTestSession(t, New("Ada"))
			if _, err := s.PickUp(ctx, InventoryItem{Name: "arrow", Quantity: 4, Stackable: true}); err != nil {
				t.Fatalf("pick up: %v", err)
			}
			s.CompleteEvent(ctx, "intro")
			s.state.ReachCheckpoint("gate", Vector3{X: 2})
			meta, err := s.Save(ctx, slots, testRef)
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if meta.ETag == "" || meta.SnapshotID == "" {
				t.Fatalf("expected stamped meta, got %+v", meta)
			}

			restored, _ := newTestSession(t, nil)
			if found, err := restored.Load(ctx, slots, testRef); err != nil || !found {
				t.Fatalf("load: %v %v", found, err)
			}
			if !restored.Snapshot().Equal(s.Snapshot()) {
				t.Fatalf("round trip mismatch:\n%+v\n%+v", s.Snapshot(), restored.Snapshot())
			}
			if restored.Meta().SnapshotID != meta.SnapshotID {
				t.Fatalf("expected meta restored, got %+v", restored.Meta())
			}
		})
	}
}

func TestSessionLoadMigratesLegacySave(t *testing.T) {
	dir := t.TempDir()
	slots, err := store.NewFileStore[PersistentState](dir, store.WithMigrations(MigrateSave))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	path, err := slots.Path(testRef)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	legacy := `{
  "score": 30,
  "player_name": "Ada",
  "inventory": [{"item_name": "lamp", "quantity": 1, "unique_id": "lamp-1"}],
  "cleared_events": ["intro", "bridge"]
}`
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(legacy), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, _ := newTestSession(t, nil)
	if found, err := s.Load(context.Background(), slots, testRef); err != nil || !found {
		t.Fatalf("load: %v %v", found, err)
	}
	snapshot := s.Snapshot()
	if snapshot.Version != SchemaVersion || snapshot.Score != 30 {
		t.Fatalf("unexpected migrated state %+v", snapshot)
	}
	if !s.HasItem("lamp") || !s.IsEventCleared("bridge") {
		t.Fatalf("expected migrated inventory and history in the ledgers")
	}
	if snapshot.Position.Rotation != IdentityRotation() {
		t.Fatalf("expected missing position filled from defaults, got %+v", snapshot.Position.Rotation)
	}
}

func TestMigrateSaveCurrentVersionUntouched(t *testing.T) {
	payload := map[string]any{"version": SchemaVersion, "cleared_events": []any{"x"}}
	out, err := MigrateSave(SchemaVersion, payload)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, ok := out["cleared_events"]; !ok {
		t.Fatalf("expected current payloads left alone")
	}
}

func TestSessionLoadCancelledLeavesStateUntouched(t *testing.T) {
	slots := store.NewMemoryStore[PersistentState]()
	other := New("Bea")
	if _, err := slots.Save(context.Background(), testRef, *other, store.Meta{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s, capture := newTestSession(t, New("Ada"))
	if _, err := s.PickUp(context.Background(), InventoryItem{Name: "lamp", Quantity: 1}); err != nil {
		t.Fatalf("pick up: %v", err)
	}
	before := s.Snapshot()
	capture.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	found, err := s.Load(ctx, slots, testRef)
	if found || !errors.Is(err, ErrIOFailure) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled load to fail with ErrIOFailure, got %v %v", found, err)
	}
	if !s.Snapshot().Equal(before) || !s.HasItem("lamp") {
		t.Fatalf("expected state untouched after cancelled load")
	}

	if _, err := s.Save(ctx, slots, testRef); !errors.Is(err, ErrIOFailure) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled save to fail with ErrIOFailure, got %v", err)
	}
	stored, _, _, _ := slots.Load(context.Background(), testRef)
	if stored.PlayerName != "Bea" {
		t.Fatalf("expected cancelled save to leave the slot untouched")
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no activity for cancelled persistence, got %v", capture.Verbs())
	}
}

func TestSessionPersistenceFailure(t *testing.T) {
	boom := errors.New("disk full")
	s, _ := newTestSession(t, New("Ada"))
	before := s.Snapshot()

	_, err := s.Save(context.Background(), failingStore{err: boom}, testRef)
	var persistErr *PersistenceError
	if !errors.As(err, &persistErr) || persistErr.Op != "save" || !errors.Is(err, boom) || !errors.Is(err, ErrIOFailure) {
		t.Fatalf("expected PersistenceError wrapping the store failure, got %v", err)
	}
	if !s.Snapshot().UpdatedAt.IsZero() {
		t.Fatalf("expected failed save not to stamp UpdatedAt")
	}

	_, err = s.Load(context.Background(), failingStore{err: boom}, testRef)
	if !errors.As(err, &persistErr) || persistErr.Op != "load" || persistErr.Ref != testRef.String() {
		t.Fatalf("expected load PersistenceError, got %v", err)
	}
	if !s.Snapshot().Equal(before) {
		t.Fatalf("expected failed load to leave state untouched")
	}
}

func TestSessionSaveRejectsInvalidState(t *testing.T) {
	s, _ := newTestSession(t, New("Ada"))
	s.state.Inventory.Items = append(s.state.Inventory.Items, InventoryItem{Name: "ghost", Quantity: -1, UniqueID: "g"})
	slots := store.NewMemoryStore[PersistentState]()
	if _, err := s.Save(context.Background(), slots, testRef); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if slots.Len() != 0 {
		t.Fatalf("expected nothing written")
	}
}

func TestSessionNilStore(t *testing.T) {
	s := NewSession(nil)
	if _, err := s.Load(context.Background(), nil, testRef); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if _, err := s.Save(context.Background(), nil, testRef); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
