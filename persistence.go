package gamestate

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-gamestate/internal/layering"
	"github.com/goliatone/go-gamestate/pkg/activity"
	"github.com/goliatone/go-gamestate/pkg/store"
)

// Load replaces the session aggregate with the snapshot stored under ref and
// rehydrates the ledgers. A missing slot loads Default() and reports false.
// On any failure, cancellation included, the session is left untouched and
// the error is a *PersistenceError matching ErrIOFailure.
func (s *Session) Load(ctx context.Context, slots store.Store[PersistentState], ref store.Ref) (bool, error) {
	if slots == nil {
		return false, invalidArgument("save store is required")
	}
	if err := ctx.Err(); err != nil {
		return false, wrapPersistenceError("load", ref.String(), err)
	}

	snapshot, meta, ok, err := slots.Load(ctx, ref)
	if err != nil {
		s.logger.Error("save load failed", Fields{"ref": ref.String(), "error": err.Error()})
		return false, wrapPersistenceError("load", ref.String(), err)
	}
	if err := ctx.Err(); err != nil {
		return false, wrapPersistenceError("load", ref.String(), err)
	}
	if !ok {
		snapshot = Default()
		meta = store.Meta{}
	}

	loaded := snapshot.Clone()
	s.state = &loaded
	s.meta = meta
	s.hydrate()

	s.logger.Info("save loaded", Fields{
		"ref":     ref.String(),
		"found":   ok,
		"items":   loaded.Inventory.Len(),
		"cleared": loaded.History.Len(),
	})
	if ok {
		s.emit(ctx, activity.BuildSaveLoadedEvent(s.eventInput(func(in *activity.GameEventInput) {
			in.Ref = ref.String()
			in.SnapshotID = meta.SnapshotID
			in.ETag = meta.ETag
		})))
	}
	return ok, nil
}

// Save validates a deep copy of the aggregate and hands it to slots. The
// in-memory aggregate only changes (UpdatedAt) once the store reports
// success.
func (s *Session) Save(ctx context.Context, slots store.Store[PersistentState], ref store.Ref) (store.Meta, error) {
	if slots == nil {
		return store.Meta{}, invalidArgument("save store is required")
	}
	if err := ctx.Err(); err != nil {
		return store.Meta{}, wrapPersistenceError("save", ref.String(), err)
	}

	snapshot := s.state.Clone()
	snapshot.UpdatedAt = s.now().UTC()
	if err := snapshot.Validate(); err != nil {
		return store.Meta{}, err
	}

	meta, err := slots.Save(ctx, ref, snapshot, store.Meta{SnapshotID: s.meta.SnapshotID})
	if err != nil {
		s.logger.Error("save failed", Fields{"ref": ref.String(), "error": err.Error()})
		return store.Meta{}, wrapPersistenceError("save", ref.String(), err)
	}

	s.state.UpdatedAt = snapshot.UpdatedAt
	s.meta = meta
	s.logger.Info("save completed", Fields{"ref": ref.String(), "etag": meta.ETag})
	s.emit(ctx, activity.BuildSaveCompletedEvent(s.eventInput(func(in *activity.GameEventInput) {
		in.Ref = ref.String()
		in.SnapshotID = meta.SnapshotID
		in.ETag = meta.ETag
	})))
	return meta, nil
}

// MigrateSave upgrades payloads written before SchemaVersion. Register it on
// file and SQLite stores with store.WithMigrations.
//
// Version 0 saves stored the cleared events under "cleared_events" and the
// inventory as a bare item list. Fields they lack are filled from Default().
func MigrateSave(version int, payload map[string]any) (map[string]any, error) {
	if version >= SchemaVersion {
		return payload, nil
	}
	if cleared, ok := payload["cleared_events"]; ok {
		if _, exists := payload["event_history"]; !exists {
			payload["event_history"] = cleared
		}
		delete(payload, "cleared_events")
	}
	if items, ok := payload["inventory"].([]any); ok {
		payload["inventory"] = map[string]any{"items": items}
	}
	defaults, err := defaultPayload()
	if err != nil {
		return nil, err
	}
	payload = layering.FillPayload(payload, defaults)
	payload[store.VersionKey] = SchemaVersion
	return payload, nil
}

func defaultPayload() (map[string]any, error) {
	raw, err := json.Marshal(Default())
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	delete(out, "updated_at")
	return out, nil
}
