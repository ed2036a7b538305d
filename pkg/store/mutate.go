package store

import (
	"context"
	"fmt"
)

// LoadOrDefault loads ref, falling back to defaults when nothing is stored.
func LoadOrDefault[T any](ctx context.Context, s Store[T], ref Ref, defaults T) (T, Meta, error) {
	if s == nil {
		return defaults, Meta{}, fmt.Errorf("store: store is required")
	}
	snapshot, meta, ok, err := s.Load(ctx, ref)
	if err != nil {
		return defaults, Meta{}, fmt.Errorf("store: load %s: %w", ref, err)
	}
	if !ok {
		return defaults, Meta{}, nil
	}
	return snapshot, meta, nil
}

// Mutate loads one snapshot (or defaults), applies fn, validates, then saves.
// A non-empty meta.ETag must match the stored ETag.
func Mutate[T any](ctx context.Context, s Store[T], ref Ref, defaults T, meta Meta, fn Mutator[T]) (T, Meta, error) {
	var zero T
	if s == nil {
		return zero, Meta{}, fmt.Errorf("store: store is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return zero, Meta{}, err
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("store: mutator is required")
	}

	snapshot, loadedMeta, ok, err := s.Load(ctx, ref)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("store: load %s: %w", ref, err)
	}
	if !ok {
		snapshot = defaults
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return zero, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&snapshot); err != nil {
		return zero, loadedMeta, err
	}

	if err := validate(&snapshot); err != nil {
		return zero, loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	savedMeta, err := s.Save(ctx, ref, snapshot, saveMeta)
	if err != nil {
		return zero, loadedMeta, fmt.Errorf("store: save %s: %w", ref, err)
	}
	return snapshot, savedMeta, nil
}

func validate[T any](snapshot *T) error {
	if v, ok := any(snapshot).(Validator); ok {
		return v.Validate()
	}
	if v, ok := any(*snapshot).(Validator); ok {
		return v.Validate()
	}
	return nil
}
