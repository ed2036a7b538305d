package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrETagMismatch = errors.New("store: etag mismatch")

var ErrInvalidRef = errors.New("store: invalid ref")

// Ref identifies one persisted save slot for one player profile.
type Ref struct {
	Profile string
	Slot    int
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty" yaml:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single save-slot reference.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

// Validator is implemented by snapshots that can check themselves before save.
type Validator interface {
	Validate() error
}

type Mutator[T any] func(*T) error

// Identifier returns the canonical key for r.
func (r Ref) Identifier() (string, error) {
	profile := strings.TrimSpace(r.Profile)
	if profile == "" {
		return "", fmt.Errorf("%w: profile is required", ErrInvalidRef)
	}
	if strings.ContainsAny(profile, `/\`) || profile == "." || profile == ".." {
		return "", fmt.Errorf("%w: profile %q contains path separators", ErrInvalidRef, r.Profile)
	}
	if r.Slot < 0 {
		return "", fmt.Errorf("%w: slot %d is negative", ErrInvalidRef, r.Slot)
	}
	return fmt.Sprintf("profile/%s/slot/%d", profile, r.Slot), nil
}

// String returns the identifier or a placeholder for invalid refs.
func (r Ref) String() string {
	id, err := r.Identifier()
	if err != nil {
		return fmt.Sprintf("profile/%q/slot/%d(invalid)", r.Profile, r.Slot)
	}
	return id
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
