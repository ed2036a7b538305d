package store

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps save slots in process memory, grouped by profile. It
// stores meta exactly as given, so callers control etags. Useful for tests,
// examples and sessions that never touch disk.
type MemoryStore[T any] struct {
	mu       sync.RWMutex
	profiles map[string]map[int]memorySlot[T]
}

type memorySlot[T any] struct {
	snapshot T
	meta     Meta
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{profiles: make(map[string]map[int]memorySlot[T])}
}

func (s *MemoryStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	profile, err := checkRef(ctx, ref)
	if err != nil {
		return zero, Meta{}, false, err
	}
	s.mu.RLock()
	slot, ok := s.profiles[profile][ref.Slot]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return slot.snapshot, cloneMeta(slot.meta), true, nil
}

func (s *MemoryStore[T]) Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	profile, err := checkRef(ctx, ref)
	if err != nil {
		return Meta{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	slots := s.profiles[profile]
	if slots == nil {
		slots = make(map[int]memorySlot[T])
		s.profiles[profile] = slots
	}
	slots[ref.Slot] = memorySlot[T]{snapshot: snapshot, meta: cloneMeta(meta)}
	return cloneMeta(meta), nil
}

// Delete drops the slot for ref. Missing slots are not an error.
func (s *MemoryStore[T]) Delete(ctx context.Context, ref Ref) error {
	profile, err := checkRef(ctx, ref)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles[profile], ref.Slot)
	if len(s.profiles[profile]) == 0 {
		delete(s.profiles, profile)
	}
	return nil
}

// Slots lists the occupied slot numbers for profile in ascending order.
func (s *MemoryStore[T]) Slots(ctx context.Context, profile string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	slots := s.profiles[strings.TrimSpace(profile)]
	if len(slots) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(slots))
	for slot := range slots {
		out = append(out, slot)
	}
	slices.Sort(out)
	return out, nil
}

// Len returns the number of occupied slots across all profiles.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, slots := range s.profiles {
		n += len(slots)
	}
	return n
}

func checkRef(ctx context.Context, ref Ref) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := ref.Identifier(); err != nil {
		return "", err
	}
	return strings.TrimSpace(ref.Profile), nil
}
