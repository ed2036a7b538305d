// Package store defines persistence-facing contracts for loading and saving
// one save-slot snapshot per reference, plus the stores that implement them.
//
// Responsibilities:
//   - Store[T] only loads/saves a single snapshot for a single Ref.
//   - LoadOrDefault and Mutate orchestrate load, validate and save on top of
//     any Store without knowing what T is.
//   - Codecs translate snapshots to bytes; FileStore and SQLiteStore pick one
//     per instance.
//
// Data flow:
//
//	bytes -> Codec -> map payload -> migrations (internal/hydrate) -> T
//
// Deterministic keys:
//
//	Ref.Identifier() provides the canonical storage key
//	`profile/<profile>/slot/<n>`. FileStore maps it onto
//	`<dir>/<profile>/slot-<n>.<ext>` and SQLiteStore uses it as primary key.
//
// Absence is not an error: Load reports ok=false and callers substitute
// their own defaults.
package store
