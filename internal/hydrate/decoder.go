// Package hydrate turns raw save payloads into typed snapshots. Payloads are
// generic maps so migrations can reshape old saves before the typed decode.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Context identifies the payload being decoded. Version is re-read from
// the payload after every pre-hook when the decoder tracks a version key.
type Context struct {
	Ref     string
	Format  string
	Version int
}

// PreHook reshapes the payload before decoding. Returning a nil map keeps
// the current payload.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or validates the decoded snapshot.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the JSON decode step.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder runs pre-hooks, decodes and runs post-hooks.
type Decoder[T any] struct {
	preHooks   []PreHook
	postHooks  []PostHook[T]
	versionKey string
	strict     bool
	custom     CustomDecoder[T]
}

// WithPreHook appends a payload hook; hooks run in registration order.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.preHooks = append(d.preHooks, hook)
		}
	}
}

// WithPostHook appends a snapshot hook.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.postHooks = append(d.postHooks, hook)
		}
	}
}

// WithVersionKey makes Context.Version follow payload[key] as pre-hooks
// migrate the payload.
func WithVersionKey[T any](key string) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.versionKey = key
	}
}

// WithStrict rejects payload fields the snapshot type does not declare.
func WithStrict[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

// WithCustomDecoder replaces the JSON decode step.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

// NewDecoder builds a Decoder applying opts in order.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode hydrates payload into T. The caller's map is never modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T
	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for %s", ctx.Ref)
	}

	current, err := clonePayload(payload)
	if err != nil {
		return zero, fmt.Errorf("hydrate: clone payload for %s: %w", ctx.Ref, err)
	}
	d.trackVersion(&ctx, current)

	for _, hook := range d.preHooks {
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx.Ref, err)
		}
		if next != nil {
			current = next
		}
		d.trackVersion(&ctx, current)
	}

	result, err := d.decode(ctx, current)
	if err != nil {
		return zero, err
	}

	for _, hook := range d.postHooks {
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx.Ref, err)
		}
	}
	return result, nil
}

func (d *Decoder[T]) decode(ctx Context, payload map[string]any) (T, error) {
	var result T
	if d.custom != nil {
		result, err := d.custom(ctx, payload)
		if err != nil {
			return result, fmt.Errorf("hydrate: custom decoder for %s failed: %w", ctx.Ref, err)
		}
		return result, nil
	}
	buffer, err := json.Marshal(payload)
	if err != nil {
		return result, fmt.Errorf("hydrate: marshal payload for %s: %w", ctx.Ref, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	if d.strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(&result); err != nil {
		return result, fmt.Errorf("hydrate: decode %s: %w", ctx.Ref, err)
	}
	return result, nil
}

func (d *Decoder[T]) trackVersion(ctx *Context, payload map[string]any) {
	if d.versionKey != "" {
		ctx.Version = Version(payload, d.versionKey)
	}
}

// Version reads an integral payload[key], 0 when absent or not a whole
// number. JSON numbers arrive as float64, YAML numbers as int.
func Version(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return 0
}

// clonePayload deep-copies through JSON, which also normalizes YAML maps.
func clonePayload(payload map[string]any) (map[string]any, error) {
	buffer, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(buffer, &out); err != nil {
		return nil, err
	}
	return out, nil
}
