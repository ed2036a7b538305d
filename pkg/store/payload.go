package store

import (
	"fmt"

	"github.com/goliatone/go-gamestate/internal/hydrate"
)

// Migration upgrades a payload written at version into the current shape.
// Payloads without a version field report version 0.
type Migration func(version int, payload map[string]any) (map[string]any, error)

// VersionKey is the payload field migrations read the schema version from.
const VersionKey = "version"

type envelope struct {
	Meta     Meta `json:"meta" yaml:"meta"`
	Snapshot any  `json:"snapshot" yaml:"snapshot"`
}

func newDecoder[T any](migrations []Migration) *hydrate.Decoder[T] {
	options := make([]hydrate.DecoderOption[T], 0, len(migrations)+1)
	options = append(options, hydrate.WithVersionKey[T](VersionKey))
	for _, migrate := range migrations {
		if migrate == nil {
			continue
		}
		options = append(options, hydrate.WithPreHook[T](migrationHook(migrate)))
	}
	return hydrate.NewDecoder[T](options...)
}

func migrationHook(migrate Migration) hydrate.PreHook {
	return func(ctx hydrate.Context, payload map[string]any) (map[string]any, error) {
		return migrate(ctx.Version, payload)
	}
}

// PayloadVersion reads the numeric version field of payload, 0 if absent.
func PayloadVersion(payload map[string]any) int {
	return hydrate.Version(payload, VersionKey)
}

// decodePayload splits raw into meta and snapshot payload. Documents without
// an envelope are treated as a bare snapshot.
func decodePayload[T any](decoder *hydrate.Decoder[T], codec Codec, id string, data []byte) (T, Meta, error) {
	var zero T
	var raw map[string]any
	if err := codec.Unmarshal(data, &raw); err != nil {
		return zero, Meta{}, fmt.Errorf("store: decode %s: %w", id, err)
	}
	if raw == nil {
		return zero, Meta{}, fmt.Errorf("store: decode %s: empty document", id)
	}

	payload := raw
	var meta Meta
	if inner, ok := raw["snapshot"].(map[string]any); ok {
		payload = inner
		if rawMeta, ok := raw["meta"]; ok && rawMeta != nil {
			metaDecoder := hydrate.NewDecoder[Meta]()
			metaMap, ok := rawMeta.(map[string]any)
			if !ok {
				return zero, Meta{}, fmt.Errorf("store: decode %s: meta is %T", id, rawMeta)
			}
			decoded, err := metaDecoder.Decode(hydrate.Context{Ref: id, Format: codec.Name()}, metaMap)
			if err != nil {
				return zero, Meta{}, fmt.Errorf("store: decode %s meta: %w", id, err)
			}
			meta = decoded
		}
	}

	ctx := hydrate.Context{Ref: id, Format: codec.Name(), Version: PayloadVersion(payload)}
	snapshot, err := decoder.Decode(ctx, payload)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("store: %w", err)
	}
	return snapshot, meta, nil
}

func decodeSnapshot[T any](decoder *hydrate.Decoder[T], codec Codec, id string, data []byte) (T, error) {
	var zero T
	var raw map[string]any
	if err := codec.Unmarshal(data, &raw); err != nil {
		return zero, fmt.Errorf("store: decode %s: %w", id, err)
	}
	if raw == nil {
		return zero, fmt.Errorf("store: decode %s: empty document", id)
	}
	ctx := hydrate.Context{Ref: id, Format: codec.Name(), Version: PayloadVersion(raw)}
	snapshot, err := decoder.Decode(ctx, raw)
	if err != nil {
		return zero, fmt.Errorf("store: %w", err)
	}
	return snapshot, nil
}
