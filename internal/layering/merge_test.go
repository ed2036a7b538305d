package layering

import (
	"reflect"
	"testing"
)

func TestFillPayloadKeepsStrongValues(t *testing.T) {
	payload := map[string]any{
		"score":     30.0,
		"inventory": map[string]any{"items": []any{map[string]any{"item_name": "lamp"}}},
		"player_position": map[string]any{
			"position": map[string]any{"x": 4.0},
		},
	}
	defaults := map[string]any{
		"score":       0.0,
		"player_name": "",
		"inventory":   map[string]any{"items": []any{}},
		"player_position": map[string]any{
			"position": map[string]any{"x": 0.0, "y": 0.0, "z": 0.0},
			"rotation": map[string]any{"x": 0.0, "y": 0.0, "z": 0.0, "w": 1.0},
		},
	}

	got := FillPayload(payload, defaults)

	if got["score"] != 30.0 || got["player_name"] != "" {
		t.Fatalf("unexpected scalars %v", got)
	}
	items := got["inventory"].(map[string]any)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected stronger non-nil slice to win, got %v", items)
	}
	position := got["player_position"].(map[string]any)
	if position["rotation"].(map[string]any)["w"] != 1.0 {
		t.Fatalf("expected missing rotation filled, got %v", position)
	}
	coords := position["position"].(map[string]any)
	if coords["x"] != 4.0 || coords["y"] != 0.0 {
		t.Fatalf("expected nested keys merged, got %v", coords)
	}
}

func TestFillPayloadDoesNotShareStorage(t *testing.T) {
	defaults := map[string]any{"inventory": map[string]any{"items": []any{}}}
	got := FillPayload(nil, defaults)
	got["inventory"].(map[string]any)["items"] = []any{"x"}
	if len(defaults["inventory"].(map[string]any)["items"].([]any)) != 0 {
		t.Fatalf("expected defaults untouched")
	}
}

func TestMergeStructLayers(t *testing.T) {
	type anchor struct {
		ID string
	}
	type save struct {
		Name       string
		Checkpoint *anchor
		Tags       []string
		Flags      map[string]bool
	}
	strong := save{Name: "Ada", Flags: map[string]bool{"hard": true}}
	weak := save{Name: "", Checkpoint: &anchor{ID: "gate"}, Tags: []string{"new"}, Flags: map[string]bool{"tutorial": true}}

	got := Merge(strong, weak)
	want := save{
		Name:       "Ada",
		Checkpoint: &anchor{ID: "gate"},
		Tags:       []string{"new"},
		Flags:      map[string]bool{"hard": true, "tutorial": true},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merged mismatch:\nwant: %#v\n got: %#v", want, got)
	}
	got.Checkpoint.ID = "mutated"
	if weak.Checkpoint.ID != "gate" {
		t.Fatalf("expected merged value detached from layers")
	}
}

func TestMergeZeroInput(t *testing.T) {
	type sample struct {
		Value int
	}
	if got := Merge[sample](); got != (sample{}) {
		t.Fatalf("expected zero value, got %+v", got)
	}
}
