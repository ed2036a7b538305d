package activity

import (
	"fmt"
	"strings"
	"time"
)

const (
	VerbItemAdded        = "item.added"
	VerbItemRemoved      = "item.removed"
	VerbEventCleared     = "event.cleared"
	VerbProgressAdvanced = "progress.advanced"
	VerbSaveCompleted    = "save.completed"
	VerbSaveLoaded       = "save.loaded"
)

const (
	ObjectItem     = "item"
	ObjectEvent    = "event"
	ObjectStory    = "story"
	ObjectSaveSlot = "save_slot"
)

// ProgressContext captures the story position after an advance.
type ProgressContext struct {
	Story     int
	Chapter   int
	Scene     int
	Step      string
	Completed bool
}

// GameEventInput describes the common fields for gameplay activity events.
type GameEventInput struct {
	ActorID    string
	UserID     string
	ProfileID  string
	Channel    string
	Metadata   map[string]any
	ItemName   string
	UniqueID   string
	Quantity   int
	EventID    string
	Progress   ProgressContext
	Ref        string
	SnapshotID string
	ETag       string
	OccurredAt time.Time
}

// BuildItemAddedEvent constructs an activity event for an item entering the inventory.
func BuildItemAddedEvent(input GameEventInput) Event {
	return buildItemEvent(VerbItemAdded, input)
}

// BuildItemRemovedEvent constructs an activity event for an item leaving the inventory.
func BuildItemRemovedEvent(input GameEventInput) Event {
	return buildItemEvent(VerbItemRemoved, input)
}

// BuildEventClearedEvent constructs an activity event for a narrative event
// entering the event history.
func BuildEventClearedEvent(input GameEventInput) Event {
	return buildEvent(VerbEventCleared, ObjectEvent, firstNonEmpty(input.EventID, ObjectEvent), input, nil)
}

// BuildProgressAdvancedEvent constructs an activity event describing a
// scene, chapter or story-completion step.
func BuildProgressAdvancedEvent(input GameEventInput) Event {
	extra := map[string]any{
		"chapter_index": input.Progress.Chapter,
		"scene_index":   input.Progress.Scene,
		"completed":     input.Progress.Completed,
	}
	if input.Progress.Step != "" {
		extra["step"] = input.Progress.Step
	}
	objectID := fmt.Sprintf("story-%d", input.Progress.Story)
	return buildEvent(VerbProgressAdvanced, ObjectStory, objectID, input, extra)
}

// BuildSaveCompletedEvent constructs an activity event for a persisted save slot.
func BuildSaveCompletedEvent(input GameEventInput) Event {
	return buildSaveEvent(VerbSaveCompleted, input)
}

// BuildSaveLoadedEvent constructs an activity event for a restored save slot.
func BuildSaveLoadedEvent(input GameEventInput) Event {
	return buildSaveEvent(VerbSaveLoaded, input)
}

func buildItemEvent(verb string, input GameEventInput) Event {
	extra := map[string]any{}
	if input.ItemName != "" {
		extra["item_name"] = strings.TrimSpace(input.ItemName)
	}
	if input.Quantity != 0 {
		extra["quantity"] = input.Quantity
	}
	objectID := firstNonEmpty(input.UniqueID, input.ItemName, ObjectItem)
	return buildEvent(verb, ObjectItem, objectID, input, extra)
}

func buildSaveEvent(verb string, input GameEventInput) Event {
	extra := map[string]any{}
	if input.SnapshotID != "" {
		extra["snapshot_id"] = input.SnapshotID
	}
	if input.ETag != "" {
		extra["etag"] = input.ETag
	}
	objectID := firstNonEmpty(input.Ref, input.SnapshotID, ObjectSaveSlot)
	return buildEvent(verb, ObjectSaveSlot, objectID, input, extra)
}

func buildEvent(verb, objectType, objectID string, input GameEventInput, extra map[string]any) Event {
	metadata := cloneMap(input.Metadata)
	for key, value := range extra {
		metadata = ensureMetadata(metadata)
		metadata[key] = value
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		ProfileID:  strings.TrimSpace(input.ProfileID),
		ObjectType: objectType,
		ObjectID:   strings.TrimSpace(objectID),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
