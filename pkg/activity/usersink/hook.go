// Package usersink records gameplay activity in a go-users activity trail.
package usersink

import (
	"context"
	"slices"
	"strings"

	"github.com/goliatone/go-gamestate/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards gameplay events to a go-users ActivitySink. The player
// profile is recorded as the go-users tenant.
type Hook struct {
	Sink usertypes.ActivitySink
	// Verbs limits the recorded verbs; empty records every verb.
	Verbs []string
}

// Notify records event unless it is incomplete or filtered out.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	normalized := activity.NormalizeEvent(event)
	if !normalized.Complete() {
		return nil
	}
	if len(h.Verbs) > 0 && !slices.Contains(h.Verbs, normalized.Verb) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, Record(normalized))
}

// Record maps a normalized event to an ActivityRecord. Actor and profile
// ids that are not UUIDs are kept verbatim in Data under "actor_id" and
// "profile_id".
func Record(event activity.Event) usertypes.ActivityRecord {
	data := map[string]any{}
	for key, value := range event.Metadata {
		data[key] = value
	}

	actorID := keepID(data, "actor_id", event.ActorID)
	tenantID := keepID(data, "profile_id", event.ProfileID)
	if len(data) == 0 {
		data = nil
	}
	return usertypes.ActivityRecord{
		ActorID:    actorID,
		UserID:     parseUUID(event.UserID),
		TenantID:   tenantID,
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}
}

func keepID(data map[string]any, key, raw string) uuid.UUID {
	id := parseUUID(raw)
	if id == uuid.Nil && strings.TrimSpace(raw) != "" {
		data[key] = strings.TrimSpace(raw)
	}
	return id
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
