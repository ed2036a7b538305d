package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-gamestate/pkg/activity"
	"github.com/goliatone/go-gamestate/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	profileID := uuid.New()

	event := activity.BuildItemAddedEvent(activity.GameEventInput{
		ActorID:    actorID.String(),
		UserID:     userID.String(),
		ProfileID:  profileID.String(),
		Channel:    "gamestate",
		ItemName:   "Old Key",
		UniqueID:   "item-1",
		Quantity:   1,
		Metadata:   map[string]any{"area": "crypt"},
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, record.UserID)
	}
	if record.TenantID != profileID {
		t.Fatalf("expected profile %s as tenant got %s", profileID, record.TenantID)
	}
	if record.Verb != activity.VerbItemAdded || record.ObjectType != activity.ObjectItem || record.ObjectID != "item-1" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "gamestate" {
		t.Fatalf("expected channel gamestate got %q", record.Channel)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["area"] != "crypt" || record.Data["item_name"] != "Old Key" {
		t.Fatalf("expected metadata passthrough got %v", record.Data)
	}
	if _, ok := record.Data["profile_id"]; ok {
		t.Fatalf("expected parsed profile to stay out of data, got %v", record.Data)
	}
	if _, ok := record.Data["actor_id"]; ok {
		t.Fatalf("expected parsed actor to stay out of data, got %v", record.Data)
	}
}

func TestHookNotifyKeepsNonUUIDProfileInData(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.BuildEventClearedEvent(activity.GameEventInput{
		ActorID:   "not-a-uuid",
		ProfileID: "local-profile",
		EventID:   "intro",
	}))
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ActorID != uuid.Nil || record.TenantID != uuid.Nil {
		t.Fatalf("expected nil uuids for unparsable ids, got %+v", record)
	}
	if record.Data["profile_id"] != "local-profile" || record.Data["actor_id"] != "not-a-uuid" {
		t.Fatalf("expected raw ids in data, got %v", record.Data)
	}
}

func TestHookVerbFilter(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Verbs: []string{activity.VerbEventCleared}}

	ctx := context.Background()
	_ = hook.Notify(ctx, activity.BuildItemAddedEvent(activity.GameEventInput{ItemName: "lamp"}))
	_ = hook.Notify(ctx, activity.BuildEventClearedEvent(activity.GameEventInput{EventID: "intro"}))

	if len(sink.records) != 1 || sink.records[0].ObjectID != "intro" {
		t.Fatalf("expected only the cleared event recorded, got %+v", sink.records)
	}
}

func TestRecordWithoutMetadata(t *testing.T) {
	record := usersink.Record(activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"})
	if record.Data != nil || record.ActorID != uuid.Nil {
		t.Fatalf("expected empty record data, got %+v", record)
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbEventCleared,
		ObjectType: activity.ObjectEvent,
		ObjectID:   "intro",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}

func TestHookNotifyReturnsSinkError(t *testing.T) {
	boom := errors.New("sink down")
	hook := usersink.Hook{Sink: &recordingSink{err: boom}}
	err := hook.Notify(context.Background(), activity.BuildSaveCompletedEvent(activity.GameEventInput{Ref: "profile/a/slot/0"}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestHookWithoutSinkIsNoop(t *testing.T) {
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
