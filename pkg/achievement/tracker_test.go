package achievement

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	gamestate "github.com/goliatone/go-gamestate"
	"github.com/goliatone/go-gamestate/pkg/activity"
	"github.com/goliatone/go-gamestate/pkg/store"
)

const rulesYAML = `achievements:
  - id: lamplighter
    title: Light in the dark
    required_items: [lamp]
  - id: bridge-keeper
    required_events: [bridge, tower]
  - id: high-roller
    min_score: 100
`

type fakeState struct {
	items  map[string]bool
	events map[string]bool
	score  int
}

func (f *fakeState) HasItem(name string) bool      { return f.items[name] }
func (f *fakeState) IsEventCleared(id string) bool { return f.events[id] }
func (f *fakeState) Score() int                    { return f.score }

type recordingUnlocker struct {
	ids  []string
	fail map[string]error
}

func (r *recordingUnlocker) Unlock(_ context.Context, id string) error {
	if err := r.fail[id]; err != nil {
		return err
	}
	r.ids = append(r.ids, id)
	return nil
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules([]byte(rulesYAML), store.YAMLCodec())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rules) != 3 || rules[0].Title != "Light in the dark" || rules[2].MinScore != 100 {
		t.Fatalf("unexpected rules %+v", rules)
	}
	if !slices.Equal(rules[1].RequiredEvents, []string{"bridge", "tower"}) {
		t.Fatalf("unexpected required events %v", rules[1].RequiredEvents)
	}

	jsonRules, err := LoadRules([]byte(`{"achievements":[{"id":"a","required_items":["x"]}]}`), store.JSONCodec())
	if err != nil || len(jsonRules) != 1 || jsonRules[0].RequiredItems[0] != "x" {
		t.Fatalf("unexpected json rules %+v %v", jsonRules, err)
	}

	if _, err := LoadRules([]byte("achievements:\n  - id: a\n  - id: a\n"), nil); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id rejected, got %v", err)
	}
	if _, err := LoadRules([]byte("achievements:\n  - title: nameless\n"), nil); err == nil {
		t.Fatalf("expected missing id rejected")
	}
}

func TestTrackerUnlocksOnce(t *testing.T) {
	rules, err := LoadRules([]byte(rulesYAML), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	unlocker := &recordingUnlocker{}
	tracker, err := NewTracker(rules, unlocker)
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	state := &fakeState{items: map[string]bool{}, events: map[string]bool{}}

	ctx := context.Background()
	if err := tracker.Notify(ctx, activity.Event{Verb: activity.VerbItemAdded}); err != nil {
		t.Fatalf("notify without reader: %v", err)
	}
	tracker.Attach(state)

	state.items["lamp"] = true
	state.events["bridge"] = true
	if err := tracker.Notify(ctx, activity.Event{Verb: activity.VerbItemAdded}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := tracker.Notify(ctx, activity.Event{Verb: activity.VerbItemAdded}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !slices.Equal(unlocker.ids, []string{"lamplighter"}) {
		t.Fatalf("expected a single unlock, got %v", unlocker.ids)
	}

	state.events["tower"] = true
	state.score = 150
	if err := tracker.Notify(ctx, activity.Event{Verb: activity.VerbItemRemoved}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(unlocker.ids) != 1 {
		t.Fatalf("expected removals not to trigger evaluation")
	}

	unlocked, err := tracker.Evaluate(ctx)
	if err != nil || !slices.Equal(unlocked, []string{"bridge-keeper", "high-roller"}) {
		t.Fatalf("unexpected unlocks %v %v", unlocked, err)
	}
	if !slices.Equal(tracker.Unlocked(), []string{"bridge-keeper", "high-roller", "lamplighter"}) {
		t.Fatalf("unexpected unlocked set %v", tracker.Unlocked())
	}
}

func TestTrackerRetriesFailedUnlock(t *testing.T) {
	boom := errors.New("platform offline")
	unlocker := &recordingUnlocker{fail: map[string]error{"a": boom}}
	tracker, err := NewTracker([]Rule{{ID: "a"}}, unlocker, WithUnlocked("ignored"))
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	tracker.Attach(&fakeState{})

	if _, err := tracker.Evaluate(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected unlock failure, got %v", err)
	}
	delete(unlocker.fail, "a")
	unlocked, err := tracker.Evaluate(context.Background())
	if err != nil || !slices.Equal(unlocked, []string{"a"}) {
		t.Fatalf("expected retry to unlock, got %v %v", unlocked, err)
	}
}

func TestTrackerSkipsAlreadyUnlocked(t *testing.T) {
	unlocker := &recordingUnlocker{}
	tracker, err := NewTracker([]Rule{{ID: "a"}, {ID: "b"}}, unlocker, WithUnlocked("a"))
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	tracker.Attach(&fakeState{})
	if _, err := tracker.Evaluate(context.Background()); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !slices.Equal(unlocker.ids, []string{"b"}) {
		t.Fatalf("expected only b unlocked, got %v", unlocker.ids)
	}
}

func TestNewTrackerValidates(t *testing.T) {
	if _, err := NewTracker([]Rule{{ID: "a"}}, nil); err == nil {
		t.Fatalf("expected missing unlocker rejected")
	}
	if _, err := NewTracker([]Rule{{ID: ""}}, UnlockerFunc(nil)); err == nil {
		t.Fatalf("expected invalid rules rejected")
	}
}

func TestTrackerOnSession(t *testing.T) {
	ctx := context.Background()
	unlocker := &recordingUnlocker{}
	tracker, err := NewTracker([]Rule{
		{ID: "explorer", RequiredItems: []string{"map"}, RequiredEvents: []string{"intro"}},
	}, unlocker)
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	session := gamestate.NewSession(gamestate.New("Ada"), gamestate.WithActivityHooks(tracker))
	tracker.Attach(session)

	if _, err := session.PickUp(ctx, gamestate.InventoryItem{Name: "map", Quantity: 1}); err != nil {
		t.Fatalf("pick up: %v", err)
	}
	if len(unlocker.ids) != 0 {
		t.Fatalf("expected rule pending until intro clears")
	}
	session.CompleteEvent(ctx, "intro")
	session.CompleteEvent(ctx, "intro")
	if !slices.Equal(unlocker.ids, []string{"explorer"}) {
		t.Fatalf("expected explorer unlocked once, got %v", unlocker.ids)
	}
}
