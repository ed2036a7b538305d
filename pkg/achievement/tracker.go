package achievement

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	gamestate "github.com/goliatone/go-gamestate"
	"github.com/goliatone/go-gamestate/pkg/activity"
)

// Unlocker reports an achievement to the platform.
type Unlocker interface {
	Unlock(ctx context.Context, ruleID string) error
}

// UnlockerFunc adapts a function to Unlocker.
type UnlockerFunc func(ctx context.Context, ruleID string) error

// Unlock implements Unlocker.
func (fn UnlockerFunc) Unlock(ctx context.Context, ruleID string) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, ruleID)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger logs unlocks and unlock failures.
func WithLogger(logger gamestate.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithUnlocked marks rule ids the platform already reports as unlocked.
func WithUnlocked(ids ...string) Option {
	return func(t *Tracker) {
		for _, id := range ids {
			t.unlocked[id] = struct{}{}
		}
	}
}

// Tracker re-checks its rules whenever gameplay activity may have changed
// the outcome and unlocks each rule at most once. It implements
// activity.ActivityHook so it can be registered on a session emitter.
type Tracker struct {
	mu       sync.Mutex
	rules    []Rule
	unlocker Unlocker
	reader   StateReader
	unlocked map[string]struct{}
	logger   gamestate.Logger
}

var _ activity.ActivityHook = (*Tracker)(nil)

// NewTracker builds a tracker for rules. Attach a StateReader before
// activity arrives; until then notifications are ignored.
func NewTracker(rules []Rule, unlocker Unlocker, opts ...Option) (*Tracker, error) {
	if err := validateRules(rules); err != nil {
		return nil, err
	}
	if unlocker == nil {
		return nil, fmt.Errorf("achievement: unlocker is required")
	}
	t := &Tracker{
		rules:    slices.Clone(rules),
		unlocker: unlocker,
		unlocked: make(map[string]struct{}),
		logger:   gamestate.NoopLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

// Attach sets the state the rules are checked against.
func (t *Tracker) Attach(reader StateReader) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reader = reader
}

// Notify re-evaluates rules for verbs that can change state.
func (t *Tracker) Notify(ctx context.Context, event activity.Event) error {
	switch event.Verb {
	case activity.VerbItemAdded, activity.VerbEventCleared, activity.VerbSaveLoaded, activity.VerbProgressAdvanced:
		_, err := t.Evaluate(ctx)
		return err
	default:
		return nil
	}
}

// Evaluate unlocks every pending rule the attached state satisfies and
// returns the ids unlocked by this call. A failed unlock stays pending and
// is retried on the next evaluation.
func (t *Tracker) Evaluate(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reader == nil {
		return nil, nil
	}

	var unlocked []string
	var errs []error
	for _, rule := range t.rules {
		if _, done := t.unlocked[rule.ID]; done {
			continue
		}
		if !rule.Satisfied(t.reader) {
			continue
		}
		if err := t.unlocker.Unlock(ctx, rule.ID); err != nil {
			t.logger.Warn("achievement unlock failed", gamestate.Fields{"achievement": rule.ID, "error": err.Error()})
			errs = append(errs, fmt.Errorf("achievement: unlock %s: %w", rule.ID, err))
			continue
		}
		t.unlocked[rule.ID] = struct{}{}
		unlocked = append(unlocked, rule.ID)
		t.logger.Info("achievement unlocked", gamestate.Fields{"achievement": rule.ID})
	}
	return unlocked, errors.Join(errs...)
}

// Unlocked returns every unlocked rule id sorted.
func (t *Tracker) Unlocked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.unlocked))
	for id := range t.unlocked {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
