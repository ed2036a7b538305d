package gamestate

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-gamestate/pkg/activity"
	"github.com/goliatone/go-gamestate/pkg/store"
)

// Session binds one save aggregate to the ledgers, dispatcher and activity
// emitter that gameplay code talks to. Every mutation goes through the
// session so the aggregate and the ledgers never drift apart.
//
// A Session is not safe for concurrent use.
type Session struct {
	state      *PersistentState
	inventory  *InventoryLedger
	history    *EventHistoryLedger
	dispatcher *Dispatcher
	emitter    *activity.Emitter
	layout     StoryLayout
	logger     Logger
	now        func() time.Time
	actorID    string
	profileID  string
	meta       store.Meta
}

type sessionConfig struct {
	logger     Logger
	dispatcher *Dispatcher
	emitter    *activity.Emitter
	layout     StoryLayout
	now        func() time.Time
	actorID    string
	profileID  string
}

// Option configures a Session.
type Option func(*sessionConfig)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger Logger) Option {
	return func(cfg *sessionConfig) {
		cfg.logger = logger
	}
}

// WithDispatcher shares an existing dispatcher instead of creating one.
func WithDispatcher(dispatcher *Dispatcher) Option {
	return func(cfg *sessionConfig) {
		cfg.dispatcher = dispatcher
	}
}

// WithActivityEmitter forwards gameplay activity to emitter.
func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(cfg *sessionConfig) {
		cfg.emitter = emitter
	}
}

// WithActivityHooks builds an enabled emitter over hooks on the default channel.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	return func(cfg *sessionConfig) {
		cfg.emitter = activity.NewEmitter(activity.Hooks(hooks), activity.Config{Enabled: true})
	}
}

// WithStoryLayout sets the chapter/scene structure used by AdvanceScene and
// AdvanceChapter.
func WithStoryLayout(layout StoryLayout) Option {
	return func(cfg *sessionConfig) {
		cfg.layout = layout
	}
}

// WithClock overrides the time source for save timestamps and activity.
func WithClock(now func() time.Time) Option {
	return func(cfg *sessionConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// WithActor stamps activity events with the player account and profile ids.
func WithActor(actorID, profileID string) Option {
	return func(cfg *sessionConfig) {
		cfg.actorID = actorID
		cfg.profileID = profileID
	}
}

// NewSession wraps state and hydrates fresh ledgers from it. A nil state
// starts from Default().
func NewSession(state *PersistentState, opts ...Option) *Session {
	cfg := sessionConfig{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if state == nil {
		fresh := Default()
		state = &fresh
	}
	dispatcher := cfg.dispatcher
	if dispatcher == nil {
		dispatcher = NewDispatcher(WithDispatcherLogger(cfg.logger))
	}

	s := &Session{
		state:      state,
		inventory:  NewInventoryLedger(),
		history:    NewEventHistoryLedger(),
		dispatcher: dispatcher,
		emitter:    cfg.emitter,
		layout:     cfg.layout,
		logger:     loggerOrNoop(cfg.logger),
		now:        cfg.now,
		actorID:    cfg.actorID,
		profileID:  cfg.profileID,
	}
	s.history.OnEventCleared(func(id string) { s.state.History.Add(id) })
	s.hydrate()
	return s
}

// hydrate pushes the aggregate into the ledgers: items silently, history
// with a single loaded notification.
func (s *Session) hydrate() {
	s.inventory.SetItems(s.state.Inventory.Names())
	s.history.SetClearedEvents(s.state.History.IDs())
}

// Inventory returns the inventory ledger conditions subscribe to. The ledger
// only indexes item names; entries are added and removed through PickUp,
// Consume and Discard, and notifications sent to the ledger directly are not
// saved.
func (s *Session) Inventory() *InventoryLedger { return s.inventory }

// History returns the event history ledger conditions subscribe to. Ids
// cleared on it with SetEventCleared are copied into the aggregate, but
// only CompleteEvent emits activity and dispatches handlers.
func (s *Session) History() *EventHistoryLedger { return s.history }

// Dispatcher returns the dispatcher triggers are routed through.
func (s *Session) Dispatcher() *Dispatcher { return s.dispatcher }

// Snapshot returns a deep copy of the aggregate.
func (s *Session) Snapshot() PersistentState { return s.state.Clone() }

// Meta returns the storage metadata of the last load or save.
func (s *Session) Meta() store.Meta { return s.meta }

// HasItem reports whether the inventory ledger holds name.
func (s *Session) HasItem(name string) bool { return s.inventory.HasItem(name) }

// IsEventCleared reports whether id is in the event history.
func (s *Session) IsEventCleared(id string) bool { return s.history.IsEventCleared(id) }

// Score returns the current score.
func (s *Session) Score() int { return s.state.Score }

// AddScore adds delta to the score and returns the new total.
func (s *Session) AddScore(delta int) int { return s.state.AddScore(delta) }

// ItemByID returns the entry owning uniqueID or ErrNotFound.
func (s *Session) ItemByID(uniqueID string) (InventoryItem, error) {
	item, ok := s.state.Inventory.Find(uniqueID)
	if !ok {
		return InventoryItem{}, fmt.Errorf("%w: item %q", ErrNotFound, uniqueID)
	}
	return item, nil
}

// PickUp adds item to the inventory and notifies the ledger.
// The activity event carries the id assigned to the picked up copy, which
// differs from the returned entry's id when it joined an existing stack.
func (s *Session) PickUp(ctx context.Context, item InventoryItem) (InventoryItem, error) {
	if item.UniqueID == "" {
		item.UniqueID = NewUniqueID()
	}
	stored, err := s.state.Inventory.Add(item)
	if err != nil {
		return InventoryItem{}, err
	}
	s.inventory.NotifyItemAdded(stored.Name)
	s.logger.Debug("item picked up", Fields{"item": stored.Name, "unique_id": item.UniqueID, "quantity": stored.Quantity})

	s.emit(ctx, activity.BuildItemAddedEvent(s.eventInput(func(in *activity.GameEventInput) {
		in.ItemName = stored.Name
		in.UniqueID = item.UniqueID
		in.Quantity = item.Quantity
	})))
	return stored, nil
}

// AddQuantity raises the quantity of an existing entry. Negative amounts are
// rejected with ErrInvalidArgument.
func (s *Session) AddQuantity(ctx context.Context, uniqueID string, amount int) (bool, error) {
	ok, err := s.state.Inventory.AddQuantity(uniqueID, amount)
	if err != nil || !ok {
		return ok, err
	}
	item, _ := s.state.Inventory.Find(uniqueID)
	s.inventory.NotifyItemAdded(item.Name)
	s.emit(ctx, activity.BuildItemAddedEvent(s.eventInput(func(in *activity.GameEventInput) {
		in.ItemName = item.Name
		in.UniqueID = uniqueID
		in.Quantity = amount
	})))
	return true, nil
}

// Consume uses amount of the entry owning uniqueID. When the entry runs out
// and no other entry shares its name, the ledger hears about the removal.
func (s *Session) Consume(ctx context.Context, uniqueID string, amount int) (InventoryItem, bool, error) {
	item, ok, err := s.state.Inventory.ConsumeQuantity(uniqueID, amount)
	if err != nil || !ok {
		return item, ok, err
	}
	if item.Quantity == 0 {
		s.removed(ctx, item)
	}
	return item, true, nil
}

// Discard removes the entry owning uniqueID regardless of quantity.
func (s *Session) Discard(ctx context.Context, uniqueID string) (InventoryItem, bool) {
	item, ok := s.state.Inventory.Remove(uniqueID)
	if !ok {
		return InventoryItem{}, false
	}
	s.removed(ctx, item)
	return item, true
}

func (s *Session) removed(ctx context.Context, item InventoryItem) {
	if !s.state.Inventory.HasName(item.Name) {
		s.inventory.NotifyItemRemoved(item.Name)
	}
	s.logger.Debug("item removed", Fields{"item": item.Name, "unique_id": item.UniqueID})
	s.emit(ctx, activity.BuildItemRemovedEvent(s.eventInput(func(in *activity.GameEventInput) {
		in.ItemName = item.Name
		in.UniqueID = item.UniqueID
	})))
}

// StartEvent dispatches PhaseStart for key.
func (s *Session) StartEvent(ctx context.Context, key string) {
	s.dispatcher.TriggerEvent(ctx, key)
}

// CompleteEvent records id as cleared, then dispatches PhaseComplete so
// handlers already observe it in the history. It reports whether id was new;
// a repeated completion still dispatches.
func (s *Session) CompleteEvent(ctx context.Context, id string) bool {
	added := s.state.History.Add(id)
	s.history.SetEventCleared(id)
	if added {
		s.logger.Info("event cleared", Fields{"event": id})
		s.emit(ctx, activity.BuildEventClearedEvent(s.eventInput(func(in *activity.GameEventInput) {
			in.EventID = id
		})))
	}
	s.dispatcher.Dispatch(ctx, Trigger{Key: id, Phase: PhaseComplete})
	return added
}

// FailEvent dispatches PhaseFail for key. The history is not touched.
func (s *Session) FailEvent(ctx context.Context, key string) {
	s.dispatcher.Dispatch(ctx, Trigger{Key: key, Phase: PhaseFail})
}

// AdvanceScene moves the story forward one scene.
func (s *Session) AdvanceScene(ctx context.Context) (Step, error) {
	return s.advance(ctx, s.state.Progress.AdvanceScene)
}

// AdvanceChapter jumps to the first scene of the next chapter.
func (s *Session) AdvanceChapter(ctx context.Context) (Step, error) {
	return s.advance(ctx, s.state.Progress.AdvanceChapter)
}

func (s *Session) advance(ctx context.Context, fn func(StoryLayout) (StoryProgress, Step, error)) (Step, error) {
	next, step, err := fn(s.layout)
	if err != nil {
		return step, err
	}
	s.state.Progress = next
	s.logger.Debug("story advanced", Fields{
		"step":    step.String(),
		"chapter": next.ChapterIndex,
		"scene":   next.SceneIndex,
	})
	s.emit(ctx, activity.BuildProgressAdvancedEvent(s.eventInput(func(in *activity.GameEventInput) {
		in.Progress = activity.ProgressContext{
			Story:     next.StoryIndex,
			Chapter:   next.ChapterIndex,
			Scene:     next.SceneIndex,
			Step:      step.String(),
			Completed: next.Completed,
		}
	})))
	return step, nil
}

func (s *Session) eventInput(fill func(*activity.GameEventInput)) activity.GameEventInput {
	input := activity.GameEventInput{
		ActorID:    s.actorID,
		ProfileID:  s.profileID,
		OccurredAt: s.now(),
	}
	if fill != nil {
		fill(&input)
	}
	return input
}

// emit never fails the gameplay operation; hook errors are logged.
func (s *Session) emit(ctx context.Context, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("activity emission failed", Fields{"verb": event.Verb, "error": err.Error()})
	}
}
