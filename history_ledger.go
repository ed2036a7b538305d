package gamestate

// EventHistoryLedger answers "has this narrative event been cleared" and
// tells dependent conditions when the whole history is (re)loaded.
type EventHistoryLedger struct {
	history EventHistory
	loaded  observers[struct{}]
	cleared observers[string]
}

// NewEventHistoryLedger builds a ledger seeded with ids, without notifying.
func NewEventHistoryLedger(ids ...string) *EventHistoryLedger {
	return &EventHistoryLedger{history: NewEventHistory(ids...)}
}

// IsEventCleared reports whether id was completed.
func (l *EventHistoryLedger) IsEventCleared(id string) bool {
	return l.history.Has(id)
}

// SetEventCleared records id. Repeated ids are ignored; OnEventCleared
// listeners only hear about ids that were not already present.
func (l *EventHistoryLedger) SetEventCleared(id string) bool {
	if !l.history.Add(id) {
		return false
	}
	l.cleared.notify(id)
	return true
}

// SetClearedEvents replaces the history with ids and raises a single loaded
// notification regardless of how many ids were given.
func (l *EventHistoryLedger) SetClearedEvents(ids []string) {
	l.history = NewEventHistory(ids...)
	l.loaded.notify(struct{}{})
}

// RestoreEventStates is the alternate hydration entry point. It behaves
// exactly like SetClearedEvents.
func (l *EventHistoryLedger) RestoreEventStates(ids []string) {
	l.SetClearedEvents(ids)
}

// ClearedEvents returns the cleared ids sorted.
func (l *EventHistoryLedger) ClearedEvents() []string {
	return l.history.IDs()
}

// OnLoaded subscribes fn to bulk hydration notifications.
func (l *EventHistoryLedger) OnLoaded(fn func()) Subscription {
	if fn == nil {
		return subscriptionFunc(nil)
	}
	return l.loaded.subscribe(func(struct{}) { fn() })
}

// OnEventCleared subscribes fn to first-time completions.
func (l *EventHistoryLedger) OnEventCleared(fn func(id string)) Subscription {
	return l.cleared.subscribe(fn)
}
