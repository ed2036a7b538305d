package gamestate

import (
	"slices"
	"sync"
)

// Condition is an atomic gating predicate. IsSatisfied reads current ledger
// state every time it is called; callers re-check after each change
// notification instead of caching the answer. Combining conditions (all-of,
// any-of) is left to the caller.
type Condition interface {
	IsSatisfied() bool
}

// ObservableCondition announces when the state it depends on changed.
// Close unsubscribes from every ledger; no notification follows it.
type ObservableCondition interface {
	Condition
	OnConditionChanged(fn func()) Subscription
	Close() error
}

// conditionBase holds the change listeners and ledger subscriptions shared
// by the concrete conditions.
type conditionBase struct {
	changed  observers[struct{}]
	sources  []Subscription
	closed   bool
	closeMux sync.Once
}

func (c *conditionBase) OnConditionChanged(fn func()) Subscription {
	if fn == nil || c.closed {
		return subscriptionFunc(nil)
	}
	return c.changed.subscribe(func(struct{}) { fn() })
}

func (c *conditionBase) raise() {
	if c.closed {
		return
	}
	c.changed.notify(struct{}{})
}

func (c *conditionBase) watch(sub Subscription) {
	c.sources = append(c.sources, sub)
}

func (c *conditionBase) Close() error {
	c.closeMux.Do(func() {
		c.closed = true
		for _, sub := range c.sources {
			sub.Unsubscribe()
		}
		c.sources = nil
		c.changed = observers[struct{}]{}
	})
	return nil
}

// KeyItemCondition is satisfied while the inventory holds a named item.
type KeyItemCondition struct {
	conditionBase
	ledger *InventoryLedger
	name   string
}

// NewKeyItemCondition subscribes to ledger for adds and removals of name.
// The condition does not own ledger.
func NewKeyItemCondition(ledger *InventoryLedger, name string) *KeyItemCondition {
	c := &KeyItemCondition{ledger: ledger, name: name}
	if ledger == nil {
		return c
	}
	c.watch(ledger.OnItemAdded(func(added string) {
		if added == c.name {
			c.raise()
		}
	}))
	c.watch(ledger.OnItemRemoved(func(removed string) {
		if removed == c.name {
			c.raise()
		}
	}))
	return c
}

// ItemName returns the key item the condition waits for.
func (c *KeyItemCondition) ItemName() string {
	return c.name
}

func (c *KeyItemCondition) IsSatisfied() bool {
	if c.ledger == nil {
		return false
	}
	return c.ledger.HasItem(c.name)
}

// MultipleEventCondition is satisfied once every required event id is
// cleared. An empty requirement set is always satisfied.
type MultipleEventCondition struct {
	conditionBase
	ledger   *EventHistoryLedger
	required []string
}

// NewMultipleEventCondition subscribes to ledger for history loads and for
// first-time completion of any required id.
func NewMultipleEventCondition(ledger *EventHistoryLedger, required ...string) *MultipleEventCondition {
	c := &MultipleEventCondition{ledger: ledger, required: slices.Clone(required)}
	if ledger == nil {
		return c
	}
	c.watch(ledger.OnLoaded(c.raise))
	c.watch(ledger.OnEventCleared(func(id string) {
		if slices.Contains(c.required, id) {
			c.raise()
		}
	}))
	return c
}

// RequiredEvents returns a copy of the required ids.
func (c *MultipleEventCondition) RequiredEvents() []string {
	return slices.Clone(c.required)
}

func (c *MultipleEventCondition) IsSatisfied() bool {
	for _, id := range c.required {
		if c.ledger == nil || !c.ledger.IsEventCleared(id) {
			return false
		}
	}
	return true
}

// Pending returns the required ids not yet cleared.
func (c *MultipleEventCondition) Pending() []string {
	var pending []string
	for _, id := range c.required {
		if c.ledger == nil || !c.ledger.IsEventCleared(id) {
			pending = append(pending, id)
		}
	}
	return pending
}
