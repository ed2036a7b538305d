package gamestate

import "slices"

// InventoryLedger tracks which item names the player currently holds and
// notifies listeners when gameplay adds or removes one. It is a presence set;
// quantities and instance ids live on the aggregate's Inventory.
type InventoryLedger struct {
	names   map[string]struct{}
	added   observers[string]
	removed observers[string]
}

// NewInventoryLedger builds a ledger seeded with names, without notifying.
func NewInventoryLedger(names ...string) *InventoryLedger {
	l := &InventoryLedger{}
	l.SetItems(names)
	return l
}

// HasItem reports an exact name match.
func (l *InventoryLedger) HasItem(name string) bool {
	_, ok := l.names[name]
	return ok
}

// NotifyItemAdded records name and raises item-added. Every call notifies,
// even when the name was already present.
func (l *InventoryLedger) NotifyItemAdded(name string) {
	if l.names == nil {
		l.names = make(map[string]struct{})
	}
	l.names[name] = struct{}{}
	l.added.notify(name)
}

// NotifyItemRemoved drops name and raises item-removed.
func (l *InventoryLedger) NotifyItemRemoved(name string) {
	delete(l.names, name)
	l.removed.notify(name)
}

// SetItems replaces the presence set. This is the load path: no per-item
// notifications are raised.
func (l *InventoryLedger) SetItems(names []string) {
	l.names = make(map[string]struct{}, len(names))
	for _, name := range names {
		l.names[name] = struct{}{}
	}
}

// Items returns the held names sorted.
func (l *InventoryLedger) Items() []string {
	out := make([]string, 0, len(l.names))
	for name := range l.names {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// OnItemAdded subscribes fn to item-added notifications.
func (l *InventoryLedger) OnItemAdded(fn func(name string)) Subscription {
	return l.added.subscribe(fn)
}

// OnItemRemoved subscribes fn to item-removed notifications.
func (l *InventoryLedger) OnItemRemoved(fn func(name string)) Subscription {
	return l.removed.subscribe(fn)
}
