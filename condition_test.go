package gamestate

import "testing"

func TestKeyItemCondition(t *testing.T) {
	ledger := NewInventoryLedger()
	cond := NewKeyItemCondition(ledger, "sword")
	changes := 0
	cond.OnConditionChanged(func() { changes++ })

	if cond.IsSatisfied() {
		t.Fatalf("expected unsatisfied before pickup")
	}

	ledger.NotifyItemAdded("shield")
	if changes != 0 {
		t.Fatalf("expected unrelated items to stay silent, got %d", changes)
	}

	ledger.NotifyItemAdded("sword")
	if !cond.IsSatisfied() {
		t.Fatalf("expected satisfied right after pickup")
	}
	if changes != 1 {
		t.Fatalf("expected one change per matching add, got %d", changes)
	}

	ledger.NotifyItemAdded("sword")
	if changes != 2 {
		t.Fatalf("expected second matching add to notify again, got %d", changes)
	}

	ledger.NotifyItemRemoved("sword")
	if cond.IsSatisfied() {
		t.Fatalf("expected unsatisfied after removal")
	}
	if changes != 3 {
		t.Fatalf("expected removal to notify, got %d", changes)
	}
	if cond.ItemName() != "sword" {
		t.Fatalf("unexpected item name %q", cond.ItemName())
	}
}

func TestKeyItemConditionClose(t *testing.T) {
	ledger := NewInventoryLedger()
	cond := NewKeyItemCondition(ledger, "sword")
	changes := 0
	cond.OnConditionChanged(func() { changes++ })

	if err := cond.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := cond.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	ledger.NotifyItemAdded("sword")

	if changes != 0 {
		t.Fatalf("expected no notifications after close, got %d", changes)
	}
	if ledger.added.len() != 0 || ledger.removed.len() != 0 {
		t.Fatalf("expected close to unsubscribe from the ledger")
	}
	if !cond.IsSatisfied() {
		t.Fatalf("expected IsSatisfied to keep reading the ledger after close")
	}
}

func TestMultipleEventConditionEmptyIsSatisfied(t *testing.T) {
	if !NewMultipleEventCondition(NewEventHistoryLedger()).IsSatisfied() {
		t.Fatalf("expected empty requirement set to be satisfied")
	}
	if !NewMultipleEventCondition(nil).IsSatisfied() {
		t.Fatalf("expected empty requirement set to be satisfied without a ledger")
	}
}

func TestMultipleEventCondition(t *testing.T) {
	ledger := NewEventHistoryLedger()
	cond := NewMultipleEventCondition(ledger, "bridge", "tower")
	changes := 0
	cond.OnConditionChanged(func() { changes++ })

	ledger.SetEventCleared("bridge")
	if cond.IsSatisfied() {
		t.Fatalf("expected unsatisfied with tower pending")
	}
	if pending := cond.Pending(); len(pending) != 1 || pending[0] != "tower" {
		t.Fatalf("unexpected pending %v", pending)
	}

	ledger.SetEventCleared("unrelated")
	ledger.SetEventCleared("bridge")
	if changes != 1 {
		t.Fatalf("expected only first-time required ids to notify, got %d", changes)
	}

	ledger.SetEventCleared("tower")
	if !cond.IsSatisfied() || changes != 2 {
		t.Fatalf("expected satisfied after tower with 2 changes, got %v/%d", cond.IsSatisfied(), changes)
	}

	ledger.SetClearedEvents(nil)
	if cond.IsSatisfied() || changes != 3 {
		t.Fatalf("expected load to notify and reset, got %v/%d", cond.IsSatisfied(), changes)
	}

	required := cond.RequiredEvents()
	required[0] = "mutated"
	if cond.RequiredEvents()[0] != "bridge" {
		t.Fatalf("expected RequiredEvents to return a copy")
	}
}

func TestMultipleEventConditionClose(t *testing.T) {
	ledger := NewEventHistoryLedger()
	cond := NewMultipleEventCondition(ledger, "intro")
	changes := 0
	cond.OnConditionChanged(func() { changes++ })
	_ = cond.Close()

	ledger.SetClearedEvents([]string{"intro"})
	ledger.SetEventCleared("other")
	if changes != 0 {
		t.Fatalf("expected no notifications after close, got %d", changes)
	}
	sub := cond.OnConditionChanged(func() { changes++ })
	sub.Unsubscribe()
}

func TestConditionsShareLedgerInSubscriptionOrder(t *testing.T) {
	ledger := NewInventoryLedger()
	first := NewKeyItemCondition(ledger, "lamp")
	second := NewKeyItemCondition(ledger, "lamp")
	var order []string
	first.OnConditionChanged(func() { order = append(order, "first") })
	second.OnConditionChanged(func() { order = append(order, "second") })

	ledger.NotifyItemAdded("lamp")
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected order %v", order)
	}
}
