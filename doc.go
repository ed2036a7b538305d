// Package gamestate holds the persistent state of a narrative game and the
// services gameplay code uses to read and change it.
//
// The pieces:
//   - PersistentState is the save aggregate (score, player name, story
//     progress, position, inventory, event history). It round-trips through
//     JSON and YAML with field-named keys.
//   - InventoryLedger and EventHistoryLedger are the presence sets that
//     conditions subscribe to. Notifications are synchronous, ordered and
//     delivered to a snapshot of the listener list.
//   - KeyItemCondition, MultipleEventCondition and ExpressionCondition are
//     atomic gating predicates re-evaluated on demand.
//   - Dispatcher routes string-keyed triggers to registered handlers.
//   - Session wires one aggregate to its ledgers, dispatcher and activity
//     emitter, and loads/saves it through a store.Store.
//
// Everything runs on the caller's goroutine; none of the types lock. Only
// Session.Load and Session.Save block, and both honour context cancellation
// without touching the in-memory aggregate.
package gamestate
