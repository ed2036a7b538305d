package gamestate

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Function is a helper callable from condition expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry holds the helpers an evaluator exposes. Names are
// case-insensitive.
type FunctionRegistry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{funcs: map[string]Function{}}
}

// Register adds fn under name. Empty names, nil functions and names already
// taken in any letter case are rejected.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case key == "":
		return errors.New("gamestate: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("gamestate: function %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.funcs == nil {
		r.funcs = map[string]Function{}
	}
	if _, taken := r.funcs[key]; taken {
		return fmt.Errorf("gamestate: function %q already registered", name)
	}
	r.funcs[key] = fn
	return nil
}

// MustRegister is Register that panics on error. It returns r for chaining.
func (r *FunctionRegistry) MustRegister(name string, fn Function) *FunctionRegistry {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
	return r
}

// Clone copies the registry so later registrations on either side stay
// local to it.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewFunctionRegistry()
	for key, fn := range r.funcs {
		out.funcs[key] = fn
	}
	return out
}

// Call invokes the function registered as name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, errors.New("gamestate: function registry is nil")
	}
	r.mu.RLock()
	fn, ok := r.funcs[strings.ToLower(strings.TrimSpace(name))]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("gamestate: function %q not registered", name)
	}
	return fn(args...)
}

// Names lists the registered names, lower-cased and sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.funcs))
	for key := range r.funcs {
		names = append(names, key)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}

// LedgerFunctions exposes the ledgers to expressions:
//
//	has_item(name)       the inventory holds name
//	has_any(names...)    the inventory holds at least one of names
//	cleared(id)          the event history contains id
//	cleared_all(ids...)  the event history contains every id
//
// Either ledger may be nil, in which case its functions report false.
func LedgerFunctions(inventory *InventoryLedger, history *EventHistoryLedger) *FunctionRegistry {
	holds := func(name string) bool { return inventory != nil && inventory.HasItem(name) }
	isCleared := func(id string) bool { return history != nil && history.IsEventCleared(id) }

	return NewFunctionRegistry().
		MustRegister("has_item", func(args ...any) (any, error) {
			names, err := stringArgs("has_item", args, 1, 1)
			if err != nil {
				return nil, err
			}
			return holds(names[0]), nil
		}).
		MustRegister("has_any", func(args ...any) (any, error) {
			names, err := stringArgs("has_any", args, 1, -1)
			if err != nil {
				return nil, err
			}
			return slices.ContainsFunc(names, holds), nil
		}).
		MustRegister("cleared", func(args ...any) (any, error) {
			ids, err := stringArgs("cleared", args, 1, 1)
			if err != nil {
				return nil, err
			}
			return isCleared(ids[0]), nil
		}).
		MustRegister("cleared_all", func(args ...any) (any, error) {
			ids, err := stringArgs("cleared_all", args, 1, -1)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				if !isCleared(id) {
					return false, nil
				}
			}
			return true, nil
		})
}

// stringArgs checks that args holds between lo and hi strings; hi < 0 means
// no upper bound.
func stringArgs(fn string, args []any, lo, hi int) ([]string, error) {
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		if lo == hi {
			return nil, fmt.Errorf("gamestate: %s expects %d argument, got %d", fn, lo, len(args))
		}
		return nil, fmt.Errorf("gamestate: %s expects at least %d argument, got %d", fn, lo, len(args))
	}
	out := make([]string, len(args))
	for i, arg := range args {
		value, ok := arg.(string)
		if !ok {
			return nil, fmt.Errorf("gamestate: %s expects a string argument, got %T", fn, arg)
		}
		out[i] = value
	}
	return out, nil
}
