package gamestate

import (
	"context"
	"reflect"
)

// Phase identifies which stage of a narrative event a trigger reports.
type Phase int

const (
	// PhaseStart is sent by TriggerEvent when a spatial or narrative trigger fires.
	PhaseStart Phase = iota
	// PhaseComplete reports the event finished; the session records it as cleared.
	PhaseComplete
	// PhaseFail reports the event was abandoned or failed.
	PhaseFail
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseComplete:
		return "complete"
	case PhaseFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Trigger is what a handler receives for one dispatch.
type Trigger struct {
	Key   string
	Phase Phase
}

// Handler reacts to triggers for the keys it is registered under.
// Handlers are matched by identity on UnregisterHandler, so register a
// pointer (or another comparable value) and keep it to unregister later.
type Handler interface {
	Handle(ctx context.Context, trigger Trigger)
}

type funcHandler struct {
	fn func(ctx context.Context, trigger Trigger)
}

func (h *funcHandler) Handle(ctx context.Context, trigger Trigger) {
	if h.fn != nil {
		h.fn(ctx, trigger)
	}
}

// HandleFunc wraps fn in a Handler with its own identity. Each call returns a
// distinct handler.
func HandleFunc(fn func(ctx context.Context, trigger Trigger)) Handler {
	return &funcHandler{fn: fn}
}

// EventHandlers routes each phase to its own callback. Nil callbacks are
// skipped.
type EventHandlers struct {
	OnStart    func(ctx context.Context, key string)
	OnComplete func(ctx context.Context, key string)
	OnFail     func(ctx context.Context, key string)
}

func (h *EventHandlers) Handle(ctx context.Context, trigger Trigger) {
	var fn func(context.Context, string)
	switch trigger.Phase {
	case PhaseStart:
		fn = h.OnStart
	case PhaseComplete:
		fn = h.OnComplete
	case PhaseFail:
		fn = h.OnFail
	}
	if fn != nil {
		fn(ctx, trigger.Key)
	}
}

// Dispatcher routes triggers to the handlers registered for a key. It is not
// safe for concurrent use; all calls happen on the game's update turn.
type Dispatcher struct {
	handlers map[string][]Handler
	logger   Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger logs registrations and dispatches at debug level.
func WithDispatcherLogger(logger Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = loggerOrNoop(logger)
	}
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string][]Handler),
		logger:   NoopLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// RegisterHandler appends h to the list for key. Registering the same handler
// twice makes it run twice per trigger.
func (d *Dispatcher) RegisterHandler(key string, h Handler) {
	if h == nil {
		return
	}
	d.handlers[key] = append(d.handlers[key], h)
	d.logger.Debug("handler registered", Fields{"key": key, "handlers": len(d.handlers[key])})
}

// UnregisterHandler removes the first registration of h under key. Unknown
// keys and handlers are ignored.
func (d *Dispatcher) UnregisterHandler(key string, h Handler) {
	list, ok := d.handlers[key]
	if !ok || h == nil {
		return
	}
	for i, registered := range list {
		if !sameHandler(registered, h) {
			continue
		}
		next := append(list[:i:i], list[i+1:]...)
		if len(next) == 0 {
			delete(d.handlers, key)
		} else {
			d.handlers[key] = next
		}
		d.logger.Debug("handler unregistered", Fields{"key": key, "handlers": len(next)})
		return
	}
}

// TriggerEvent dispatches PhaseStart for key.
func (d *Dispatcher) TriggerEvent(ctx context.Context, key string) {
	d.Dispatch(ctx, Trigger{Key: key, Phase: PhaseStart})
}

// Dispatch invokes the handlers registered for trigger.Key in registration
// order. The list is copied first: handlers (un)registered during dispatch
// take effect from the next trigger.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger Trigger) {
	list := d.handlers[trigger.Key]
	if len(list) == 0 {
		d.logger.Debug("trigger without handlers", Fields{"key": trigger.Key, "phase": trigger.Phase.String()})
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	snapshot := append([]Handler(nil), list...)
	d.logger.Debug("dispatching trigger", Fields{
		"key":      trigger.Key,
		"phase":    trigger.Phase.String(),
		"handlers": len(snapshot),
	})
	for _, h := range snapshot {
		h.Handle(ctx, trigger)
	}
}

// Handlers returns how many registrations key has.
func (d *Dispatcher) Handlers(key string) int {
	return len(d.handlers[key])
}

// Keys returns the number of keys with at least one handler.
func (d *Dispatcher) Keys() int {
	return len(d.handlers)
}

func sameHandler(a, b Handler) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
