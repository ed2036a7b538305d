package activity

import (
	"context"
	"slices"
	"strings"
)

// DefaultChannel is stamped on events emitted without a channel.
const DefaultChannel = "gamestate"

// Config controls a session's activity emission.
type Config struct {
	Enabled bool
	Channel string
	// Muted verbs never reach hooks, e.g. VerbSaveCompleted for autosaves.
	Muted []string
}

// Emitter delivers session events to hooks after applying Config.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
	muted   []string
}

// NewEmitter builds an emitter. It is only enabled when Config asks for it
// and at least one non-nil hook is given.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	active := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			active = append(active, hook)
		}
	}
	return &Emitter{
		hooks:   active,
		enabled: cfg.Enabled && len(active) > 0,
		channel: channel,
		muted:   slices.Clone(cfg.Muted),
	}
}

// Enabled reports whether Emit can reach a hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Muted reports whether verb is suppressed.
func (e *Emitter) Muted(verb string) bool {
	return e != nil && slices.Contains(e.muted, strings.TrimSpace(verb))
}

// Emit stamps the default channel and forwards event unless it is muted.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() || e.Muted(event.Verb) {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
