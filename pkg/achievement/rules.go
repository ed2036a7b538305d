// Package achievement decides when platform achievements unlock. It only
// reads game state and never mutates it.
package achievement

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-gamestate/pkg/store"
)

// Rule unlocks once every required event is cleared, every required item is
// held and the score reaches MinScore.
type Rule struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title,omitempty" yaml:"title,omitempty"`
	RequiredEvents []string `json:"required_events,omitempty" yaml:"required_events,omitempty"`
	RequiredItems  []string `json:"required_items,omitempty" yaml:"required_items,omitempty"`
	MinScore       int      `json:"min_score,omitempty" yaml:"min_score,omitempty"`
}

type ruleDocument struct {
	Rules []Rule `json:"achievements" yaml:"achievements"`
}

// LoadRules decodes an achievements document:
//
//	achievements:
//	  - id: first-blood
//	    required_events: [arena-1]
//
// Rule ids must be present and unique.
func LoadRules(data []byte, codec store.Codec) ([]Rule, error) {
	if codec == nil {
		codec = store.YAMLCodec()
	}
	var doc ruleDocument
	if err := codec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("achievement: decode %s rules: %w", codec.Name(), err)
	}
	if err := validateRules(doc.Rules); err != nil {
		return nil, err
	}
	return doc.Rules, nil
}

func validateRules(rules []Rule) error {
	seen := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		id := strings.TrimSpace(rule.ID)
		if id == "" {
			return fmt.Errorf("achievement: rule %d has no id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("achievement: duplicate rule id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// StateReader is the read-only view of game state a tracker needs.
// *gamestate.Session satisfies it.
type StateReader interface {
	HasItem(name string) bool
	IsEventCleared(id string) bool
	Score() int
}

// Satisfied reports whether state meets every requirement of r.
func (r Rule) Satisfied(state StateReader) bool {
	if state == nil {
		return false
	}
	for _, id := range r.RequiredEvents {
		if !state.IsEventCleared(id) {
			return false
		}
	}
	for _, name := range r.RequiredItems {
		if !state.HasItem(name) {
			return false
		}
	}
	return state.Score() >= r.MinScore
}
