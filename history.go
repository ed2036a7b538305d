package gamestate

import (
	"encoding/json"
	"slices"

	"gopkg.in/yaml.v3"
)

// EventHistory is the set of completed narrative event ids. Completion is
// permanent for the life of a save, so there is no removal.
type EventHistory struct {
	ids map[string]struct{}
}

// NewEventHistory builds a history holding ids.
func NewEventHistory(ids ...string) EventHistory {
	h := EventHistory{}
	for _, id := range ids {
		h.Add(id)
	}
	return h
}

// Add records id and reports whether it was new.
func (h *EventHistory) Add(id string) bool {
	if h.ids == nil {
		h.ids = make(map[string]struct{})
	}
	if _, ok := h.ids[id]; ok {
		return false
	}
	h.ids[id] = struct{}{}
	return true
}

// Has reports whether id was completed.
func (h EventHistory) Has(id string) bool {
	_, ok := h.ids[id]
	return ok
}

// IDs returns the completed ids sorted.
func (h EventHistory) IDs() []string {
	out := make([]string, 0, len(h.ids))
	for id := range h.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of completed ids.
func (h EventHistory) Len() int {
	return len(h.ids)
}

func (h EventHistory) clone() EventHistory {
	return NewEventHistory(h.IDs()...)
}

func (h EventHistory) equal(other EventHistory) bool {
	return slices.Equal(h.IDs(), other.IDs())
}

func (h EventHistory) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.IDs())
}

func (h *EventHistory) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*h = NewEventHistory(ids...)
	return nil
}

func (h EventHistory) MarshalYAML() (any, error) {
	return h.IDs(), nil
}

func (h *EventHistory) UnmarshalYAML(node *yaml.Node) error {
	var ids []string
	if err := node.Decode(&ids); err != nil {
		return err
	}
	*h = NewEventHistory(ids...)
	return nil
}
