package gamestate

import (
	"slices"

	"github.com/google/uuid"
)

// InventoryItem is one inventory entry. Entries are addressed by UniqueID;
// stackable duplicates merged into an entry keep their ids in StackedIDs.
type InventoryItem struct {
	Name        string   `json:"item_name" yaml:"item_name"`
	Quantity    int      `json:"quantity" yaml:"quantity"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	UniqueID    string   `json:"unique_id" yaml:"unique_id"`
	Stackable   bool     `json:"stackable,omitempty" yaml:"stackable,omitempty"`
	StackedIDs  []string `json:"stacked_ids,omitempty" yaml:"stacked_ids,omitempty"`
}

// OwnsID reports whether id is the entry's primary or a stacked id.
func (i InventoryItem) OwnsID(id string) bool {
	return i.UniqueID == id || slices.Contains(i.StackedIDs, id)
}

func (i InventoryItem) clone() InventoryItem {
	out := i
	out.StackedIDs = slices.Clone(i.StackedIDs)
	return out
}

func (i InventoryItem) equal(other InventoryItem) bool {
	return i.Name == other.Name &&
		i.Quantity == other.Quantity &&
		i.Description == other.Description &&
		i.UniqueID == other.UniqueID &&
		i.Stackable == other.Stackable &&
		slices.Equal(i.StackedIDs, other.StackedIDs)
}

// Inventory is the ordered item collection stored in a save. Lookups and
// removals go through unique ids; several entries may share a name.
type Inventory struct {
	Items []InventoryItem `json:"items" yaml:"items"`
}

// NewUniqueID returns a fresh item instance id.
func NewUniqueID() string {
	return uuid.NewString()
}

// Add stores item and returns the entry that now holds it. A missing
// UniqueID is generated. Stackable items merge into the first stackable
// entry with the same name.
func (inv *Inventory) Add(item InventoryItem) (InventoryItem, error) {
	if item.Quantity < 0 {
		return InventoryItem{}, invalidArgument("item %q quantity %d is negative", item.Name, item.Quantity)
	}
	if item.UniqueID == "" {
		item.UniqueID = NewUniqueID()
	}
	if _, ok := inv.index(item.UniqueID); ok {
		return InventoryItem{}, invalidArgument("item id %q already present", item.UniqueID)
	}
	for _, stacked := range item.StackedIDs {
		if _, ok := inv.index(stacked); ok {
			return InventoryItem{}, invalidArgument("item id %q already present", stacked)
		}
	}

	if item.Stackable {
		for i := range inv.Items {
			existing := &inv.Items[i]
			if !existing.Stackable || existing.Name != item.Name {
				continue
			}
			existing.Quantity += item.Quantity
			existing.StackedIDs = append(existing.StackedIDs, item.UniqueID)
			existing.StackedIDs = append(existing.StackedIDs, item.StackedIDs...)
			return existing.clone(), nil
		}
	}

	stored := item.clone()
	inv.Items = append(inv.Items, stored)
	return stored.clone(), nil
}

// Find returns the entry owning uniqueID.
func (inv *Inventory) Find(uniqueID string) (InventoryItem, bool) {
	idx, ok := inv.index(uniqueID)
	if !ok {
		return InventoryItem{}, false
	}
	return inv.Items[idx].clone(), true
}

// Remove deletes the entry owning uniqueID, stacked copies included.
func (inv *Inventory) Remove(uniqueID string) (InventoryItem, bool) {
	idx, ok := inv.index(uniqueID)
	if !ok {
		return InventoryItem{}, false
	}
	removed := inv.Items[idx]
	inv.Items = slices.Delete(inv.Items, idx, idx+1)
	return removed, true
}

// AddQuantity increases the quantity of the entry owning uniqueID. Negative
// amounts are rejected; an absent id reports false.
func (inv *Inventory) AddQuantity(uniqueID string, amount int) (bool, error) {
	if amount < 0 {
		return false, invalidArgument("cannot add negative amount %d", amount)
	}
	idx, ok := inv.index(uniqueID)
	if !ok {
		return false, nil
	}
	inv.Items[idx].Quantity += amount
	return true, nil
}

// ConsumeQuantity decreases the quantity of the entry owning uniqueID and
// removes the entry once it reaches zero. The returned item is the entry
// after consumption.
func (inv *Inventory) ConsumeQuantity(uniqueID string, amount int) (InventoryItem, bool, error) {
	if amount < 0 {
		return InventoryItem{}, false, invalidArgument("cannot consume negative amount %d", amount)
	}
	idx, ok := inv.index(uniqueID)
	if !ok {
		return InventoryItem{}, false, nil
	}
	item := &inv.Items[idx]
	if amount > item.Quantity {
		return item.clone(), true, ErrInsufficientQuantity
	}
	item.Quantity -= amount
	out := item.clone()
	if item.Quantity == 0 {
		inv.Items = slices.Delete(inv.Items, idx, idx+1)
	}
	return out, true, nil
}

// Names returns the distinct item names in inventory order.
func (inv *Inventory) Names() []string {
	names := make([]string, 0, len(inv.Items))
	seen := make(map[string]struct{}, len(inv.Items))
	for _, item := range inv.Items {
		if _, ok := seen[item.Name]; ok {
			continue
		}
		seen[item.Name] = struct{}{}
		names = append(names, item.Name)
	}
	return names
}

// CountByName sums the quantity of every entry named name.
func (inv *Inventory) CountByName(name string) int {
	total := 0
	for _, item := range inv.Items {
		if item.Name == name {
			total += item.Quantity
		}
	}
	return total
}

// HasName reports whether any entry is named name.
func (inv *Inventory) HasName(name string) bool {
	return slices.ContainsFunc(inv.Items, func(item InventoryItem) bool {
		return item.Name == name
	})
}

// Len returns the number of entries.
func (inv *Inventory) Len() int {
	return len(inv.Items)
}

func (inv *Inventory) index(uniqueID string) (int, bool) {
	if uniqueID == "" {
		return 0, false
	}
	for i, item := range inv.Items {
		if item.OwnsID(uniqueID) {
			return i, true
		}
	}
	return 0, false
}

func (inv Inventory) clone() Inventory {
	if inv.Items == nil {
		return Inventory{}
	}
	items := make([]InventoryItem, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = item.clone()
	}
	return Inventory{Items: items}
}

func (inv Inventory) equal(other Inventory) bool {
	return slices.EqualFunc(inv.Items, other.Items, InventoryItem.equal)
}
