package inventory

import (
	"fmt"
	"sort"
)

// Registry holds the item catalog indexed by ID. It is read-only after loading
// and therefore safe for concurrent readers.
type Registry struct {
	items map[int64]*Item
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[int64]*Item)}
}

// Register adds it to the registry.
//
// Precondition: it must not be nil.
// Postcondition: Item(it.ID) returns (it, true); returns error if it.ID already registered.
func (r *Registry) Register(it *Item) error {
	if _, exists := r.items[it.ID]; exists {
		return fmt.Errorf("inventory: Registry.Register: item ID %d already registered", it.ID)
	}
	r.items[it.ID] = it
	return nil
}

// Item returns the item for the given id and whether it was found.
func (r *Registry) Item(id int64) (*Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// ByRarity returns all items of the given rarity ordered by ID.
//
// Postcondition: the result may be empty; it is never nil.
func (r *Registry) ByRarity(rarity Rarity) []*Item {
	out := make([]*Item, 0)
	for _, it := range r.items {
		if it.Rarity == rarity {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All returns every registered item ordered by ID.
func (r *Registry) All() []*Item {
	out := make([]*Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
