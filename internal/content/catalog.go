// Package content holds the immutable reference data of the game: species,
// the item catalog and the quiz question bank.
package content

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/mythic/internal/config"
	"github.com/cory-johannsen/mythic/internal/game/inventory"
	"github.com/cory-johannsen/mythic/internal/game/quiz"
	"github.com/cory-johannsen/mythic/internal/game/species"
)

// Catalog indexes the reference data. It is read-only after construction and
// safe for concurrent readers.
type Catalog struct {
	species   map[int64]*species.Species
	items     *inventory.Registry
	questions map[species.Universe][]quiz.Question
}

// New builds a Catalog, validating every entry and rejecting duplicate IDs.
//
// Postcondition: returns a non-nil Catalog or the first violation found.
func New(sps []*species.Species, items []*inventory.Item, questions []quiz.Question) (*Catalog, error) {
	c := &Catalog{
		species:   make(map[int64]*species.Species, len(sps)),
		items:     inventory.NewRegistry(),
		questions: make(map[species.Universe][]quiz.Question),
	}
	for _, sp := range sps {
		if err := sp.Validate(); err != nil {
			return nil, fmt.Errorf("content: species %d: %w", sp.ID, err)
		}
		if _, dup := c.species[sp.ID]; dup {
			return nil, fmt.Errorf("content: duplicate species id %d", sp.ID)
		}
		c.species[sp.ID] = sp
	}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("content: item %d: %w", it.ID, err)
		}
		if err := c.items.Register(it); err != nil {
			return nil, fmt.Errorf("content: %w", err)
		}
	}
	seen := make(map[int64]bool, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("content: question %d: %w", q.ID, err)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("content: duplicate question id %d", q.ID)
		}
		seen[q.ID] = true
		c.questions[q.Universe] = append(c.questions[q.Universe], q)
	}
	return c, nil
}

// Load reads species, items and questions from the configured directories.
func Load(cfg config.ContentConfig) (*Catalog, error) {
	sps, err := species.LoadDir(cfg.SpeciesDir)
	if err != nil {
		return nil, err
	}
	items, err := inventory.LoadItems(cfg.ItemsDir)
	if err != nil {
		return nil, err
	}
	questions, err := quiz.LoadDir(cfg.QuestionsDir)
	if err != nil {
		return nil, err
	}
	return New(sps, items, questions)
}

// Species returns the species with the given id.
func (c *Catalog) Species(id int64) (*species.Species, bool) {
	sp, ok := c.species[id]
	return sp, ok
}

// AllSpecies returns every species ordered by ID.
func (c *Catalog) AllSpecies() []*species.Species {
	out := make([]*species.Species, 0, len(c.species))
	for _, sp := range c.species {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Item returns the catalog item with the given id.
func (c *Catalog) Item(id int64) (*inventory.Item, bool) {
	return c.items.Item(id)
}

// ItemsByRarity returns the items of rarity ordered by ID; never nil.
func (c *Catalog) ItemsByRarity(r inventory.Rarity) []*inventory.Item {
	return c.items.ByRarity(r)
}

// AllItems returns every item ordered by ID.
func (c *Catalog) AllItems() []*inventory.Item {
	return c.items.All()
}

// Questions returns the question bank of universe. Callers must not modify
// the returned slice.
func (c *Catalog) Questions(u species.Universe) []quiz.Question {
	return c.questions[u]
}

// AllQuestions returns every question ordered by ID.
func (c *Catalog) AllQuestions() []quiz.Question {
	var out []quiz.Question
	for _, qs := range c.questions {
		out = append(out, qs...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
