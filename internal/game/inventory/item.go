package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ItemType classifies catalog items by how they can be used.
type ItemType string

const (
	TypeConsumable ItemType = "CONSUMABLE"
	TypeWeapon     ItemType = "WEAPON"
	TypeGear       ItemType = "GEAR"
)

// Rarity is the reward bucket an item can be granted from.
type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityLegendary Rarity = "LEGENDARY"
)

var validTypes = map[ItemType]bool{
	TypeConsumable: true,
	TypeWeapon:     true,
	TypeGear:       true,
}

var validRarities = map[Rarity]bool{
	RarityCommon:    true,
	RarityRare:      true,
	RarityLegendary: true,
}

// Item is a catalog template. Bonuses are only meaningful for consumables;
// a nil bonus leaves the matching stat untouched.
type Item struct {
	ID             int64    `yaml:"id"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Type           ItemType `yaml:"type"`
	Rarity         Rarity   `yaml:"rarity"`
	HealthBonus    *int     `yaml:"health_bonus"`
	HungerBonus    *int     `yaml:"hunger_bonus"`
	EnergyBonus    *int     `yaml:"energy_bonus"`
	HappinessBonus *int     `yaml:"happiness_bonus"`
}

// Consumable reports whether the item is used up on use rather than equipped.
func (i *Item) Consumable() bool {
	return i.Type == TypeConsumable
}

// Validate checks that the Item satisfies its invariants.
//
// Precondition: i is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (i *Item) Validate() error {
	var errs []error
	if i.ID <= 0 {
		errs = append(errs, fmt.Errorf("id must be > 0, got %d", i.ID))
	}
	if i.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validTypes[i.Type] {
		errs = append(errs, fmt.Errorf("type must be one of CONSUMABLE, WEAPON, GEAR; got %q", i.Type))
	}
	if !validRarities[i.Rarity] {
		errs = append(errs, fmt.Errorf("rarity must be one of COMMON, RARE, LEGENDARY; got %q", i.Rarity))
	}
	if !i.Consumable() && (i.HealthBonus != nil || i.HungerBonus != nil || i.EnergyBonus != nil || i.HappinessBonus != nil) {
		errs = append(errs, errors.New("stat bonuses are only allowed on consumables"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// LoadItems reads all *.yaml and *.yml files from dir. Each file holds a list of
// items under the "items" key.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid items or the first encountered error.
func LoadItems(dir string) ([]*Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*Item
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		var file struct {
			Items []*Item `yaml:"items"`
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", path, err)
		}
		for _, it := range file.Items {
			if err := it.Validate(); err != nil {
				return nil, fmt.Errorf("LoadItems: invalid item in %q: %w", path, err)
			}
			items = append(items, it)
		}
	}
	return items, nil
}
