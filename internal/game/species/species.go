// Package species defines the immutable companion species reference data.
package species

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Universe tags the fictional setting a species (and its quiz questions) belongs to.
type Universe string

const (
	UniverseStarWars       Universe = "STARWARS"
	UniverseLordOfTheRings Universe = "LORD_OF_THE_RINGS"
)

// Valid reports whether u is a recognised universe tag.
func (u Universe) Valid() bool {
	switch u {
	case UniverseStarWars, UniverseLordOfTheRings:
		return true
	}
	return false
}

// Species is a companion template: its universe, the weapons it may wield and
// the client asset names keyed by asset slot.
type Species struct {
	ID             int64             `yaml:"id"`
	Name           string            `yaml:"name"`
	Universe       Universe          `yaml:"universe"`
	AllowedWeapons []string          `yaml:"allowed_weapons"`
	Assets         map[string]string `yaml:"assets"`
}

// AllowsWeapon reports whether weapon is a member of the species' allowed set.
// Matching is exact; the empty string is never allowed.
func (s *Species) AllowsWeapon(weapon string) bool {
	if weapon == "" {
		return false
	}
	return slices.Contains(s.AllowedWeapons, weapon)
}

// ScriptKey is the directory name holding the species' reaction scripts:
// the lower-cased name with spaces replaced by underscores.
func (s *Species) ScriptKey() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s.Name)), " ", "_")
}

// Validate checks the species invariants.
//
// Postcondition: returns nil iff ID > 0, Name is non-empty, Universe is valid and
// AllowedWeapons holds no empty or duplicate names.
func (s *Species) Validate() error {
	var errs []error
	if s.ID <= 0 {
		errs = append(errs, fmt.Errorf("id must be > 0, got %d", s.ID))
	}
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !s.Universe.Valid() {
		errs = append(errs, fmt.Errorf("universe must be one of STARWARS, LORD_OF_THE_RINGS; got %q", s.Universe))
	}
	seen := make(map[string]bool, len(s.AllowedWeapons))
	for _, w := range s.AllowedWeapons {
		if w == "" {
			errs = append(errs, errors.New("allowed_weapons must not contain empty names"))
			continue
		}
		if seen[w] {
			errs = append(errs, fmt.Errorf("allowed_weapons lists %q twice", w))
		}
		seen[w] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("species validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// LoadDir reads every *.yaml / *.yml file in dir. Each file holds a list of species.
//
// Precondition: dir is a readable directory.
// Postcondition: returns all species in file-name order, or the first error encountered.
// Duplicate IDs across files are rejected.
func LoadDir(dir string) ([]*Species, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("species: reading directory %q: %w", dir, err)
	}

	var out []*Species
	ids := make(map[int64]string)
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("species: reading %q: %w", path, err)
		}
		var file struct {
			Species []*Species `yaml:"species"`
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("species: parsing %q: %w", path, err)
		}
		for _, sp := range file.Species {
			if err := sp.Validate(); err != nil {
				return nil, fmt.Errorf("species: invalid entry in %q: %w", path, err)
			}
			if prev, dup := ids[sp.ID]; dup {
				return nil, fmt.Errorf("species: id %d in %q already defined by %q", sp.ID, path, prev)
			}
			ids[sp.ID] = sp.Name
			out = append(out, sp)
		}
	}
	return out, nil
}
