// Package companion implements the companion stat simulation: bounded stats,
// lazy time decay, the action table and the equipment and reward mutators.
//
// Every mutator takes a Companion by value and returns the new value, so a
// rejected operation can never leave a partially modified companion behind.
package companion

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNameLength bounds a companion's name in characters.
const MaxNameLength = 64

// Stat bounds. Every mutator clamps into [MinStat, MaxStat].
const (
	MinStat = 0
	MaxStat = 100
)

// Stats is the stat vector of a companion.
type Stats struct {
	Health    int
	Hunger    int
	Energy    int
	Happiness int
	Hygiene   int
	Skill     int
	Sick      bool
}

// Companion is a user-owned pet.
//
// Invariant: every stat is in [MinStat, MaxStat]; CurrentWeapon is empty or in the
// species' allowed set; EquippedGearID is 0 or the ID of a stack owned by OwnerID.
type Companion struct {
	ID        int64
	OwnerID   int64
	SpeciesID int64
	Name      string
	Stats
	CurrentWeapon  string
	EquippedGearID int64
	LastUpdated    time.Time
	CreatedAt      time.Time
}

// New returns a freshly created companion: all five stats full, no skill,
// healthy, with its decay clock starting at now.
func New(ownerID, speciesID int64, name string, now time.Time) Companion {
	return Companion{
		OwnerID:   ownerID,
		SpeciesID: speciesID,
		Name:      name,
		Stats: Stats{
			Health:    MaxStat,
			Hunger:    MaxStat,
			Energy:    MaxStat,
			Happiness: MaxStat,
			Hygiene:   MaxStat,
			Skill:     MinStat,
		},
		LastUpdated: now,
		CreatedAt:   now,
	}
}

// NormalizeName trims name and checks its length.
//
// Postcondition: returns the trimmed name, or a *RejectedError of kind
// ErrInvalidOperation when it is empty or longer than MaxNameLength.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxNameLength {
		return "", Reject(ErrInvalidOperation, ReasonInvalidName)
	}
	return name, nil
}

// HasWeapon reports whether a weapon is equipped.
func (c *Companion) HasWeapon() bool {
	return c.CurrentWeapon != ""
}

// HasGear reports whether a gear stack is equipped.
func (c *Companion) HasGear() bool {
	return c.EquippedGearID != 0
}

// Clamp bounds v into [MinStat, MaxStat].
func Clamp(v int) int {
	return min(max(v, MinStat), MaxStat)
}

// InBounds reports whether every stat of s is within [MinStat, MaxStat].
func (s Stats) InBounds() bool {
	for _, v := range []int{s.Health, s.Hunger, s.Energy, s.Happiness, s.Hygiene, s.Skill} {
		if v < MinStat || v > MaxStat {
			return false
		}
	}
	return true
}
