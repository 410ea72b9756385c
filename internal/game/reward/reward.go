// Package reward turns a mini-game score into stat deltas and a reward tier,
// and picks the granted item from the catalog.
package reward

import (
	"github.com/cory-johannsen/mythic/internal/game/dice"
	"github.com/cory-johannsen/mythic/internal/game/inventory"
)

// Score thresholds: a score above RareScore earns a rare tier, above CommonScore a common one.
const (
	RareScore   = 90
	CommonScore = 50
)

// Deltas applied per tier. Every mini-game costs EnergyCost regardless of result.
const (
	RareSkill   = 5
	CommonSkill = 2
	BaseSkill   = 1
	EnergyCost  = -10
)

// Result messages.
const (
	MessageRare   = "Amazing performance! You earned a RARE reward!"
	MessageCommon = "Good job! You earned a COMMON reward."
	MessageNone   = "Good effort! Keep training to earn better rewards."
	NoItemsFound  = " (But no items of this rarity were found!)"
)

// Outcome is the deterministic result of a score. An empty Tier means no item is granted.
type Outcome struct {
	Message     string
	SkillDelta  int
	EnergyDelta int
	Tier        inventory.Rarity
}

// HasTier reports whether the outcome earns an item.
func (o Outcome) HasTier() bool {
	return o.Tier != ""
}

// Resolve maps score to an Outcome.
//
// Postcondition: EnergyDelta == EnergyCost; SkillDelta >= BaseSkill.
func Resolve(score int) Outcome {
	switch {
	case score > RareScore:
		return Outcome{Message: MessageRare, SkillDelta: RareSkill, EnergyDelta: EnergyCost, Tier: inventory.RarityRare}
	case score > CommonScore:
		return Outcome{Message: MessageCommon, SkillDelta: CommonSkill, EnergyDelta: EnergyCost, Tier: inventory.RarityCommon}
	default:
		return Outcome{Message: MessageNone, SkillDelta: BaseSkill, EnergyDelta: EnergyCost}
	}
}

// Choose picks one candidate uniformly at random.
//
// Postcondition: returns (nil, false) iff candidates is empty.
func Choose(roller *dice.Roller, candidates []*inventory.Item) (*inventory.Item, bool) {
	idx := roller.Pick("reward item", len(candidates))
	if idx < 0 {
		return nil, false
	}
	return candidates[idx], true
}

// WithoutItems returns o with the no-items note appended to its message.
func (o Outcome) WithoutItems() Outcome {
	o.Message += NoItemsFound
	return o
}
