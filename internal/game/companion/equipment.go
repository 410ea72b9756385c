package companion

import (
	"github.com/cory-johannsen/mythic/internal/game/inventory"
	"github.com/cory-johannsen/mythic/internal/game/species"
)

// ChangeWeapon sets the companion's weapon slot.
//
// Postcondition: succeeds iff weapon is in sp's allowed set; otherwise returns c
// unchanged with ErrInvalidOperation.
func ChangeWeapon(c Companion, sp *species.Species, weapon string) (Companion, error) {
	if sp == nil || sp.ID != c.SpeciesID || !sp.AllowsWeapon(weapon) {
		return c, Reject(ErrInvalidOperation, ReasonWeaponNotAllowed)
	}
	c.CurrentWeapon = weapon
	return c, nil
}

// GearChange lists the stack writes an equip produces. Both must be persisted
// in the same unit of work as the companion.
type GearChange struct {
	Equipped   inventory.Stack
	Unequipped *inventory.Stack
}

// EquipGear equips next on c. It is the only mutator of the gear slot, so the
// one-equipped-stack-per-companion rule lives here.
//
// current is the stack presently referenced by c.EquippedGearID (nil when none).
// holder is the ID of another companion already wearing next, or 0.
//
// Postcondition: on success c.EquippedGearID == next.ID, next.Equipped is true and
// the previously equipped stack, if different, is returned with Equipped false.
// On rejection c is returned unchanged.
func EquipGear(c Companion, next inventory.Stack, item *inventory.Item, current *inventory.Stack, holder int64) (Companion, GearChange, error) {
	if next.OwnerID != c.OwnerID {
		return c, GearChange{}, Reject(ErrUnauthorized, ReasonItemNotOwned)
	}
	if item == nil || item.ID != next.ItemID || item.Consumable() {
		return c, GearChange{}, Reject(ErrInvalidOperation, ReasonEquipConsumable)
	}
	if holder != 0 && holder != c.ID {
		return c, GearChange{}, Reject(ErrInvalidOperation, ReasonGearInUse)
	}

	var change GearChange
	if current != nil && current.ID != next.ID {
		prev := *current
		prev.Equipped = false
		change.Unequipped = &prev
	}
	next.Equipped = true
	change.Equipped = next
	c.EquippedGearID = next.ID
	return c, change, nil
}

// UseConsumable applies a consumable's bonuses to c and takes one unit from
// its stack.
//
// Postcondition: on success returns the new companion (stats clamped), the
// decremented stack and whether that stack is now empty and must be deleted.
func UseConsumable(c Companion, stack inventory.Stack, item *inventory.Item) (Companion, inventory.Stack, bool, error) {
	if stack.OwnerID != c.OwnerID {
		return c, stack, false, Reject(ErrUnauthorized, ReasonItemNotOwned)
	}
	if item == nil || item.ID != stack.ItemID || !item.Consumable() {
		return c, stack, false, Reject(ErrInvalidOperation, ReasonNotConsumable)
	}
	left, empty, err := stack.Take(1)
	if err != nil {
		return c, stack, false, Reject(ErrInvalidOperation, err.Error())
	}

	c.Health = Clamp(c.Health + bonus(item.HealthBonus))
	c.Hunger = Clamp(c.Hunger + bonus(item.HungerBonus))
	c.Energy = Clamp(c.Energy + bonus(item.EnergyBonus))
	c.Happiness = Clamp(c.Happiness + bonus(item.HappinessBonus))
	return c, left, empty, nil
}

func bonus(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// ApplyReward adds mini-game deltas to c. Skill never decreases.
func ApplyReward(c Companion, skillDelta, energyDelta int) Companion {
	c.Skill = Clamp(c.Skill + max(skillDelta, 0))
	c.Energy = Clamp(c.Energy + energyDelta)
	return c
}
