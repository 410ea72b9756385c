package companion

import "strings"

// Action identifies an explicit user-triggered state transition.
type Action string

const (
	ActionFeed  Action = "feed"
	ActionPlay  Action = "play"
	ActionSleep Action = "sleep"
	ActionTrain Action = "train"
	ActionClean Action = "clean"
	ActionHeal  Action = "heal"
)

// Action deltas and thresholds.
const (
	FeedHunger     = 15
	FeedHappiness  = 5
	PlayEnergy     = -20
	PlayHunger     = -10
	PlayHappiness  = 20
	PlayHygiene    = -15
	SickHygiene    = 20 // play leaving hygiene below this makes the companion sick
	SickHealth     = -25
	SleepMaxEnergy = 50 // sleep requires energy strictly below this
	TrainEnergy    = -15
	TrainSkill     = 10
	TrainHappiness = 5
	CleanHappiness = 5
)

// transition applies one action to c in place. It must check every
// precondition before mutating anything.
type transition func(c *Companion) error

var transitions = map[Action]transition{
	ActionFeed:  feed,
	ActionPlay:  play,
	ActionSleep: sleep,
	ActionTrain: train,
	ActionClean: clean,
	ActionHeal:  heal,
}

// Actions returns the recognised actions in table order.
func Actions() []Action {
	return []Action{ActionFeed, ActionPlay, ActionSleep, ActionTrain, ActionClean, ActionHeal}
}

// ParseAction normalises name (trimmed, case-insensitive) into a recognised Action.
//
// Postcondition: returns a *RejectedError of kind ErrUnknownAction for anything
// not in the action table.
func ParseAction(name string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := transitions[a]; !ok {
		return "", Reject(ErrUnknownAction, ReasonUnknownAction)
	}
	return a, nil
}

// Apply performs action on c. The companion is expected to already be decayed
// to the current instant.
//
// Postcondition: on success returns the new companion with all stats clamped;
// on rejection returns c unchanged together with a *RejectedError.
func Apply(c Companion, action Action) (Companion, error) {
	fn, ok := transitions[action]
	if !ok {
		return c, Reject(ErrUnknownAction, ReasonUnknownAction)
	}
	next := c
	if err := fn(&next); err != nil {
		return c, err
	}
	return next, nil
}

func feed(c *Companion) error {
	c.Hunger = Clamp(c.Hunger + FeedHunger)
	c.Happiness = Clamp(c.Happiness + FeedHappiness)
	return nil
}

func play(c *Companion) error {
	c.Energy = Clamp(c.Energy + PlayEnergy)
	c.Hunger = Clamp(c.Hunger + PlayHunger)
	c.Happiness = Clamp(c.Happiness + PlayHappiness)
	c.Hygiene = Clamp(c.Hygiene + PlayHygiene)
	if c.Hygiene < SickHygiene {
		c.Sick = true
		c.Health = Clamp(c.Health + SickHealth)
	}
	return nil
}

func sleep(c *Companion) error {
	if c.Energy >= SleepMaxEnergy {
		return Reject(ErrInvalidOperation, ReasonNotTired)
	}
	c.Energy = MaxStat
	return nil
}

func train(c *Companion) error {
	if !c.HasWeapon() {
		return Reject(ErrInvalidOperation, ReasonNoWeapon)
	}
	c.Energy = Clamp(c.Energy + TrainEnergy)
	c.Skill = Clamp(c.Skill + TrainSkill)
	c.Happiness = Clamp(c.Happiness + TrainHappiness)
	return nil
}

func clean(c *Companion) error {
	c.Hygiene = MaxStat
	c.Happiness = Clamp(c.Happiness + CleanHappiness)
	return nil
}

func heal(c *Companion) error {
	if !c.Sick {
		return Reject(ErrInvalidOperation, ReasonNotSick)
	}
	c.Sick = false
	c.Health = MaxStat
	return nil
}
