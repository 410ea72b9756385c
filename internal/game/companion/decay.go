package companion

import "time"

// Minutes of elapsed time per point of passive decay.
const (
	HungerDecayMinutes    = 20
	HappinessDecayMinutes = 30
	HygieneDecayMinutes   = 60
)

// Decay applies passive decay for the time between lastUpdated and now.
//
// A zero lastUpdated is a first observation: the clock starts at now and no
// decay is applied. Only whole elapsed minutes count, and each stat loses
// floor(minutes/period) points, so a sub-period remainder is discarded rather
// than carried into the next call. The returned timestamp is now whenever at
// least one minute elapsed, otherwise lastUpdated unchanged.
//
// Health, energy, skill and sick are never touched. Decay is pure and
// idempotent for a given now.
func Decay(s Stats, lastUpdated, now time.Time) (Stats, time.Time) {
	if lastUpdated.IsZero() {
		return s, now
	}
	minutes := int64(now.Sub(lastUpdated) / time.Minute)
	if minutes <= 0 {
		return s, lastUpdated
	}

	s.Hunger = Clamp(s.Hunger - int(minutes/HungerDecayMinutes))
	s.Happiness = Clamp(s.Happiness - int(minutes/HappinessDecayMinutes))
	s.Hygiene = Clamp(s.Hygiene - int(minutes/HygieneDecayMinutes))
	return s, now
}

// ApplyDecay returns c with Decay applied at now.
func ApplyDecay(c Companion, now time.Time) Companion {
	c.Stats, c.LastUpdated = Decay(c.Stats, c.LastUpdated, now)
	return c
}
