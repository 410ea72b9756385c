package companion_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mythic/internal/game/companion"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func full() companion.Stats {
	return companion.New(1, 1, "n", epoch).Stats
}

func TestDecay_NineteenMinutesLeavesHunger(t *testing.T) {
	s, last := companion.Decay(full(), epoch, epoch.Add(19*time.Minute))
	assert.Equal(t, 100, s.Hunger)
	assert.Equal(t, epoch.Add(19*time.Minute), last)
}

func TestDecay_TwentyMinutesDropsHungerByOne(t *testing.T) {
	s, _ := companion.Decay(full(), epoch, epoch.Add(20*time.Minute))
	assert.Equal(t, 99, s.Hunger)
	assert.Equal(t, 100, s.Happiness)
	assert.Equal(t, 100, s.Hygiene)
}

func TestDecay_Rates(t *testing.T) {
	s, _ := companion.Decay(full(), epoch, epoch.Add(3*time.Hour))
	assert.Equal(t, 91, s.Hunger)
	assert.Equal(t, 94, s.Happiness)
	assert.Equal(t, 97, s.Hygiene)
	assert.Equal(t, 100, s.Health)
	assert.Equal(t, 100, s.Energy)
}

func TestDecay_ZeroLastUpdatedStartsClock(t *testing.T) {
	in := full()
	in.Hunger = 40
	s, last := companion.Decay(in, time.Time{}, epoch)
	assert.Equal(t, in, s)
	assert.Equal(t, epoch, last)
}

func TestDecay_SubMinuteAndBackwardsUnchanged(t *testing.T) {
	s, last := companion.Decay(full(), epoch, epoch.Add(59*time.Second))
	assert.Equal(t, full(), s)
	assert.Equal(t, epoch, last)

	s, last = companion.Decay(full(), epoch, epoch.Add(-time.Hour))
	assert.Equal(t, full(), s)
	assert.Equal(t, epoch, last)
}

func TestDecay_ClampsAtZero(t *testing.T) {
	s, _ := companion.Decay(full(), epoch, epoch.Add(30*24*time.Hour))
	assert.Equal(t, 0, s.Hunger)
	assert.Equal(t, 0, s.Happiness)
	assert.Equal(t, 0, s.Hygiene)
}

func TestDecay_RemainderIsDiscarded(t *testing.T) {
	s, last := companion.Decay(full(), epoch, epoch.Add(21*time.Minute))
	s, _ = companion.Decay(s, last, last.Add(21*time.Minute))
	assert.Equal(t, 98, s.Hunger)

	s, last = companion.Decay(full(), epoch, epoch.Add(30*time.Minute))
	s, _ = companion.Decay(s, last, last.Add(30*time.Minute))
	assert.Equal(t, 98, s.Hunger, "two 30 minute reads lose the 10 minute remainders")
	one, _ := companion.Decay(full(), epoch, epoch.Add(60*time.Minute))
	assert.Equal(t, 97, one.Hunger)
}

func TestDecay_Property_IdempotentForSameNow(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := drawStats(rt)
		elapsed := time.Duration(rapid.Int64Range(0, int64(90*24*time.Hour)).Draw(rt, "elapsed"))
		now := epoch.Add(elapsed)
		once, last := companion.Decay(in, epoch, now)
		twice, last2 := companion.Decay(once, last, now)
		if once != twice || last2 != last {
			rt.Fatalf("second decay changed state: %+v -> %+v", once, twice)
		}
		if !once.InBounds() {
			rt.Fatalf("decayed stats out of bounds: %+v", once)
		}
		if once.Health != in.Health || once.Energy != in.Energy || once.Skill != in.Skill || once.Sick != in.Sick {
			rt.Fatalf("decay touched a non-decaying stat: %+v -> %+v", in, once)
		}
	})
}

func drawStats(rt *rapid.T) companion.Stats {
	stat := rapid.IntRange(companion.MinStat, companion.MaxStat)
	return companion.Stats{
		Health:    stat.Draw(rt, "health"),
		Hunger:    stat.Draw(rt, "hunger"),
		Energy:    stat.Draw(rt, "energy"),
		Happiness: stat.Draw(rt, "happiness"),
		Hygiene:   stat.Draw(rt, "hygiene"),
		Skill:     stat.Draw(rt, "skill"),
		Sick:      rapid.Bool().Draw(rt, "sick"),
	}
}
