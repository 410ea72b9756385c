package quiz_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mythic/internal/game/dice"
	"github.com/cory-johannsen/mythic/internal/game/quiz"
	"github.com/cory-johannsen/mythic/internal/game/species"
)

func pool(sw, lotr int) []quiz.Question {
	var out []quiz.Question
	id := int64(1)
	add := func(u species.Universe, n int) {
		for i := 0; i < n; i++ {
			out = append(out, quiz.Question{
				ID: id, Text: "q", Options: []string{"a", "b"}, CorrectAnswer: "a", Universe: u,
			})
			id++
		}
	}
	add(species.UniverseStarWars, sw)
	add(species.UniverseLordOfTheRings, lotr)
	return out
}

func roller(seed uint64) *dice.Roller {
	return dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())
}

func TestSelect_TwoMatchingOfFive(t *testing.T) {
	got := quiz.Select(pool(3, 2), species.UniverseLordOfTheRings, quiz.DefaultQuestionCount, roller(1))
	require.Len(t, got, 2)
	for _, q := range got {
		assert.Equal(t, species.UniverseLordOfTheRings, q.Universe)
	}
}

func TestSelect_NoMatchesReturnsEmptyNonNil(t *testing.T) {
	got := quiz.Select(pool(3, 0), species.UniverseLordOfTheRings, 5, roller(1))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSelect_DoesNotMutatePool(t *testing.T) {
	p := pool(6, 0)
	before := append([]quiz.Question(nil), p...)
	quiz.Select(p, species.UniverseStarWars, 3, roller(9))
	assert.Equal(t, before, p)
}

func TestSelect_Property_BoundedAndScoped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sw := rapid.IntRange(0, 20).Draw(rt, "sw")
		lotr := rapid.IntRange(0, 20).Draw(rt, "lotr")
		n := rapid.IntRange(0, 10).Draw(rt, "n")
		got := quiz.Select(pool(sw, lotr), species.UniverseStarWars, n, roller(rapid.Uint64().Draw(rt, "seed")))
		if len(got) != min(n, sw) {
			rt.Fatalf("len=%d want %d", len(got), min(n, sw))
		}
		ids := map[int64]bool{}
		for _, q := range got {
			if q.Universe != species.UniverseStarWars {
				rt.Fatalf("wrong universe %q", q.Universe)
			}
			if ids[q.ID] {
				rt.Fatalf("duplicate question %d", q.ID)
			}
			ids[q.ID] = true
		}
	})
}

func TestScore(t *testing.T) {
	qs := pool(4, 0)
	res := quiz.Score(qs, map[int64]string{1: "a", 2: "b", 3: "a"})
	assert.Equal(t, quiz.Result{Correct: 2, Total: 4, Score: 50}, res)

	assert.Equal(t, quiz.Result{}, quiz.Score(nil, nil))

	res = quiz.Score(pool(3, 0), map[int64]string{1: "a", 2: "a", 3: "a"})
	assert.Equal(t, 100, res.Score)
}

func TestQuestion_Validate(t *testing.T) {
	q := quiz.Question{ID: 1, Text: "t", Options: []string{"x", "y"}, CorrectAnswer: "z", Universe: "NARNIA"}
	err := q.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "correct answer")
	assert.Contains(t, err.Error(), "unknown universe")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	doc := `questions:
  - id: 1
    text: "Who trained Luke?"
    options: ["Yoda", "Vader"]
    correct_answer: "Yoda"
    universe: STARWARS
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sw.yaml"), []byte(doc), 0o644))
	qs, err := quiz.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "Yoda", qs[0].CorrectAnswer)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "dup.yaml"), []byte(doc), 0o644))
	_, err = quiz.LoadDir(dir)
	assert.ErrorContains(t, err, "duplicate")
}
