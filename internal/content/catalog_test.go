package content_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/mythic/internal/config"
	"github.com/cory-johannsen/mythic/internal/content"
	"github.com/cory-johannsen/mythic/internal/game/inventory"
	"github.com/cory-johannsen/mythic/internal/game/quiz"
	"github.com/cory-johannsen/mythic/internal/game/species"
)

func repoContent(t *testing.T) config.ContentConfig {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	root := filepath.Join(filepath.Dir(file), "..", "..", "content")
	return config.ContentConfig{
		SpeciesDir:   filepath.Join(root, "species"),
		ItemsDir:     filepath.Join(root, "items"),
		QuestionsDir: filepath.Join(root, "questions"),
	}
}

func TestLoad_ShippedContent(t *testing.T) {
	cat, err := content.Load(repoContent(t))
	require.NoError(t, err)

	all := cat.AllSpecies()
	require.Len(t, all, 4)
	for _, sp := range all {
		assert.NotEmpty(t, sp.AllowedWeapons, "species %s", sp.Name)
	}
	assert.NotEmpty(t, cat.ItemsByRarity(inventory.RarityCommon))
	assert.NotEmpty(t, cat.ItemsByRarity(inventory.RarityRare))
	assert.NotEmpty(t, cat.Questions(species.UniverseStarWars))
	assert.NotEmpty(t, cat.Questions(species.UniverseLordOfTheRings))
	assert.Len(t, cat.AllItems(), 15)
}

func TestNew_RejectsDuplicates(t *testing.T) {
	sp := &species.Species{ID: 1, Name: "Porg", Universe: species.UniverseStarWars}
	_, err := content.New([]*species.Species{sp, sp}, nil, nil)
	assert.ErrorContains(t, err, "duplicate species")

	q := quiz.Question{ID: 1, Text: "t", Options: []string{"a", "b"}, CorrectAnswer: "a", Universe: species.UniverseStarWars}
	_, err = content.New(nil, nil, []quiz.Question{q, q})
	assert.ErrorContains(t, err, "duplicate question")

	it := &inventory.Item{ID: 1, Name: "x", Type: inventory.TypeGear, Rarity: inventory.RarityCommon}
	_, err = content.New(nil, []*inventory.Item{it, it}, nil)
	assert.ErrorContains(t, err, "already registered")
}

func TestCatalog_Lookups(t *testing.T) {
	sp := &species.Species{ID: 2, Name: "Dwarfling", Universe: species.UniverseLordOfTheRings, AllowedWeapons: []string{"Axe"}}
	it := &inventory.Item{ID: 5, Name: "Helm", Type: inventory.TypeGear, Rarity: inventory.RarityRare}
	cat, err := content.New([]*species.Species{sp}, []*inventory.Item{it}, nil)
	require.NoError(t, err)

	got, ok := cat.Species(2)
	require.True(t, ok)
	assert.Same(t, sp, got)
	_, ok = cat.Species(3)
	assert.False(t, ok)

	gotItem, ok := cat.Item(5)
	require.True(t, ok)
	assert.Equal(t, "Helm", gotItem.Name)
	assert.Empty(t, cat.Questions(species.UniverseStarWars))
}
