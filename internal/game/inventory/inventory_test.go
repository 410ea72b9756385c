package inventory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/mythic/internal/game/inventory"
)

func intPtr(v int) *int { return &v }

func TestItem_Validate(t *testing.T) {
	ok := &inventory.Item{ID: 1, Name: "Bantha Milk", Type: inventory.TypeConsumable, Rarity: inventory.RarityCommon, HungerBonus: intPtr(20)}
	require.NoError(t, ok.Validate())

	bad := &inventory.Item{ID: 0, Type: "POTION", Rarity: "EPIC", HealthBonus: intPtr(5)}
	err := bad.Validate()
	require.Error(t, err)
	for _, want := range []string{"id must be > 0", "name must not be empty", "type must be one of", "rarity must be one of", "only allowed on consumables"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := inventory.NewRegistry()
	it := &inventory.Item{ID: 7, Name: "Mithril Coat", Type: inventory.TypeGear, Rarity: inventory.RarityLegendary}
	require.NoError(t, r.Register(it))
	if err := r.Register(it); err == nil {
		t.Fatal("expected collision error on second register, got nil")
	}

	got, ok := r.Item(7)
	require.True(t, ok)
	assert.Same(t, it, got)

	_, ok = r.Item(8)
	assert.False(t, ok)
}

func TestRegistry_ByRarity(t *testing.T) {
	r := inventory.NewRegistry()
	for _, it := range []*inventory.Item{
		{ID: 3, Name: "c", Type: inventory.TypeConsumable, Rarity: inventory.RarityRare},
		{ID: 1, Name: "a", Type: inventory.TypeConsumable, Rarity: inventory.RarityRare},
		{ID: 2, Name: "b", Type: inventory.TypeConsumable, Rarity: inventory.RarityCommon},
	} {
		require.NoError(t, r.Register(it))
	}

	rare := r.ByRarity(inventory.RarityRare)
	require.Len(t, rare, 2)
	assert.Equal(t, int64(1), rare[0].ID)
	assert.Equal(t, int64(3), rare[1].ID)

	legendary := r.ByRarity(inventory.RarityLegendary)
	assert.NotNil(t, legendary)
	assert.Empty(t, legendary)
	assert.Len(t, r.All(), 3)
}

func TestStack_Take(t *testing.T) {
	s := inventory.Stack{ID: 1, Quantity: 2}

	left, empty, err := s.Take(1)
	require.NoError(t, err)
	assert.False(t, empty)
	assert.Equal(t, 1, left.Quantity)
	assert.Equal(t, 2, s.Quantity, "receiver must not change")

	left, empty, err = left.Take(1)
	require.NoError(t, err)
	assert.True(t, empty)
	assert.Equal(t, 0, left.Quantity)

	_, _, err = left.Take(1)
	assert.Error(t, err)
	_, _, err = s.Take(0)
	assert.Error(t, err)
}

func TestStack_Take_Property_NeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		q := rapid.IntRange(0, 50).Draw(rt, "quantity")
		n := rapid.IntRange(-5, 60).Draw(rt, "n")
		out, empty, err := inventory.Stack{Quantity: q}.Take(n)
		if err != nil {
			if out.Quantity != q {
				rt.Fatalf("failed take changed quantity to %d", out.Quantity)
			}
			return
		}
		if out.Quantity < 0 || out.Quantity != q-n || empty != (out.Quantity == 0) {
			rt.Fatalf("q=%d n=%d -> %+v empty=%v", q, n, out, empty)
		}
	})
}

func TestLoadItems(t *testing.T) {
	dir := t.TempDir()
	doc := `items:
  - id: 1
    name: Bacta Patch
    type: CONSUMABLE
    rarity: RARE
    health_bonus: 40
  - id: 2
    name: Elven Cloak
    type: GEAR
    rarity: LEGENDARY
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "items.yaml"), []byte(doc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	items, err := inventory.LoadItems(dir)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].HealthBonus)
	assert.Equal(t, 40, *items[0].HealthBonus)
	assert.Nil(t, items[0].HungerBonus)
	assert.False(t, items[1].Consumable())
}

func TestLoadItems_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("items:\n  - id: 1\n    name: x\n    type: GEAR\n    rarity: RARE\n    energy_bonus: 3\n"), 0o644))
	_, err := inventory.LoadItems(dir)
	assert.ErrorContains(t, err, "only allowed on consumables")
}
