package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/mythic/internal/content"
	"github.com/cory-johannsen/mythic/internal/game/companion"
	"github.com/cory-johannsen/mythic/internal/game/dice"
	"github.com/cory-johannsen/mythic/internal/game/user"
	"github.com/cory-johannsen/mythic/internal/gameserver"
	"github.com/cory-johannsen/mythic/internal/storage/postgres"
	"github.com/cory-johannsen/mythic/internal/testutil"
)

var now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano()%1_000_000_000)
}

// setupStore returns a store over a migrated database seeded with the
// repository's content, and the catalog that was seeded.
func setupStore(t *testing.T) (*postgres.Store, *content.Catalog, *postgres.Pool) {
	t.Helper()
	pool := testutil.NewPool(t)
	cat, err := content.Load(testutil.ContentConfig())
	require.NoError(t, err)
	_, err = postgres.NewCatalogRepository(pool).Upsert(context.Background(), cat)
	require.NoError(t, err)
	return postgres.NewStore(pool), cat, pool
}

func createUser(t *testing.T, s *postgres.Store) user.User {
	t.Helper()
	var u user.User
	require.NoError(t, s.RunInTx(context.Background(), func(ctx context.Context, tx gameserver.Tx) error {
		var err error
		u, err = tx.CreateUser(ctx, uniqueName("u"), now)
		return err
	}))
	return u
}

func TestCatalogRepository_RoundTrip(t *testing.T) {
	_, cat, pool := setupStore(t)
	repo := postgres.NewCatalogRepository(pool)

	counts, err := repo.Upsert(context.Background(), cat)
	require.NoError(t, err)
	assert.Equal(t, postgres.UpsertCounts{Species: 4, Items: 15, Questions: 4}, counts)

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cat.AllSpecies(), loaded.AllSpecies())
	assert.Equal(t, cat.AllItems(), loaded.AllItems())
	assert.ElementsMatch(t, cat.AllQuestions(), loaded.AllQuestions())
}

func TestStore_Users(t *testing.T) {
	s, _, _ := setupStore(t)
	u := createUser(t, s)

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx gameserver.Tx) error {
		got, err := tx.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Username, got.Username)

		_, err = tx.GetUser(ctx, -1)
		assert.ErrorIs(t, err, companion.ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	err = s.RunInTx(context.Background(), func(ctx context.Context, tx gameserver.Tx) error {
		_, err := tx.CreateUser(ctx, u.Username, now)
		return err
	})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
}

func TestStore_CompanionRoundTripAndRollback(t *testing.T) {
	s, _, _ := setupStore(t)
	u := createUser(t, s)

	var c companion.Companion
	require.NoError(t, s.RunInTx(context.Background(), func(ctx context.Context, tx gameserver.Tx) error {
		var err error
		c, err = tx.CreateCompanion(ctx, companion.New(u.ID, 1, "Pip", now))
		return err
	}))
	assert.Positive(t, c.ID)
	assert.Zero(t, c.EquippedGearID)

	boom := errors.New("boom")
	err := s.RunInTx(context.Background(), func(ctx context.Context, tx gameserver.Tx) error {
		locked, err := tx.LockCompanion(ctx, c.ID)
		require.NoError(t, err)
		locked.Hunger = 5
		require.NoError(t, tx.SaveCompanion(ctx, locked))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.RunInTx(context.Background(), func(ctx context.Context, tx gameserver.Tx) error {
		got, err := tx.LockCompanion(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, got.Hunger)
		assert.True(t, got.LastUpdated.Equal(now))

		_, err = tx.LockCompanion(ctx, -1)
		assert.ErrorIs(t, err, companion.ErrNotFound)
		return nil
	}))

	err = s.RunInTx(context.Background(), func(ctx context.Context, tx gameserver.Tx) error {
		_, err := tx.CreateCompanion(ctx, companion.New(u.ID, 999, "Ghost", now))
		return err
	})
	assert.ErrorIs(t, err, companion.ErrNotFound)
}

func TestStore_GrantMergeAndGearSlot(t *testing.T) {
	s, _, _ := setupStore(t)
	u := createUser(t, s)

	require.NoError(t, s.RunInTx(context.Background(), func(ctx context.Context, tx gameserver.Tx) error {
		first, err := tx.GrantItem(ctx, u.ID, 14, 1)
		require.NoError(t, err)
		merged, err := tx.GrantItem(ctx, u.ID, 14, 2)
		require.NoError(t, err)
		assert.Equal(t, first.ID, merged.ID)
		assert.Equal(t, 3, merged.Quantity)

		a, err := tx.CreateCompanion(ctx, companion.New(u.ID, 4, "Gimli", now))
		require.NoError(t, err)
		a.EquippedGearID = merged.ID
		require.NoError(t, tx.SaveCompanion(ctx, a))

		holder, err := tx.GearHolder(ctx, merged.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, holder)

		require.NoError(t, tx.DeleteStack(ctx, merged.ID))
		got, err := tx.LockCompanion(ctx, a.ID)
		require.NoError(t, err)
		assert.Zero(t, got.EquippedGearID)

		stacks, err := tx.OwnerStacks(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, stacks)
		return nil
	}))
}

func TestStore_GearSlotIsExclusive(t *testing.T) {
	s, _, _ := setupStore(t)
	u := createUser(t, s)

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx gameserver.Tx) error {
		st, err := tx.GrantItem(ctx, u.ID, 14, 1)
		require.NoError(t, err)
		a, err := tx.CreateCompanion(ctx, companion.New(u.ID, 4, "Gimli", now))
		require.NoError(t, err)
		b, err := tx.CreateCompanion(ctx, companion.New(u.ID, 4, "Gloin", now))
		require.NoError(t, err)

		a.EquippedGearID = st.ID
		require.NoError(t, tx.SaveCompanion(ctx, a))
		b.EquippedGearID = st.ID
		return tx.SaveCompanion(ctx, b)
	})
	var rej *companion.RejectedError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, companion.ReasonGearInUse, rej.Reason)
}

func TestCompanionHandler_ConcurrentPlaysOnPostgres(t *testing.T) {
	s, cat, _ := setupStore(t)
	logger := zaptest.NewLogger(t)
	clock := gameserver.NewManualClock(now)
	h := gameserver.NewCompanionHandler(s, cat, clock, dice.NewLoggedRoller(dice.NewSeededSource(1), logger),
		nil, gameserver.HandlerConfig{}, logger)

	u, err := h.RegisterUser(context.Background(), uniqueName("p"))
	require.NoError(t, err)
	c, err := h.CreateCompanion(context.Background(), u.ID, 1, "Pip")
	require.NoError(t, err)

	const plays = 4
	var wg sync.WaitGroup
	errs := make(chan error, plays)
	for range plays {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.PerformAction(context.Background(), u.ID, c.ID, "play")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := h.DecayAndFetch(context.Background(), u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 100-plays*20, got.Energy)
	assert.Equal(t, 100-plays*10, got.Hunger)

	res, err := h.CompleteMiniGame(context.Background(), u.ID, c.ID, 95)
	require.NoError(t, err)
	require.NotNil(t, res.Granted)
	assert.Equal(t, "RARE", string(res.Granted.Rarity))
}
