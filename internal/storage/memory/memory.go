// Package memory provides an in-process store for development and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/cory-johannsen/mythic/internal/game/companion"
	"github.com/cory-johannsen/mythic/internal/game/inventory"
	"github.com/cory-johannsen/mythic/internal/game/user"
	"github.com/cory-johannsen/mythic/internal/gameserver"
)

// Store keeps users, companions and stacks in maps. Units of work run one at
// a time against a private copy of the data that replaces the live data only
// when the unit of work succeeds.
// All methods are safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	data state
}

type state struct {
	users      map[int64]user.User
	usernames  map[string]int64
	companions map[int64]companion.Companion
	stacks     map[int64]inventory.Stack

	nextUser      int64
	nextCompanion int64
	nextStack     int64
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{data: state{
		users:      make(map[int64]user.User),
		usernames:  make(map[string]int64),
		companions: make(map[int64]companion.Companion),
		stacks:     make(map[int64]inventory.Stack),
	}}
}

func (s state) clone() state {
	s.users = maps.Clone(s.users)
	s.usernames = maps.Clone(s.usernames)
	s.companions = maps.Clone(s.companions)
	s.stacks = maps.Clone(s.stacks)
	return s
}

// RunInTx implements gameserver.Store.
//
// Postcondition: fn's writes are visible to later units of work iff fn
// returns nil and ctx was not cancelled.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx gameserver.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &tx{data: s.data.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

type tx struct {
	data state
}

func missing(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, companion.ErrNotFound)
}

func (t *tx) CreateUser(_ context.Context, username string, now time.Time) (user.User, error) {
	if _, taken := t.data.usernames[username]; taken {
		return user.User{}, user.ErrUsernameTaken
	}
	t.data.nextUser++
	u := user.User{ID: t.data.nextUser, Username: username, CreatedAt: now}
	t.data.users[u.ID] = u
	t.data.usernames[username] = u.ID
	return u, nil
}

func (t *tx) GetUser(_ context.Context, id int64) (user.User, error) {
	u, ok := t.data.users[id]
	if !ok {
		return user.User{}, missing("user", id)
	}
	return u, nil
}

func (t *tx) CreateCompanion(_ context.Context, c companion.Companion) (companion.Companion, error) {
	if _, ok := t.data.users[c.OwnerID]; !ok {
		return companion.Companion{}, missing("user", c.OwnerID)
	}
	t.data.nextCompanion++
	c.ID = t.data.nextCompanion
	t.data.companions[c.ID] = c
	return c, nil
}

func (t *tx) LockCompanion(_ context.Context, id int64) (companion.Companion, error) {
	c, ok := t.data.companions[id]
	if !ok {
		return companion.Companion{}, missing("companion", id)
	}
	return c, nil
}

func (t *tx) LockOwnerCompanions(_ context.Context, ownerID int64) ([]companion.Companion, error) {
	var out []companion.Companion
	for _, c := range t.data.companions {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b companion.Companion) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (t *tx) SaveCompanion(_ context.Context, c companion.Companion) error {
	if _, ok := t.data.companions[c.ID]; !ok {
		return missing("companion", c.ID)
	}
	t.data.companions[c.ID] = c
	return nil
}

func (t *tx) GearHolder(_ context.Context, stackID int64) (int64, error) {
	for _, c := range t.data.companions {
		if c.EquippedGearID == stackID {
			return c.ID, nil
		}
	}
	return 0, nil
}

func (t *tx) LockStack(_ context.Context, id int64) (inventory.Stack, error) {
	st, ok := t.data.stacks[id]
	if !ok {
		return inventory.Stack{}, missing("stack", id)
	}
	return st, nil
}

func (t *tx) OwnerStacks(_ context.Context, ownerID int64) ([]inventory.Stack, error) {
	var out []inventory.Stack
	for _, st := range t.data.stacks {
		if st.OwnerID == ownerID {
			out = append(out, st)
		}
	}
	slices.SortFunc(out, func(a, b inventory.Stack) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (t *tx) SaveStack(_ context.Context, st inventory.Stack) error {
	if _, ok := t.data.stacks[st.ID]; !ok {
		return missing("stack", st.ID)
	}
	t.data.stacks[st.ID] = st
	return nil
}

// DeleteStack removes the stack and clears any gear slot referencing it.
func (t *tx) DeleteStack(_ context.Context, id int64) error {
	if _, ok := t.data.stacks[id]; !ok {
		return missing("stack", id)
	}
	delete(t.data.stacks, id)
	for cid, c := range t.data.companions {
		if c.EquippedGearID == id {
			c.EquippedGearID = 0
			t.data.companions[cid] = c
		}
	}
	return nil
}

func (t *tx) GrantItem(_ context.Context, ownerID, itemID int64, n int) (inventory.Stack, error) {
	if n <= 0 {
		return inventory.Stack{}, fmt.Errorf("memory: grant quantity must be > 0, got %d", n)
	}
	if _, ok := t.data.users[ownerID]; !ok {
		return inventory.Stack{}, missing("user", ownerID)
	}
	for id, st := range t.data.stacks {
		if st.OwnerID == ownerID && st.ItemID == itemID {
			st.Quantity += n
			t.data.stacks[id] = st
			return st, nil
		}
	}
	t.data.nextStack++
	st := inventory.Stack{ID: t.data.nextStack, OwnerID: ownerID, ItemID: itemID, Quantity: n}
	t.data.stacks[st.ID] = st
	return st, nil
}
