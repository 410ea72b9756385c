package gameserver

import (
	"context"
	"time"

	"github.com/cory-johannsen/mythic/internal/game/companion"
	"github.com/cory-johannsen/mythic/internal/game/inventory"
	"github.com/cory-johannsen/mythic/internal/game/quiz"
	"github.com/cory-johannsen/mythic/internal/game/species"
	"github.com/cory-johannsen/mythic/internal/game/user"
)

// Store runs units of work against persisted users, companions and stacks.
type Store interface {
	// RunInTx runs fn as one atomic unit of work. Its writes become visible
	// iff fn returns nil; locks taken through tx are held until it returns.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the view of the store inside one unit of work. Lookups of missing
// rows return errors wrapping companion.ErrNotFound.
//
// Lock order: a unit of work locks at most one companion (or all of one
// owner's companions) before touching that owner's stacks.
type Tx interface {
	CreateUser(ctx context.Context, username string, now time.Time) (user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)

	// CreateCompanion inserts c and returns it with its ID assigned.
	CreateCompanion(ctx context.Context, c companion.Companion) (companion.Companion, error)
	// LockCompanion loads a companion and holds it exclusively for the rest of
	// the unit of work.
	LockCompanion(ctx context.Context, id int64) (companion.Companion, error)
	// LockOwnerCompanions locks and returns every companion of ownerID, by ID.
	LockOwnerCompanions(ctx context.Context, ownerID int64) ([]companion.Companion, error)
	SaveCompanion(ctx context.Context, c companion.Companion) error
	// GearHolder returns the ID of the companion whose gear slot references
	// stackID, or 0.
	GearHolder(ctx context.Context, stackID int64) (int64, error)

	// LockStack loads a stack and holds it exclusively.
	LockStack(ctx context.Context, id int64) (inventory.Stack, error)
	OwnerStacks(ctx context.Context, ownerID int64) ([]inventory.Stack, error)
	SaveStack(ctx context.Context, s inventory.Stack) error
	DeleteStack(ctx context.Context, id int64) error
	// GrantItem adds n units of itemID to ownerID's stack, creating it if needed.
	GrantItem(ctx context.Context, ownerID, itemID int64, n int) (inventory.Stack, error)
}

// Catalog is the read-only reference data.
type Catalog interface {
	Species(id int64) (*species.Species, bool)
	AllSpecies() []*species.Species
	Item(id int64) (*inventory.Item, bool)
	ItemsByRarity(r inventory.Rarity) []*inventory.Item
	Questions(u species.Universe) []quiz.Question
}

// Reactor produces optional flavour text for an applied action.
type Reactor interface {
	Reaction(key, action string, attrs map[string]any) string
}

type noReactions struct{}

func (noReactions) Reaction(string, string, map[string]any) string { return "" }
