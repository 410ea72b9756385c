package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/mythic/internal/game/companion"
	"github.com/cory-johannsen/mythic/internal/game/inventory"
)

const stackColumns = `id, owner_id, item_id, quantity, equipped`

func scanStack(row pgx.Row) (inventory.Stack, error) {
	var s inventory.Stack
	err := row.Scan(&s.ID, &s.OwnerID, &s.ItemID, &s.Quantity, &s.Equipped)
	return s, err
}

// LockStack selects the stack row FOR UPDATE.
func (t *tx) LockStack(ctx context.Context, id int64) (inventory.Stack, error) {
	s, err := scanStack(t.db.QueryRow(ctx,
		`SELECT `+stackColumns+` FROM inventory_items WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Stack{}, notFound("stack", id)
		}
		return inventory.Stack{}, fmt.Errorf("locking stack: %w", err)
	}
	return s, nil
}

// OwnerStacks lists ownerID's stacks in ID order.
func (t *tx) OwnerStacks(ctx context.Context, ownerID int64) ([]inventory.Stack, error) {
	rows, err := t.db.Query(ctx,
		`SELECT `+stackColumns+` FROM inventory_items WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing stacks: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (inventory.Stack, error) {
		return scanStack(row)
	})
}

// SaveStack writes the quantity and equipped flag of s.
func (t *tx) SaveStack(ctx context.Context, s inventory.Stack) error {
	tag, err := t.db.Exec(ctx,
		`UPDATE inventory_items SET quantity = $2, equipped = $3 WHERE id = $1`,
		s.ID, s.Quantity, s.Equipped)
	if err != nil {
		return fmt.Errorf("updating stack: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("stack", s.ID)
	}
	return nil
}

// DeleteStack removes the stack. A companion wearing it has its gear slot
// cleared by the ON DELETE SET NULL constraint.
func (t *tx) DeleteStack(ctx context.Context, id int64) error {
	tag, err := t.db.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting stack: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("stack", id)
	}
	return nil
}

// GrantItem adds n units of itemID to ownerID, merging into the existing
// (owner, item) stack.
//
// Precondition: n > 0.
func (t *tx) GrantItem(ctx context.Context, ownerID, itemID int64, n int) (inventory.Stack, error) {
	if n <= 0 {
		return inventory.Stack{}, fmt.Errorf("postgres: grant quantity must be > 0, got %d", n)
	}
	s, err := scanStack(t.db.QueryRow(ctx, `
		INSERT INTO inventory_items (owner_id, item_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, item_id)
		DO UPDATE SET quantity = inventory_items.quantity + EXCLUDED.quantity
		RETURNING `+stackColumns,
		ownerID, itemID, n))
	if err != nil {
		if isForeignKeyError(err) {
			return inventory.Stack{}, fmt.Errorf("user %d or item %d: %w", ownerID, itemID, companion.ErrNotFound)
		}
		return inventory.Stack{}, fmt.Errorf("granting item: %w", err)
	}
	return s, nil
}
