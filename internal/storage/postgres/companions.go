package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/mythic/internal/game/companion"
)

const companionColumns = `id, owner_id, species_id, name,
	health, hunger, energy, happiness, hygiene, skill, sick,
	current_weapon, equipped_gear_id, last_updated, created_at`

func scanCompanion(row pgx.Row) (companion.Companion, error) {
	var (
		c    companion.Companion
		gear *int64
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.SpeciesID, &c.Name,
		&c.Health, &c.Hunger, &c.Energy, &c.Happiness, &c.Hygiene, &c.Skill, &c.Sick,
		&c.CurrentWeapon, &gear, &c.LastUpdated, &c.CreatedAt)
	if gear != nil {
		c.EquippedGearID = *gear
	}
	return c, err
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// CreateCompanion inserts c and returns it with ID set.
//
// Precondition: c.OwnerID and c.SpeciesID reference existing rows.
func (t *tx) CreateCompanion(ctx context.Context, c companion.Companion) (companion.Companion, error) {
	out, err := scanCompanion(t.db.QueryRow(ctx, `
		INSERT INTO companions
			(owner_id, species_id, name, health, hunger, energy, happiness, hygiene,
			 skill, sick, current_weapon, equipped_gear_id, last_updated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+companionColumns,
		c.OwnerID, c.SpeciesID, c.Name, c.Health, c.Hunger, c.Energy, c.Happiness, c.Hygiene,
		c.Skill, c.Sick, c.CurrentWeapon, nullableID(c.EquippedGearID), c.LastUpdated, c.CreatedAt,
	))
	if err != nil {
		if isForeignKeyError(err) {
			return companion.Companion{}, fmt.Errorf("companion owner %d or species %d: %w", c.OwnerID, c.SpeciesID, companion.ErrNotFound)
		}
		return companion.Companion{}, fmt.Errorf("inserting companion: %w", err)
	}
	return out, nil
}

// LockCompanion selects the companion row FOR UPDATE.
func (t *tx) LockCompanion(ctx context.Context, id int64) (companion.Companion, error) {
	c, err := scanCompanion(t.db.QueryRow(ctx,
		`SELECT `+companionColumns+` FROM companions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return companion.Companion{}, notFound("companion", id)
		}
		return companion.Companion{}, fmt.Errorf("locking companion: %w", err)
	}
	return c, nil
}

// LockOwnerCompanions selects every companion of ownerID FOR UPDATE, in ID
// order so concurrent callers acquire row locks in the same sequence.
func (t *tx) LockOwnerCompanions(ctx context.Context, ownerID int64) ([]companion.Companion, error) {
	rows, err := t.db.Query(ctx,
		`SELECT `+companionColumns+` FROM companions WHERE owner_id = $1 ORDER BY id FOR UPDATE`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing companions: %w", err)
	}
	defer rows.Close()

	var out []companion.Companion
	for rows.Next() {
		c, err := scanCompanion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning companion: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating companions: %w", err)
	}
	return out, nil
}

// SaveCompanion writes every mutable column of c.
func (t *tx) SaveCompanion(ctx context.Context, c companion.Companion) error {
	tag, err := t.db.Exec(ctx, `
		UPDATE companions SET
			name = $2, health = $3, hunger = $4, energy = $5, happiness = $6, hygiene = $7,
			skill = $8, sick = $9, current_weapon = $10, equipped_gear_id = $11, last_updated = $12
		WHERE id = $1`,
		c.ID, c.Name, c.Health, c.Hunger, c.Energy, c.Happiness, c.Hygiene,
		c.Skill, c.Sick, c.CurrentWeapon, nullableID(c.EquippedGearID), c.LastUpdated,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return companion.Reject(companion.ErrInvalidOperation, companion.ReasonGearInUse)
		}
		return fmt.Errorf("updating companion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("companion", c.ID)
	}
	return nil
}

// GearHolder returns the companion wearing stackID, or 0.
func (t *tx) GearHolder(ctx context.Context, stackID int64) (int64, error) {
	var id int64
	err := t.db.QueryRow(ctx,
		`SELECT id FROM companions WHERE equipped_gear_id = $1`, stackID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("querying gear holder: %w", err)
	}
	return id, nil
}
