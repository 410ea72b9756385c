package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/mythic/internal/content"
	"github.com/cory-johannsen/mythic/internal/game/inventory"
	"github.com/cory-johannsen/mythic/internal/game/quiz"
	"github.com/cory-johannsen/mythic/internal/game/species"
)

// CatalogRepository mirrors the content catalog into the species, items and
// quiz_questions tables.
type CatalogRepository struct {
	pool *Pool
}

// NewCatalogRepository creates a CatalogRepository backed by pool.
func NewCatalogRepository(pool *Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// UpsertCounts reports how many rows of each kind were written.
type UpsertCounts struct {
	Species   int
	Items     int
	Questions int
}

// Upsert writes every entry of cat in one transaction. Existing rows with the
// same ID are overwritten; rows absent from cat are left in place.
//
// Postcondition: either all rows are written or none are.
func (r *CatalogRepository) Upsert(ctx context.Context, cat *content.Catalog) (UpsertCounts, error) {
	var counts UpsertCounts
	batch := &pgx.Batch{}
	for _, sp := range cat.AllSpecies() {
		weapons := sp.AllowedWeapons
		if weapons == nil {
			weapons = []string{}
		}
		assets := sp.Assets
		if assets == nil {
			assets = map[string]string{}
		}
		batch.Queue(`
			INSERT INTO species (id, name, universe, allowed_weapons, assets)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, universe = EXCLUDED.universe,
				allowed_weapons = EXCLUDED.allowed_weapons, assets = EXCLUDED.assets`,
			sp.ID, sp.Name, string(sp.Universe), weapons, assets)
		counts.Species++
	}
	for _, it := range cat.AllItems() {
		batch.Queue(`
			INSERT INTO items (id, name, description, item_type, rarity,
				health_bonus, hunger_bonus, energy_bonus, happiness_bonus)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, description = EXCLUDED.description,
				item_type = EXCLUDED.item_type, rarity = EXCLUDED.rarity,
				health_bonus = EXCLUDED.health_bonus, hunger_bonus = EXCLUDED.hunger_bonus,
				energy_bonus = EXCLUDED.energy_bonus, happiness_bonus = EXCLUDED.happiness_bonus`,
			it.ID, it.Name, it.Description, string(it.Type), string(it.Rarity),
			it.HealthBonus, it.HungerBonus, it.EnergyBonus, it.HappinessBonus)
		counts.Items++
	}
	for _, q := range cat.AllQuestions() {
		batch.Queue(`
			INSERT INTO quiz_questions (id, question_text, options, correct_answer, universe)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				question_text = EXCLUDED.question_text, options = EXCLUDED.options,
				correct_answer = EXCLUDED.correct_answer, universe = EXCLUDED.universe`,
			q.ID, q.Text, q.Options, q.CorrectAnswer, string(q.Universe))
		counts.Questions++
	}

	err := pgx.BeginFunc(ctx, r.pool.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return UpsertCounts{}, fmt.Errorf("upserting catalog: %w", err)
	}
	return counts, nil
}

// Load reads the reference tables and builds a validated Catalog.
func (r *CatalogRepository) Load(ctx context.Context) (*content.Catalog, error) {
	db := r.pool.pool

	rows, err := db.Query(ctx,
		`SELECT id, name, universe, allowed_weapons, assets FROM species ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying species: %w", err)
	}
	sps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*species.Species, error) {
		var sp species.Species
		err := row.Scan(&sp.ID, &sp.Name, &sp.Universe, &sp.AllowedWeapons, &sp.Assets)
		return &sp, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning species: %w", err)
	}

	rows, err = db.Query(ctx, `
		SELECT id, name, description, item_type, rarity,
			health_bonus, hunger_bonus, energy_bonus, happiness_bonus
		FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*inventory.Item, error) {
		var it inventory.Item
		err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Type, &it.Rarity,
			&it.HealthBonus, &it.HungerBonus, &it.EnergyBonus, &it.HappinessBonus)
		return &it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning items: %w", err)
	}

	rows, err = db.Query(ctx,
		`SELECT id, question_text, options, correct_answer, universe FROM quiz_questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	questions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (quiz.Question, error) {
		var q quiz.Question
		err := row.Scan(&q.ID, &q.Text, &q.Options, &q.CorrectAnswer, &q.Universe)
		return q, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning questions: %w", err)
	}

	return content.New(sps, items, questions)
}
