package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `name, group_name, fresh_weight_g, water_percent, dm_g, protein_g, fat_g,
	cho_g, fiber_g, ash_g, calcium_mg, phosphorus_mg, iron_mg, energy_kcal`

// PostgresIngredientRepository implements IngredientRepository on the ingredients table
type PostgresIngredientRepository struct{ pool *pgxpool.Pool }

func NewPostgresIngredientRepository(pool *pgxpool.Pool) *PostgresIngredientRepository {
	return &PostgresIngredientRepository{pool: pool}
}

func scanProfile(row pgx.Row) (models.IngredientProfile, error) {
	var p models.IngredientProfile
	err := row.Scan(
		&p.Name,
		&p.Group,
		&p.FreshWeightG,
		&p.WaterPercent,
		&p.DMG,
		&p.ProteinG,
		&p.FatG,
		&p.CHOG,
		&p.FiberG,
		&p.AshG,
		&p.CalciumMg,
		&p.PhosphMg,
		&p.IronMg,
		&p.EnergyKcal,
	)
	return p, err
}

func (r *PostgresIngredientRepository) List(ctx context.Context) ([]models.IngredientProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM ingredients
		ORDER BY group_name, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.IngredientProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresIngredientRepository) GetByName(ctx context.Context, name string) (*models.IngredientProfile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM ingredients WHERE name = $1
	`, name)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert writes all profiles in one transaction
func (r *PostgresIngredientRepository) Upsert(ctx context.Context, profiles []models.IngredientProfile) (int, error) {
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, p := range profiles {
		_, err := tx.Exec(ctx, `
			INSERT INTO ingredients (`+profileColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (name) DO UPDATE SET
				group_name = EXCLUDED.group_name,
				fresh_weight_g = EXCLUDED.fresh_weight_g,
				water_percent = EXCLUDED.water_percent,
				dm_g = EXCLUDED.dm_g,
				protein_g = EXCLUDED.protein_g,
				fat_g = EXCLUDED.fat_g,
				cho_g = EXCLUDED.cho_g,
				fiber_g = EXCLUDED.fiber_g,
				ash_g = EXCLUDED.ash_g,
				calcium_mg = EXCLUDED.calcium_mg,
				phosphorus_mg = EXCLUDED.phosphorus_mg,
				iron_mg = EXCLUDED.iron_mg,
				energy_kcal = EXCLUDED.energy_kcal,
				updated_at = now()
		`, p.Name, p.Group, p.FreshWeightG, p.WaterPercent, p.DMG, p.ProteinG, p.FatG,
			p.CHOG, p.FiberG, p.AshG, p.CalciumMg, p.PhosphMg, p.IronMg, p.EnergyKcal)
		if err != nil {
			return 0, fmt.Errorf("upsert %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(profiles), nil
}

// PostgresFixedRepository implements FixedIngredientRepository on the fixed_ingredients table
type PostgresFixedRepository struct{ pool *pgxpool.Pool }

func NewPostgresFixedRepository(pool *pgxpool.Pool) *PostgresFixedRepository {
	return &PostgresFixedRepository{pool: pool}
}

func (r *PostgresFixedRepository) ListFixed(ctx context.Context) ([]models.FixedContribution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, dm_g, protein_g, fat_g, cho_g, fiber_g, ash_g,
			calcium_mg, phosphorus_mg, iron_mg, energy_kcal
		FROM fixed_ingredients
		ORDER BY position, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.FixedContribution, 0)
	for rows.Next() {
		f := models.FixedContribution{Fixed: true}
		if err := rows.Scan(
			&f.Name,
			&f.DMG,
			&f.ProteinG,
			&f.FatG,
			&f.CHOG,
			&f.FiberG,
			&f.AshG,
			&f.CalciumMg,
			&f.PhosphMg,
			&f.IronMg,
			&f.EnergyKcal,
		); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ReplaceFixed swaps the whole fixed set, keeping the given order
func (r *PostgresFixedRepository) ReplaceFixed(ctx context.Context, fixed []models.FixedContribution) (int, error) {
	for _, f := range fixed {
		if err := f.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM fixed_ingredients`); err != nil {
		return 0, err
	}
	for i, f := range fixed {
		_, err := tx.Exec(ctx, `
			INSERT INTO fixed_ingredients (position, name, dm_g, protein_g, fat_g, cho_g, fiber_g,
				ash_g, calcium_mg, phosphorus_mg, iron_mg, energy_kcal)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		`, i, f.Name, f.DMG, f.ProteinG, f.FatG, f.CHOG, f.FiberG,
			f.AshG, f.CalciumMg, f.PhosphMg, f.IronMg, f.EnergyKcal)
		if err != nil {
			return 0, fmt.Errorf("insert fixed %q: %w", f.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(fixed), nil
}
