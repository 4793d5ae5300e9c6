package medication

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardchart/wardchart/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Medication Repository ===========

type medicationRepoPG struct{ pool *pgxpool.Pool }

func NewMedicationRepoPG(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepoPG{pool: pool}
}

const medCols = `id, name, unit, dose_min_per_kg, dose_max_per_kg, dose_unit, concentration, concentration_unit, created_at, updated_at`

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.Name, &m.Unit, &m.DoseMinPerKg, &m.DoseMaxPerKg, &m.DoseUnit, &m.Concentration, &m.ConcentrationUnit, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *medicationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return scanMedication(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+medCols+` FROM medication WHERE id = $1`, id))
}

func (r *medicationRepoPG) List(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	return r.query(ctx, `SELECT `+medCols+` FROM medication ORDER BY name LIMIT $1 OFFSET $2`,
		`SELECT COUNT(*) FROM medication`, nil, limit, offset)
}

func (r *medicationRepoPG) Search(ctx context.Context, name string, limit, offset int) ([]*Medication, int, error) {
	pattern := "%" + name + "%"
	return r.query(ctx, `SELECT `+medCols+` FROM medication WHERE name ILIKE $3 ORDER BY name LIMIT $1 OFFSET $2`,
		`SELECT COUNT(*) FROM medication WHERE name ILIKE $1`, []interface{}{pattern}, limit, offset)
}

func (r *medicationRepoPG) query(ctx context.Context, listSQL, countSQL string, extra []interface{}, limit, offset int) ([]*Medication, int, error) {
	q := conn(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, countSQL, extra...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append([]interface{}{limit, offset}, extra...)
	rows, err := q.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.DoseMinPerKg, &m.DoseMaxPerKg, &m.DoseUnit, &m.Concentration, &m.ConcentrationUnit, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &m)
	}
	return items, total, rows.Err()
}

// =========== Material Repository ===========

type materialRepoPG struct{ pool *pgxpool.Pool }

func NewMaterialRepoPG(pool *pgxpool.Pool) MaterialRepository {
	return &materialRepoPG{pool: pool}
}

func (r *materialRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Material, error) {
	var m Material
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT id, name, unit, created_at FROM material WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.Unit, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *materialRepoPG) List(ctx context.Context, limit, offset int) ([]*Material, int, error) {
	q := conn(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM material`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `SELECT id, name, unit, created_at FROM material ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &m)
	}
	return items, total, rows.Err()
}
