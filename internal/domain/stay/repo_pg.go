package stay

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

// =========== Hospitalization Repository ===========

type hospitalizationRepoPG struct{ pool *pgxpool.Pool }

func NewHospitalizationRepoPG(pool *pgxpool.Pool) HospitalizationRepository {
	return &hospitalizationRepoPG{pool: pool}
}

const hospCols = `id, patient_name, weight_kg, admission_at, archived_at, created_at, updated_at`

func scanHospitalization(row pgx.Row) (*Hospitalization, error) {
	var h Hospitalization
	err := row.Scan(&h.ID, &h.PatientName, &h.WeightKg, &h.AdmissionAt, &h.ArchivedAt, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *hospitalizationRepoPG) Create(ctx context.Context, h *Hospitalization) error {
	h.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO hospitalization (id, patient_name, weight_kg, admission_at)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		h.ID, h.PatientName, h.WeightKg, h.AdmissionAt,
	).Scan(&h.CreatedAt, &h.UpdatedAt)
}

func (r *hospitalizationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospitalization, error) {
	return scanHospitalization(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+hospCols+` FROM hospitalization WHERE id = $1`, id))
}

func (r *hospitalizationRepoPG) Update(ctx context.Context, h *Hospitalization) error {
	return conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE hospitalization
		SET patient_name = $2, weight_kg = $3, admission_at = $4, archived_at = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		h.ID, h.PatientName, h.WeightKg, h.AdmissionAt, h.ArchivedAt,
	).Scan(&h.UpdatedAt)
}

func (r *hospitalizationRepoPG) List(ctx context.Context, includeArchived bool, limit, offset int) ([]*Hospitalization, int, error) {
	q := conn(ctx, r.pool)

	filter := `WHERE archived_at IS NULL`
	if includeArchived {
		filter = ``
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM hospitalization `+filter).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
		SELECT `+hospCols+` FROM hospitalization `+filter+`
		ORDER BY admission_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Hospitalization
	for rows.Next() {
		var h Hospitalization
		if err := rows.Scan(&h.ID, &h.PatientName, &h.WeightKg, &h.AdmissionAt, &h.ArchivedAt, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &h)
	}
	return items, total, rows.Err()
}

// =========== MaterialUsage Repository ===========

type materialUsageRepoPG struct{ pool *pgxpool.Pool }

func NewMaterialUsageRepoPG(pool *pgxpool.Pool) MaterialUsageRepository {
	return &materialUsageRepoPG{pool: pool}
}

func (r *materialUsageRepoPG) Create(ctx context.Context, u *MaterialUsage) error {
	u.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO material_usage (id, hospitalization_id, material_id, quantity, recorded_by)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING recorded_at`,
		u.ID, u.HospitalizationID, u.MaterialID, u.Quantity, u.RecordedBy,
	).Scan(&u.RecordedAt)
}

func (r *materialUsageRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM material_usage WHERE id = $1`, id)
	return err
}

func (r *materialUsageRepoPG) ListByHospitalization(ctx context.Context, hospitalizationID uuid.UUID) ([]*MaterialUsage, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, hospitalization_id, material_id, quantity, recorded_by, recorded_at
		FROM material_usage WHERE hospitalization_id = $1 ORDER BY recorded_at`, hospitalizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MaterialUsage
	for rows.Next() {
		var u MaterialUsage
		if err := rows.Scan(&u.ID, &u.HospitalizationID, &u.MaterialID, &u.Quantity, &u.RecordedBy, &u.RecordedAt); err != nil {
			return nil, err
		}
		items = append(items, &u)
	}
	return items, rows.Err()
}
