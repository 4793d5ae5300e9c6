package chart

import (
	"context"
	"errors"
	"time"

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

// =========== ChartRow Repository ===========

type rowRepoPG struct{ pool *pgxpool.Pool }

func NewRowRepoPG(pool *pgxpool.Pool) RowRepository {
	return &rowRepoPG{pool: pool}
}

const rowCols = `id, hospitalization_id, kind, label, unit, sort_order, options, medication_id, created_at`

func scanRow(row pgx.Row) (*ChartRow, error) {
	var r ChartRow
	err := row.Scan(&r.ID, &r.HospitalizationID, &r.Kind, &r.Label, &r.Unit, &r.SortOrder, &r.Options, &r.MedicationID, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *rowRepoPG) Create(ctx context.Context, row *ChartRow) error {
	row.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO chart_row (id, hospitalization_id, kind, label, unit, sort_order, options, medication_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		row.ID, row.HospitalizationID, row.Kind, row.Label, row.Unit, row.SortOrder, row.Options, row.MedicationID,
	).Scan(&row.CreatedAt)
}

func (r *rowRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ChartRow, error) {
	return scanRow(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+rowCols+` FROM chart_row WHERE id = $1`, id))
}

// Delete removes the row; the chart_entry and schedule foreign keys cascade.
func (r *rowRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM chart_row WHERE id = $1`, id)
	return err
}

func (r *rowRepoPG) ListByHospitalization(ctx context.Context, hospitalizationID uuid.UUID) ([]*ChartRow, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+rowCols+` FROM chart_row
		WHERE hospitalization_id = $1
		ORDER BY sort_order, created_at`, hospitalizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ChartRow
	for rows.Next() {
		var cr ChartRow
		if err := rows.Scan(&cr.ID, &cr.HospitalizationID, &cr.Kind, &cr.Label, &cr.Unit, &cr.SortOrder, &cr.Options, &cr.MedicationID, &cr.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &cr)
	}
	return items, rows.Err()
}

// =========== ChartEntry Repository ===========

type entryRepoPG struct{ pool *pgxpool.Pool }

func NewEntryRepoPG(pool *pgxpool.Pool) EntryRepository {
	return &entryRepoPG{pool: pool}
}

// Entries are read joined with their row so the value union carries its kind.
const entryCols = `e.id, e.row_id, r.kind, e.at_time, e.value_numeric, e.value_option, e.value_check, e.value_text, e.amount, e.amount_unit, e.flagged, e.author_id, e.created_at, e.updated_at`

func scanEntry(row pgx.Row) (*ChartEntry, error) {
	var e ChartEntry
	err := row.Scan(&e.ID, &e.RowID, &e.Value.Kind, &e.AtTime,
		&e.Value.Numeric, &e.Value.OptionID, &e.Value.Check, &e.Value.Text, &e.Value.Amount, &e.Value.AmountUnit,
		&e.Flagged, &e.AuthorID, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Upsert writes the entry, coalescing on the store-enforced (row_id, at_time)
// uniqueness: a concurrent insert for the same cell becomes an update of the
// value fields, never a duplicate.
func (r *entryRepoPG) Upsert(ctx context.Context, e *ChartEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO chart_entry (id, row_id, at_time, value_numeric, value_option, value_check, value_text, amount, amount_unit, flagged, author_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (row_id, at_time) DO UPDATE SET
			value_numeric = EXCLUDED.value_numeric,
			value_option  = EXCLUDED.value_option,
			value_check   = EXCLUDED.value_check,
			value_text    = EXCLUDED.value_text,
			amount        = EXCLUDED.amount,
			amount_unit   = EXCLUDED.amount_unit,
			updated_at    = NOW()
		RETURNING id, created_at, updated_at`,
		e.ID, e.RowID, e.AtTime,
		e.Value.Numeric, e.Value.OptionID, e.Value.Check, e.Value.Text, e.Value.Amount, e.Value.AmountUnit,
		e.Flagged, e.AuthorID,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *entryRepoPG) GetByCell(ctx context.Context, rowID uuid.UUID, hour time.Time) (*ChartEntry, error) {
	return scanEntry(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+entryCols+` FROM chart_entry e
		JOIN chart_row r ON r.id = e.row_id
		WHERE e.row_id = $1 AND e.at_time = $2`, rowID, hour))
}

func (r *entryRepoPG) SetFlagged(ctx context.Context, id uuid.UUID, flagged bool) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE chart_entry SET flagged = $2, updated_at = NOW() WHERE id = $1`, id, flagged)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *entryRepoPG) DeleteByCell(ctx context.Context, rowID uuid.UUID, hour time.Time) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM chart_entry WHERE row_id = $1 AND at_time = $2`, rowID, hour)
	return err
}

func (r *entryRepoPG) ListByHospitalization(ctx context.Context, hospitalizationID uuid.UUID) ([]*ChartEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+entryCols+` FROM chart_entry e
		JOIN chart_row r ON r.id = e.row_id
		WHERE r.hospitalization_id = $1
		ORDER BY e.at_time`, hospitalizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ChartEntry
	for rows.Next() {
		var e ChartEntry
		if err := rows.Scan(&e.ID, &e.RowID, &e.Value.Kind, &e.AtTime,
			&e.Value.Numeric, &e.Value.OptionID, &e.Value.Check, &e.Value.Text, &e.Value.Amount, &e.Value.AmountUnit,
			&e.Flagged, &e.AuthorID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}

// =========== Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepoPG{pool: pool}
}

const scheduleCols = `id, row_id, start_at, interval_minutes, end_at, occurrences, default_value, created_by, created_at`

func scanSchedule(row pgx.Row) (*Schedule, error) {
	var s Schedule
	err := row.Scan(&s.ID, &s.RowID, &s.StartAt, &s.IntervalMinutes, &s.EndAt, &s.Occurrences, &s.DefaultValue, &s.CreatedBy, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *scheduleRepoPG) Create(ctx context.Context, s *Schedule) error {
	s.ID = uuid.New()
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO schedule (id, row_id, start_at, interval_minutes, end_at, occurrences, default_value, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at`,
		s.ID, s.RowID, s.StartAt, s.IntervalMinutes, s.EndAt, s.Occurrences, s.DefaultValue, s.CreatedBy,
	).Scan(&s.CreatedAt)
}

func (r *scheduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Schedule, error) {
	return scanSchedule(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+scheduleCols+` FROM schedule WHERE id = $1`, id))
}

func (r *scheduleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM schedule WHERE id = $1`, id)
	return err
}

func (r *scheduleRepoPG) ListByHospitalization(ctx context.Context, hospitalizationID uuid.UUID) ([]*Schedule, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT s.id, s.row_id, s.start_at, s.interval_minutes, s.end_at, s.occurrences, s.default_value, s.created_by, s.created_at
		FROM schedule s
		JOIN chart_row r ON r.id = s.row_id
		WHERE r.hospitalization_id = $1
		ORDER BY s.created_at`, hospitalizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Schedule
	for rows.Next() {
		var s Schedule
		if err := rows.Scan(&s.ID, &s.RowID, &s.StartAt, &s.IntervalMinutes, &s.EndAt, &s.Occurrences, &s.DefaultValue, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

// =========== RowTemplate Repository ===========

type templateRepoPG struct{ pool *pgxpool.Pool }

func NewTemplateRepoPG(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepoPG{pool: pool}
}

func (r *templateRepoPG) List(ctx context.Context) ([]*RowTemplate, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name, created_at FROM row_template ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*RowTemplate
	for rows.Next() {
		var t RowTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &t)
	}
	return items, rows.Err()
}

func (r *templateRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*RowTemplate, error) {
	var t RowTemplate
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT id, name, created_at FROM row_template WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *templateRepoPG) GetRows(ctx context.Context, templateID uuid.UUID) ([]*TemplateRow, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, template_id, kind, label, unit, sort_order, options, medication_id, interval_minutes, occurrences, start_offset_minutes
		FROM template_row WHERE template_id = $1 ORDER BY sort_order`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*TemplateRow
	for rows.Next() {
		var tr TemplateRow
		if err := rows.Scan(&tr.ID, &tr.TemplateID, &tr.Kind, &tr.Label, &tr.Unit, &tr.SortOrder, &tr.Options, &tr.MedicationID, &tr.IntervalMinutes, &tr.Occurrences, &tr.StartOffsetMinutes); err != nil {
			return nil, err
		}
		items = append(items, &tr)
	}
	return items, rows.Err()
}
