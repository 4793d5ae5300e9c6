package chart

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wardchart/wardchart/internal/platform/apperr"
	"github.com/wardchart/wardchart/internal/platform/auth"
)

// TxRunner runs fn atomically. The default runner executes fn directly; main
// installs one backed by a database transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	rows      RowRepository
	entries   EntryRepository
	schedules ScheduleRepository
	templates TemplateRepository
	stays     HospitalizationReader
	dosage    DosageResolver

	timeout time.Duration
	runTx   TxRunner
	now     func() time.Time
}

func NewService(
	rows RowRepository,
	entries EntryRepository,
	schedules ScheduleRepository,
	templates TemplateRepository,
	stays HospitalizationReader,
) *Service {
	return &Service{
		rows:      rows,
		entries:   entries,
		schedules: schedules,
		templates: templates,
		stays:     stays,
		timeout:   15 * time.Second,
		runTx:     func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) },
		now:       time.Now,
	}
}

// SetDosageResolver attaches an optional resolver used to annotate
// medication rows in rendered grids.
func (s *Service) SetDosageResolver(d DosageResolver) {
	s.dosage = d
}

// SetTxRunner installs the transaction runner used by multi-write operations.
func (s *Service) SetTxRunner(r TxRunner) {
	s.runTx = r
}

// SetStoreTimeout bounds every external round trip. Exceeding it surfaces as
// a retryable timeout; the service performs no automatic retries.
func (s *Service) SetStoreTimeout(d time.Duration) {
	s.timeout = d
}

// SetClock overrides the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// ChartData is the full chart of one hospitalization as read from the store.
// The service re-fetches it wholesale after every mutation instead of
// patching in place; the store remains the sole arbiter of cell uniqueness.
type ChartData struct {
	Context   *HospitalizationContext `json:"context"`
	Rows      []*ChartRow             `json:"rows"`
	Entries   []*ChartEntry           `json:"entries"`
	Schedules []*Schedule             `json:"schedules"`
}

// GridView is a rendered grid plus per-medication dose annotations, keyed by
// medication id.
type GridView struct {
	Grid   *Grid                       `json:"grid"`
	Dosage map[string]*DosageReference `json:"dosage,omitempty"`
}

func (s *Service) getHospitalization(ctx context.Context, id uuid.UUID) (*HospitalizationContext, error) {
	hosp, err := s.stays.GetContext(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	if hosp == nil {
		return nil, apperr.NotFoundf("hospitalization %s", id)
	}
	return hosp, nil
}

// GetChart fetches the hospitalization's rows, entries and schedules in one
// round trip bundle.
func (s *Service) GetChart(ctx context.Context, hospitalizationID uuid.UUID) (*ChartData, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	hosp, err := s.getHospitalization(cctx, hospitalizationID)
	if err != nil {
		return nil, err
	}

	rows, err := s.rows.ListByHospitalization(cctx, hospitalizationID)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	entries, err := s.entries.ListByHospitalization(cctx, hospitalizationID)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	schedules, err := s.schedules.ListByHospitalization(cctx, hospitalizationID)
	if err != nil {
		return nil, apperr.FromStore(err)
	}

	return &ChartData{Context: hosp, Rows: rows, Entries: entries, Schedules: schedules}, nil
}

// DayGrid renders one day of the chart.
func (s *Service) DayGrid(ctx context.Context, hospitalizationID uuid.UUID, day time.Time) (*GridView, error) {
	data, err := s.GetChart(ctx, hospitalizationID)
	if err != nil {
		return nil, err
	}
	grid := BuildDayGrid(data.Context.AdmissionAt, day, data.Rows, data.Entries, data.Schedules)
	return s.annotate(ctx, data, grid)
}

// StayGrid renders the chart over the whole stay, admission through now (or
// the archival instant for archived stays).
func (s *Service) StayGrid(ctx context.Context, hospitalizationID uuid.UUID) (*GridView, error) {
	data, err := s.GetChart(ctx, hospitalizationID)
	if err != nil {
		return nil, err
	}
	end := s.now()
	if data.Context.ArchivedAt != nil {
		end = *data.Context.ArchivedAt
	}
	grid := BuildStayGrid(data.Context.AdmissionAt, end, data.Rows, data.Entries, data.Schedules)
	return s.annotate(ctx, data, grid)
}

func (s *Service) annotate(ctx context.Context, data *ChartData, grid *Grid) (*GridView, error) {
	view := &GridView{Grid: grid}
	if s.dosage == nil || data.Context.WeightKg == nil {
		return view, nil
	}

	for _, row := range data.Rows {
		if row.Kind != KindMedication || row.MedicationID == nil {
			continue
		}
		ref, err := s.dosage.RecommendedFor(ctx, *row.MedicationID, *data.Context.WeightKg)
		if err != nil {
			return nil, apperr.FromStore(err)
		}
		if ref == nil {
			continue
		}
		if view.Dosage == nil {
			view.Dosage = make(map[string]*DosageReference)
		}
		view.Dosage[row.MedicationID.String()] = ref
	}
	return view, nil
}

// guardCell resolves the row and its hospitalization, and rejects hours
// before admission. Returns the row and the normalized hour.
func (s *Service) guardCell(ctx context.Context, rowID uuid.UUID, at time.Time) (*ChartRow, time.Time, error) {
	row, err := s.rows.GetByID(ctx, rowID)
	if err != nil {
		return nil, time.Time{}, apperr.FromStore(err)
	}
	if row == nil {
		return nil, time.Time{}, apperr.NotFoundf("chart row %s", rowID)
	}

	hosp, err := s.getHospitalization(ctx, row.HospitalizationID)
	if err != nil {
		return nil, time.Time{}, err
	}

	hour := NormalizeHour(at)
	if hour.Before(NormalizeHour(hosp.AdmissionAt)) {
		return nil, time.Time{}, apperr.OutOfRangef("hour %s precedes admission", hour.Format(time.RFC3339))
	}
	return row, hour, nil
}

// UpsertEntry records in at (rowID, at). The first save of a cell creates an
// unflagged entry authored by the acting user; later saves update only the
// value fields for the row's kind. An empty value clears the cell, which also
// drops its flag since the whole record disappears. Returns the stored entry,
// or nil when the cell was cleared.
func (s *Service) UpsertEntry(ctx context.Context, rowID uuid.UUID, at time.Time, in ValueInput) (*ChartEntry, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	row, hour, err := s.guardCell(cctx, rowID, at)
	if err != nil {
		return nil, err
	}

	value, empty, err := parseValue(row, in)
	if err != nil {
		return nil, err
	}
	if empty {
		if err := s.entries.DeleteByCell(cctx, rowID, hour); err != nil {
			return nil, apperr.FromStore(err)
		}
		return nil, nil
	}

	existing, err := s.entries.GetByCell(cctx, rowID, hour)
	if err != nil {
		return nil, apperr.FromStore(err)
	}

	entry := existing
	if entry == nil {
		entry = &ChartEntry{
			RowID:    rowID,
			AtTime:   hour,
			Flagged:  false,
			AuthorID: auth.UserIDFromContext(ctx),
		}
	}
	entry.Value = value

	if err := s.entries.Upsert(cctx, entry); err != nil {
		return nil, apperr.FromStore(err)
	}
	return entry, nil
}

// DeleteEntry clears the cell at (rowID, at). Clearing an empty cell is a
// no-op.
func (s *Service) DeleteEntry(ctx context.Context, rowID uuid.UUID, at time.Time) error {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	_, hour, err := s.guardCell(cctx, rowID, at)
	if err != nil {
		return err
	}

	if err := s.entries.DeleteByCell(cctx, rowID, hour); err != nil {
		return apperr.FromStore(err)
	}
	return nil
}

// ToggleFlag flips the flag on an existing entry, leaving its value intact.
// An empty cell cannot be flagged.
func (s *Service) ToggleFlag(ctx context.Context, rowID uuid.UUID, at time.Time) (*ChartEntry, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	_, hour, err := s.guardCell(cctx, rowID, at)
	if err != nil {
		return nil, err
	}

	entry, err := s.entries.GetByCell(cctx, rowID, hour)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	if entry == nil {
		return nil, apperr.NotFoundf("no entry at %s to flag", hour.Format(time.RFC3339))
	}

	entry.Flagged = !entry.Flagged
	if err := s.entries.SetFlagged(cctx, entry.ID, entry.Flagged); err != nil {
		return nil, apperr.FromStore(err)
	}
	return entry, nil
}

// CreateRow validates and stores a new chart row.
func (s *Service) CreateRow(ctx context.Context, row *ChartRow) error {
	if row.HospitalizationID == uuid.Nil {
		return apperr.Validationf("hospitalization_id is required")
	}
	if !row.Kind.Valid() {
		return apperr.Validationf("unknown row kind %q", row.Kind)
	}
	if row.Label == "" {
		return apperr.Validationf("label is required")
	}
	if row.Kind == KindMedication && row.MedicationID == nil {
		return apperr.Validationf("medication_id is required for medication rows")
	}
	if row.Kind != KindMedication && row.MedicationID != nil {
		return apperr.Validationf("medication_id is only valid for medication rows")
	}
	if row.Kind == KindOption && len(row.Options) == 0 {
		return apperr.Validationf("option rows must declare at least one option")
	}

	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if _, err := s.getHospitalization(cctx, row.HospitalizationID); err != nil {
		return err
	}
	return apperr.FromStore(s.rows.Create(cctx, row))
}

// DeleteRow removes a row. The store cascades to its entries and schedules.
func (s *Service) DeleteRow(ctx context.Context, id uuid.UUID) error {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	row, err := s.rows.GetByID(cctx, id)
	if err != nil {
		return apperr.FromStore(err)
	}
	if row == nil {
		return apperr.NotFoundf("chart row %s", id)
	}
	return apperr.FromStore(s.rows.Delete(cctx, id))
}

// CreateSchedule validates and stores a schedule for a row. A default value,
// when present, must parse for the row's kind.
func (s *Service) CreateSchedule(ctx context.Context, sched *Schedule) error {
	if err := ValidateSchedule(sched); err != nil {
		return err
	}

	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	row, err := s.rows.GetByID(cctx, sched.RowID)
	if err != nil {
		return apperr.FromStore(err)
	}
	if row == nil {
		return apperr.NotFoundf("chart row %s", sched.RowID)
	}

	if sched.DefaultValue != nil {
		in := ValueInput{Value: *sched.DefaultValue}
		if row.Kind == KindCheck {
			checked := *sched.DefaultValue == "true"
			in = ValueInput{Check: &checked}
		}
		if _, empty, err := parseValue(row, in); err != nil {
			return err
		} else if empty {
			return apperr.Validationf("default_value must not be empty")
		}
	}

	sched.StartAt = NormalizeHour(sched.StartAt)
	if sched.CreatedBy == "" {
		sched.CreatedBy = auth.UserIDFromContext(ctx)
	}
	return apperr.FromStore(s.schedules.Create(cctx, sched))
}

// DeleteSchedule removes a schedule.
func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	sched, err := s.schedules.GetByID(cctx, id)
	if err != nil {
		return apperr.FromStore(err)
	}
	if sched == nil {
		return apperr.NotFoundf("schedule %s", id)
	}
	return apperr.FromStore(s.schedules.Delete(cctx, id))
}

// ListTemplates returns the available row templates.
func (s *Service) ListTemplates(ctx context.Context) ([]*RowTemplate, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	templates, err := s.templates.List(cctx)
	return templates, apperr.FromStore(err)
}

// ApplyTemplate copies a template's rows into the hospitalization's chart and
// instantiates their recurrences relative to admission, atomically.
func (s *Service) ApplyTemplate(ctx context.Context, templateID, hospitalizationID uuid.UUID) ([]*ChartRow, error) {
	cctx, cancel := s.storeCtx(ctx)
	defer cancel()

	tmpl, err := s.templates.GetByID(cctx, templateID)
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	if tmpl == nil {
		return nil, apperr.NotFoundf("row template %s", templateID)
	}

	hosp, err := s.getHospitalization(cctx, hospitalizationID)
	if err != nil {
		return nil, err
	}

	templateRows, err := s.templates.GetRows(cctx, templateID)
	if err != nil {
		return nil, apperr.FromStore(err)
	}

	author := auth.UserIDFromContext(ctx)
	var created []*ChartRow
	err = s.runTx(cctx, func(txCtx context.Context) error {
		for _, tr := range templateRows {
			row := &ChartRow{
				HospitalizationID: hospitalizationID,
				Kind:              tr.Kind,
				Label:             tr.Label,
				Unit:              tr.Unit,
				SortOrder:         tr.SortOrder,
				Options:           tr.Options,
				MedicationID:      tr.MedicationID,
			}
			if err := s.rows.Create(txCtx, row); err != nil {
				return err
			}
			created = append(created, row)

			if tr.IntervalMinutes == nil {
				continue
			}
			sched := &Schedule{
				RowID:           row.ID,
				StartAt:         NormalizeHour(hosp.AdmissionAt.Add(time.Duration(tr.StartOffsetMinutes) * time.Minute)),
				IntervalMinutes: *tr.IntervalMinutes,
				Occurrences:     tr.Occurrences,
				CreatedBy:       author,
			}
			if err := s.schedules.Create(txCtx, sched); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(err)
	}
	return created, nil
}
