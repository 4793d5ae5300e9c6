package chart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wardchart/wardchart/internal/platform/apperr"
	"github.com/wardchart/wardchart/internal/platform/auth"
)

// -- Mock Repositories --

type mockRowRepo struct {
	rows map[uuid.UUID]*ChartRow
}

func newMockRowRepo() *mockRowRepo {
	return &mockRowRepo{rows: make(map[uuid.UUID]*ChartRow)}
}

func (m *mockRowRepo) Create(_ context.Context, r *ChartRow) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	m.rows[r.ID] = r
	return nil
}

func (m *mockRowRepo) GetByID(_ context.Context, id uuid.UUID) (*ChartRow, error) {
	return m.rows[id], nil
}

func (m *mockRowRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.rows, id)
	return nil
}

func (m *mockRowRepo) ListByHospitalization(_ context.Context, hospID uuid.UUID) ([]*ChartRow, error) {
	var result []*ChartRow
	for _, r := range m.rows {
		if r.HospitalizationID == hospID {
			result = append(result, r)
		}
	}
	return result, nil
}

type entryKey struct {
	rowID uuid.UUID
	hour  int64
}

type mockEntryRepo struct {
	entries map[entryKey]*ChartEntry
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{entries: make(map[entryKey]*ChartEntry)}
}

func (m *mockEntryRepo) key(rowID uuid.UUID, hour time.Time) entryKey {
	return entryKey{rowID: rowID, hour: hour.Unix()}
}

func (m *mockEntryRepo) Upsert(_ context.Context, e *ChartEntry) error {
	k := m.key(e.RowID, e.AtTime)
	if existing, ok := m.entries[k]; ok {
		existing.Value = e.Value
		existing.UpdatedAt = time.Now()
		*e = *existing
		return nil
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.entries[k] = e
	return nil
}

func (m *mockEntryRepo) GetByCell(_ context.Context, rowID uuid.UUID, hour time.Time) (*ChartEntry, error) {
	return m.entries[m.key(rowID, hour)], nil
}

func (m *mockEntryRepo) SetFlagged(_ context.Context, id uuid.UUID, flagged bool) error {
	for _, e := range m.entries {
		if e.ID == id {
			e.Flagged = flagged
			return nil
		}
	}
	return errors.New("not found")
}

func (m *mockEntryRepo) DeleteByCell(_ context.Context, rowID uuid.UUID, hour time.Time) error {
	delete(m.entries, m.key(rowID, hour))
	return nil
}

func (m *mockEntryRepo) ListByHospitalization(_ context.Context, _ uuid.UUID) ([]*ChartEntry, error) {
	var result []*ChartEntry
	for _, e := range m.entries {
		result = append(result, e)
	}
	return result, nil
}

type mockScheduleRepo struct {
	scheds map[uuid.UUID]*Schedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{scheds: make(map[uuid.UUID]*Schedule)}
}

func (m *mockScheduleRepo) Create(_ context.Context, s *Schedule) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	m.scheds[s.ID] = s
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id uuid.UUID) (*Schedule, error) {
	return m.scheds[id], nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.scheds, id)
	return nil
}

func (m *mockScheduleRepo) ListByHospitalization(_ context.Context, _ uuid.UUID) ([]*Schedule, error) {
	var result []*Schedule
	for _, s := range m.scheds {
		result = append(result, s)
	}
	return result, nil
}

type mockTemplateRepo struct {
	templates map[uuid.UUID]*RowTemplate
	rows      map[uuid.UUID][]*TemplateRow
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{
		templates: make(map[uuid.UUID]*RowTemplate),
		rows:      make(map[uuid.UUID][]*TemplateRow),
	}
}

func (m *mockTemplateRepo) List(_ context.Context) ([]*RowTemplate, error) {
	var result []*RowTemplate
	for _, t := range m.templates {
		result = append(result, t)
	}
	return result, nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id uuid.UUID) (*RowTemplate, error) {
	return m.templates[id], nil
}

func (m *mockTemplateRepo) GetRows(_ context.Context, templateID uuid.UUID) ([]*TemplateRow, error) {
	return m.rows[templateID], nil
}

type mockStayReader struct {
	stays map[uuid.UUID]*HospitalizationContext
}

func newMockStayReader() *mockStayReader {
	return &mockStayReader{stays: make(map[uuid.UUID]*HospitalizationContext)}
}

func (m *mockStayReader) GetContext(_ context.Context, id uuid.UUID) (*HospitalizationContext, error) {
	return m.stays[id], nil
}

// -- Tests --

type testEnv struct {
	svc     *Service
	rows    *mockRowRepo
	entries *mockEntryRepo
	scheds  *mockScheduleRepo
	tmpls   *mockTemplateRepo
	stays   *mockStayReader
	hosp    *HospitalizationContext
}

func newTestEnv() *testEnv {
	env := &testEnv{
		rows:    newMockRowRepo(),
		entries: newMockEntryRepo(),
		scheds:  newMockScheduleRepo(),
		tmpls:   newMockTemplateRepo(),
		stays:   newMockStayReader(),
	}
	env.svc = NewService(env.rows, env.entries, env.scheds, env.tmpls, env.stays)
	env.hosp = &HospitalizationContext{
		ID:          uuid.New(),
		AdmissionAt: time.Date(2026, 5, 20, 8, 30, 0, 0, time.UTC),
	}
	env.stays.stays[env.hosp.ID] = env.hosp
	return env
}

func (env *testEnv) addRow(kind RowKind, label string) *ChartRow {
	row := &ChartRow{
		ID:                uuid.New(),
		HospitalizationID: env.hosp.ID,
		Kind:              kind,
		Label:             label,
		CreatedAt:         time.Now(),
	}
	env.rows.rows[row.ID] = row
	return row
}

func authedCtx(userID string) context.Context {
	return context.WithValue(context.Background(), auth.UserIDKey, userID)
}

func TestUpsertEntryCreates(t *testing.T) {
	env := newTestEnv()
	row := env.addRow(KindNumeric, "Heart rate")
	at := time.Date(2026, 5, 20, 9, 12, 0, 0, time.UTC)

	entry, err := env.svc.UpsertEntry(authedCtx("nurse-1"), row.ID, at, ValueInput{Value: "82"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected an entry")
	}
	if !entry.AtTime.Equal(hourAt(9)) {
		t.Errorf("entry stored at %v, want the normalized hour 09:00", entry.AtTime)
	}
	if entry.Flagged {
		t.Error("new entries must start unflagged")
	}
	if entry.AuthorID != "nurse-1" {
		t.Errorf("author = %q, want nurse-1", entry.AuthorID)
	}
	if entry.Value.Numeric == nil || *entry.Value.Numeric != 82 {
		t.Error("numeric value not stored")
	}
}

func TestUpsertEntryOverwritesValueOnly(t *testing.T) {
	env := newTestEnv()
	row := env.addRow(KindNumeric, "Heart rate")
	at := hourAt(9)

	first, err := env.svc.UpsertEntry(authedCtx("nurse-1"), row.ID, at, ValueInput{Value: "82"})
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := env.svc.ToggleFlag(authedCtx("nurse-1"), row.ID, at); err != nil {
		t.Fatalf("flag: %v", err)
	}

	second, err := env.svc.UpsertEntry(authedCtx("nurse-2"), row.ID, at, ValueInput{Value: "90"})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if second.ID != first.ID {
		t.Error("overwriting a cell must not create a second entry")
	}
	if *second.Value.Numeric != 90 {
		t.Errorf("value = %v, want 90", *second.Value.Numeric)
	}
	if !second.Flagged {
		t.Error("overwriting the value must keep the flag")
	}
	if second.AuthorID != "nurse-1" {
		t.Errorf("author = %q, want original author nurse-1", second.AuthorID)
	}
}

func TestUpsertEntryEmptyClears(t *testing.T) {
	env := newTestEnv()
	row := env.addRow(KindText, "Notes")
	at := hourAt(9)

	if _, err := env.svc.UpsertEntry(authedCtx("nurse-1"), row.ID, at, ValueInput{Value: "sleeping"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := env.svc.ToggleFlag(authedCtx("nurse-1"), row.ID, at); err != nil {
		t.Fatalf("flag: %v", err)
	}

	entry, err := env.svc.UpsertEntry(authedCtx("nurse-1"), row.ID, at, ValueInput{Value: ""})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if entry != nil {
		t.Fatal("clearing must return no entry")
	}

	// The flag disappeared with the record: flagging the now-empty cell fails.
	if _, err := env.svc.ToggleFlag(authedCtx("nurse-1"), row.ID, at); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("got %v, want a not-found error on the cleared cell", err)
	}
}

func TestUpsertEntryRejectsBadValues(t *testing.T) {
	env := newTestEnv()
	numeric := env.addRow(KindNumeric, "Heart rate")
	option := env.addRow(KindOption, "Consciousness")
	option.Options = []string{"alert", "drowsy"}
	at := hourAt(9)

	if _, err := env.svc.UpsertEntry(authedCtx("n"), numeric.ID, at, ValueInput{Value: "not-a-number"}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("non-numeric input: got %v, want a validation error", err)
	}
	if _, err := env.svc.UpsertEntry(authedCtx("n"), option.ID, at, ValueInput{Value: "comatose"}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("unknown option: got %v, want a validation error", err)
	}
}

func TestUpsertEntryBeforeAdmission(t *testing.T) {
	env := newTestEnv()
	row := env.addRow(KindNumeric, "Heart rate")
	before := env.hosp.AdmissionAt.Add(-2 * time.Hour)

	_, err := env.svc.UpsertEntry(authedCtx("n"), row.ID, before, ValueInput{Value: "82"})
	if !errors.Is(err, apperr.ErrOutOfRange) {
		t.Errorf("got %v, want an out-of-range error", err)
	}
}

func TestUpsertEntryUnknownRow(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.UpsertEntry(authedCtx("n"), uuid.New(), hourAt(9), ValueInput{Value: "82"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("got %v, want a not-found error", err)
	}
}

func TestDeleteEntryIdempotent(t *testing.T) {
	env := newTestEnv()
	row := env.addRow(KindNumeric, "Heart rate")
	at := hourAt(9)

	if err := env.svc.DeleteEntry(authedCtx("n"), row.ID, at); err != nil {
		t.Fatalf("deleting an empty cell must be a no-op, got %v", err)
	}

	if _, err := env.svc.UpsertEntry(authedCtx("n"), row.ID, at, ValueInput{Value: "82"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := env.svc.DeleteEntry(authedCtx("n"), row.ID, at); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if e, _ := env.entries.GetByCell(context.Background(), row.ID, at); e != nil {
		t.Error("entry still present after delete")
	}
}

func TestToggleFlagRoundTrip(t *testing.T) {
	env := newTestEnv()
	row := env.addRow(KindNumeric, "Heart rate")
	at := hourAt(9)

	if _, err := env.svc.UpsertEntry(authedCtx("n"), row.ID, at, ValueInput{Value: "82"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	flagged, err := env.svc.ToggleFlag(authedCtx("n"), row.ID, at)
	if err != nil {
		t.Fatalf("flag: %v", err)
	}
	if !flagged.Flagged {
		t.Error("expected the entry to be flagged")
	}
	if flagged.Value.Numeric == nil || *flagged.Value.Numeric != 82 {
		t.Error("flagging must not touch the value")
	}

	unflagged, err := env.svc.ToggleFlag(authedCtx("n"), row.ID, at)
	if err != nil {
		t.Fatalf("unflag: %v", err)
	}
	if unflagged.Flagged {
		t.Error("expected the second toggle to clear the flag")
	}
}

func TestCreateRowValidation(t *testing.T) {
	env := newTestEnv()
	medID := uuid.New()

	cases := []struct {
		name string
		row  *ChartRow
	}{
		{"missing hospitalization", &ChartRow{Kind: KindNumeric, Label: "HR"}},
		{"bad kind", &ChartRow{HospitalizationID: env.hosp.ID, Kind: "gauge", Label: "HR"}},
		{"missing label", &ChartRow{HospitalizationID: env.hosp.ID, Kind: KindNumeric}},
		{"medication without id", &ChartRow{HospitalizationID: env.hosp.ID, Kind: KindMedication, Label: "Abx"}},
		{"medication id on numeric", &ChartRow{HospitalizationID: env.hosp.ID, Kind: KindNumeric, Label: "HR", MedicationID: &medID}},
		{"option without options", &ChartRow{HospitalizationID: env.hosp.ID, Kind: KindOption, Label: "LOC"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := env.svc.CreateRow(context.Background(), tc.row); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("got %v, want a validation error", err)
			}
		})
	}

	good := &ChartRow{HospitalizationID: env.hosp.ID, Kind: KindMedication, Label: "Abx", MedicationID: &medID}
	if err := env.svc.CreateRow(context.Background(), good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if good.ID == uuid.Nil {
		t.Error("created row got no id")
	}
}

func TestCreateRowUnknownHospitalization(t *testing.T) {
	env := newTestEnv()
	row := &ChartRow{HospitalizationID: uuid.New(), Kind: KindNumeric, Label: "HR"}
	if err := env.svc.CreateRow(context.Background(), row); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("got %v, want a not-found error", err)
	}
}

func TestCreateScheduleNormalizesStart(t *testing.T) {
	env := newTestEnv()
	row := env.addRow(KindNumeric, "Heart rate")
	sched := &Schedule{
		RowID:           row.ID,
		StartAt:         time.Date(2026, 5, 20, 8, 45, 0, 0, time.UTC),
		IntervalMinutes: 60,
	}
	if err := env.svc.CreateSchedule(authedCtx("doc-1"), sched); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sched.StartAt.Equal(hourAt(8)) {
		t.Errorf("start stored as %v, want normalized 08:00", sched.StartAt)
	}
	if sched.CreatedBy != "doc-1" {
		t.Errorf("created_by = %q, want doc-1", sched.CreatedBy)
	}
}

func TestCreateScheduleDefaultValueMustParse(t *testing.T) {
	env := newTestEnv()
	row := env.addRow(KindNumeric, "Heart rate")
	bad := "eighty"
	sched := &Schedule{RowID: row.ID, StartAt: hourAt(8), IntervalMinutes: 60, DefaultValue: &bad}
	if err := env.svc.CreateSchedule(authedCtx("doc-1"), sched); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("got %v, want a validation error", err)
	}
}

func TestGetChartUnknownHospitalization(t *testing.T) {
	env := newTestEnv()
	if _, err := env.svc.GetChart(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("got %v, want a not-found error", err)
	}
}

func TestStayGridEndsAtClock(t *testing.T) {
	env := newTestEnv()
	env.addRow(KindNumeric, "Heart rate")
	env.svc.SetClock(func() time.Time {
		return time.Date(2026, 5, 20, 12, 10, 0, 0, time.UTC)
	})

	view, err := env.svc.StayGrid(context.Background(), env.hosp.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Admission 08:30 through clock 12:10 spans 08:00..12:00.
	if len(view.Grid.Hours) != 5 {
		t.Errorf("got %d hours, want 5", len(view.Grid.Hours))
	}
}

func TestApplyTemplate(t *testing.T) {
	env := newTestEnv()
	tmpl := &RowTemplate{ID: uuid.New(), Name: "Post-op observations"}
	env.tmpls.templates[tmpl.ID] = tmpl
	interval := 240
	env.tmpls.rows[tmpl.ID] = []*TemplateRow{
		{TemplateID: tmpl.ID, Kind: KindNumeric, Label: "Heart rate", SortOrder: 1, IntervalMinutes: &interval},
		{TemplateID: tmpl.ID, Kind: KindText, Label: "Notes", SortOrder: 2},
	}

	created, err := env.svc.ApplyTemplate(authedCtx("doc-1"), tmpl.ID, env.hosp.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("got %d rows, want 2", len(created))
	}
	if len(env.scheds.scheds) != 1 {
		t.Fatalf("got %d schedules, want 1", len(env.scheds.scheds))
	}
	for _, s := range env.scheds.scheds {
		if !s.StartAt.Equal(hourAt(8)) {
			t.Errorf("schedule start = %v, want admission hour 08:00", s.StartAt)
		}
		if s.IntervalMinutes != interval {
			t.Errorf("interval = %d, want %d", s.IntervalMinutes, interval)
		}
	}
}

// erroringStayReader simulates a store that exceeds its deadline.
type erroringStayReader struct{}

func (erroringStayReader) GetContext(context.Context, uuid.UUID) (*HospitalizationContext, error) {
	return nil, context.DeadlineExceeded
}

func TestStoreTimeoutSurfacesAsRetryable(t *testing.T) {
	env := newTestEnv()
	svc := NewService(env.rows, env.entries, env.scheds, env.tmpls, erroringStayReader{})
	if _, err := svc.GetChart(context.Background(), uuid.New()); !errors.Is(err, apperr.ErrTimeout) {
		t.Errorf("got %v, want a timeout error", err)
	}
}
