package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func expectCommitted(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func expectRolledBack(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func cloneRecord(r models.HafalanRecord) models.HafalanRecord {
	r.CompletedVerses = r.CompletedVerses.Clone()
	if r.Notes != nil {
		note := *r.Notes
		r.Notes = &note
	}
	return r
}

// memoryHafalanStore keeps records in memory. Queued errors are returned by
// the next call of the matching method.
type memoryHafalanStore struct {
	mu         sync.Mutex
	records    map[string]models.HafalanRecord
	order      []string
	seq        int
	createErrs []error
	updateErrs []error
	lockErrs   []error
	updates    int
}

func newMemoryHafalanStore() *memoryHafalanStore {
	return &memoryHafalanStore{records: map[string]models.HafalanRecord{}}
}

func popErr(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}

func (s *memoryHafalanStore) put(record models.HafalanRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		s.order = append(s.order, record.ID)
	}
	s.records[record.ID] = cloneRecord(record)
}

func (s *memoryHafalanStore) get(id string) models.HafalanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecord(s.records[id])
}

func (s *memoryHafalanStore) Create(ctx context.Context, exec sqlx.ExtContext, record *models.HafalanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := popErr(&s.createErrs); err != nil {
		return err
	}
	s.seq++
	if record.ID == "" {
		record.ID = fmt.Sprintf("rec-%d", s.seq)
	}
	s.records[record.ID] = cloneRecord(*record)
	s.order = append(s.order, record.ID)
	return nil
}

func (s *memoryHafalanStore) GetByID(ctx context.Context, id string) (*models.HafalanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := cloneRecord(record)
	return &out, nil
}

func (s *memoryHafalanStore) GetByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.HafalanRecord, error) {
	s.mu.Lock()
	err := popErr(&s.lockErrs)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *memoryHafalanStore) ListByStudentPageForUpdate(ctx context.Context, exec sqlx.ExtContext, studentID string, pageID int) ([]models.HafalanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := popErr(&s.lockErrs); err != nil {
		return nil, err
	}
	var out []models.HafalanRecord
	for _, id := range s.order {
		r := s.records[id]
		if r.StudentID == studentID && r.PageID == pageID {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (s *memoryHafalanStore) Update(ctx context.Context, exec sqlx.ExtContext, record *models.HafalanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := popErr(&s.updateErrs); err != nil {
		return err
	}
	if _, ok := s.records[record.ID]; !ok {
		return sql.ErrNoRows
	}
	s.updates++
	s.records[record.ID] = cloneRecord(*record)
	return nil
}

func (s *memoryHafalanStore) List(ctx context.Context, filter models.HafalanFilter) ([]models.HafalanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.HafalanRecord
	for _, id := range s.order {
		r := s.records[id]
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.PageID > 0 && r.PageID != filter.PageID {
			continue
		}
		out = append(out, cloneRecord(r))
	}
	return out, nil
}

func (s *memoryHafalanStore) CountByStatus(ctx context.Context, studentID string) ([]models.StatusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg := map[models.HafalanStatus]*models.StatusCount{}
	for _, r := range s.records {
		if r.StudentID != studentID {
			continue
		}
		c, ok := agg[r.Status]
		if !ok {
			c = &models.StatusCount{Status: r.Status}
			agg[r.Status] = c
		}
		c.Pages++
		c.Verses += r.CompletedVerses.Len()
	}
	out := make([]models.StatusCount, 0, len(agg))
	for _, c := range agg {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

type memoryHistory struct {
	mu        sync.Mutex
	entries   []models.HistoryEntry
	appendErr error
}

func (h *memoryHistory) Append(ctx context.Context, exec sqlx.ExtContext, entry *models.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.appendErr != nil {
		return h.appendErr
	}
	entry.ID = fmt.Sprintf("h-%d", len(h.entries)+1)
	h.entries = append(h.entries, *entry)
	return nil
}

func (h *memoryHistory) ListByRecord(ctx context.Context, recordID string) ([]models.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []models.HistoryEntry
	for _, e := range h.entries {
		if e.HafalanRecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (h *memoryHistory) countFor(recordID string) int {
	entries, _ := h.ListByRecord(context.Background(), recordID)
	return len(entries)
}

type memoryRechecks struct {
	mu        sync.Mutex
	rounds    []models.RecheckRecord
	createErr error
}

func (m *memoryRechecks) Create(ctx context.Context, exec sqlx.ExtContext, rec *models.RecheckRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, r := range m.rounds {
		if r.HafalanRecordID == rec.HafalanRecordID && r.Round == rec.Round {
			return fmt.Errorf("duplicate round %d", rec.Round)
		}
	}
	rec.ID = fmt.Sprintf("rc-%d", len(m.rounds)+1)
	m.rounds = append(m.rounds, *rec)
	return nil
}

func (m *memoryRechecks) Latest(ctx context.Context, exec sqlx.ExtContext, recordID string) (*models.RecheckRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.RecheckRecord
	for i := range m.rounds {
		r := m.rounds[i]
		if r.HafalanRecordID == recordID && (latest == nil || r.Round > latest.Round) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	return latest, nil
}

func (m *memoryRechecks) ListByRecord(ctx context.Context, recordID string) ([]models.RecheckRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RecheckRecord
	for _, r := range m.rounds {
		if r.HafalanRecordID == recordID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Round < out[j].Round })
	return out, nil
}

type memoryPartials struct {
	mu        sync.Mutex
	partials  map[string]models.PartialHafalan
	seq       int
	createErr error
	updateErr error
	updates   int
}

func newMemoryPartials() *memoryPartials {
	return &memoryPartials{partials: map[string]models.PartialHafalan{}}
}

func (m *memoryPartials) Create(ctx context.Context, exec sqlx.ExtContext, p *models.PartialHafalan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	p.ID = fmt.Sprintf("p-%d", m.seq)
	m.partials[p.ID] = *p
	return nil
}

func (m *memoryPartials) GetByID(ctx context.Context, id string) (*models.PartialHafalan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.partials[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (m *memoryPartials) GetByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.PartialHafalan, error) {
	return m.GetByID(ctx, id)
}

func (m *memoryPartials) ExistsInProgress(ctx context.Context, exec sqlx.ExtContext, studentID string, pageID, verse int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.partials {
		if p.StudentID == studentID && p.PageID == pageID && p.VerseNumber == verse && p.Status == models.PartialStatusInProgress {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryPartials) Update(ctx context.Context, exec sqlx.ExtContext, p *models.PartialHafalan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	current, ok := m.partials[p.ID]
	if !ok || current.Status != models.PartialStatusInProgress {
		return sql.ErrNoRows
	}
	m.updates++
	m.partials[p.ID] = *p
	return nil
}

func (m *memoryPartials) List(ctx context.Context, filter models.PartialFilter) ([]models.PartialHafalan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PartialHafalan
	for _, p := range m.partials {
		if filter.StudentID != "" && p.StudentID != filter.StudentID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

type rosterStub map[int]models.VerseRange

func (r rosterStub) GetVerseRange(ctx context.Context, pageID int) (*models.VerseRange, error) {
	rng, ok := r[pageID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPageNotFound, "page not found")
	}
	return &rng, nil
}

// testRoster has a seven verse page 1, the page used in most scenarios.
var testRoster = rosterStub{
	1: {PageNumber: 1, UnitName: "Al-Fatihah", VerseStart: 1, VerseEnd: 7, JuzNumber: 1},
	2: {PageNumber: 2, UnitName: "Al-Baqarah", VerseStart: 1, VerseEnd: 5, JuzNumber: 1},
	3: {PageNumber: 3, UnitName: "Al-Baqarah", VerseStart: 6, VerseEnd: 16, JuzNumber: 1},
}

type engine struct {
	records  *memoryHafalanStore
	history  *memoryHistory
	rechecks *memoryRechecks
	partials *memoryPartials
	mock     sqlmock.Sqlmock
	ayat     *AyatService
	recheck  *RecheckService
	partial  *PartialService
	hafalan  *HafalanService
}

func newEngine(t *testing.T) *engine {
	db, mock := newTxProviderMock(t)
	e := &engine{
		records:  newMemoryHafalanStore(),
		history:  &memoryHistory{},
		rechecks: &memoryRechecks{},
		partials: newMemoryPartials(),
		mock:     mock,
	}
	metrics := NewMetricsService()
	e.ayat = NewAyatService(e.records, e.history, testRoster, db, metrics, nil, nil, AyatServiceConfig{ConflictRetries: 1})
	e.recheck = NewRecheckService(e.records, e.rechecks, e.history, testRoster, db, metrics, nil)
	e.partial = NewPartialService(e.partials, e.ayat, testRoster, db, metrics, nil, nil)
	e.hafalan = NewHafalanService(e.records, e.history, db, metrics, nil, nil)
	return e
}
