package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/middleware"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/internal/service"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

func newTestContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		payload, _ := json.Marshal(b)
		reader = bytes.NewReader(payload)
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})
	return c, w
}

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type markServiceMock struct {
	req  dto.MarkVersesRequest
	resp *models.HafalanRecord
	err  error
}

func (m *markServiceMock) MarkVersesComplete(ctx context.Context, req dto.MarkVersesRequest) (*models.HafalanRecord, error) {
	m.req = req
	return m.resp, m.err
}

type recordServiceMock struct {
	query       dto.HafalanQuery
	record      *models.HafalanRecord
	err         error
	reassignTo  string
	reassignBy  string
	progressFor string
}

func (m *recordServiceMock) Get(ctx context.Context, id string) (*models.HafalanRecord, error) {
	return m.record, m.err
}

func (m *recordServiceMock) List(ctx context.Context, query dto.HafalanQuery) ([]models.HafalanRecord, error) {
	m.query = query
	if m.record == nil {
		return nil, m.err
	}
	return []models.HafalanRecord{*m.record}, m.err
}

func (m *recordServiceMock) UpdateNotes(ctx context.Context, recordID, teacherID string, req dto.UpdateNotesRequest) (*models.HafalanRecord, error) {
	return m.record, m.err
}

func (m *recordServiceMock) ReassignTeacher(ctx context.Context, recordID, actorID string, req dto.ReassignTeacherRequest) (*models.HafalanRecord, error) {
	m.reassignTo = req.TeacherID
	m.reassignBy = actorID
	return m.record, m.err
}

func (m *recordServiceMock) StudentProgress(ctx context.Context, studentID string) (*dto.StudentProgressResponse, error) {
	m.progressFor = studentID
	return &dto.StudentProgressResponse{StudentID: studentID}, m.err
}

type historyServiceMock struct {
	entries []models.HistoryEntry
	err     error
}

func (m *historyServiceMock) ListHistory(ctx context.Context, recordID string) ([]models.HistoryEntry, error) {
	return m.entries, m.err
}

func TestHafalanHandlerMarkVerses(t *testing.T) {
	marks := &markServiceMock{resp: &models.HafalanRecord{ID: "rec-1", Status: models.HafalanStatusProgress}}
	h := NewHafalanHandler(marks, &recordServiceMock{}, &historyServiceMock{})

	c, w := newTestContext(http.MethodPost, "/hafalan/verses", dto.MarkVersesRequest{StudentID: "student-1", PageID: 1, Verses: []int{1, 2}, TeacherID: "spoofed"})
	h.MarkVerses(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-1", marks.req.TeacherID)
	assert.Equal(t, []int{1, 2}, marks.req.Verses)
}

func TestHafalanHandlerMarkVersesErrors(t *testing.T) {
	h := NewHafalanHandler(&markServiceMock{}, &recordServiceMock{}, &historyServiceMock{})
	c, w := newTestContext(http.MethodPost, "/hafalan/verses", `{"studentId":`)
	h.MarkVerses(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decode(t, w).Error.Code)

	cases := []struct {
		err    error
		status int
	}{
		{appErrors.Clone(appErrors.ErrOutOfRangeVerse, "verse 9"), http.StatusUnprocessableEntity},
		{appErrors.ErrRecordAlreadyFinalized, http.StatusConflict},
		{appErrors.ErrConcurrentModification, http.StatusConflict},
		{appErrors.ErrPageNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		h := NewHafalanHandler(&markServiceMock{err: tc.err}, &recordServiceMock{}, &historyServiceMock{})
		c, w := newTestContext(http.MethodPost, "/hafalan/verses", dto.MarkVersesRequest{StudentID: "s", PageID: 1, Verses: []int{9}})
		h.MarkVerses(c)
		assert.Equal(t, tc.status, w.Code)
	}
}

func TestHafalanHandlerList(t *testing.T) {
	records := &recordServiceMock{record: &models.HafalanRecord{ID: "rec-1"}}
	h := NewHafalanHandler(&markServiceMock{}, records, &historyServiceMock{})

	c, w := newTestContext(http.MethodGet, "/hafalan?studentId=s-1&pageId=3&status=progress,COMPLETE_WAITING_RECHECK&limit=500", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-1", records.query.StudentID)
	assert.Equal(t, 3, records.query.PageID)
	assert.Equal(t, []models.HafalanStatus{models.HafalanStatusProgress, models.HafalanStatusCompleteWaitingRecheck}, records.query.Status)
	assert.Equal(t, 200, records.query.Limit)
	env := decode(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.Count)

	c, w = newTestContext(http.MethodGet, "/hafalan?pageId=abc", nil)
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHafalanHandlerReassignAndProgress(t *testing.T) {
	records := &recordServiceMock{record: &models.HafalanRecord{ID: "rec-1", TeacherID: "teacher-2"}}
	h := NewHafalanHandler(&markServiceMock{}, records, &historyServiceMock{})

	c, w := newTestContext(http.MethodPut, "/hafalan/rec-1/teacher", dto.ReassignTeacherRequest{TeacherID: "teacher-2"})
	c.Params = gin.Params{{Key: "id", Value: "rec-1"}}
	h.ReassignTeacher(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-2", records.reassignTo)
	assert.Equal(t, "teacher-1", records.reassignBy)

	c, w = newTestContext(http.MethodGet, "/students/s-9/progress", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "s-9"}}
	h.StudentProgress(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-9", records.progressFor)
}

func TestHafalanHandlerGetAndHistory(t *testing.T) {
	h := NewHafalanHandler(&markServiceMock{}, &recordServiceMock{err: appErrors.ErrNotFound}, &historyServiceMock{err: appErrors.ErrNotFound})

	c, w := newTestContext(http.MethodGet, "/hafalan/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newTestContext(http.MethodGet, "/hafalan/missing/history", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	h.History(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	h = NewHafalanHandler(&markServiceMock{}, &recordServiceMock{}, &historyServiceMock{entries: []models.HistoryEntry{{ID: "h-1"}, {ID: "h-2"}}})
	c, w = newTestContext(http.MethodGet, "/hafalan/rec-1/history", nil)
	h.History(c)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []models.HistoryEntry
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &entries))
	assert.Len(t, entries, 2)
}

type recheckServiceMock struct {
	recordID string
	teacher  string
	passed   []int
	notes    *string
	round    *models.RecheckRecord
	err      error
}

func (m *recheckServiceMock) SubmitRecheck(ctx context.Context, recordID, teacherID string, passedVerses []int, notes *string) (*models.RecheckRecord, error) {
	m.recordID, m.teacher, m.passed, m.notes = recordID, teacherID, passedVerses, notes
	return m.round, m.err
}

func (m *recheckServiceMock) CurrentScope(ctx context.Context, recordID string) (*dto.RecheckScopeResponse, error) {
	return &dto.RecheckScopeResponse{HafalanRecordID: recordID, Round: 2, Scope: models.VerseSet{3}}, m.err
}

func (m *recheckServiceMock) ListRounds(ctx context.Context, recordID string) ([]models.RecheckRecord, error) {
	return []models.RecheckRecord{}, m.err
}

func TestRecheckHandlerSubmit(t *testing.T) {
	svc := &recheckServiceMock{round: &models.RecheckRecord{ID: "rc-1", Round: 1, FailedVerses: models.VerseSet{3}}}
	h := NewRecheckHandler(svc)

	c, w := newTestContext(http.MethodPost, "/hafalan/rec-1/rechecks", `{"passedVerses":[1,2],"notes":"ayat 3 terbalik"}`)
	c.Params = gin.Params{{Key: "id", Value: "rec-1"}}
	h.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "rec-1", svc.recordID)
	assert.Equal(t, "teacher-1", svc.teacher)
	assert.Equal(t, []int{1, 2}, svc.passed)
	require.NotNil(t, svc.notes)
	assert.Equal(t, "ayat 3 terbalik", *svc.notes)

	svc.err = appErrors.ErrInvalidRecheckScope
	c, w = newTestContext(http.MethodPost, "/hafalan/rec-1/rechecks", `{"passedVerses":[9]}`)
	h.Submit(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, appErrors.ErrInvalidRecheckScope.Code, decode(t, w).Error.Code)

	svc.err = appErrors.ErrNoRecheckPending
	c, w = newTestContext(http.MethodGet, "/hafalan/rec-1/rechecks/scope", nil)
	h.Scope(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRecheckHandlerList(t *testing.T) {
	h := NewRecheckHandler(&recheckServiceMock{})
	c, w := newTestContext(http.MethodGet, "/hafalan/rec-1/rechecks", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(decode(t, w).Data))
}

type partialServiceMock struct {
	create  dto.CreatePartialRequest
	query   dto.PartialQuery
	partial *models.PartialHafalan
	record  *models.HafalanRecord
	err     error
	actor   string
}

func (m *partialServiceMock) Create(ctx context.Context, req dto.CreatePartialRequest) (*models.PartialHafalan, error) {
	m.create = req
	return m.partial, m.err
}

func (m *partialServiceMock) Update(ctx context.Context, id string, req dto.UpdatePartialRequest) (*models.PartialHafalan, error) {
	return m.partial, m.err
}

func (m *partialServiceMock) Complete(ctx context.Context, id, teacherID string) (*models.PartialHafalan, *models.HafalanRecord, error) {
	m.actor = teacherID
	return m.partial, m.record, m.err
}

func (m *partialServiceMock) Cancel(ctx context.Context, id string) (*models.PartialHafalan, error) {
	return m.partial, m.err
}

func (m *partialServiceMock) Get(ctx context.Context, id string) (*models.PartialHafalan, error) {
	return m.partial, m.err
}

func (m *partialServiceMock) List(ctx context.Context, query dto.PartialQuery) ([]models.PartialHafalan, error) {
	m.query = query
	return []models.PartialHafalan{}, m.err
}

func TestPartialHandlerCreate(t *testing.T) {
	svc := &partialServiceMock{partial: &models.PartialHafalan{ID: "p-1"}}
	h := NewPartialHandler(svc)

	c, w := newTestContext(http.MethodPost, "/partials", `{"studentId":"s-1","pageId":1,"verseNumber":4,"percentage":40}`)
	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 40, svc.create.Percentage)
	assert.Equal(t, "teacher-1", svc.create.TeacherID)

	svc.err = appErrors.ErrInvalidPercentage
	c, w = newTestContext(http.MethodPost, "/partials", `{"studentId":"s-1","pageId":1,"verseNumber":4,"percentage":100}`)
	h.Create(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	svc.err = appErrors.ErrPartialInProgress
	c, w = newTestContext(http.MethodPost, "/partials", `{"studentId":"s-1","pageId":1,"verseNumber":4,"percentage":10}`)
	h.Create(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPartialHandlerComplete(t *testing.T) {
	svc := &partialServiceMock{
		partial: &models.PartialHafalan{ID: "p-1", Status: models.PartialStatusCompleted},
		record:  &models.HafalanRecord{ID: "rec-1", CompletedVerses: models.VerseSet{4}},
	}
	h := NewPartialHandler(svc)

	c, w := newTestContext(http.MethodPost, "/partials/p-1/complete", nil)
	c.Params = gin.Params{{Key: "id", Value: "p-1"}}
	h.Complete(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-1", svc.actor)

	var resp dto.CompletePartialResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
	assert.Equal(t, "rec-1", resp.Record.ID)
	assert.Equal(t, models.PartialStatusCompleted, resp.Partial.Status)
}

func TestPartialHandlerListAndCancel(t *testing.T) {
	svc := &partialServiceMock{partial: &models.PartialHafalan{ID: "p-1", Status: models.PartialStatusCancelled}}
	h := NewPartialHandler(svc)

	c, w := newTestContext(http.MethodGet, "/partials?studentId=s-1&status=in_progress", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.PartialStatus{models.PartialStatusInProgress}, svc.query.Status)

	c, w = newTestContext(http.MethodPost, "/partials/p-1/cancel", nil)
	h.Cancel(c)
	require.Equal(t, http.StatusOK, w.Code)

	svc.err = appErrors.ErrPartialNotInProgress
	c, w = newTestContext(http.MethodPatch, "/partials/p-1", `{"percentage":50}`)
	h.Update(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

type rosterServiceMock struct {
	juz int
	err error
}

func (m *rosterServiceMock) GetVerseRange(ctx context.Context, pageID int) (*models.VerseRange, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.VerseRange{PageNumber: pageID, VerseStart: 1, VerseEnd: 7}, nil
}

func (m *rosterServiceMock) ListPages(ctx context.Context, juz int) ([]models.VerseRange, error) {
	m.juz = juz
	return []models.VerseRange{}, m.err
}

func TestRosterHandler(t *testing.T) {
	svc := &rosterServiceMock{}
	h := NewRosterHandler(svc)

	c, w := newTestContext(http.MethodGet, "/roster/pages/1", nil)
	c.Params = gin.Params{{Key: "page", Value: "1"}}
	h.GetPage(c)
	require.Equal(t, http.StatusOK, w.Code)

	c, w = newTestContext(http.MethodGet, "/roster/pages/x", nil)
	c.Params = gin.Params{{Key: "page", Value: "x"}}
	h.GetPage(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodGet, "/roster/pages?juz=30", nil)
	h.ListPages(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30, svc.juz)

	svc.err = appErrors.ErrPageNotFound
	c, w = newTestContext(http.MethodGet, "/roster/pages/700", nil)
	c.Params = gin.Params{{Key: "page", Value: "700"}}
	h.GetPage(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
	})
	c, w := newTestContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	c, w = newTestContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	c, w = newTestContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
