package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

type hafalanStore interface {
	GetByID(ctx context.Context, id string) (*models.HafalanRecord, error)
	GetByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.HafalanRecord, error)
	Update(ctx context.Context, exec sqlx.ExtContext, record *models.HafalanRecord) error
	List(ctx context.Context, filter models.HafalanFilter) ([]models.HafalanRecord, error)
	CountByStatus(ctx context.Context, studentID string) ([]models.StatusCount, error)
}

// HafalanService exposes page records and the edits that do not touch
// verse coverage.
type HafalanService struct {
	records   hafalanStore
	history   historyAppender
	tx        txRunner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHafalanService constructs the service.
func NewHafalanService(records hafalanStore, history historyAppender, db txProvider, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *HafalanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HafalanService{
		records:   records,
		history:   history,
		tx:        newTxRunner(db, logger, metrics),
		validator: validate,
		logger:    logger,
	}
}

// Get returns a record by id.
func (s *HafalanService) Get(ctx context.Context, id string) (*models.HafalanRecord, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, mapRecordLookupError(err)
	}
	return record, nil
}

// List returns records matching the query.
func (s *HafalanService) List(ctx context.Context, query dto.HafalanQuery) ([]models.HafalanRecord, error) {
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown hafalan status %q", status))
		}
	}
	records, err := s.records.List(ctx, models.HafalanFilter{
		StudentID: query.StudentID,
		TeacherID: query.TeacherID,
		PageID:    query.PageID,
		Status:    query.Status,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hafalan records")
	}
	return records, nil
}

// UpdateNotes replaces the record notes. Writing the same value is a no-op.
func (s *HafalanService) UpdateNotes(ctx context.Context, recordID, teacherID string, req dto.UpdateNotesRequest) (*models.HafalanRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notes payload")
	}
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	note := normalizeNote(&req.Notes)
	return s.mutate(ctx, "update_notes", recordID, teacherID, models.HistoryActionNoteUpdated, func(record *models.HafalanRecord) bool {
		if sameNote(record.Notes, note) {
			return false
		}
		record.Notes = note
		return true
	})
}

// ReassignTeacher makes newTeacherID the responsible teacher of the record.
// actorID is credited in the history entry.
func (s *HafalanService) ReassignTeacher(ctx context.Context, recordID, actorID string, req dto.ReassignTeacherRequest) (*models.HafalanRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	newTeacherID := strings.TrimSpace(req.TeacherID)
	if actorID == "" {
		actorID = newTeacherID
	}
	record, err := s.mutate(ctx, "reassign_teacher", recordID, actorID, models.HistoryActionTeacherReassigned, func(record *models.HafalanRecord) bool {
		if record.TeacherID == newTeacherID {
			return false
		}
		record.TeacherID = newTeacherID
		return true
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("hafalan record reassigned",
		zap.String("record_id", record.ID),
		zap.String("teacher_id", newTeacherID),
		zap.String("actor_id", actorID),
	)
	return record, nil
}

// StudentProgress summarizes a student's records per status.
func (s *HafalanService) StudentProgress(ctx context.Context, studentID string) (*dto.StudentProgressResponse, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	counts, err := s.records.CountByStatus(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize hafalan progress")
	}

	byStatus := make(map[models.HafalanStatus]models.StatusCount, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c
	}
	resp := &dto.StudentProgressResponse{StudentID: studentID}
	for _, status := range models.HafalanStatuses {
		c := byStatus[status]
		c.Status = status
		resp.ByStatus = append(resp.ByStatus, c)
		resp.TotalPages += c.Pages
		resp.VersesMemorized += c.Verses
		if status == models.HafalanStatusRecheckPassed {
			resp.PassedPages = c.Pages
		}
	}
	return resp, nil
}

// mutate locks the record, applies change and, when change reports a
// modification, persists it with one history entry.
func (s *HafalanService) mutate(ctx context.Context, operation, recordID, teacherID string, action models.HistoryAction, change func(*models.HafalanRecord) bool) (*models.HafalanRecord, error) {
	var record *models.HafalanRecord
	err := s.tx.run(ctx, operation, 0, func(tx *sqlx.Tx) error {
		var err error
		record, err = s.records.GetByIDForUpdate(ctx, tx, recordID)
		if err != nil {
			return mapRecordLookupError(err)
		}
		if !change(record) {
			return nil
		}
		if err := s.records.Update(ctx, tx, record); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update hafalan record")
		}
		if err := s.history.Append(ctx, tx, models.NewHistoryEntry(record, teacherID, action)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append hafalan history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func sameNote(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
