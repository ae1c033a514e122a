package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

var noteValidator = validator.New()

type hafalanLockStore interface {
	GetByID(ctx context.Context, id string) (*models.HafalanRecord, error)
	GetByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.HafalanRecord, error)
	Update(ctx context.Context, exec sqlx.ExtContext, record *models.HafalanRecord) error
}

type recheckStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, rec *models.RecheckRecord) error
	Latest(ctx context.Context, exec sqlx.ExtContext, hafalanRecordID string) (*models.RecheckRecord, error)
	ListByRecord(ctx context.Context, hafalanRecordID string) ([]models.RecheckRecord, error)
}

// RecheckService runs verification rounds against completed pages. Each round
// presents only the verses failed in the previous one.
type RecheckService struct {
	records  hafalanLockStore
	rechecks recheckStore
	history  historyAppender
	roster   verseRangeProvider
	tx       txRunner
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewRecheckService constructs the recheck engine.
func NewRecheckService(
	records hafalanLockStore,
	rechecks recheckStore,
	history historyAppender,
	roster verseRangeProvider,
	db txProvider,
	metrics *MetricsService,
	logger *zap.Logger,
) *RecheckService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecheckService{
		records:  records,
		rechecks: rechecks,
		history:  history,
		roster:   roster,
		tx:       newTxRunner(db, logger, metrics),
		metrics:  metrics,
		logger:   logger,
	}
}

// SubmitRecheck records a round in which teacherID heard passedVerses recited
// correctly. Conflicts are returned as ErrConcurrentModification without retry
// so the teacher can review the latest state first.
func (s *RecheckService) SubmitRecheck(ctx context.Context, recordID, teacherID string, passedVerses []int, notes *string) (result *models.RecheckRecord, err error) {
	ctx, span := startSpan(ctx, "RecheckService.SubmitRecheck",
		attribute.String("hafalan.record_id", recordID),
		attribute.Int("verses.passed", len(passedVerses)),
	)
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(recordID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "record id is required")
	}
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	if notes != nil {
		if err = noteValidator.Var(*notes, "max=2000"); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "recheck notes are too long")
		}
	}
	passed := models.NewVerseSet(passedVerses...)
	note := normalizeNote(notes)

	var record *models.HafalanRecord
	err = s.tx.run(ctx, "submit_recheck", 0, func(tx *sqlx.Tx) error {
		var lockErr error
		record, lockErr = s.records.GetByIDForUpdate(ctx, tx, recordID)
		if lockErr != nil {
			return mapRecordLookupError(lockErr)
		}
		if record.Status != models.HafalanStatusCompleteWaitingRecheck {
			return appErrors.Clone(appErrors.ErrNoRecheckPending, fmt.Sprintf("record is %s", record.Status))
		}

		scope, round, scopeErr := s.scopeFor(ctx, tx, record)
		if scopeErr != nil {
			return scopeErr
		}
		if !passed.IsSubsetOf(scope) {
			outside := passed.Difference(scope)
			return appErrors.Clone(appErrors.ErrInvalidRecheckScope,
				fmt.Sprintf("verses %v are not part of round %d", []int(outside), round))
		}

		failed := scope.Difference(passed)
		rec := &models.RecheckRecord{
			HafalanRecordID:      record.ID,
			Round:                round,
			RecheckedByTeacherID: teacherID,
			Scope:                scope,
			AllPassed:            failed.IsEmpty(),
			FailedVerses:         failed,
			Notes:                note,
		}
		if createErr := s.rechecks.Create(ctx, tx, rec); createErr != nil {
			return appErrors.Wrap(createErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store recheck round")
		}

		event, action := eventRecheckFailed, models.HistoryActionRecheckFailed
		if rec.AllPassed {
			event, action = eventRecheckPassed, models.HistoryActionRecheckPassed
		}
		status, transitionErr := nextStatus(record.Status, event)
		if transitionErr != nil {
			return transitionErr
		}
		record.Status = status
		if note != nil {
			record.Notes = note
		}
		if updateErr := s.records.Update(ctx, tx, record); updateErr != nil {
			return appErrors.Wrap(updateErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update hafalan record")
		}
		if appendErr := s.history.Append(ctx, tx, models.NewHistoryEntry(record, teacherID, action)); appendErr != nil {
			return appErrors.Wrap(appendErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append hafalan history")
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRecheckRound(result.AllPassed)
	s.metrics.RecordTransition(models.HafalanStatusCompleteWaitingRecheck, record.Status)
	s.logger.Info("recheck round recorded",
		zap.String("record_id", record.ID),
		zap.Int("round", result.Round),
		zap.Bool("all_passed", result.AllPassed),
		zap.Ints("failed_verses", result.FailedVerses),
		zap.String("teacher_id", teacherID),
	)
	return result, nil
}

// CurrentScope reports the verses the next round must cover.
func (s *RecheckService) CurrentScope(ctx context.Context, recordID string) (*dto.RecheckScopeResponse, error) {
	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, mapRecordLookupError(err)
	}
	if record.Status != models.HafalanStatusCompleteWaitingRecheck {
		return nil, appErrors.Clone(appErrors.ErrNoRecheckPending, fmt.Sprintf("record is %s", record.Status))
	}
	scope, round, err := s.scopeFor(ctx, nil, record)
	if err != nil {
		return nil, err
	}
	return &dto.RecheckScopeResponse{HafalanRecordID: record.ID, Round: round, Scope: scope}, nil
}

// ListRounds returns every round of a record, oldest first.
func (s *RecheckService) ListRounds(ctx context.Context, recordID string) ([]models.RecheckRecord, error) {
	if _, err := s.records.GetByID(ctx, recordID); err != nil {
		return nil, mapRecordLookupError(err)
	}
	rounds, err := s.rechecks.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recheck rounds")
	}
	return rounds, nil
}

// scopeFor returns the verses and number of the next round. The first round
// covers the whole page; later rounds cover what the latest round failed.
func (s *RecheckService) scopeFor(ctx context.Context, exec sqlx.ExtContext, record *models.HafalanRecord) (models.VerseSet, int, error) {
	latest, err := s.rechecks.Latest(ctx, exec, record.ID)
	switch {
	case err == nil:
		return latest.FailedVerses.Clone(), latest.Round + 1, nil
	case errors.Is(err, sql.ErrNoRows):
		rng, rosterErr := s.roster.GetVerseRange(ctx, record.PageID)
		if rosterErr != nil {
			return nil, 0, rosterErr
		}
		return rng.Verses(), 1, nil
	default:
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load latest recheck round")
	}
}

func mapRecordLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "hafalan record not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hafalan record")
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
