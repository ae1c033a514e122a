package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

type partialStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, partial *models.PartialHafalan) error
	GetByID(ctx context.Context, id string) (*models.PartialHafalan, error)
	GetByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.PartialHafalan, error)
	ExistsInProgress(ctx context.Context, exec sqlx.ExtContext, studentID string, pageID, verse int) (bool, error)
	Update(ctx context.Context, exec sqlx.ExtContext, partial *models.PartialHafalan) error
	List(ctx context.Context, filter models.PartialFilter) ([]models.PartialHafalan, error)
}

// verseMarker is the marking step of the verse tracker, run inside a caller's
// transaction.
type verseMarker interface {
	markInTx(ctx context.Context, tx sqlx.ExtContext, rng *models.VerseRange, studentID string, verses models.VerseSet, teacherID string) (*markOutcome, error)
	observeMark(outcome *markOutcome, teacherID string)
}

// PartialService tracks progress on single verses and promotes them into the
// page record once memorized.
type PartialService struct {
	partials  partialStore
	marker    verseMarker
	roster    verseRangeProvider
	tx        txRunner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPartialService constructs the partial tracker.
func NewPartialService(
	partials partialStore,
	marker verseMarker,
	roster verseRangeProvider,
	db txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *PartialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartialService{
		partials:  partials,
		marker:    marker,
		roster:    roster,
		tx:        newTxRunner(db, logger, metrics),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

func validatePercentage(p int) error {
	if p < models.MinPartialPercentage || p > models.MaxPartialPercentage {
		return appErrors.Clone(appErrors.ErrInvalidPercentage,
			fmt.Sprintf("percentage %d must be between %d and %d", p, models.MinPartialPercentage, models.MaxPartialPercentage))
	}
	return nil
}

// Create opens partial progress on a verse.
func (s *PartialService) Create(ctx context.Context, req dto.CreatePartialRequest) (*models.PartialHafalan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid partial payload")
	}
	if req.TeacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}
	if err := validatePercentage(req.Percentage); err != nil {
		return nil, err
	}
	rng, err := s.roster.GetVerseRange(ctx, req.PageID)
	if err != nil {
		return nil, err
	}
	if _, err := resolveVerses(rng, []int{req.VerseNumber}); err != nil {
		return nil, err
	}

	exists, err := s.partials.ExistsInProgress(ctx, nil, req.StudentID, req.PageID, req.VerseNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check partial progress")
	}
	if exists {
		return nil, partialInProgressError(req.PageID, req.VerseNumber)
	}

	partial := &models.PartialHafalan{
		StudentID:    req.StudentID,
		TeacherID:    req.TeacherID,
		PageID:       req.PageID,
		VerseNumber:  req.VerseNumber,
		ProgressNote: req.ProgressNote,
		Percentage:   req.Percentage,
		Status:       models.PartialStatusInProgress,
	}
	if err := s.partials.Create(ctx, nil, partial); err != nil {
		if isStoreConflict(err) {
			return nil, partialInProgressError(req.PageID, req.VerseNumber)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create partial hafalan")
	}
	s.metrics.RecordPartialEvent("created")
	return partial, nil
}

// Update changes the note and/or percentage of an IN_PROGRESS partial.
func (s *PartialService) Update(ctx context.Context, id string, req dto.UpdatePartialRequest) (*models.PartialHafalan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid partial payload")
	}
	partial, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if partial.Status != models.PartialStatusInProgress {
		return nil, partialNotInProgressError(partial)
	}
	if req.Percentage != nil {
		if err := validatePercentage(*req.Percentage); err != nil {
			return nil, err
		}
		partial.Percentage = *req.Percentage
	}
	if req.ProgressNote != nil {
		partial.ProgressNote = *req.ProgressNote
	}
	if err := s.partials.Update(ctx, nil, partial); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPartialNotInProgress, "partial hafalan changed state concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update partial hafalan")
	}
	return partial, nil
}

// Complete promotes the partial's verse into the student's page record and
// closes the partial. Both happen in one transaction.
func (s *PartialService) Complete(ctx context.Context, id, teacherID string) (partial *models.PartialHafalan, record *models.HafalanRecord, err error) {
	ctx, span := startSpan(ctx, "PartialService.Complete", attribute.String("partial.id", id))
	defer func() { endSpan(span, err) }()

	if s.marker == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrInternal, "verse tracker unavailable")
	}

	var outcome *markOutcome
	actor := teacherID
	err = s.tx.run(ctx, "complete_partial", 0, func(tx *sqlx.Tx) error {
		var lockErr error
		partial, lockErr = s.partials.GetByIDForUpdate(ctx, tx, id)
		if lockErr != nil {
			return mapPartialLookupError(lockErr)
		}
		if partial.Status != models.PartialStatusInProgress {
			return partialNotInProgressError(partial)
		}

		rng, rosterErr := s.roster.GetVerseRange(ctx, partial.PageID)
		if rosterErr != nil {
			return rosterErr
		}
		if actor == "" {
			actor = partial.TeacherID
		}
		var markErr error
		outcome, markErr = s.marker.markInTx(ctx, tx, rng, partial.StudentID, models.NewVerseSet(partial.VerseNumber), actor)
		if markErr != nil {
			return markErr
		}

		linked := outcome.record.ID
		partial.Status = models.PartialStatusCompleted
		partial.LinkedRecordID = &linked
		if updateErr := s.partials.Update(ctx, tx, partial); updateErr != nil {
			if errors.Is(updateErr, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrPartialNotInProgress, "partial hafalan changed state concurrently")
			}
			return appErrors.Wrap(updateErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete partial hafalan")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.marker.observeMark(outcome, actor)
	s.metrics.RecordPartialEvent("completed")
	s.logger.Info("partial hafalan promoted",
		zap.String("partial_id", partial.ID),
		zap.String("record_id", outcome.record.ID),
		zap.Int("verse", partial.VerseNumber),
	)
	return partial, outcome.record, nil
}

// Cancel abandons an IN_PROGRESS partial.
func (s *PartialService) Cancel(ctx context.Context, id string) (*models.PartialHafalan, error) {
	partial, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if partial.Status != models.PartialStatusInProgress {
		return nil, partialNotInProgressError(partial)
	}
	partial.Status = models.PartialStatusCancelled
	if err := s.partials.Update(ctx, nil, partial); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPartialNotInProgress, "partial hafalan changed state concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel partial hafalan")
	}
	s.metrics.RecordPartialEvent("cancelled")
	return partial, nil
}

// Get returns a partial by id.
func (s *PartialService) Get(ctx context.Context, id string) (*models.PartialHafalan, error) {
	partial, err := s.partials.GetByID(ctx, id)
	if err != nil {
		return nil, mapPartialLookupError(err)
	}
	return partial, nil
}

// List returns partials matching the query.
func (s *PartialService) List(ctx context.Context, query dto.PartialQuery) ([]models.PartialHafalan, error) {
	for _, status := range query.Status {
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown partial status %q", status))
		}
	}
	partials, err := s.partials.List(ctx, models.PartialFilter{
		StudentID: query.StudentID,
		PageID:    query.PageID,
		Status:    query.Status,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list partial hafalan")
	}
	return partials, nil
}

func mapPartialLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "partial hafalan not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load partial hafalan")
}

func partialInProgressError(pageID, verse int) error {
	return appErrors.Clone(appErrors.ErrPartialInProgress,
		fmt.Sprintf("verse %d of page %d already has partial progress in progress", verse, pageID))
}

func partialNotInProgressError(p *models.PartialHafalan) error {
	return appErrors.Clone(appErrors.ErrPartialNotInProgress, fmt.Sprintf("partial hafalan is %s", p.Status))
}
