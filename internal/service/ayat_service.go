package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
)

type hafalanMarkStore interface {
	ListByStudentPageForUpdate(ctx context.Context, exec sqlx.ExtContext, studentID string, pageID int) ([]models.HafalanRecord, error)
	Create(ctx context.Context, exec sqlx.ExtContext, record *models.HafalanRecord) error
	Update(ctx context.Context, exec sqlx.ExtContext, record *models.HafalanRecord) error
}

type historyAppender interface {
	Append(ctx context.Context, exec sqlx.ExtContext, entry *models.HistoryEntry) error
}

// AyatServiceConfig tunes conflict handling.
type AyatServiceConfig struct {
	// ConflictRetries is how many times a marking transaction that lost a race
	// is re-run before ErrConcurrentModification is returned.
	ConflictRetries int
}

// AyatService records verse-level memorization on page records.
type AyatService struct {
	records   hafalanMarkStore
	history   historyAppender
	roster    verseRangeProvider
	tx        txRunner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AyatServiceConfig
}

// NewAyatService constructs the verse tracker.
func NewAyatService(
	records hafalanMarkStore,
	history historyAppender,
	roster verseRangeProvider,
	db txProvider,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AyatServiceConfig,
) *AyatService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	return &AyatService{
		records:   records,
		history:   history,
		roster:    roster,
		tx:        newTxRunner(db, logger, metrics),
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// MarkVerseComplete records that studentID has memorized verseNumber of pageID,
// attributed to teacherID.
func (s *AyatService) MarkVerseComplete(ctx context.Context, studentID string, pageID, verseNumber int, teacherID string) (*models.HafalanRecord, error) {
	return s.MarkVersesComplete(ctx, dto.MarkVersesRequest{
		StudentID: studentID,
		PageID:    pageID,
		Verses:    []int{verseNumber},
		TeacherID: teacherID,
	})
}

// MarkVersesComplete applies several verses of one page as a single change
// with one history entry.
func (s *AyatService) MarkVersesComplete(ctx context.Context, req dto.MarkVersesRequest) (record *models.HafalanRecord, err error) {
	ctx, span := startSpan(ctx, "AyatService.MarkVersesComplete",
		attribute.String("student.id", req.StudentID),
		attribute.Int("page.id", req.PageID),
		attribute.Int("verses.count", len(req.Verses)),
	)
	defer func() { endSpan(span, err) }()

	if err = s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verse payload")
	}
	if req.TeacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required")
	}

	rng, err := s.roster.GetVerseRange(ctx, req.PageID)
	if err != nil {
		return nil, err
	}
	verses, err := resolveVerses(rng, req.Verses)
	if err != nil {
		return nil, err
	}

	var outcome *markOutcome
	err = s.tx.run(ctx, "mark_verses", s.cfg.ConflictRetries, func(tx *sqlx.Tx) error {
		var markErr error
		outcome, markErr = s.markInTx(ctx, tx, rng, req.StudentID, verses, req.TeacherID)
		return markErr
	})
	if err != nil {
		return nil, err
	}
	s.observeMark(outcome, req.TeacherID)
	return outcome.record, nil
}

// markOutcome describes what a marking step changed.
type markOutcome struct {
	record   *models.HafalanRecord
	previous models.HafalanStatus
	added    int
}

// markInTx unions verses into the student's open record for the page inside
// tx, creating the record when the page has none. It appends one history
// entry when the record changed.
func (s *AyatService) markInTx(ctx context.Context, tx sqlx.ExtContext, rng *models.VerseRange, studentID string, verses models.VerseSet, teacherID string) (*markOutcome, error) {
	existing, err := s.records.ListByStudentPageForUpdate(ctx, tx, studentID, rng.PageNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hafalan records")
	}

	var open []models.HafalanRecord
	for _, r := range existing {
		if r.Status.Open() {
			open = append(open, r)
		}
	}
	if len(open) > 1 {
		s.logger.Error("duplicate open hafalan records",
			zap.String("student_id", studentID),
			zap.Int("page_id", rng.PageNumber),
			zap.Int("open_records", len(open)),
		)
		return nil, appErrors.Clone(appErrors.ErrDuplicateOpenRecord,
			fmt.Sprintf("student %s has %d open records for page %d", studentID, len(open), rng.PageNumber))
	}

	if len(open) == 0 {
		if len(existing) > 0 {
			return nil, appErrors.Clone(appErrors.ErrRecordAlreadyFinalized,
				fmt.Sprintf("page %d already passed recheck", rng.PageNumber))
		}
		return s.createRecord(ctx, tx, rng, studentID, verses, teacherID)
	}

	record := open[0]
	if record.Status != models.HafalanStatusProgress {
		return nil, appErrors.Clone(appErrors.ErrRecordAlreadyFinalized,
			fmt.Sprintf("record is %s", record.Status))
	}

	merged := record.CompletedVerses.Union(verses)
	added := merged.Len() - record.CompletedVerses.Len()
	if added == 0 {
		return &markOutcome{record: &record, previous: record.Status}, nil
	}

	previous := record.Status
	record.CompletedVerses = merged
	if rng.Covers(merged) {
		if record.Status, err = nextStatus(record.Status, eventCoverageComplete); err != nil {
			return nil, err
		}
	}
	if err := s.records.Update(ctx, tx, &record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update hafalan record")
	}
	if err := s.history.Append(ctx, tx, models.NewHistoryEntry(&record, teacherID, models.HistoryActionVersesAdded)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append hafalan history")
	}
	return &markOutcome{record: &record, previous: previous, added: added}, nil
}

func (s *AyatService) createRecord(ctx context.Context, tx sqlx.ExtContext, rng *models.VerseRange, studentID string, verses models.VerseSet, teacherID string) (*markOutcome, error) {
	record := &models.HafalanRecord{
		StudentID:       studentID,
		TeacherID:       teacherID,
		PageID:          rng.PageNumber,
		CompletedVerses: verses.Clone(),
		Status:          models.HafalanStatusProgress,
	}
	if rng.Covers(record.CompletedVerses) {
		status, err := nextStatus(record.Status, eventCoverageComplete)
		if err != nil {
			return nil, err
		}
		record.Status = status
	}
	if err := s.records.Create(ctx, tx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create hafalan record")
	}
	if err := s.history.Append(ctx, tx, models.NewHistoryEntry(record, teacherID, models.HistoryActionVersesAdded)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append hafalan history")
	}
	return &markOutcome{record: record, previous: models.HafalanStatusProgress, added: record.CompletedVerses.Len()}, nil
}

func (s *AyatService) observeMark(outcome *markOutcome, teacherID string) {
	record, previous := outcome.record, outcome.previous
	s.metrics.RecordVersesMarked(outcome.added)
	s.metrics.RecordTransition(previous, record.Status)
	if previous != record.Status {
		s.logger.Info("hafalan record status changed",
			zap.String("record_id", record.ID),
			zap.String("from", string(previous)),
			zap.String("to", string(record.Status)),
			zap.String("teacher_id", teacherID),
		)
	}
}
