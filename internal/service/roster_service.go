package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tahfidz-api/internal/models"
	appErrors "github.com/noah-isme/tahfidz-api/pkg/errors"
	"github.com/noah-isme/tahfidz-api/pkg/roster"
)

// RosterSource resolves page ranges. Both the YAML roster and the
// verse_ranges repository satisfy it.
type RosterSource interface {
	FindByPage(ctx context.Context, page int) (*models.VerseRange, error)
	ListByJuz(ctx context.Context, juz int) ([]models.VerseRange, error)
}

type verseRangeProvider interface {
	GetVerseRange(ctx context.Context, pageID int) (*models.VerseRange, error)
}

// RosterService answers page range lookups, caching them in Redis.
type RosterService struct {
	source RosterSource
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewRosterService constructs the roster service. cache may be nil.
func NewRosterService(source RosterSource, cache *CacheService, ttl time.Duration, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{source: source, cache: cache, ttl: ttl, logger: logger}
}

func rosterPageKey(page int) string {
	return fmt.Sprintf("roster:page:%d", page)
}

// GetVerseRange returns the range of pageID or ErrPageNotFound.
func (s *RosterService) GetVerseRange(ctx context.Context, pageID int) (*models.VerseRange, error) {
	if pageID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "page must be positive")
	}
	if s.source == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "verse roster unavailable")
	}

	key := rosterPageKey(pageID)
	var cached models.VerseRange
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	rng, err := s.source.FindByPage(ctx, pageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, roster.ErrPageNotFound) {
			return nil, appErrors.Clone(appErrors.ErrPageNotFound, fmt.Sprintf("page %d is not in the verse roster", pageID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verse range")
	}
	// best effort; CacheService logs failures
	_ = s.cache.Set(ctx, key, rng, s.ttl)
	return rng, nil
}

// ListPages returns the pages of a juz, or the whole roster when juz is zero.
func (s *RosterService) ListPages(ctx context.Context, juz int) ([]models.VerseRange, error) {
	if juz < 0 || juz > 30 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "juz must be between 1 and 30")
	}
	if s.source == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "verse roster unavailable")
	}
	pages, err := s.source.ListByJuz(ctx, juz)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster pages")
	}
	return pages, nil
}

// resolveVerses checks every verse against the page range.
func resolveVerses(rng *models.VerseRange, verses []int) (models.VerseSet, error) {
	if len(verses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one verse is required")
	}
	for _, v := range verses {
		if !rng.Contains(v) {
			return nil, appErrors.Clone(appErrors.ErrOutOfRangeVerse,
				fmt.Sprintf("verse %d is outside page %d (%d-%d)", v, rng.PageNumber, rng.VerseStart, rng.VerseEnd))
		}
	}
	return models.NewVerseSet(verses...), nil
}
