package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

// VerseRosterRepository reads the page → verse range reference table.
type VerseRosterRepository struct {
	db *sqlx.DB
}

// NewVerseRosterRepository constructs the repository.
func NewVerseRosterRepository(db *sqlx.DB) *VerseRosterRepository {
	return &VerseRosterRepository{db: db}
}

// FindByPage returns the range of a page or sql.ErrNoRows.
func (r *VerseRosterRepository) FindByPage(ctx context.Context, page int) (*models.VerseRange, error) {
	const query = `SELECT page_number, unit_name, verse_start, verse_end, juz_number FROM verse_ranges WHERE page_number = $1`
	var rng models.VerseRange
	if err := r.db.GetContext(ctx, &rng, query, page); err != nil {
		return nil, err
	}
	return &rng, nil
}

// ListByJuz returns the pages of a juz, or every page when juz is zero.
func (r *VerseRosterRepository) ListByJuz(ctx context.Context, juz int) ([]models.VerseRange, error) {
	query := `SELECT page_number, unit_name, verse_start, verse_end, juz_number FROM verse_ranges`
	args := []interface{}{}
	if juz > 0 {
		query += ` WHERE juz_number = $1`
		args = append(args, juz)
	}
	query += ` ORDER BY page_number ASC`
	var ranges []models.VerseRange
	if err := r.db.SelectContext(ctx, &ranges, query, args...); err != nil {
		return nil, fmt.Errorf("list verse ranges: %w", err)
	}
	return ranges, nil
}
