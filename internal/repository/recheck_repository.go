package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

const recheckColumns = `id, hafalan_record_id, round, rechecked_at, rechecked_by_teacher_id, scope, all_passed, failed_verses, notes`

// RecheckRepository stores recheck rounds. Rounds are insert-only.
type RecheckRepository struct {
	db *sqlx.DB
}

// NewRecheckRepository constructs the repository.
func NewRecheckRepository(db *sqlx.DB) *RecheckRepository {
	return &RecheckRepository{db: db}
}

func (r *RecheckRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a round. (hafalan_record_id, round) is unique.
func (r *RecheckRepository) Create(ctx context.Context, exec sqlx.ExtContext, rec *models.RecheckRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecheckedAt.IsZero() {
		rec.RecheckedAt = time.Now().UTC()
	}
	if rec.Scope == nil {
		rec.Scope = models.VerseSet{}
	}
	if rec.FailedVerses == nil {
		rec.FailedVerses = models.VerseSet{}
	}
	const query = `INSERT INTO recheck_records (` + recheckColumns + `)
VALUES (:id, :hafalan_record_id, :round, :rechecked_at, :rechecked_by_teacher_id, :scope, :all_passed, :failed_verses, :notes)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, rec); err != nil {
		return fmt.Errorf("create recheck record: %w", err)
	}
	return nil
}

// Latest returns the most recent round of a record or sql.ErrNoRows.
func (r *RecheckRepository) Latest(ctx context.Context, exec sqlx.ExtContext, hafalanRecordID string) (*models.RecheckRecord, error) {
	const query = `SELECT ` + recheckColumns + ` FROM recheck_records
WHERE hafalan_record_id = $1 ORDER BY round DESC LIMIT 1`
	var rec models.RecheckRecord
	if err := sqlx.GetContext(ctx, r.exec(exec), &rec, query, hafalanRecordID); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByRecord returns all rounds of a record in round order.
func (r *RecheckRepository) ListByRecord(ctx context.Context, hafalanRecordID string) ([]models.RecheckRecord, error) {
	const query = `SELECT ` + recheckColumns + ` FROM recheck_records
WHERE hafalan_record_id = $1 ORDER BY round ASC`
	var recs []models.RecheckRecord
	if err := r.db.SelectContext(ctx, &recs, query, hafalanRecordID); err != nil {
		return nil, fmt.Errorf("list recheck records: %w", err)
	}
	return recs, nil
}
