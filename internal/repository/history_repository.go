package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

// HistoryRepository is the append-only ledger of hafalan record snapshots.
// It deliberately exposes no update or delete.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs the repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts an entry, normally inside the mutating transaction.
func (r *HistoryRepository) Append(ctx context.Context, exec sqlx.ExtContext, entry *models.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	if entry.CompletedVersesSnapshot == nil {
		entry.CompletedVersesSnapshot = models.VerseSet{}
	}
	target := exec
	if target == nil {
		target = r.db
	}
	const query = `INSERT INTO hafalan_history
	(id, hafalan_record_id, teacher_id, action, status, occurred_at, completed_verses_snapshot, note_snapshot)
	VALUES (:id, :hafalan_record_id, :teacher_id, :action, :status, :occurred_at, :completed_verses_snapshot, :note_snapshot)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, entry); err != nil {
		return fmt.Errorf("append hafalan history: %w", err)
	}
	return nil
}

// ListByRecord returns the entries of a record in chronological order.
func (r *HistoryRepository) ListByRecord(ctx context.Context, hafalanRecordID string) ([]models.HistoryEntry, error) {
	const query = `SELECT id, hafalan_record_id, teacher_id, action, status, occurred_at, completed_verses_snapshot, note_snapshot
	FROM hafalan_history WHERE hafalan_record_id = $1 ORDER BY occurred_at ASC, seq ASC`
	var entries []models.HistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, hafalanRecordID); err != nil {
		return nil, fmt.Errorf("list hafalan history: %w", err)
	}
	return entries, nil
}
