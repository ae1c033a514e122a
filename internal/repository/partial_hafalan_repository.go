package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tahfidz-api/internal/models"
)

const partialColumns = `id, student_id, teacher_id, page_id, verse_number, progress_note, percentage, status, linked_record_id, created_at, updated_at`

// PartialHafalanRepository persists single-verse progress.
type PartialHafalanRepository struct {
	db *sqlx.DB
}

// NewPartialHafalanRepository constructs the repository.
func NewPartialHafalanRepository(db *sqlx.DB) *PartialHafalanRepository {
	return &PartialHafalanRepository{db: db}
}

func (r *PartialHafalanRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new IN_PROGRESS partial.
func (r *PartialHafalanRepository) Create(ctx context.Context, exec sqlx.ExtContext, partial *models.PartialHafalan) error {
	if partial.ID == "" {
		partial.ID = uuid.NewString()
	}
	if partial.Status == "" {
		partial.Status = models.PartialStatusInProgress
	}
	now := time.Now().UTC()
	if partial.CreatedAt.IsZero() {
		partial.CreatedAt = now
	}
	partial.UpdatedAt = now
	const query = `INSERT INTO partial_hafalan (` + partialColumns + `)
VALUES (:id, :student_id, :teacher_id, :page_id, :verse_number, :progress_note, :percentage, :status, :linked_record_id, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, partial); err != nil {
		return fmt.Errorf("create partial hafalan: %w", err)
	}
	return nil
}

// GetByID fetches a partial by identifier.
func (r *PartialHafalanRepository) GetByID(ctx context.Context, id string) (*models.PartialHafalan, error) {
	const query = `SELECT ` + partialColumns + ` FROM partial_hafalan WHERE id = $1`
	var partial models.PartialHafalan
	if err := r.db.GetContext(ctx, &partial, query, id); err != nil {
		return nil, err
	}
	return &partial, nil
}

// GetByIDForUpdate loads and row-locks a partial inside a transaction.
func (r *PartialHafalanRepository) GetByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.PartialHafalan, error) {
	const query = `SELECT ` + partialColumns + ` FROM partial_hafalan WHERE id = $1 FOR UPDATE`
	var partial models.PartialHafalan
	if err := sqlx.GetContext(ctx, r.exec(exec), &partial, query, id); err != nil {
		return nil, err
	}
	return &partial, nil
}

// ExistsInProgress reports whether the verse already has an IN_PROGRESS partial.
func (r *PartialHafalanRepository) ExistsInProgress(ctx context.Context, exec sqlx.ExtContext, studentID string, pageID, verse int) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM partial_hafalan
WHERE student_id = $1 AND page_id = $2 AND verse_number = $3 AND status = 'IN_PROGRESS')`
	var exists bool
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, studentID, pageID, verse); err != nil {
		return false, fmt.Errorf("check partial in progress: %w", err)
	}
	return exists, nil
}

// Update writes the mutable columns. Only IN_PROGRESS rows are writable; a
// terminal row yields sql.ErrNoRows.
func (r *PartialHafalanRepository) Update(ctx context.Context, exec sqlx.ExtContext, partial *models.PartialHafalan) error {
	partial.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE partial_hafalan
SET progress_note = :progress_note, percentage = :percentage, status = :status, linked_record_id = :linked_record_id, updated_at = :updated_at
WHERE id = :id AND status = '%s'`, models.PartialStatusInProgress)
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, partial)
	if err != nil {
		return fmt.Errorf("update partial hafalan: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("partial hafalan rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns partials matching the filter ordered by page and verse.
func (r *PartialHafalanRepository) List(ctx context.Context, filter models.PartialFilter) ([]models.PartialHafalan, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 5)
	builder.WriteString(`SELECT ` + partialColumns + ` FROM partial_hafalan`)

	conditions := make([]string, 0, 3)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.PageID > 0 {
		args = append(args, filter.PageID)
		conditions = append(conditions, fmt.Sprintf("page_id = $%d", len(args)))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY page_id ASC, verse_number ASC, created_at DESC")

	limit, offset := clampPage(filter.Limit, filter.Offset)
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var partials []models.PartialHafalan
	if err := r.db.SelectContext(ctx, &partials, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list partial hafalan: %w", err)
	}
	return partials, nil
}
