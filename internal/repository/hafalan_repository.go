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

const hafalanColumns = `id, student_id, teacher_id, page_id, completed_verses, status, notes, submitted_at, updated_at`

// HafalanRepository persists page-level memorization records.
type HafalanRepository struct {
	db *sqlx.DB
}

// NewHafalanRepository constructs the repository.
func NewHafalanRepository(db *sqlx.DB) *HafalanRepository {
	return &HafalanRepository{db: db}
}

func (r *HafalanRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a new record. The open-record partial unique index rejects a
// second open record for the same student page.
func (r *HafalanRepository) Create(ctx context.Context, exec sqlx.ExtContext, record *models.HafalanRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = models.HafalanStatusProgress
	}
	if record.CompletedVerses == nil {
		record.CompletedVerses = models.VerseSet{}
	}
	now := time.Now().UTC()
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO hafalan_records (` + hafalanColumns + `)
VALUES (:id, :student_id, :teacher_id, :page_id, :completed_verses, :status, :notes, :submitted_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, record); err != nil {
		return fmt.Errorf("create hafalan record: %w", err)
	}
	return nil
}

// GetByID fetches a record by identifier.
func (r *HafalanRepository) GetByID(ctx context.Context, id string) (*models.HafalanRecord, error) {
	const query = `SELECT ` + hafalanColumns + ` FROM hafalan_records WHERE id = $1`
	var record models.HafalanRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByIDForUpdate loads and row-locks a record inside a transaction.
func (r *HafalanRepository) GetByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.HafalanRecord, error) {
	const query = `SELECT ` + hafalanColumns + ` FROM hafalan_records WHERE id = $1 FOR UPDATE`
	var record models.HafalanRecord
	if err := sqlx.GetContext(ctx, r.exec(exec), &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByStudentPageForUpdate row-locks every record of a student page, oldest
// first.
func (r *HafalanRepository) ListByStudentPageForUpdate(ctx context.Context, exec sqlx.ExtContext, studentID string, pageID int) ([]models.HafalanRecord, error) {
	const query = `SELECT ` + hafalanColumns + ` FROM hafalan_records
WHERE student_id = $1 AND page_id = $2 ORDER BY submitted_at ASC, id ASC FOR UPDATE`
	var records []models.HafalanRecord
	if err := sqlx.SelectContext(ctx, r.exec(exec), &records, query, studentID, pageID); err != nil {
		return nil, fmt.Errorf("lock hafalan records: %w", err)
	}
	return records, nil
}

// Update writes the mutable columns of a record.
func (r *HafalanRepository) Update(ctx context.Context, exec sqlx.ExtContext, record *models.HafalanRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE hafalan_records
SET teacher_id = :teacher_id, completed_verses = :completed_verses, status = :status, notes = :notes, updated_at = :updated_at
WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, record)
	if err != nil {
		return fmt.Errorf("update hafalan record: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("hafalan record rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns records matching the filter, newest first.
func (r *HafalanRepository) List(ctx context.Context, filter models.HafalanFilter) ([]models.HafalanRecord, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT ` + hafalanColumns + ` FROM hafalan_records`)

	conditions := make([]string, 0, 4)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)))
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
	builder.WriteString(" ORDER BY updated_at DESC, id ASC")

	limit, offset := clampPage(filter.Limit, filter.Offset)
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var records []models.HafalanRecord
	if err := r.db.SelectContext(ctx, &records, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list hafalan records: %w", err)
	}
	return records, nil
}

// CountByStatus aggregates a student's pages and completed verses per status.
func (r *HafalanRepository) CountByStatus(ctx context.Context, studentID string) ([]models.StatusCount, error) {
	const query = `SELECT status, COUNT(*) AS pages, COALESCE(SUM(jsonb_array_length(completed_verses)), 0) AS verses
FROM hafalan_records WHERE student_id = $1 GROUP BY status`
	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, studentID); err != nil {
		return nil, fmt.Errorf("count hafalan records: %w", err)
	}
	return counts, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
