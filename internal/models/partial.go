package models

import "time"

// PartialStatus is the lifecycle state of sub-verse progress.
type PartialStatus string

const (
	PartialStatusInProgress PartialStatus = "IN_PROGRESS"
	PartialStatusCompleted  PartialStatus = "COMPLETED"
	PartialStatusCancelled  PartialStatus = "CANCELLED"
)

// Partial percentage bounds. 100 is expressed by promotion, never stored.
const (
	MinPartialPercentage = 1
	MaxPartialPercentage = 99
)

// Valid reports whether s is a known status.
func (s PartialStatus) Valid() bool {
	switch s {
	case PartialStatusInProgress, PartialStatusCompleted, PartialStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the partial is frozen.
func (s PartialStatus) Terminal() bool {
	return s == PartialStatusCompleted || s == PartialStatusCancelled
}

// PartialHafalan tracks progress on a single verse before it is promoted into
// the page-level hafalan record.
type PartialHafalan struct {
	ID             string        `db:"id" json:"id"`
	StudentID      string        `db:"student_id" json:"studentId"`
	TeacherID      string        `db:"teacher_id" json:"teacherId"`
	PageID         int           `db:"page_id" json:"pageId"`
	VerseNumber    int           `db:"verse_number" json:"verseNumber"`
	ProgressNote   string        `db:"progress_note" json:"progressNote"`
	Percentage     int           `db:"percentage" json:"percentage"`
	Status         PartialStatus `db:"status" json:"status"`
	LinkedRecordID *string       `db:"linked_record_id" json:"linkedRecordId,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updatedAt"`
}

// PartialFilter constrains listing queries.
type PartialFilter struct {
	StudentID string
	PageID    int
	Status    []PartialStatus
	Limit     int
	Offset    int
}
