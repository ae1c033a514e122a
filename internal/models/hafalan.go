package models

import "time"

// HafalanStatus is the lifecycle state of a page memorization record.
type HafalanStatus string

const (
	HafalanStatusProgress               HafalanStatus = "PROGRESS"
	HafalanStatusCompleteWaitingRecheck HafalanStatus = "COMPLETE_WAITING_RECHECK"
	HafalanStatusRecheckPassed          HafalanStatus = "RECHECK_PASSED"
)

// HafalanStatuses lists every status in lifecycle order.
var HafalanStatuses = []HafalanStatus{
	HafalanStatusProgress,
	HafalanStatusCompleteWaitingRecheck,
	HafalanStatusRecheckPassed,
}

// Valid reports whether s is a known status.
func (s HafalanStatus) Valid() bool {
	switch s {
	case HafalanStatusProgress, HafalanStatusCompleteWaitingRecheck, HafalanStatusRecheckPassed:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s HafalanStatus) Terminal() bool {
	return s == HafalanStatusRecheckPassed
}

// Open reports whether the record still counts as the student's active
// attempt on the page.
func (s HafalanStatus) Open() bool {
	return s == HafalanStatusProgress || s == HafalanStatusCompleteWaitingRecheck
}

// HafalanRecord tracks one student's memorization of one page.
type HafalanRecord struct {
	ID              string        `db:"id" json:"id"`
	StudentID       string        `db:"student_id" json:"studentId"`
	TeacherID       string        `db:"teacher_id" json:"teacherId"`
	PageID          int           `db:"page_id" json:"pageId"`
	CompletedVerses VerseSet      `db:"completed_verses" json:"completedVerses"`
	Status          HafalanStatus `db:"status" json:"status"`
	Notes           *string       `db:"notes" json:"notes,omitempty"`
	SubmittedAt     time.Time     `db:"submitted_at" json:"submittedAt"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updatedAt"`
}

// HafalanFilter constrains listing queries.
type HafalanFilter struct {
	StudentID string
	TeacherID string
	PageID    int
	Status    []HafalanStatus
	Limit     int
	Offset    int
}

// StatusCount aggregates records per status.
type StatusCount struct {
	Status HafalanStatus `db:"status" json:"status"`
	Pages  int           `db:"pages" json:"pages"`
	Verses int           `db:"verses" json:"verses"`
}
