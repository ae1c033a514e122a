package models

import "time"

// RecheckRecord is one verification round against a hafalan record. Rounds
// are immutable once stored.
type RecheckRecord struct {
	ID                   string    `db:"id" json:"id"`
	HafalanRecordID      string    `db:"hafalan_record_id" json:"hafalanRecordId"`
	Round                int       `db:"round" json:"round"`
	RecheckedAt          time.Time `db:"rechecked_at" json:"recheckedAt"`
	RecheckedByTeacherID string    `db:"rechecked_by_teacher_id" json:"recheckedByTeacherId"`
	Scope                VerseSet  `db:"scope" json:"scope"`
	AllPassed            bool      `db:"all_passed" json:"allPassed"`
	FailedVerses         VerseSet  `db:"failed_verses" json:"failedVerses"`
	Notes                *string   `db:"notes" json:"notes,omitempty"`
}
