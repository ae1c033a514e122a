package models

import "time"

// HistoryAction names the mutation captured by a history entry.
type HistoryAction string

const (
	HistoryActionVersesAdded       HistoryAction = "VERSES_ADDED"
	HistoryActionRecheckFailed     HistoryAction = "RECHECK_FAILED"
	HistoryActionRecheckPassed     HistoryAction = "RECHECK_PASSED"
	HistoryActionNoteUpdated       HistoryAction = "NOTE_UPDATED"
	HistoryActionTeacherReassigned HistoryAction = "TEACHER_REASSIGNED"
)

// HistoryEntry is an append-only snapshot of a hafalan record taken after a
// teacher-attributed mutation.
type HistoryEntry struct {
	ID                      string        `db:"id" json:"id"`
	HafalanRecordID         string        `db:"hafalan_record_id" json:"hafalanRecordId"`
	TeacherID               string        `db:"teacher_id" json:"teacherId"`
	Action                  HistoryAction `db:"action" json:"action"`
	Status                  HafalanStatus `db:"status" json:"status"`
	OccurredAt              time.Time     `db:"occurred_at" json:"occurredAt"`
	CompletedVersesSnapshot VerseSet      `db:"completed_verses_snapshot" json:"completedVersesSnapshot"`
	NoteSnapshot            *string       `db:"note_snapshot" json:"noteSnapshot,omitempty"`
}

// NewHistoryEntry snapshots record as attributed to teacherID.
func NewHistoryEntry(record *HafalanRecord, teacherID string, action HistoryAction) *HistoryEntry {
	entry := &HistoryEntry{
		HafalanRecordID:         record.ID,
		TeacherID:               teacherID,
		Action:                  action,
		Status:                  record.Status,
		CompletedVersesSnapshot: record.CompletedVerses.Clone(),
	}
	if record.Notes != nil {
		note := *record.Notes
		entry.NoteSnapshot = &note
	}
	return entry
}
