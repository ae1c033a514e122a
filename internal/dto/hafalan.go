package dto

import "github.com/noah-isme/tahfidz-api/internal/models"

// MarkVersesRequest marks one or more verses of a page as memorized. The
// verses are applied as a single change.
type MarkVersesRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	PageID    int    `json:"pageId" validate:"required,gt=0"`
	Verses    []int  `json:"verses" validate:"required,min=1"`
	TeacherID string `json:"-"`
}

// HafalanQuery mirrors supported listing filters.
type HafalanQuery struct {
	StudentID string
	TeacherID string
	PageID    int
	Status    []models.HafalanStatus
	Limit     int
	Offset    int
}

// UpdateNotesRequest replaces the free-text notes of a record. An empty value
// clears them.
type UpdateNotesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// ReassignTeacherRequest hands a record over to another teacher.
type ReassignTeacherRequest struct {
	TeacherID string `json:"teacherId" validate:"required"`
}

// SubmitRecheckRequest reports the verses recited correctly in a recheck
// round. Verses of the current scope not listed are failed. Notes longer than
// 2000 characters are rejected by the service.
type SubmitRecheckRequest struct {
	PassedVerses []int   `json:"passedVerses"`
	Notes        *string `json:"notes"`
}

// RecheckScopeResponse describes what the next recheck round covers.
type RecheckScopeResponse struct {
	HafalanRecordID string          `json:"hafalanRecordId"`
	Round           int             `json:"round"`
	Scope           models.VerseSet `json:"scope"`
}

// StudentProgressResponse summarizes a student's records.
type StudentProgressResponse struct {
	StudentID       string               `json:"studentId"`
	TotalPages      int                  `json:"totalPages"`
	PassedPages     int                  `json:"passedPages"`
	VersesMemorized int                  `json:"versesMemorized"`
	ByStatus        []models.StatusCount `json:"byStatus"`
}
