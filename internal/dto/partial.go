package dto

import "github.com/noah-isme/tahfidz-api/internal/models"

// CreatePartialRequest opens sub-verse progress for a single verse. Percentage
// bounds are enforced by the service so they surface as INVALID_PERCENTAGE, and
// the verse number is checked against the page range.
type CreatePartialRequest struct {
	StudentID    string `json:"studentId" validate:"required"`
	PageID       int    `json:"pageId" validate:"required,gt=0"`
	VerseNumber  int    `json:"verseNumber"`
	ProgressNote string `json:"progressNote" validate:"max=2000"`
	Percentage   int    `json:"percentage"`
	TeacherID    string `json:"-"`
}

// UpdatePartialRequest changes the note and/or percentage of an open partial.
type UpdatePartialRequest struct {
	ProgressNote *string `json:"progressNote" validate:"omitempty,max=2000"`
	Percentage   *int    `json:"percentage"`
}

// PartialQuery mirrors supported listing filters.
type PartialQuery struct {
	StudentID string
	PageID    int
	Status    []models.PartialStatus
	Limit     int
	Offset    int
}

// CompletePartialResponse carries the completed partial and the hafalan record
// it was promoted into.
type CompletePartialResponse struct {
	Partial *models.PartialHafalan `json:"partial"`
	Record  *models.HafalanRecord  `json:"record"`
}
