package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/pkg/response"
)

type verseMarkService interface {
	MarkVersesComplete(ctx context.Context, req dto.MarkVersesRequest) (*models.HafalanRecord, error)
}

type hafalanRecordService interface {
	Get(ctx context.Context, id string) (*models.HafalanRecord, error)
	List(ctx context.Context, query dto.HafalanQuery) ([]models.HafalanRecord, error)
	UpdateNotes(ctx context.Context, recordID, teacherID string, req dto.UpdateNotesRequest) (*models.HafalanRecord, error)
	ReassignTeacher(ctx context.Context, recordID, actorID string, req dto.ReassignTeacherRequest) (*models.HafalanRecord, error)
	StudentProgress(ctx context.Context, studentID string) (*dto.StudentProgressResponse, error)
}

type historyService interface {
	ListHistory(ctx context.Context, recordID string) ([]models.HistoryEntry, error)
}

// HafalanHandler exposes verse marking and hafalan record endpoints.
type HafalanHandler struct {
	marks   verseMarkService
	records hafalanRecordService
	history historyService
}

// NewHafalanHandler builds a new handler.
func NewHafalanHandler(marks verseMarkService, records hafalanRecordService, history historyService) *HafalanHandler {
	return &HafalanHandler{marks: marks, records: records, history: history}
}

// MarkVerses godoc
// @Summary Mark verses of a page as memorized
// @Tags Hafalan
// @Accept json
// @Produce json
// @Param payload body dto.MarkVersesRequest true "Verses payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /hafalan/verses [post]
func (h *HafalanHandler) MarkVerses(c *gin.Context) {
	var req dto.MarkVersesRequest
	if err := bindJSON(c, &req, "invalid verses payload"); err != nil {
		response.Error(c, err)
		return
	}
	req.TeacherID = actorID(c)

	record, err := h.marks.MarkVersesComplete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// List godoc
// @Summary List hafalan records
// @Tags Hafalan
// @Produce json
// @Param studentId query string false "Student ID"
// @Param teacherId query string false "Teacher ID"
// @Param pageId query int false "Page number"
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /hafalan [get]
func (h *HafalanHandler) List(c *gin.Context) {
	limit, offset, err := pageQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	pageID, err := intQuery(c, "pageId", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	query := dto.HafalanQuery{
		StudentID: c.Query("studentId"),
		TeacherID: c.Query("teacherId"),
		PageID:    pageID,
		Limit:     limit,
		Offset:    offset,
	}
	for _, s := range statusQuery(c) {
		query.Status = append(query.Status, models.HafalanStatus(s))
	}

	records, err := h.records.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, &models.Pagination{Limit: limit, Offset: offset, Count: len(records)})
}

// Get godoc
// @Summary Get a hafalan record
// @Tags Hafalan
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /hafalan/{id} [get]
func (h *HafalanHandler) Get(c *gin.Context) {
	record, err := h.records.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// UpdateNotes godoc
// @Summary Replace the notes of a hafalan record
// @Tags Hafalan
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body dto.UpdateNotesRequest true "Notes payload"
// @Success 200 {object} response.Envelope
// @Router /hafalan/{id}/notes [patch]
func (h *HafalanHandler) UpdateNotes(c *gin.Context) {
	var req dto.UpdateNotesRequest
	if err := bindJSON(c, &req, "invalid notes payload"); err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.records.UpdateNotes(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// ReassignTeacher godoc
// @Summary Hand a hafalan record over to another teacher
// @Tags Hafalan
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body dto.ReassignTeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /hafalan/{id}/teacher [put]
func (h *HafalanHandler) ReassignTeacher(c *gin.Context) {
	var req dto.ReassignTeacherRequest
	if err := bindJSON(c, &req, "invalid teacher payload"); err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.records.ReassignTeacher(c.Request.Context(), c.Param("id"), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// History godoc
// @Summary List the change history of a hafalan record
// @Tags Hafalan
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /hafalan/{id}/history [get]
func (h *HafalanHandler) History(c *gin.Context) {
	entries, err := h.history.ListHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// StudentProgress godoc
// @Summary Summarize a student's memorization progress
// @Tags Hafalan
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/progress [get]
func (h *HafalanHandler) StudentProgress(c *gin.Context) {
	progress, err := h.records.StudentProgress(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
