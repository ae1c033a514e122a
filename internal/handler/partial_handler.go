package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/pkg/response"
)

type partialService interface {
	Create(ctx context.Context, req dto.CreatePartialRequest) (*models.PartialHafalan, error)
	Update(ctx context.Context, id string, req dto.UpdatePartialRequest) (*models.PartialHafalan, error)
	Complete(ctx context.Context, id, teacherID string) (*models.PartialHafalan, *models.HafalanRecord, error)
	Cancel(ctx context.Context, id string) (*models.PartialHafalan, error)
	Get(ctx context.Context, id string) (*models.PartialHafalan, error)
	List(ctx context.Context, query dto.PartialQuery) ([]models.PartialHafalan, error)
}

// PartialHandler exposes sub-verse progress endpoints.
type PartialHandler struct {
	service partialService
}

// NewPartialHandler builds a new handler.
func NewPartialHandler(service partialService) *PartialHandler {
	return &PartialHandler{service: service}
}

// Create godoc
// @Summary Start tracking partial progress on a verse
// @Tags Partial
// @Accept json
// @Produce json
// @Param payload body dto.CreatePartialRequest true "Partial payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /partials [post]
func (h *PartialHandler) Create(c *gin.Context) {
	var req dto.CreatePartialRequest
	if err := bindJSON(c, &req, "invalid partial payload"); err != nil {
		response.Error(c, err)
		return
	}
	req.TeacherID = actorID(c)

	partial, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, partial)
}

// List godoc
// @Summary List partial progress entries
// @Tags Partial
// @Produce json
// @Param studentId query string false "Student ID"
// @Param pageId query int false "Page number"
// @Param status query string false "Comma separated statuses"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /partials [get]
func (h *PartialHandler) List(c *gin.Context) {
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
	query := dto.PartialQuery{
		StudentID: c.Query("studentId"),
		PageID:    pageID,
		Limit:     limit,
		Offset:    offset,
	}
	for _, s := range statusQuery(c) {
		query.Status = append(query.Status, models.PartialStatus(s))
	}

	partials, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partials, &models.Pagination{Limit: limit, Offset: offset, Count: len(partials)})
}

// Get godoc
// @Summary Get a partial progress entry
// @Tags Partial
// @Produce json
// @Param id path string true "Partial ID"
// @Success 200 {object} response.Envelope
// @Router /partials/{id} [get]
func (h *PartialHandler) Get(c *gin.Context) {
	partial, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partial, nil)
}

// Update godoc
// @Summary Update note or percentage of an open partial
// @Tags Partial
// @Accept json
// @Produce json
// @Param id path string true "Partial ID"
// @Param payload body dto.UpdatePartialRequest true "Partial update"
// @Success 200 {object} response.Envelope
// @Router /partials/{id} [patch]
func (h *PartialHandler) Update(c *gin.Context) {
	var req dto.UpdatePartialRequest
	if err := bindJSON(c, &req, "invalid partial payload"); err != nil {
		response.Error(c, err)
		return
	}
	partial, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partial, nil)
}

// Complete godoc
// @Summary Promote a partial into a fully memorized verse
// @Tags Partial
// @Produce json
// @Param id path string true "Partial ID"
// @Success 200 {object} response.Envelope
// @Router /partials/{id}/complete [post]
func (h *PartialHandler) Complete(c *gin.Context) {
	partial, record, err := h.service.Complete(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CompletePartialResponse{Partial: partial, Record: record}, nil)
}

// Cancel godoc
// @Summary Abandon an open partial
// @Tags Partial
// @Produce json
// @Param id path string true "Partial ID"
// @Success 200 {object} response.Envelope
// @Router /partials/{id}/cancel [post]
func (h *PartialHandler) Cancel(c *gin.Context) {
	partial, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, partial, nil)
}
