package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tahfidz-api/internal/dto"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/pkg/response"
)

type recheckService interface {
	SubmitRecheck(ctx context.Context, recordID, teacherID string, passedVerses []int, notes *string) (*models.RecheckRecord, error)
	CurrentScope(ctx context.Context, recordID string) (*dto.RecheckScopeResponse, error)
	ListRounds(ctx context.Context, recordID string) ([]models.RecheckRecord, error)
}

// RecheckHandler exposes recheck round endpoints.
type RecheckHandler struct {
	service recheckService
}

// NewRecheckHandler builds a new handler.
func NewRecheckHandler(service recheckService) *RecheckHandler {
	return &RecheckHandler{service: service}
}

// Submit godoc
// @Summary Record the outcome of a recheck round
// @Tags Recheck
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body dto.SubmitRecheckRequest true "Recheck payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /hafalan/{id}/rechecks [post]
func (h *RecheckHandler) Submit(c *gin.Context) {
	var req dto.SubmitRecheckRequest
	if err := bindJSON(c, &req, "invalid recheck payload"); err != nil {
		response.Error(c, err)
		return
	}
	round, err := h.service.SubmitRecheck(c.Request.Context(), c.Param("id"), actorID(c), req.PassedVerses, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, round)
}

// Scope godoc
// @Summary Show the verses the next recheck round covers
// @Tags Recheck
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /hafalan/{id}/rechecks/scope [get]
func (h *RecheckHandler) Scope(c *gin.Context) {
	scope, err := h.service.CurrentScope(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scope, nil)
}

// List godoc
// @Summary List recheck rounds of a record
// @Tags Recheck
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /hafalan/{id}/rechecks [get]
func (h *RecheckHandler) List(c *gin.Context) {
	rounds, err := h.service.ListRounds(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rounds, nil)
}
