package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/pkg/response"
)

type rosterService interface {
	GetVerseRange(ctx context.Context, pageID int) (*models.VerseRange, error)
	ListPages(ctx context.Context, juz int) ([]models.VerseRange, error)
}

// RosterHandler exposes the page to verse range roster.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler builds a new handler.
func NewRosterHandler(service rosterService) *RosterHandler {
	return &RosterHandler{service: service}
}

// GetPage godoc
// @Summary Get the verse range of a page
// @Tags Roster
// @Produce json
// @Param page path int true "Page number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /roster/pages/{page} [get]
func (h *RosterHandler) GetPage(c *gin.Context) {
	page, err := intParam(c, "page")
	if err != nil {
		response.Error(c, err)
		return
	}
	rng, err := h.service.GetVerseRange(c.Request.Context(), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rng, nil)
}

// ListPages godoc
// @Summary List roster pages, optionally for one juz
// @Tags Roster
// @Produce json
// @Param juz query int false "Juz number"
// @Success 200 {object} response.Envelope
// @Router /roster/pages [get]
func (h *RosterHandler) ListPages(c *gin.Context) {
	juz, err := intQuery(c, "juz", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	pages, err := h.service.ListPages(c.Request.Context(), juz)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pages, nil)
}
