package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/duty-roster-api/internal/dto"
	appErrors "github.com/noah-isme/duty-roster-api/pkg/errors"
	"github.com/noah-isme/duty-roster-api/pkg/response"
)

type rosterService interface {
	View(ctx context.Context, memberID string) (*dto.RosterView, error)
	Mine(ctx context.Context, memberID string) ([]dto.ScheduleItem, error)
}

// RosterHandler exposes the roster read endpoints.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(service rosterService) *RosterHandler {
	return &RosterHandler{service: service}
}

// View godoc
// @Summary Full roster with the caller's duties and pending request count
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roster [get]
func (h *RosterHandler) View(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "roster service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.service.View(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Mine godoc
// @Summary The caller's own duty dates
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roster/mine [get]
func (h *RosterHandler) Mine(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "roster service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.Mine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
