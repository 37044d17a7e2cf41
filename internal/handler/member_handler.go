package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/duty-roster-api/internal/dto"
	"github.com/noah-isme/duty-roster-api/internal/models"
	appErrors "github.com/noah-isme/duty-roster-api/pkg/errors"
	"github.com/noah-isme/duty-roster-api/pkg/response"
)

type memberService interface {
	List(ctx context.Context, filter models.MemberFilter) ([]dto.MemberItem, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.MemberItem, error)
	SetPresence(ctx context.Context, callerID, memberID string, present bool) error
	SetRole(ctx context.Context, callerID, memberID string, role models.MemberRole) error
}

// MemberHandler exposes member directory endpoints.
type MemberHandler struct {
	service memberService
}

// NewMemberHandler constructs the handler.
func NewMemberHandler(service memberService) *MemberHandler {
	return &MemberHandler{service: service}
}

// List godoc
// @Summary List members
// @Tags Members
// @Produce json
// @Param role query string false "Filter by role"
// @Param present query bool false "Filter by presence"
// @Param search query string false "Search by name or email"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /members [get]
func (h *MemberHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "member service not configured"))
		return
	}
	filter := models.MemberFilter{
		Search: strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("role"); raw != "" {
		role := models.MemberRole(strings.ToUpper(raw))
		filter.Role = &role
	}
	if raw := c.Query("present"); raw != "" {
		present, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid present filter"))
			return
		}
		filter.Present = &present
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a member
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /members/{id} [get]
func (h *MemberHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "member service not configured"))
		return
	}
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// SetPresence godoc
// @Summary Update the caller's presence flag
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body dto.UpdatePresenceRequest true "Presence payload"
// @Success 204
// @Router /members/{id}/presence [put]
func (h *MemberHandler) SetPresence(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "member service not configured"))
		return
	}
	var req dto.UpdatePresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid presence payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.SetPresence(c.Request.Context(), claims.UserID, c.Param("id"), req.Present); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetRole godoc
// @Summary Change a member's role
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body dto.UpdateRoleRequest true "Role payload"
// @Success 204
// @Router /members/{id}/role [put]
func (h *MemberHandler) SetRole(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "member service not configured"))
		return
	}
	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid role payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.SetRole(c.Request.Context(), claims.UserID, c.Param("id"), req.Role); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
