package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/duty-roster-api/internal/dto"
	"github.com/noah-isme/duty-roster-api/internal/models"
	appErrors "github.com/noah-isme/duty-roster-api/pkg/errors"
)

type memberStore interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
	List(ctx context.Context, filter models.MemberFilter) ([]models.Member, int, error)
	UpdatePresence(ctx context.Context, id string, present bool) error
	UpdateRole(ctx context.Context, id string, role models.MemberRole) error
}

// MemberService handles member directory operations: listing, presence
// toggling, and role management.
type MemberService struct {
	members memberStore
	audit   auditLogger
	logger  *zap.Logger
}

// NewMemberService constructs the service.
func NewMemberService(members memberStore, audit auditLogger, logger *zap.Logger) *MemberService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemberService{members: members, audit: audit, logger: logger}
}

// List returns members matching the filter, with pagination metadata.
func (s *MemberService) List(ctx context.Context, filter models.MemberFilter) ([]dto.MemberItem, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	members, total, err := s.members.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}

	items := make([]dto.MemberItem, 0, len(members))
	for _, member := range members {
		items = append(items, dto.MemberItemFromModel(member))
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return items, pagination, nil
}

// Get returns a single member.
func (s *MemberService) Get(ctx context.Context, id string) (*dto.MemberItem, error) {
	member, err := s.members.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	item := dto.MemberItemFromModel(*member)
	return &item, nil
}

// SetPresence toggles the caller's own presence flag. Only self-service:
// admins change schedules, not other people's presence.
func (s *MemberService) SetPresence(ctx context.Context, callerID, memberID string, present bool) error {
	if callerID != memberID {
		return appErrors.ErrForbidden
	}
	if err := s.members.UpdatePresence(ctx, memberID, present); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update presence")
	}
	s.emitAudit(ctx, callerID, models.AuditActionPresenceChange, memberID)
	return nil
}

// SetRole promotes or demotes a member. Admins cannot change their own
// role, which guarantees at least one admin survives the operation.
func (s *MemberService) SetRole(ctx context.Context, callerID, memberID string, role models.MemberRole) error {
	if callerID == memberID {
		return appErrors.ErrForbidden
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return appErrors.ErrValidation
	}
	if err := s.members.UpdateRole(ctx, memberID, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}
	s.logger.Info("member role changed",
		zap.String("member_id", memberID),
		zap.String("role", string(role)),
		zap.String("changed_by", callerID))
	s.emitAudit(ctx, callerID, models.AuditActionRoleChange, memberID)
	return nil
}

func (s *MemberService) emitAudit(ctx context.Context, actorID, action, resourceID string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		MemberID:   &actorID,
		Action:     action,
		Resource:   "member",
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "member-service",
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
