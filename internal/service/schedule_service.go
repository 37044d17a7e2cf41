package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/duty-roster-api/internal/dto"
	"github.com/noah-isme/duty-roster-api/internal/models"
	appErrors "github.com/noah-isme/duty-roster-api/pkg/errors"
)

type scheduleStore interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	GetByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error)
	SetOwner(ctx context.Context, id, newOwnerID string) error
	MarkCompleted(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type scheduleMemberStore interface {
	FindByID(ctx context.Context, id string) (*models.Member, error)
}

// ScheduleService covers the administrative side of the roster: adding duty
// dates, deleting them, direct reassignment, and marking duties done. The
// swap engine never goes through this service.
type ScheduleService struct {
	schedules scheduleStore
	members   scheduleMemberStore
	audit     auditLogger
	roster    rosterInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(schedules scheduleStore, members scheduleMemberStore, audit auditLogger, roster rosterInvalidator, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		schedules: schedules,
		members:   members,
		audit:     audit,
		roster:    roster,
		validator: validator.New(),
		logger:    logger,
	}
}

// Create adds a duty date for a member. Only members currently marked
// present may be given new duties; absent members stay off the candidate
// list until they toggle back.
func (s *ScheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest, actorID string) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	member, err := s.members.FindByID(ctx, req.MemberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	if !member.Present {
		return nil, appErrors.Clone(appErrors.ErrValidation, "member is not available for duty")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	schedule := &models.Schedule{
		OwnerID:   member.ID,
		Date:      date,
		CreatedBy: &actorID,
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	s.emitAudit(ctx, actorID, models.AuditActionScheduleCreate, schedule.ID,
		fmt.Sprintf(`{"owner":%q,"date":%q}`, schedule.OwnerID, req.Date))
	s.invalidate(ctx)
	return schedule, nil
}

// Reassign moves a duty date to a different member outside the swap
// workflow. The write is unconditional; any pending swap referencing this
// schedule will fail its stale-ownership check at acceptance time.
func (s *ScheduleService) Reassign(ctx context.Context, scheduleID string, req dto.ReassignScheduleRequest, actorID string) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reassign payload")
	}

	schedule, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	if _, err := s.members.FindByID(ctx, req.NewOwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	previousOwner := schedule.OwnerID
	if err := s.schedules.SetOwner(ctx, scheduleID, req.NewOwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign schedule")
	}
	schedule.OwnerID = req.NewOwnerID

	s.emitAudit(ctx, actorID, models.AuditActionScheduleReassign, schedule.ID,
		fmt.Sprintf(`{"from":%q,"to":%q}`, previousOwner, req.NewOwnerID))
	s.invalidate(ctx)
	return schedule, nil
}

// Complete marks a duty as done. The flag is monotonic: completing an
// already-completed duty is a conflict, not a no-op, so double submissions
// are visible to the caller.
func (s *ScheduleService) Complete(ctx context.Context, scheduleID, actorID string) error {
	if err := s.schedules.MarkCompleted(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "schedule missing or already completed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete schedule")
	}
	s.emitAudit(ctx, actorID, models.AuditActionScheduleComplete, scheduleID, `{"completed":true}`)
	s.invalidate(ctx)
	return nil
}

// Delete removes a duty date entirely.
func (s *ScheduleService) Delete(ctx context.Context, scheduleID, actorID string) error {
	if err := s.schedules.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.emitAudit(ctx, actorID, models.AuditActionScheduleDelete, scheduleID, "")
	s.invalidate(ctx)
	return nil
}

func (s *ScheduleService) emitAudit(ctx context.Context, actorID, action, resourceID, newValues string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		MemberID:   &actorID,
		Action:     action,
		Resource:   "schedule",
		ResourceID: &resourceID,
		IPAddress:  "system",
		UserAgent:  "schedule-service",
	}
	if newValues != "" {
		log.NewValues = []byte(newValues)
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *ScheduleService) invalidate(ctx context.Context) {
	if s.roster != nil {
		s.roster.InvalidateRoster(ctx)
	}
}
