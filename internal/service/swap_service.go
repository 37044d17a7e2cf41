package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/duty-roster-api/internal/dto"
	"github.com/noah-isme/duty-roster-api/internal/models"
	appErrors "github.com/noah-isme/duty-roster-api/pkg/errors"
)

type swapStore interface {
	Create(ctx context.Context, req *models.SwapRequest) error
	GetByID(ctx context.Context, id string) (*models.SwapRequest, error)
	ListPendingFor(ctx context.Context, memberID string) ([]models.SwapRequest, error)
	Resolve(ctx context.Context, id string, status models.SwapStatus) error
}

type swapScheduleStore interface {
	GetByID(ctx context.Context, id string) (*models.Schedule, error)
	ReassignOwner(ctx context.Context, id, expectedOwnerID, newOwnerID string) error
}

type memberDirectory interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Member, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type rosterInvalidator interface {
	InvalidateRoster(ctx context.Context)
}

// SwapService is the negotiation engine: it owns the PENDING → ACCEPTED |
// REJECTED state machine and the two-record reassignment performed on
// acceptance. All status transitions go through a conditional write so a
// retried or racing response can never double-apply a swap.
type SwapService struct {
	swaps     swapStore
	schedules swapScheduleStore
	members   memberDirectory
	audit     auditLogger
	roster    rosterInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSwapService constructs the service.
func NewSwapService(swaps swapStore, schedules swapScheduleStore, members memberDirectory, audit auditLogger, roster rosterInvalidator, metrics *MetricsService, logger *zap.Logger) *SwapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapService{
		swaps:     swaps,
		schedules: schedules,
		members:   members,
		audit:     audit,
		roster:    roster,
		metrics:   metrics,
		validator: validator.New(),
		logger:    logger,
	}
}

// Create validates the schedule pair and inserts a pending request. The
// target member is whoever owns the target schedule right now; that identity
// is recorded on the request and re-validated at acceptance time.
func (s *SwapService) Create(ctx context.Context, req dto.CreateSwapRequest, requesterID string) (*models.SwapRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap payload")
	}
	if req.RequesterScheduleID == req.TargetScheduleID {
		return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "cannot swap a duty with itself")
	}

	mine, err := s.schedules.GetByID(ctx, req.RequesterScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "your duty date does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if mine.OwnerID != requesterID {
		return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "you do not own the offered duty date")
	}
	if mine.Completed {
		return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "a completed duty cannot be swapped")
	}

	theirs, err := s.schedules.GetByID(ctx, req.TargetScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "selected duty date does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if theirs.OwnerID == requesterID {
		return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "cannot swap with your own duty date")
	}
	if theirs.Completed {
		return nil, appErrors.Clone(appErrors.ErrInvalidSelection, "selected duty is already completed")
	}

	swap := &models.SwapRequest{
		RequesterID:         requesterID,
		TargetID:            theirs.OwnerID,
		RequesterScheduleID: mine.ID,
		TargetScheduleID:    theirs.ID,
		Status:              models.SwapStatusPending,
	}
	if err := s.swaps.Create(ctx, swap); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create swap request")
	}

	s.emitAudit(ctx, &models.AuditLog{
		MemberID:   &requesterID,
		Action:     models.AuditActionSwapCreate,
		Resource:   "swap_request",
		ResourceID: &swap.ID,
		NewValues:  []byte(fmt.Sprintf(`{"requester_schedule":%q,"target_schedule":%q,"target":%q}`, swap.RequesterScheduleID, swap.TargetScheduleID, swap.TargetID)),
	})
	return swap, nil
}

// Respond applies the target member's decision. Acceptance re-validates
// current ownership against the identities recorded on the request, flips
// the status via the conditional write, then reassigns both schedules with
// owner-guarded updates. A failure of the second reassignment after the
// first succeeded is surfaced as PARTIAL_SWAP_FAILURE and never retried
// here; the roster needs manual reconciliation at that point.
func (s *SwapService) Respond(ctx context.Context, requestID, responderID string, accept bool) (*models.SwapRequest, error) {
	swap, err := s.swaps.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "swap request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load swap request")
	}
	if swap.TargetID != responderID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requested member may respond")
	}
	if swap.Status.Terminal() {
		return nil, appErrors.ErrAlreadyResolved
	}

	if !accept {
		if err := s.swaps.Resolve(ctx, swap.ID, models.SwapStatusRejected); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrAlreadyResolved
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject swap request")
		}
		swap.Status = models.SwapStatusRejected
		s.recordOutcome("rejected")
		s.emitRespondAudit(ctx, swap, responderID)
		s.invalidate(ctx)
		return swap, nil
	}

	// Ownership must still match what the requester and target held when
	// the request was created; an admin may have moved either duty since.
	mine, theirs, err := s.loadPair(ctx, swap)
	if err != nil {
		return nil, err
	}
	if mine.OwnerID != swap.RequesterID || theirs.OwnerID != swap.TargetID {
		s.recordOutcome("stale")
		return nil, appErrors.ErrStaleAssignment
	}

	// The status flip is the linearization point: of two racing accepts
	// only one passes this conditional write.
	if err := s.swaps.Resolve(ctx, swap.ID, models.SwapStatusAccepted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrAlreadyResolved
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept swap request")
	}
	swap.Status = models.SwapStatusAccepted

	if err := s.schedules.ReassignOwner(ctx, swap.RequesterScheduleID, swap.RequesterID, swap.TargetID); err != nil {
		// Nothing has been reassigned yet, but the request is already
		// terminal; log loudly since the accept stands without a swap.
		s.logger.Error("swap accepted but first reassignment failed",
			zap.String("swap_id", swap.ID),
			zap.String("schedule_id", swap.RequesterScheduleID),
			zap.Error(err))
		s.recordOutcome("stale")
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrStaleAssignment
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign schedule")
	}

	if err := s.schedules.ReassignOwner(ctx, swap.TargetScheduleID, swap.TargetID, swap.RequesterID); err != nil {
		s.logger.Error("swap partially applied, second reassignment failed",
			zap.String("swap_id", swap.ID),
			zap.String("schedule_id", swap.TargetScheduleID),
			zap.Error(err))
		s.recordOutcome("partial_failure")
		s.invalidate(ctx)
		return nil, appErrors.Wrap(err, appErrors.ErrPartialSwapFailure.Code, appErrors.ErrPartialSwapFailure.Status, appErrors.ErrPartialSwapFailure.Message)
	}

	s.recordOutcome("accepted")
	s.emitRespondAudit(ctx, swap, responderID)
	s.invalidate(ctx)
	return swap, nil
}

// ListFor returns the caller's pending requests split into incoming and
// outgoing, enriched with both schedules and both member names.
func (s *SwapService) ListFor(ctx context.Context, memberID string) (*dto.SwapListResponse, error) {
	swaps, err := s.swaps.ListPendingFor(ctx, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list swap requests")
	}

	memberIDs := make([]string, 0, len(swaps)*2)
	for _, swap := range swaps {
		memberIDs = append(memberIDs, swap.RequesterID, swap.TargetID)
	}
	members, err := s.members.FindByIDs(ctx, memberIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve members")
	}

	result := &dto.SwapListResponse{Incoming: []dto.SwapItem{}, Outgoing: []dto.SwapItem{}}
	for _, swap := range swaps {
		item := dto.SwapItem{
			ID:            swap.ID,
			Status:        swap.Status,
			RequesterID:   swap.RequesterID,
			RequesterName: members[swap.RequesterID].FullName,
			TargetID:      swap.TargetID,
			TargetName:    members[swap.TargetID].FullName,
			CreatedAt:     swap.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			UpdatedAt:     swap.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if sched, err := s.schedules.GetByID(ctx, swap.RequesterScheduleID); err == nil {
			owner := members[swap.RequesterID]
			item.RequesterSchedule = dto.ScheduleItemFromModel(*sched, &owner)
		}
		if sched, err := s.schedules.GetByID(ctx, swap.TargetScheduleID); err == nil {
			owner := members[swap.TargetID]
			item.TargetSchedule = dto.ScheduleItemFromModel(*sched, &owner)
		}
		if swap.TargetID == memberID {
			result.Incoming = append(result.Incoming, item)
		} else {
			result.Outgoing = append(result.Outgoing, item)
		}
	}
	return result, nil
}

func (s *SwapService) loadPair(ctx context.Context, swap *models.SwapRequest) (*models.Schedule, *models.Schedule, error) {
	mine, err := s.schedules.GetByID(ctx, swap.RequesterScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A deleted schedule is ownership drift from the engine's
			// point of view.
			s.recordOutcome("stale")
			return nil, nil, appErrors.ErrStaleAssignment
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	theirs, err := s.schedules.GetByID(ctx, swap.TargetScheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.recordOutcome("stale")
			return nil, nil, appErrors.ErrStaleAssignment
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return mine, theirs, nil
}

func (s *SwapService) emitRespondAudit(ctx context.Context, swap *models.SwapRequest, responderID string) {
	s.emitAudit(ctx, &models.AuditLog{
		MemberID:   &responderID,
		Action:     models.AuditActionSwapRespond,
		Resource:   "swap_request",
		ResourceID: &swap.ID,
		NewValues:  []byte(fmt.Sprintf(`{"status":%q}`, swap.Status)),
	})
}

func (s *SwapService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "swap-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func (s *SwapService) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSwapOutcome(outcome)
	}
}

func (s *SwapService) invalidate(ctx context.Context) {
	if s.roster != nil {
		s.roster.InvalidateRoster(ctx)
	}
}
