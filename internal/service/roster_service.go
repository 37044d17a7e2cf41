package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/duty-roster-api/internal/dto"
	"github.com/noah-isme/duty-roster-api/internal/models"
	appErrors "github.com/noah-isme/duty-roster-api/pkg/errors"
)

const rosterCacheKey = "roster:all"

type rosterScheduleStore interface {
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error)
}

type rosterSwapStore interface {
	ListPendingFor(ctx context.Context, memberID string) ([]models.SwapRequest, error)
}

// RosterService is the read side: it derives the full roster, the caller's
// own slice of it, and their pending-request count from the two stores.
// Every view is a fresh recomputation; the only optimisation is a short
// TTL cache over the joined roster rows, invalidated on every mutation.
type RosterService struct {
	schedules rosterScheduleStore
	swaps     rosterSwapStore
	members   memberDirectory
	cache     *CacheService
	logger    *zap.Logger
}

// NewRosterService constructs the service.
func NewRosterService(schedules rosterScheduleStore, swaps rosterSwapStore, members memberDirectory, cache *CacheService, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{schedules: schedules, swaps: swaps, members: members, cache: cache, logger: logger}
}

// View assembles the roster for a member: all duties date-ascending with
// owners resolved, the member's own duties, and how many pending requests
// involve them.
func (s *RosterService) View(ctx context.Context, memberID string) (*dto.RosterView, error) {
	items, err := s.allItems(ctx)
	if err != nil {
		return nil, err
	}

	mine := make([]dto.ScheduleItem, 0, 4)
	for _, item := range items {
		if item.OwnerID == memberID {
			mine = append(mine, item)
		}
	}

	pending := 0
	if s.swaps != nil {
		swaps, err := s.swaps.ListPendingFor(ctx, memberID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending requests")
		}
		pending = len(swaps)
	}

	return &dto.RosterView{Schedules: items, Mine: mine, Pending: pending}, nil
}

// Mine returns only the member's duties, date ascending.
func (s *RosterService) Mine(ctx context.Context, memberID string) ([]dto.ScheduleItem, error) {
	schedules, err := s.schedules.List(ctx, models.ScheduleFilter{OwnerID: memberID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return s.resolveOwners(ctx, schedules)
}

// All returns the full joined roster, cache-first.
func (s *RosterService) All(ctx context.Context) ([]dto.ScheduleItem, error) {
	return s.allItems(ctx)
}

// InvalidateRoster drops the cached roster view. Called by the write-side
// services after every mutation so readers refetch.
func (s *RosterService) InvalidateRoster(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidatePattern(ctx, "roster:*")
	}
}

func (s *RosterService) allItems(ctx context.Context) ([]dto.ScheduleItem, error) {
	var cached []dto.ScheduleItem
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, rosterCacheKey, &cached); hit {
			return cached, nil
		}
	}

	schedules, err := s.schedules.List(ctx, models.ScheduleFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	items, err := s.resolveOwners(ctx, schedules)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rosterCacheKey, items, 0); err != nil {
			s.logger.Debug("roster cache store failed", zap.Error(err))
		}
	}
	return items, nil
}

func (s *RosterService) resolveOwners(ctx context.Context, schedules []models.Schedule) ([]dto.ScheduleItem, error) {
	ownerIDs := make([]string, 0, len(schedules))
	for _, schedule := range schedules {
		ownerIDs = append(ownerIDs, schedule.OwnerID)
	}
	owners, err := s.members.FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve owners")
	}

	items := make([]dto.ScheduleItem, 0, len(schedules))
	for _, schedule := range schedules {
		owner, ok := owners[schedule.OwnerID]
		if ok {
			items = append(items, dto.ScheduleItemFromModel(schedule, &owner))
		} else {
			items = append(items, dto.ScheduleItemFromModel(schedule, nil))
		}
	}
	return items, nil
}
