package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/duty-roster-api/internal/dto"
	"github.com/noah-isme/duty-roster-api/internal/models"
	appErrors "github.com/noah-isme/duty-roster-api/pkg/errors"
)

type swapStoreStub struct {
	swaps map[string]*models.SwapRequest
	// resolveErr forces Resolve to fail regardless of stored state.
	resolveErr error
}

func newSwapStoreStub() *swapStoreStub {
	return &swapStoreStub{swaps: make(map[string]*models.SwapRequest)}
}

func (s *swapStoreStub) Create(ctx context.Context, req *models.SwapRequest) error {
	if req.ID == "" {
		req.ID = fmt.Sprintf("swap-%d", len(s.swaps)+1)
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	copied := *req
	s.swaps[req.ID] = &copied
	return nil
}

func (s *swapStoreStub) GetByID(ctx context.Context, id string) (*models.SwapRequest, error) {
	if swap, ok := s.swaps[id]; ok {
		copied := *swap
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *swapStoreStub) ListPendingFor(ctx context.Context, memberID string) ([]models.SwapRequest, error) {
	result := make([]models.SwapRequest, 0)
	for _, swap := range s.swaps {
		if swap.Status != models.SwapStatusPending {
			continue
		}
		if swap.RequesterID == memberID || swap.TargetID == memberID {
			result = append(result, *swap)
		}
	}
	return result, nil
}

func (s *swapStoreStub) Resolve(ctx context.Context, id string, status models.SwapStatus) error {
	if s.resolveErr != nil {
		return s.resolveErr
	}
	swap, ok := s.swaps[id]
	if !ok || swap.Status != models.SwapStatusPending {
		return sql.ErrNoRows
	}
	swap.Status = status
	swap.UpdatedAt = time.Now().UTC()
	return nil
}

type scheduleStoreStub struct {
	schedules map[string]*models.Schedule
	// reassignErr fails ReassignOwner for the given schedule ID.
	reassignErr map[string]error
	reassigns   int
}

func newScheduleStoreStub() *scheduleStoreStub {
	return &scheduleStoreStub{
		schedules:   make(map[string]*models.Schedule),
		reassignErr: make(map[string]error),
	}
}

func (s *scheduleStoreStub) add(id, ownerID string, completed bool) {
	s.schedules[id] = &models.Schedule{
		ID:        id,
		OwnerID:   ownerID,
		Date:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Completed: completed,
	}
}

func (s *scheduleStoreStub) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	if sched, ok := s.schedules[id]; ok {
		copied := *sched
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleStoreStub) ReassignOwner(ctx context.Context, id, expectedOwnerID, newOwnerID string) error {
	if err, ok := s.reassignErr[id]; ok {
		return err
	}
	sched, ok := s.schedules[id]
	if !ok || sched.OwnerID != expectedOwnerID {
		return sql.ErrNoRows
	}
	sched.OwnerID = newOwnerID
	s.reassigns++
	return nil
}

func (s *scheduleStoreStub) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = fmt.Sprintf("sched-%d", len(s.schedules)+1)
	}
	copied := *schedule
	s.schedules[schedule.ID] = &copied
	return nil
}

func (s *scheduleStoreStub) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error) {
	result := make([]models.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		if filter.OwnerID != "" && sched.OwnerID != filter.OwnerID {
			continue
		}
		result = append(result, *sched)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (s *scheduleStoreStub) SetOwner(ctx context.Context, id, newOwnerID string) error {
	sched, ok := s.schedules[id]
	if !ok {
		return sql.ErrNoRows
	}
	sched.OwnerID = newOwnerID
	return nil
}

func (s *scheduleStoreStub) MarkCompleted(ctx context.Context, id string) error {
	sched, ok := s.schedules[id]
	if !ok || sched.Completed {
		return sql.ErrNoRows
	}
	sched.Completed = true
	return nil
}

func (s *scheduleStoreStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.schedules[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.schedules, id)
	return nil
}

type memberDirStub struct {
	members map[string]models.Member
}

func newMemberDirStub(ids ...string) *memberDirStub {
	stub := &memberDirStub{members: make(map[string]models.Member)}
	for _, id := range ids {
		stub.members[id] = models.Member{ID: id, FullName: "Member " + id, Email: id + "@example.com", Present: true}
	}
	return stub
}

func (m *memberDirStub) FindByIDs(ctx context.Context, ids []string) (map[string]models.Member, error) {
	result := make(map[string]models.Member)
	for _, id := range ids {
		if member, ok := m.members[id]; ok {
			result[id] = member
		}
	}
	return result, nil
}

func (m *memberDirStub) FindByID(ctx context.Context, id string) (*models.Member, error) {
	if member, ok := m.members[id]; ok {
		copied := member
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type rosterStub struct {
	invalidations int
}

func (r *rosterStub) InvalidateRoster(ctx context.Context) {
	r.invalidations++
}

func newSwapFixture() (*SwapService, *swapStoreStub, *scheduleStoreStub, *auditStub, *rosterStub) {
	swaps := newSwapStoreStub()
	schedules := newScheduleStoreStub()
	members := newMemberDirStub("alice", "bob")
	audit := &auditStub{}
	roster := &rosterStub{}
	svc := NewSwapService(swaps, schedules, members, audit, roster, nil, nil)
	return svc, swaps, schedules, audit, roster
}

func TestSwapServiceCreate(t *testing.T) {
	svc, swaps, schedules, audit, _ := newSwapFixture()
	schedules.add("sched-a", "alice", false)
	schedules.add("sched-b", "bob", false)

	swap, err := svc.Create(context.Background(), dto.CreateSwapRequest{
		RequesterScheduleID: "sched-a",
		TargetScheduleID:    "sched-b",
	}, "alice")
	require.NoError(t, err)
	require.Equal(t, models.SwapStatusPending, swap.Status)
	require.Equal(t, "alice", swap.RequesterID)
	require.Equal(t, "bob", swap.TargetID)
	require.Len(t, swaps.swaps, 1)
	require.Len(t, audit.logs, 1)
}

func TestSwapServiceCreateInvalidSelections(t *testing.T) {
	svc, _, schedules, _, _ := newSwapFixture()
	schedules.add("sched-a", "alice", false)
	schedules.add("sched-a2", "alice", false)
	schedules.add("sched-b", "bob", false)
	schedules.add("sched-done", "bob", true)
	schedules.add("sched-mine-done", "alice", true)

	cases := []struct {
		name string
		req  dto.CreateSwapRequest
	}{
		{"same schedule", dto.CreateSwapRequest{RequesterScheduleID: "sched-a", TargetScheduleID: "sched-a"}},
		{"not owner of offered", dto.CreateSwapRequest{RequesterScheduleID: "sched-b", TargetScheduleID: "sched-a"}},
		{"own completed duty", dto.CreateSwapRequest{RequesterScheduleID: "sched-mine-done", TargetScheduleID: "sched-b"}},
		{"target owned by requester", dto.CreateSwapRequest{RequesterScheduleID: "sched-a", TargetScheduleID: "sched-a2"}},
		{"target completed", dto.CreateSwapRequest{RequesterScheduleID: "sched-a", TargetScheduleID: "sched-done"}},
		{"target missing", dto.CreateSwapRequest{RequesterScheduleID: "sched-a", TargetScheduleID: "sched-gone"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req, "alice")
			require.Error(t, err)
			require.Equal(t, appErrors.ErrInvalidSelection.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestSwapServiceRejectLeavesOwnersUntouched(t *testing.T) {
	svc, swaps, schedules, _, roster := newSwapFixture()
	schedules.add("sched-a", "alice", false)
	schedules.add("sched-b", "bob", false)
	swaps.swaps["swap-1"] = &models.SwapRequest{
		ID: "swap-1", RequesterID: "alice", TargetID: "bob",
		RequesterScheduleID: "sched-a", TargetScheduleID: "sched-b",
		Status: models.SwapStatusPending,
	}

	swap, err := svc.Respond(context.Background(), "swap-1", "bob", false)
	require.NoError(t, err)
	require.Equal(t, models.SwapStatusRejected, swap.Status)
	require.Equal(t, "alice", schedules.schedules["sched-a"].OwnerID)
	require.Equal(t, "bob", schedules.schedules["sched-b"].OwnerID)
	require.Zero(t, schedules.reassigns)
	require.Equal(t, 1, roster.invalidations)
}

func TestSwapServiceAcceptSwapsExactlyTwoSchedules(t *testing.T) {
	svc, swaps, schedules, _, roster := newSwapFixture()
	schedules.add("sched-a", "alice", false)
	schedules.add("sched-b", "bob", false)
	schedules.add("sched-c", "bob", false)
	swaps.swaps["swap-1"] = &models.SwapRequest{
		ID: "swap-1", RequesterID: "alice", TargetID: "bob",
		RequesterScheduleID: "sched-a", TargetScheduleID: "sched-b",
		Status: models.SwapStatusPending,
	}

	swap, err := svc.Respond(context.Background(), "swap-1", "bob", true)
	require.NoError(t, err)
	require.Equal(t, models.SwapStatusAccepted, swap.Status)
	require.Equal(t, "bob", schedules.schedules["sched-a"].OwnerID)
	require.Equal(t, "alice", schedules.schedules["sched-b"].OwnerID)
	require.Equal(t, "bob", schedules.schedules["sched-c"].OwnerID)
	require.Equal(t, 2, schedules.reassigns)
	require.Equal(t, 1, roster.invalidations)
}

func TestSwapServiceRespondByNonTarget(t *testing.T) {
	svc, swaps, _, _, _ := newSwapFixture()
	swaps.swaps["swap-1"] = &models.SwapRequest{
		ID: "swap-1", RequesterID: "alice", TargetID: "bob",
		RequesterScheduleID: "sched-a", TargetScheduleID: "sched-b",
		Status: models.SwapStatusPending,
	}

	_, err := svc.Respond(context.Background(), "swap-1", "alice", true)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSwapServiceRespondTwice(t *testing.T) {
	svc, swaps, schedules, _, _ := newSwapFixture()
	schedules.add("sched-a", "alice", false)
	schedules.add("sched-b", "bob", false)
	swaps.swaps["swap-1"] = &models.SwapRequest{
		ID: "swap-1", RequesterID: "alice", TargetID: "bob",
		RequesterScheduleID: "sched-a", TargetScheduleID: "sched-b",
		Status: models.SwapStatusPending,
	}

	_, err := svc.Respond(context.Background(), "swap-1", "bob", true)
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), "swap-1", "bob", false)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrAlreadyResolved.Code, appErrors.FromError(err).Code)

	// Owners stay as the accepted swap left them.
	require.Equal(t, "bob", schedules.schedules["sched-a"].OwnerID)
	require.Equal(t, "alice", schedules.schedules["sched-b"].OwnerID)
}

func TestSwapServiceAcceptConcurrentResolveLoses(t *testing.T) {
	svc, swaps, schedules, _, _ := newSwapFixture()
	schedules.add("sched-a", "alice", false)
	schedules.add("sched-b", "bob", false)
	swaps.swaps["swap-1"] = &models.SwapRequest{
		ID: "swap-1", RequesterID: "alice", TargetID: "bob",
		RequesterScheduleID: "sched-a", TargetScheduleID: "sched-b",
		Status: models.SwapStatusPending,
	}
	// A racing response resolved the request between the read and the
	// conditional write.
	swaps.resolveErr = sql.ErrNoRows

	_, err := svc.Respond(context.Background(), "swap-1", "bob", true)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrAlreadyResolved.Code, appErrors.FromError(err).Code)
	require.Zero(t, schedules.reassigns)
}

func TestSwapServiceAcceptStaleOwnership(t *testing.T) {
	svc, swaps, schedules, _, _ := newSwapFixture()
	schedules.add("sched-a", "alice", false)
	// Admin moved the target duty to carol after the request was created.
	schedules.add("sched-b", "carol", false)
	swaps.swaps["swap-1"] = &models.SwapRequest{
		ID: "swap-1", RequesterID: "alice", TargetID: "bob",
		RequesterScheduleID: "sched-a", TargetScheduleID: "sched-b",
		Status: models.SwapStatusPending,
	}

	_, err := svc.Respond(context.Background(), "swap-1", "bob", true)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrStaleAssignment.Code, appErrors.FromError(err).Code)
	require.Equal(t, models.SwapStatusPending, swaps.swaps["swap-1"].Status)
	require.Zero(t, schedules.reassigns)
}

func TestSwapServiceAcceptDeletedSchedule(t *testing.T) {
	svc, swaps, schedules, _, _ := newSwapFixture()
	schedules.add("sched-a", "alice", false)
	swaps.swaps["swap-1"] = &models.SwapRequest{
		ID: "swap-1", RequesterID: "alice", TargetID: "bob",
		RequesterScheduleID: "sched-a", TargetScheduleID: "sched-gone",
		Status: models.SwapStatusPending,
	}

	_, err := svc.Respond(context.Background(), "swap-1", "bob", true)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrStaleAssignment.Code, appErrors.FromError(err).Code)
}

func TestSwapServiceAcceptPartialFailure(t *testing.T) {
	svc, swaps, schedules, _, roster := newSwapFixture()
	schedules.add("sched-a", "alice", false)
	schedules.add("sched-b", "bob", false)
	schedules.reassignErr["sched-b"] = errors.New("connection reset")
	swaps.swaps["swap-1"] = &models.SwapRequest{
		ID: "swap-1", RequesterID: "alice", TargetID: "bob",
		RequesterScheduleID: "sched-a", TargetScheduleID: "sched-b",
		Status: models.SwapStatusPending,
	}

	_, err := svc.Respond(context.Background(), "swap-1", "bob", true)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrPartialSwapFailure.Code, appErrors.FromError(err).Code)

	// First write landed, second did not; nothing retries it here.
	require.Equal(t, "bob", schedules.schedules["sched-a"].OwnerID)
	require.Equal(t, "bob", schedules.schedules["sched-b"].OwnerID)
	require.Equal(t, models.SwapStatusAccepted, swaps.swaps["swap-1"].Status)
	require.Equal(t, 1, roster.invalidations)
}

func TestSwapServiceListForSplitsSides(t *testing.T) {
	svc, swaps, schedules, _, _ := newSwapFixture()
	schedules.add("sched-a", "alice", false)
	schedules.add("sched-b", "bob", false)
	schedules.add("sched-c", "bob", false)
	swaps.swaps["swap-in"] = &models.SwapRequest{
		ID: "swap-in", RequesterID: "alice", TargetID: "bob",
		RequesterScheduleID: "sched-a", TargetScheduleID: "sched-b",
		Status: models.SwapStatusPending,
	}
	swaps.swaps["swap-out"] = &models.SwapRequest{
		ID: "swap-out", RequesterID: "bob", TargetID: "alice",
		RequesterScheduleID: "sched-c", TargetScheduleID: "sched-a",
		Status: models.SwapStatusPending,
	}

	list, err := svc.ListFor(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, list.Incoming, 1)
	require.Len(t, list.Outgoing, 1)
	require.Equal(t, "swap-in", list.Incoming[0].ID)
	require.Equal(t, "Member alice", list.Incoming[0].RequesterName)
	require.Equal(t, "swap-out", list.Outgoing[0].ID)
}
