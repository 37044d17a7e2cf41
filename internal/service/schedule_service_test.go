package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/duty-roster-api/internal/dto"
	"github.com/noah-isme/duty-roster-api/internal/models"
	appErrors "github.com/noah-isme/duty-roster-api/pkg/errors"
)

func newScheduleFixture() (*ScheduleService, *scheduleStoreStub, *memberDirStub, *auditStub, *rosterStub) {
	schedules := newScheduleStoreStub()
	members := newMemberDirStub("alice", "bob", "admin-1")
	audit := &auditStub{}
	roster := &rosterStub{}
	svc := NewScheduleService(schedules, members, audit, roster, nil)
	return svc, schedules, members, audit, roster
}

func TestScheduleServiceCreate(t *testing.T) {
	svc, schedules, _, audit, roster := newScheduleFixture()

	schedule, err := svc.Create(context.Background(), dto.CreateScheduleRequest{
		MemberID: "alice",
		Date:     "2026-09-15",
	}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, "alice", schedule.OwnerID)
	require.False(t, schedule.Completed)
	require.NotNil(t, schedule.CreatedBy)
	require.Equal(t, "admin-1", *schedule.CreatedBy)
	require.Len(t, schedules.schedules, 1)
	require.Len(t, audit.logs, 1)
	require.Equal(t, 1, roster.invalidations)
}

func TestScheduleServiceCreateAbsentMember(t *testing.T) {
	svc, _, members, _, _ := newScheduleFixture()
	absent := members.members["bob"]
	absent.Present = false
	members.members["bob"] = absent

	_, err := svc.Create(context.Background(), dto.CreateScheduleRequest{
		MemberID: "bob",
		Date:     "2026-09-15",
	}, "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceCreateBadDate(t *testing.T) {
	svc, _, _, _, _ := newScheduleFixture()

	_, err := svc.Create(context.Background(), dto.CreateScheduleRequest{
		MemberID: "alice",
		Date:     "15/09/2026",
	}, "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceReassign(t *testing.T) {
	svc, schedules, _, _, roster := newScheduleFixture()
	schedules.add("sched-a", "alice", false)

	schedule, err := svc.Reassign(context.Background(), "sched-a", dto.ReassignScheduleRequest{
		NewOwnerID: "bob",
	}, "admin-1")
	require.NoError(t, err)
	require.Equal(t, "bob", schedule.OwnerID)
	require.Equal(t, "bob", schedules.schedules["sched-a"].OwnerID)
	require.Equal(t, 1, roster.invalidations)
}

func TestScheduleServiceReassignUnknownMember(t *testing.T) {
	svc, schedules, _, _, _ := newScheduleFixture()
	schedules.add("sched-a", "alice", false)

	_, err := svc.Reassign(context.Background(), "sched-a", dto.ReassignScheduleRequest{
		NewOwnerID: "nobody",
	}, "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	require.Equal(t, "alice", schedules.schedules["sched-a"].OwnerID)
}

func TestScheduleServiceComplete(t *testing.T) {
	svc, schedules, _, _, _ := newScheduleFixture()
	schedules.add("sched-a", "alice", false)

	require.NoError(t, svc.Complete(context.Background(), "sched-a", "admin-1"))
	require.True(t, schedules.schedules["sched-a"].Completed)

	// The flag is monotonic, a second completion is a conflict.
	err := svc.Complete(context.Background(), "sched-a", "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceDelete(t *testing.T) {
	svc, schedules, _, _, _ := newScheduleFixture()
	schedules.add("sched-a", "alice", false)

	require.NoError(t, svc.Delete(context.Background(), "sched-a", "admin-1"))
	require.Empty(t, schedules.schedules)

	err := svc.Delete(context.Background(), "sched-a", "admin-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceReassignInvalidatesPendingSwap(t *testing.T) {
	// An admin reassignment does not touch pending swaps directly; the
	// swap engine detects the drift when the accept arrives.
	scheduleSvc, schedules, members, audit, roster := newScheduleFixture()
	swaps := newSwapStoreStub()
	swapSvc := NewSwapService(swaps, schedules, members, audit, roster, nil, nil)

	schedules.add("sched-a", "alice", false)
	schedules.add("sched-b", "bob", false)
	swap, err := swapSvc.Create(context.Background(), dto.CreateSwapRequest{
		RequesterScheduleID: "sched-a",
		TargetScheduleID:    "sched-b",
	}, "alice")
	require.NoError(t, err)

	_, err = scheduleSvc.Reassign(context.Background(), "sched-a", dto.ReassignScheduleRequest{
		NewOwnerID: "admin-1",
	}, "admin-1")
	require.NoError(t, err)

	_, err = swapSvc.Respond(context.Background(), swap.ID, "bob", true)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrStaleAssignment.Code, appErrors.FromError(err).Code)
	require.Equal(t, models.SwapStatusPending, swaps.swaps[swap.ID].Status)
}
