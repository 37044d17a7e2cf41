package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/duty-roster-api/internal/models"
)

func TestRosterServiceView(t *testing.T) {
	schedules := newScheduleStoreStub()
	schedules.add("sched-a", "alice", false)
	schedules.add("sched-b", "bob", false)
	schedules.add("sched-c", "alice", true)
	swaps := newSwapStoreStub()
	swaps.swaps["swap-1"] = &models.SwapRequest{
		ID: "swap-1", RequesterID: "bob", TargetID: "alice",
		RequesterScheduleID: "sched-b", TargetScheduleID: "sched-a",
		Status: models.SwapStatusPending,
	}
	svc := NewRosterService(schedules, swaps, newMemberDirStub("alice", "bob"), nil, nil)

	view, err := svc.View(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, view.Schedules, 3)
	require.Len(t, view.Mine, 2)
	require.Equal(t, 1, view.Pending)
	for _, item := range view.Mine {
		require.Equal(t, "alice", item.OwnerID)
	}
}

func TestRosterServiceViewResolvesOwners(t *testing.T) {
	schedules := newScheduleStoreStub()
	schedules.add("sched-a", "alice", false)
	svc := NewRosterService(schedules, newSwapStoreStub(), newMemberDirStub("alice"), nil, nil)

	view, err := svc.View(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, view.Schedules, 1)
	require.Equal(t, "Member alice", view.Schedules[0].OwnerName)
	require.Empty(t, view.Mine)
	require.Zero(t, view.Pending)
}

func TestRosterServiceMine(t *testing.T) {
	schedules := newScheduleStoreStub()
	schedules.add("sched-a", "alice", false)
	schedules.add("sched-b", "bob", false)
	svc := NewRosterService(schedules, newSwapStoreStub(), newMemberDirStub("alice", "bob"), nil, nil)

	items, err := svc.Mine(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "sched-b", items[0].ID)
}

func TestRosterServiceViewReflectsMutationsImmediately(t *testing.T) {
	// No cache configured, every view is a fresh recomputation.
	schedules := newScheduleStoreStub()
	schedules.add("sched-a", "alice", false)
	svc := NewRosterService(schedules, newSwapStoreStub(), newMemberDirStub("alice", "bob"), nil, nil)

	before, err := svc.View(context.Background(), "bob")
	require.NoError(t, err)
	require.Empty(t, before.Mine)

	require.NoError(t, schedules.SetOwner(context.Background(), "sched-a", "bob"))

	after, err := svc.View(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, after.Mine, 1)
}
