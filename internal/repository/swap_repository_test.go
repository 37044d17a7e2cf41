package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/duty-roster-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSwapRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSwapRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO swap_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.SwapRequest{
		RequesterID:         "alice",
		TargetID:            "bob",
		RequesterScheduleID: "sched-a",
		TargetScheduleID:    "sched-b",
	}
	require.NoError(t, repo.Create(context.Background(), req))
	require.NotEmpty(t, req.ID)
	require.Equal(t, models.SwapStatusPending, req.Status)
	require.False(t, req.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSwapRepository(db)
	rows := sqlmock.NewRows([]string{"id", "requester_id", "target_id", "requester_schedule_id", "target_schedule_id", "status", "created_at", "updated_at"}).
		AddRow("swap-1", "alice", "bob", "sched-a", "sched-b", "PENDING", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, requester_id, target_id")).
		WithArgs("swap-1").
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), "swap-1")
	require.NoError(t, err)
	require.Equal(t, "bob", found.TargetID)
	require.Equal(t, models.SwapStatusPending, found.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRepositoryListPendingFor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSwapRepository(db)
	rows := sqlmock.NewRows([]string{"id", "requester_id", "target_id", "requester_schedule_id", "target_schedule_id", "status", "created_at", "updated_at"}).
		AddRow("swap-2", "bob", "alice", "sched-b", "sched-a", "PENDING", time.Now(), time.Now()).
		AddRow("swap-1", "alice", "carol", "sched-a", "sched-c", "PENDING", time.Now().Add(-time.Hour), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE (requester_id = $1 OR target_id = $1) AND status = $2")).
		WithArgs("alice", models.SwapStatusPending).
		WillReturnRows(rows)

	list, err := repo.ListPendingFor(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRepositoryResolve(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSwapRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE swap_requests SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4")).
		WithArgs("swap-1", models.SwapStatusAccepted, sqlmock.AnyArg(), models.SwapStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Resolve(context.Background(), "swap-1", models.SwapStatusAccepted))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRepositoryResolveAlreadyTerminal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSwapRepository(db)
	// The status guard matched no rows, the request is no longer pending.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE swap_requests SET status")).
		WithArgs("swap-1", models.SwapStatusRejected, sqlmock.AnyArg(), models.SwapStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Resolve(context.Background(), "swap-1", models.SwapStatusRejected)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRepositoryResolveRejectsNonTerminal(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSwapRepository(db)
	err := repo.Resolve(context.Background(), "swap-1", models.SwapStatusPending)
	require.Error(t, err)
}
