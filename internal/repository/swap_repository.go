package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/duty-roster-api/internal/models"
)

// SwapRepository persists swap negotiation records.
type SwapRepository struct {
	db *sqlx.DB
}

// NewSwapRepository constructs the repository.
func NewSwapRepository(db *sqlx.DB) *SwapRepository {
	return &SwapRepository{db: db}
}

// Create inserts a new pending swap request.
func (r *SwapRepository) Create(ctx context.Context, req *models.SwapRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.SwapStatusPending
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	const query = `INSERT INTO swap_requests
	(id, requester_id, target_id, requester_schedule_id, target_schedule_id, status, created_at, updated_at)
	VALUES (:id, :requester_id, :target_id, :requester_schedule_id, :target_schedule_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}
	return nil
}

// GetByID fetches a swap request by identifier.
func (r *SwapRepository) GetByID(ctx context.Context, id string) (*models.SwapRequest, error) {
	const query = `SELECT id, requester_id, target_id, requester_schedule_id, target_schedule_id, status, created_at, updated_at
	FROM swap_requests WHERE id = $1`
	var req models.SwapRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPendingFor returns pending requests where the member appears on
// either side, newest first.
func (r *SwapRepository) ListPendingFor(ctx context.Context, memberID string) ([]models.SwapRequest, error) {
	const query = `SELECT id, requester_id, target_id, requester_schedule_id, target_schedule_id, status, created_at, updated_at
	FROM swap_requests
	WHERE (requester_id = $1 OR target_id = $1) AND status = $2
	ORDER BY created_at DESC`
	var reqs []models.SwapRequest
	if err := r.db.SelectContext(ctx, &reqs, query, memberID, models.SwapStatusPending); err != nil {
		return nil, fmt.Errorf("list pending swap requests: %w", err)
	}
	return reqs, nil
}

// Resolve moves a request from PENDING to the given terminal status. The
// status predicate in the WHERE clause is the concurrency guard: of two
// racing responses exactly one sees a row update, the other gets
// sql.ErrNoRows. A plain read-then-write would let both through.
func (r *SwapRepository) Resolve(ctx context.Context, id string, status models.SwapStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("resolve swap request: %q is not a terminal status", status)
	}
	const query = `UPDATE swap_requests SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC(), models.SwapStatusPending)
	if err != nil {
		return fmt.Errorf("resolve swap request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check resolve rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
