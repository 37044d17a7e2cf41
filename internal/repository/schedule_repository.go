package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/duty-roster-api/internal/models"
)

// ScheduleRepository persists duty-date assignments.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Create inserts a new schedule row.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO schedules (id, owner_id, duty_date, completed, created_at, created_by)
	VALUES (:id, :owner_id, :duty_date, :completed, :created_at, :created_by)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// GetByID fetches a schedule by identifier.
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, owner_id, duty_date, completed, created_at, created_by
	FROM schedules WHERE id = $1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// List returns schedules matching the filter, ordered by duty date ascending.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT id, owner_id, duty_date, completed, created_at, created_by FROM schedules`)

	conditions := make([]string, 0, 4)
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		conditions = append(conditions, fmt.Sprintf("completed = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("duty_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("duty_date <= $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY duty_date ASC")

	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// ReassignOwner moves a schedule to a new owner, but only while the current
// owner still matches the expected identity. Returns sql.ErrNoRows when the
// row has drifted, which callers map onto their stale/conflict errors.
func (r *ScheduleRepository) ReassignOwner(ctx context.Context, id, expectedOwnerID, newOwnerID string) error {
	const query = `UPDATE schedules SET owner_id = $3 WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, expectedOwnerID, newOwnerID)
	if err != nil {
		return fmt.Errorf("reassign schedule owner: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check reassign rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetOwner overwrites the owner unconditionally. Administrative use only;
// the swap engine always goes through ReassignOwner.
func (r *ScheduleRepository) SetOwner(ctx context.Context, id, newOwnerID string) error {
	const query = `UPDATE schedules SET owner_id = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, newOwnerID)
	if err != nil {
		return fmt.Errorf("set schedule owner: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check set owner rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkCompleted flips the completion flag. The guard keeps the flag
// monotonic: an already-completed row is not rewritten.
func (r *ScheduleRepository) MarkCompleted(ctx context.Context, id string) error {
	const query = `UPDATE schedules SET completed = TRUE WHERE id = $1 AND completed = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark schedule completed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check completion rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a schedule row.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
