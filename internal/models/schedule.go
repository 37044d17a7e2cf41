package models

import "time"

// Schedule is a single duty date bound to exactly one member. Ownership is
// mutated only by the swap engine or by an admin reassignment; the completed
// flag moves false→true once and is never reversed here.
type Schedule struct {
	ID        string    `db:"id" json:"id"`
	OwnerID   string    `db:"owner_id" json:"owner_id"`
	Date      time.Time `db:"duty_date" json:"duty_date"`
	Completed bool      `db:"completed" json:"completed"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	CreatedBy *string   `db:"created_by" json:"created_by,omitempty"`
}

// ScheduleFilter constrains listing queries.
type ScheduleFilter struct {
	OwnerID   string
	Completed *bool
	From      *time.Time
	To        *time.Time
}
