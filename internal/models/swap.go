package models

import "time"

// SwapStatus captures the lifecycle of a swap request. PENDING is the only
// non-terminal state; a resolved request is never reopened.
type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "PENDING"
	SwapStatusAccepted SwapStatus = "ACCEPTED"
	SwapStatusRejected SwapStatus = "REJECTED"
)

// SwapRequest is a proposed exchange of two members' duty dates. It holds
// non-owning references to the two schedules plus the owner identities
// observed at creation time; those recorded identities are what the engine
// re-validates against before reassigning.
type SwapRequest struct {
	ID                  string     `db:"id" json:"id"`
	RequesterID         string     `db:"requester_id" json:"requester_id"`
	TargetID            string     `db:"target_id" json:"target_id"`
	RequesterScheduleID string     `db:"requester_schedule_id" json:"requester_schedule_id"`
	TargetScheduleID    string     `db:"target_schedule_id" json:"target_schedule_id"`
	Status              SwapStatus `db:"status" json:"status"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the request can no longer change.
func (s SwapStatus) Terminal() bool {
	return s == SwapStatusAccepted || s == SwapStatusRejected
}
