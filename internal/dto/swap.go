package dto

import "github.com/noah-isme/duty-roster-api/internal/models"

// CreateSwapRequest asks to exchange the caller's duty date with another
// member's. The target member is resolved from the target schedule.
type CreateSwapRequest struct {
	RequesterScheduleID string `json:"requester_schedule_id" validate:"required"`
	TargetScheduleID    string `json:"target_schedule_id" validate:"required"`
}

// RespondSwapRequest carries the target member's decision.
type RespondSwapRequest struct {
	Accept bool `json:"accept"`
}

// SwapItem is a swap request enriched with both parties and both dates for
// presentation.
type SwapItem struct {
	ID                string            `json:"id"`
	Status            models.SwapStatus `json:"status"`
	RequesterID       string            `json:"requester_id"`
	RequesterName     string            `json:"requester_name"`
	TargetID          string            `json:"target_id"`
	TargetName        string            `json:"target_name"`
	RequesterSchedule ScheduleItem      `json:"requester_schedule"`
	TargetSchedule    ScheduleItem      `json:"target_schedule"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
}

// SwapListResponse splits pending requests by the caller's side.
type SwapListResponse struct {
	Incoming []SwapItem `json:"incoming"`
	Outgoing []SwapItem `json:"outgoing"`
}
