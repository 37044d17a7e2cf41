package dto

import "github.com/noah-isme/duty-roster-api/internal/models"

// CreateScheduleRequest payload for an admin adding a duty date.
type CreateScheduleRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
}

// ReassignScheduleRequest payload for an admin moving a duty date to
// another member outside the swap workflow.
type ReassignScheduleRequest struct {
	NewOwnerID string `json:"new_owner_id" validate:"required"`
}

// ScheduleItem is a roster row with the owning member resolved.
type ScheduleItem struct {
	ID         string `json:"id"`
	OwnerID    string `json:"owner_id"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
	Date       string `json:"date"`
	Completed  bool   `json:"completed"`
	CreatedAt  string `json:"created_at"`
}

// ScheduleItemFromModel maps a schedule plus its owner onto a roster row.
func ScheduleItemFromModel(s models.Schedule, owner *models.Member) ScheduleItem {
	item := ScheduleItem{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		Date:      s.Date.Format("2006-01-02"),
		Completed: s.Completed,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if owner != nil {
		item.OwnerName = owner.FullName
		item.OwnerEmail = owner.Email
	}
	return item
}
