package dto

import "github.com/noah-isme/duty-roster-api/internal/models"

// UpdatePresenceRequest toggles the caller's availability flag.
type UpdatePresenceRequest struct {
	Present bool `json:"present"`
}

// UpdateRoleRequest promotes or demotes another member.
type UpdateRoleRequest struct {
	Role models.MemberRole `json:"role" validate:"required,oneof=ADMIN MEMBER"`
}

// MemberItem is the public shape of a member record.
type MemberItem struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	FullName  string            `json:"full_name"`
	DiscordID string            `json:"discord_id"`
	Role      models.MemberRole `json:"role"`
	Present   bool              `json:"present"`
}

// MemberItemFromModel strips credentials off a member record.
func MemberItemFromModel(m models.Member) MemberItem {
	return MemberItem{
		ID:        m.ID,
		Email:     m.Email,
		FullName:  m.FullName,
		DiscordID: m.DiscordID,
		Role:      m.Role,
		Present:   m.Present,
	}
}
