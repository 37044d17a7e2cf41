package models

import "time"

// MemberRole represents the available roles for the RBAC system.
type MemberRole string

const (
	RoleAdmin  MemberRole = "ADMIN"
	RoleMember MemberRole = "MEMBER"
)

// Member represents a group member stored in the members table. Presence
// only filters who may be offered a new duty date; it never blocks swaps.
type Member struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	DiscordID    string     `db:"discord_id" json:"discord_id"`
	Role         MemberRole `db:"role" json:"role"`
	Present      bool       `db:"present" json:"present"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// MemberFilter captures filtering criteria for listing members.
type MemberFilter struct {
	Role     *MemberRole
	Present  *bool
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
