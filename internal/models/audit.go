package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionLogout           = "LOGOUT"
	AuditActionRegister         = "REGISTER"
	AuditActionScheduleCreate   = "SCHEDULE_CREATE"
	AuditActionScheduleDelete   = "SCHEDULE_DELETE"
	AuditActionScheduleReassign = "SCHEDULE_REASSIGN"
	AuditActionScheduleComplete = "SCHEDULE_COMPLETE"
	AuditActionSwapCreate       = "SWAP_CREATE"
	AuditActionSwapRespond      = "SWAP_RESPOND"
	AuditActionRoleChange       = "ROLE_CHANGE"
	AuditActionPresenceChange   = "PRESENCE_CHANGE"
	AuditActionRosterExport     = "ROSTER_EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	MemberID   *string   `db:"member_id" json:"member_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
