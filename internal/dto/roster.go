package dto

// RosterView is the full duty roster with the caller's slice carved out.
// It is recomputed from storage on every call rather than maintained
// incrementally; staleness is bounded by a short cache TTL.
type RosterView struct {
	Schedules []ScheduleItem `json:"schedules"`
	Mine      []ScheduleItem `json:"mine"`
	Pending   int            `json:"pending_requests"`
}
