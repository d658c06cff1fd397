package services

import "time"

// DateOnly truncates an instant to midnight of its calendar day in the
// configured journal timezone. Every (userId, date) key derivation goes
// through here so the key stays deterministic across deployments.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// dayKey formats a calendar day for set membership and logs.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
