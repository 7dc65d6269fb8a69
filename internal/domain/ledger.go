package domain

// Ledger is the daily completion ledger: for each calendar date, the task
// identifiers already credited with XP. Entries are append-only per date
// and never cleared retroactively, so re-submitting a completed task is a
// no-op for XP purposes. Task identifiers form a small closed enumeration,
// so per-day entries stay bounded.
type Ledger map[string][]string

// HasEarned reports whether the task was already credited on that date.
func (l Ledger) HasEarned(date, taskID string) bool {
	for _, id := range l[date] {
		if id == taskID {
			return true
		}
	}
	return false
}

// MarkEarned records that the task was credited on that date.
// Idempotent: marking an already-present task changes nothing.
func (l Ledger) MarkEarned(date, taskID string) {
	if l.HasEarned(date, taskID) {
		return
	}
	l[date] = append(l[date], taskID)
}
