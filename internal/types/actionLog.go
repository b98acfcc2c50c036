package types

import "time"

// ActionLogStats aggregates audit rows over a time range for dashboards.
type ActionLogStats struct {
	From          time.Time        `json:"from"`
	To            time.Time        `json:"to"`
	Total         int64            `json:"total"`
	ByActionType  map[string]int64 `json:"byActionType"`
	ByChannel     map[string]int64 `json:"byChannel"`
	RemindersSent int64            `json:"remindersSent"`
	Machines      int64            `json:"machines"`
}
