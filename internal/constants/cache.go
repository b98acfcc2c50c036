package constants

import "time"

const (
	ActionLogStatsCachePrefix = "action_log_stats" // CacheBuilder adds the colon
	ActionLogStatsCacheExpiry = 5 * time.Minute

	ReminderBatchLockPrefix  = "reminder_batch"
	ReminderBatchLockTTL     = 30 * time.Minute
	ReminderBatchLockTimeout = 2 * time.Second
)
