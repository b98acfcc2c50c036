package constants

const (
	ServiceReminderJobName = "ServiceReminders"
	CronTriggerSource      = "cron-trigger"
)

const (
	DefaultActionLogLimit = 50
	MaxActionLogLimit     = 100
	DefaultStatsRangeDays = 30
	SchedulerHistoryLimit = 50
)
