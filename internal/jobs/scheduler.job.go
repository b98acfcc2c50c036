package jobs

import (
	"warrantyhub/config"
	"warrantyhub/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// RegisterAllJobs adds every background job to the scheduler. Jobs are
// registered even when the cron loop is disabled so they can still be
// triggered over HTTP.
func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	service services.Service,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")

	reminderJob := NewServiceReminderJob(service.Reminder, services.DailyAt(config.ReminderRunAt))
	if err := schedulerService.AddJob(reminderJob); err != nil {
		return log.Err("failed to register service reminder job", err)
	}
	log.Info(
		"Registered service reminder job",
		"runAt", config.ReminderRunAt,
		"timezone", config.ReminderTimezone,
	)

	return nil
}
