package jobs

import (
	"context"
	"warrantyhub/internal/constants"
	"warrantyhub/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

type ReminderRunner interface {
	Run(ctx context.Context) (int, error)
}

type ServiceReminderJob struct {
	reminders ReminderRunner
	log       logger.Logger
	schedule  services.Schedule
}

func NewServiceReminderJob(
	reminders ReminderRunner,
	schedule services.Schedule,
) *ServiceReminderJob {
	log := logger.New("serviceReminderJob")
	log.Info("Creating service reminder job", "schedule", schedule.String())

	return &ServiceReminderJob{
		reminders: reminders,
		log:       log,
		schedule:  schedule,
	}
}

func (j *ServiceReminderJob) Name() string {
	return constants.ServiceReminderJobName
}

func (j *ServiceReminderJob) Execute(ctx context.Context) (int, error) {
	log := j.log.TraceFromContext(ctx).Function("Execute")

	log.Info("Starting service reminder batch")

	sent, err := j.reminders.Run(ctx)
	if err != nil {
		return 0, log.Err("service reminder batch failed", err)
	}

	log.Info("Service reminder batch completed", "sent", sent)
	return sent, nil
}

func (j *ServiceReminderJob) Schedule() services.Schedule {
	return j.schedule
}
