package reminderController

import (
	"context"
	"errors"
	"fmt"
	"time"
	"warrantyhub/config"
	"warrantyhub/internal/constants"
	"warrantyhub/internal/database"
	. "warrantyhub/internal/models"
	"warrantyhub/internal/repositories"
	"warrantyhub/internal/services"
	"warrantyhub/internal/types"
	"warrantyhub/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrInvalidToken = errors.New("invalid link")
	ErrNotSent      = errors.New("reminder was not sent")
	ErrNoSchedule   = errors.New("machine has no service schedule")
)

type CronTriggerResponse struct {
	Success       bool      `json:"success"`
	RemindersSent int       `json:"remindersSent"`
	Timestamp     time.Time `json:"timestamp"`
}

type TestReminderRequest struct {
	MachineID string `json:"machineId" validate:"required,uuid"`
	Email     string `json:"email"     validate:"required,email"`
}

type OptOutResponse struct {
	MachineID      uuid.UUID `json:"machineId"`
	ReminderOptOut bool      `json:"reminderOptOut"`
}

type ReminderControllerInterface interface {
	TriggerReminders(ctx context.Context) (*CronTriggerResponse, error)
	SendTestReminder(ctx context.Context, request *TestReminderRequest) error
	OptOut(ctx context.Context, token string) (*OptOutResponse, error)
	SchedulerStatus() types.SchedulerStatus
	TriggerJob(ctx context.Context, name string) (types.JobRun, error)
}

type ReminderController struct {
	machineRepo        repositories.MachineRepository
	saleRepo           repositories.SaleRepository
	actionLogRepo      repositories.ActionLogRepository
	transactionService *services.TransactionService
	schedulerService   *services.SchedulerService
	reminderService    *services.ReminderService
	linkService        *services.LinkService
	warranty           *services.WarrantyHelper
	db                 database.DB
	validate           *validator.Validate
	Config             config.Config
	log                logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) ReminderControllerInterface {
	return &ReminderController{
		machineRepo:        repos.Machine,
		saleRepo:           repos.Sale,
		actionLogRepo:      repos.ActionLog,
		transactionService: services.Transaction,
		schedulerService:   services.Scheduler,
		reminderService:    services.Reminder,
		linkService:        services.Links,
		warranty:           services.Warranty,
		db:                 db,
		validate:           utils.NewValidator(),
		Config:             config,
		log:                logger.New("reminderController"),
	}
}

// TriggerReminders runs the reminder job through the scheduler so manual
// runs share the cron run's history and overlap guard.
func (c *ReminderController) TriggerReminders(ctx context.Context) (*CronTriggerResponse, error) {
	log := c.log.TraceFromContext(ctx).Function("TriggerReminders")

	run, err := c.schedulerService.TriggerJob(ctx, constants.ServiceReminderJobName)
	if err != nil {
		return nil, log.Err(
			"failed to process reminders",
			err,
			"source", constants.CronTriggerSource,
		)
	}

	log.Info(
		"Reminders processed",
		"source", constants.CronTriggerSource,
		"sent", run.Processed,
		"durationMs", run.DurationMs,
	)

	return &CronTriggerResponse{
		Success:       true,
		RemindersSent: run.Processed,
		Timestamp:     run.FinishedAt,
	}, nil
}

func (c *ReminderController) SendTestReminder(
	ctx context.Context,
	request *TestReminderRequest,
) error {
	log := c.log.TraceFromContext(ctx).Function("SendTestReminder")

	if err := c.validate.Struct(request); err != nil {
		message := utils.ValidationMessage(err)
		log.Warn(message)
		return fmt.Errorf("%w: %s", ErrValidation, message)
	}

	machineID := uuid.MustParse(request.MachineID)
	machine, err := c.machineRepo.GetByID(ctx, c.db.SQL, machineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: machine %s", ErrNotFound, machineID)
		}
		return log.Err("failed to load machine", err, "machineID", machineID)
	}

	if !machine.IsSold() || c.warranty.GetNextServiceDue(machine) == nil {
		log.Warn("test reminder requested for machine without a schedule", "machineID", machineID)
		return fmt.Errorf("%w: machine %s", ErrNoSchedule, machineID)
	}

	if !c.reminderService.SendTestReminder(ctx, machineID, request.Email) {
		return log.Err("test reminder failed", ErrNotSent, "machineID", machineID)
	}

	return nil
}

// OptOut handles the unsubscribe link from a reminder email: it sets the
// sale's opt-out flag and records the click in one transaction.
func (c *ReminderController) OptOut(ctx context.Context, token string) (*OptOutResponse, error) {
	log := c.log.TraceFromContext(ctx).Function("OptOut")

	machineID, err := c.linkService.ParseToken(token, services.LinkPurposeOptOut)
	if err != nil {
		log.Warn("rejected opt-out link", "error", err)
		return nil, ErrInvalidToken
	}

	var sale *Sale
	err = c.transactionService.Execute(ctx, func(txCtx context.Context, tx *gorm.DB) error {
		if err := c.saleRepo.SetReminderOptOut(txCtx, tx, machineID, true); err != nil {
			return err
		}

		updated, err := c.saleRepo.GetByMachineID(txCtx, tx, machineID)
		if err != nil {
			return err
		}
		sale = updated

		actionLog := &ActionLog{
			MachineID:  machineID,
			ActionType: ActionTypeLinkClicked,
			Channel:    ChannelEmail,
		}
		if err := actionLog.SetMetadata(&LinkClickedMetadata{
			Link:   string(services.LinkPurposeOptOut),
			Target: "/api/reminders/opt-out",
		}); err != nil {
			return err
		}

		return c.actionLogRepo.Create(txCtx, tx, actionLog)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: machine %s", ErrNotFound, machineID)
		}
		return nil, log.Err("failed to opt out of reminders", err, "machineID", machineID)
	}

	log.Info("Customer opted out of reminders", "machineID", machineID)
	return &OptOutResponse{MachineID: machineID, ReminderOptOut: sale.ReminderOptOut}, nil
}

func (c *ReminderController) SchedulerStatus() types.SchedulerStatus {
	return c.schedulerService.GetStatus()
}

func (c *ReminderController) TriggerJob(ctx context.Context, name string) (types.JobRun, error) {
	return c.schedulerService.TriggerJob(ctx, name)
}
