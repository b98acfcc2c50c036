package services

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"warrantyhub/config"
	"warrantyhub/internal/constants"
	"warrantyhub/internal/database"
	. "warrantyhub/internal/models"
	"warrantyhub/internal/repositories"
	"warrantyhub/internal/types"
	"warrantyhub/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const testSubjectPrefix = "[TEST] "

// ReminderPolicy decides on which days a reminder goes out.
type ReminderPolicy struct {
	// WindowDays are the exact days-until-service values that trigger a
	// reminder before the due date.
	WindowDays []int
	// OverdueRepeatDays repeats overdue reminders, starting on the first
	// overdue day. Zero sends a single overdue reminder.
	OverdueRepeatDays int
	Concurrency       int
}

func DefaultReminderPolicy() ReminderPolicy {
	return ReminderPolicy{
		WindowDays:        []int{15, 7, 3, 0},
		OverdueRepeatDays: 7,
		Concurrency:       4,
	}
}

func NewReminderPolicy(config config.Config) (ReminderPolicy, error) {
	policy := DefaultReminderPolicy()

	windows, err := config.ReminderWindowDays()
	if err != nil {
		return ReminderPolicy{}, fmt.Errorf("invalid reminder windows: %w", err)
	}
	if len(windows) > 0 {
		policy.WindowDays = windows
	}
	if config.ReminderOverdueRepeatDays != nil {
		policy.OverdueRepeatDays = *config.ReminderOverdueRepeatDays
	}
	if config.ReminderConcurrency > 0 {
		policy.Concurrency = config.ReminderConcurrency
	}

	return policy, nil
}

type ReminderService struct {
	db            database.DB
	machineRepo   repositories.MachineRepository
	actionLogRepo repositories.ActionLogRepository
	warranty      *WarrantyHelper
	mailer        Mailer
	links         *LinkService
	policy        ReminderPolicy
	from          string
	log           logger.Logger
}

func NewReminderService(
	db database.DB,
	repos repositories.Repository,
	warranty *WarrantyHelper,
	mailer Mailer,
	links *LinkService,
	policy ReminderPolicy,
	from string,
) *ReminderService {
	if policy.Concurrency <= 0 {
		policy.Concurrency = 1
	}

	return &ReminderService{
		db:            db,
		machineRepo:   repos.Machine,
		actionLogRepo: repos.ActionLog,
		warranty:      warranty,
		mailer:        mailer,
		links:         links,
		policy:        policy,
		from:          from,
		log:           logger.New("reminderService"),
	}
}

// ProcessReminders runs one batch and returns the number of reminders that
// were both sent and recorded. Batch-level failures are logged and yield 0.
func (s *ReminderService) ProcessReminders(ctx context.Context) int {
	sent, err := s.Run(ctx)
	if err != nil {
		return 0
	}
	return sent
}

// Run is ProcessReminders for callers that need to see batch-level errors.
// Per-machine failures never surface here.
func (s *ReminderService) Run(ctx context.Context) (int, error) {
	log := s.log.TraceFromContext(ctx).Function("Run")

	release, acquired := s.acquireBatchLock(ctx)
	if !acquired {
		log.Info("Another reminder batch holds today's lock, skipping run")
		return 0, nil
	}
	defer release()

	machines, err := s.machineRepo.FindReminderCandidates(ctx, s.db.SQL)
	if err != nil {
		return 0, log.Err("failed to load reminder candidates", err)
	}

	var sent atomic.Int64
	var group errgroup.Group
	group.SetLimit(s.policy.Concurrency)

	for _, machine := range machines {
		group.Go(func() error {
			if s.processMachine(ctx, machine) {
				sent.Add(1)
			}
			return nil
		})
	}
	_ = group.Wait()

	if ctx.Err() != nil {
		log.Warn("Reminder batch interrupted", "error", ctx.Err(), "sent", sent.Load())
	}

	log.Info("Reminder batch completed", "candidates", len(machines), "sent", sent.Load())
	return int(sent.Load()), nil
}

// processMachine applies the eligibility rules to one machine. A panic is
// contained here and counts as a failed item.
func (s *ReminderService) processMachine(ctx context.Context, machine *Machine) (sent bool) {
	log := s.log.TraceFromContext(ctx).Function("processMachine")

	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic while processing reminder", "machineID", machine.ID, "panic", r)
			sent = false
		}
	}()

	if ctx.Err() != nil {
		return false
	}

	status := s.warranty.GetWarrantyStatus(machine)
	if !status.WarrantyActive || status.NextServiceDue == nil {
		log.Debug("Skipping machine outside warranty", "machineID", machine.ID)
		return false
	}

	if !s.IsReminderDay(status.DaysUntilService) {
		return false
	}

	alreadySent, err := s.AlreadySentToday(ctx, machine.ID)
	if err != nil {
		log.Er("failed to check reminder dedup", err, "machineID", machine.ID)
		return false
	}
	if alreadySent {
		log.Debug("Reminder already sent today", "machineID", machine.ID)
		return false
	}

	return s.SendReminder(ctx, machine)
}

func (s *ReminderService) IsReminderDay(daysUntilService int) bool {
	if daysUntilService < 0 {
		overdue := -daysUntilService
		if s.policy.OverdueRepeatDays <= 0 {
			return overdue == 1
		}
		return (overdue-1)%s.policy.OverdueRepeatDays == 0
	}
	return slices.Contains(s.policy.WindowDays, daysUntilService)
}

// AlreadySentToday reports whether a REMINDER_SENT email entry exists for
// the machine on the current calendar day in the reminder timezone.
func (s *ReminderService) AlreadySentToday(ctx context.Context, machineID uuid.UUID) (bool, error) {
	start, end := utils.DayRange(s.warranty.now(), s.warranty.location())

	existing, err := s.actionLogRepo.FindFirst(
		ctx,
		s.db.SQL,
		machineID,
		ActionTypeReminderSent,
		ChannelEmail,
		start,
		end,
	)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// SendReminder emails the customer and, only after the transport accepted
// the message, appends the REMINDER_SENT entry. It returns true only when
// both happened.
func (s *ReminderService) SendReminder(ctx context.Context, machine *Machine) bool {
	log := s.log.TraceFromContext(ctx).Function("SendReminder")

	if machine == nil || !machine.IsSold() {
		return false
	}

	recipient := machine.CustomerEmail()
	status := s.warranty.GetWarrantyStatus(machine)
	if recipient == "" || status.NextServiceDue == nil {
		return false
	}

	subject := ReminderSubject(status.Urgency, status.DaysUntilService, machine.DisplayName())
	messageID, err := s.deliver(ctx, machine, status, recipient, subject)
	if err != nil {
		log.Er("failed to send reminder", err, "machineID", machine.ID, "to", recipient)
		return false
	}

	actionLog := &ActionLog{
		MachineID:  machine.ID,
		ActionType: ActionTypeReminderSent,
		Channel:    ChannelEmail,
		CreatedAt:  s.warranty.now().UTC(),
	}
	err = actionLog.SetMetadata(&ReminderSentMetadata{
		DaysUntilService:   status.DaysUntilService,
		HealthScore:        status.HealthScore,
		Urgency:            string(status.Urgency),
		SentTo:             recipient,
		WarrantyActive:     status.WarrantyActive,
		WarrantyExpiryDate: status.WarrantyExpiryDate,
		Subject:            subject,
		MessageID:          messageID,
	})
	if err == nil {
		err = s.actionLogRepo.Create(ctx, s.db.SQL, actionLog)
	}
	if err != nil {
		log.Er(
			"reminder sent but audit entry was not written",
			err,
			"machineID", machine.ID,
			"messageID", messageID,
		)
		return false
	}

	log.Info(
		"Reminder sent",
		"machineID", machine.ID,
		"urgency", status.Urgency,
		"daysUntilService", status.DaysUntilService,
	)
	return true
}

// SendTestReminder renders and sends the real reminder for a machine to an
// operator-supplied address. It writes no audit entry and ignores dedup.
func (s *ReminderService) SendTestReminder(ctx context.Context, machineID uuid.UUID, email string) bool {
	log := s.log.TraceFromContext(ctx).Function("SendTestReminder")

	machine, err := s.machineRepo.GetByID(ctx, s.db.SQL, machineID)
	if err != nil {
		return false
	}

	status := s.warranty.GetWarrantyStatus(machine)
	if !machine.IsSold() || status.NextServiceDue == nil {
		log.Info("Machine has no service schedule, nothing to test", "machineID", machineID)
		return false
	}

	subject := testSubjectPrefix +
		ReminderSubject(status.Urgency, status.DaysUntilService, machine.DisplayName())
	if _, err := s.deliver(ctx, machine, status, email, subject); err != nil {
		log.Er("failed to send test reminder", err, "machineID", machineID, "to", email)
		return false
	}

	log.Info("Test reminder sent", "machineID", machineID, "to", email)
	return true
}

func (s *ReminderService) deliver(
	ctx context.Context,
	machine *Machine,
	status types.WarrantyStatus,
	recipient string,
	subject string,
) (string, error) {
	data := ServiceReminderEmailData{
		CustomerName:       machine.Sale.CustomerName,
		MachineName:        machine.DisplayName(),
		SerialNumber:       machine.SerialNumber,
		DaysUntilService:   status.DaysUntilService,
		HealthScore:        status.HealthScore,
		TotalSavings:       status.TotalSavings,
		WarrantyActive:     status.WarrantyActive,
		WarrantyExpiryDate: status.WarrantyExpiryDate,
		Urgency:            status.Urgency,
	}

	if s.links != nil {
		scheduleURL, err := s.links.ScheduleServiceURL(machine.ID)
		if err != nil {
			return "", err
		}
		optOutURL, err := s.links.OptOutURL(machine.ID)
		if err != nil {
			return "", err
		}
		data.ScheduleServiceURL = scheduleURL
		data.OptOutURL = optOutURL
	}

	html, err := GenerateServiceReminderHTML(data)
	if err != nil {
		return "", err
	}

	return s.mailer.SendMail(ctx, Mail{
		From:    s.from,
		To:      recipient,
		Subject: subject,
		HTML:    html,
	})
}

// acquireBatchLock takes a per-day lock in the locks cache so overlapping
// runs cannot both send. Without a cache, or when the cache errors, the run
// proceeds unlocked.
func (s *ReminderService) acquireBatchLock(ctx context.Context) (func(), bool) {
	log := s.log.TraceFromContext(ctx).Function("acquireBatchLock")
	noop := func() {}

	if s.db.Cache.Locks == nil {
		return noop, true
	}

	day := utils.StartOfDay(s.warranty.now(), s.warranty.location()).Format("2006-01-02")
	lock := database.NewCacheBuilder(s.db.Cache.Locks, day).
		WithContext(ctx).
		WithHash(constants.ReminderBatchLockPrefix).
		WithValue(uuid.NewString()).
		WithTTL(constants.ReminderBatchLockTTL).
		WithTimeout(constants.ReminderBatchLockTimeout)

	acquired, err := lock.TryLock()
	if err != nil {
		log.Warn("failed to take reminder batch lock, running unlocked", "error", err)
		return noop, true
	}
	if !acquired {
		return nil, false
	}

	return func() {
		if err := lock.WithContext(context.WithoutCancel(ctx)).Unlock(); err != nil {
			log.Warn("failed to release reminder batch lock", "error", err, "key", lock.Key())
		}
	}, true
}

// ReminderSubject builds the email subject; the urgency label is always
// part of it.
func ReminderSubject(urgency types.Urgency, daysUntilService int, machineName string) string {
	switch urgency {
	case types.UrgencyOverdue:
		return fmt.Sprintf("Service Overdue: %s", machineName)
	case types.UrgencyUrgent:
		if daysUntilService == 0 {
			return fmt.Sprintf("Urgent: Service due today for %s", machineName)
		}
		return fmt.Sprintf("Urgent: Service due in %s for %s", pluralDays(daysUntilService), machineName)
	case types.UrgencySoon:
		return fmt.Sprintf("Reminder: Service due soon for %s", machineName)
	default:
		return fmt.Sprintf("Service Reminder: %s", machineName)
	}
}
