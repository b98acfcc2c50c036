package reminderController

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"warrantyhub/config"
	"warrantyhub/internal/constants"
	"warrantyhub/internal/database"
	"warrantyhub/internal/jobs"
	"warrantyhub/internal/models"
	"warrantyhub/internal/repositories"
	"warrantyhub/internal/services"
	"warrantyhub/internal/testutil"
	"warrantyhub/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []services.Mail
	err  error
}

func (m *recordingMailer) SendMail(_ context.Context, mail services.Mail) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, mail)
	if m.err != nil {
		return "", m.err
	}
	return "<test@warrantyhub>", nil
}

type controllerFixture struct {
	db         database.DB
	mailer     *recordingMailer
	service    services.Service
	controller ReminderControllerInterface
}

func newFixture(t *testing.T) *controllerFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	repos := repositories.New(db)
	mailer := &recordingMailer{}
	warranty := services.NewWarrantyHelper(180, time.UTC)
	links := services.NewLinkService("https://warranty.example.com", "test-secret")
	reminder := services.NewReminderService(
		db,
		repos,
		warranty,
		mailer,
		links,
		services.DefaultReminderPolicy(),
		"service@example.com",
	)

	service := services.Service{
		Transaction: services.NewTransactionService(db),
		Scheduler:   services.NewSchedulerService(time.UTC),
		Warranty:    warranty,
		Links:       links,
		Mailer:      mailer,
		Reminder:    reminder,
	}
	require.NoError(t, jobs.RegisterAllJobs(service.Scheduler, config.Config{ReminderRunAt: "09:00"}, service))

	return &controllerFixture{
		db:         db,
		mailer:     mailer,
		service:    service,
		controller: New(repos, service, config.Config{}, db),
	}
}

func (f *controllerFixture) machineDueIn(t *testing.T, days int, email string) *models.Machine {
	t.Helper()

	return testutil.CreateMachine(t, f.db.SQL, testutil.MachineFixture{
		WarrantyPeriodMonths: 12,
		SaleDate:             testutil.TimePtr(time.Now().UTC().AddDate(0, 0, days-180)),
		CustomerName:         "Pat Customer",
		CustomerEmail:        email,
	})
}

func TestTriggerReminders(t *testing.T) {
	f := newFixture(t)
	f.machineDueIn(t, 7, "due@example.com")
	f.machineDueIn(t, 20, "later@example.com")

	response, err := f.controller.TriggerReminders(context.Background())
	require.NoError(t, err)

	assert.True(t, response.Success)
	assert.Equal(t, 1, response.RemindersSent)
	assert.False(t, response.Timestamp.IsZero())
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "due@example.com", f.mailer.sent[0].To)

	again, err := f.controller.TriggerReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.RemindersSent)

	status := f.controller.SchedulerStatus()
	require.Len(t, status.History, 2)
	assert.Equal(t, types.JobTriggerManual, status.History[0].Trigger)
}

func TestTriggerReminders_BatchFailure(t *testing.T) {
	f := newFixture(t)

	sqlDB, err := f.db.SQL.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	response, err := f.controller.TriggerReminders(context.Background())
	assert.Error(t, err)
	assert.Nil(t, response)
}

func TestSendTestReminder(t *testing.T) {
	f := newFixture(t)
	machine := f.machineDueIn(t, 3, "owner@example.com")
	unsold := testutil.CreateMachine(t, f.db.SQL, testutil.MachineFixture{WarrantyPeriodMonths: 12})

	tests := []struct {
		name        string
		request     TestReminderRequest
		expectedErr error
	}{
		{
			name:        "missing email",
			request:     TestReminderRequest{MachineID: machine.ID.String()},
			expectedErr: ErrValidation,
		},
		{
			name:        "invalid email",
			request:     TestReminderRequest{MachineID: machine.ID.String(), Email: "not-an-email"},
			expectedErr: ErrValidation,
		},
		{
			name:        "unknown machine",
			request:     TestReminderRequest{MachineID: uuid.NewString(), Email: "ops@example.com"},
			expectedErr: ErrNotFound,
		},
		{
			name:        "machine without a service schedule",
			request:     TestReminderRequest{MachineID: unsold.ID.String(), Email: "ops@example.com"},
			expectedErr: ErrNoSchedule,
		},
		{
			name:    "sends to the operator address",
			request: TestReminderRequest{MachineID: machine.ID.String(), Email: "ops@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.controller.SendTestReminder(context.Background(), &tt.request)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
		})
	}

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "ops@example.com", f.mailer.sent[0].To)
	assert.Contains(t, f.mailer.sent[0].Subject, "[TEST]")

	var count int64
	require.NoError(t, f.db.SQL.Model(&models.ActionLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSendTestReminder_DeliveryFailure(t *testing.T) {
	f := newFixture(t)
	machine := f.machineDueIn(t, 3, "owner@example.com")
	f.mailer.err = errors.New("smtp down")

	err := f.controller.SendTestReminder(context.Background(), &TestReminderRequest{
		MachineID: machine.ID.String(),
		Email:     "ops@example.com",
	})

	assert.ErrorIs(t, err, ErrNotSent)
}

func TestOptOut(t *testing.T) {
	f := newFixture(t)
	machine := f.machineDueIn(t, 7, "owner@example.com")

	token, err := f.service.Links.Sign(machine.ID, services.LinkPurposeOptOut)
	require.NoError(t, err)

	response, err := f.controller.OptOut(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, machine.ID, response.MachineID)
	assert.True(t, response.ReminderOptOut)

	var sale models.Sale
	require.NoError(t, f.db.SQL.First(&sale, "machine_id = ?", machine.ID).Error)
	assert.True(t, sale.ReminderOptOut)

	var logs []models.ActionLog
	require.NoError(t, f.db.SQL.Find(&logs, "machine_id = ?", machine.ID).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActionTypeLinkClicked, logs[0].ActionType)
	assert.Equal(t, models.ChannelEmail, logs[0].Channel)

	sent, err := f.controller.TriggerReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent.RemindersSent)
}

func TestOptOut_Rejections(t *testing.T) {
	f := newFixture(t)
	sold := f.machineDueIn(t, 7, "owner@example.com")
	unsold := testutil.CreateMachine(t, f.db.SQL, testutil.MachineFixture{WarrantyPeriodMonths: 12})

	scheduleToken, err := f.service.Links.Sign(sold.ID, services.LinkPurposeScheduleService)
	require.NoError(t, err)
	unsoldToken, err := f.service.Links.Sign(unsold.ID, services.LinkPurposeOptOut)
	require.NoError(t, err)
	foreign := services.NewLinkService("https://warranty.example.com", "another-secret")
	foreignToken, err := foreign.Sign(sold.ID, services.LinkPurposeOptOut)
	require.NoError(t, err)

	tests := []struct {
		name        string
		token       string
		expectedErr error
	}{
		{name: "garbage", token: "not-a-token", expectedErr: ErrInvalidToken},
		{name: "wrong purpose", token: scheduleToken, expectedErr: ErrInvalidToken},
		{name: "wrong signature", token: foreignToken, expectedErr: ErrInvalidToken},
		{name: "machine never sold", token: unsoldToken, expectedErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.controller.OptOut(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}

	var count int64
	require.NoError(t, f.db.SQL.Model(&models.ActionLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTriggerJob(t *testing.T) {
	f := newFixture(t)

	_, err := f.controller.TriggerJob(context.Background(), "missing")
	assert.ErrorIs(t, err, services.ErrJobNotFound)

	run, err := f.controller.TriggerJob(context.Background(), constants.ServiceReminderJobName)
	require.NoError(t, err)
	assert.True(t, run.Success)
	assert.Equal(t, constants.ServiceReminderJobName, run.Job)
}
