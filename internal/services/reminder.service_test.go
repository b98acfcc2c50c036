package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"warrantyhub/config"
	"warrantyhub/internal/database"
	"warrantyhub/internal/models"
	"warrantyhub/internal/repositories"
	"warrantyhub/internal/testutil"
	"warrantyhub/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMailer struct {
	mu       sync.Mutex
	attempts []Mail
	failFor  map[string]error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failFor: map[string]error{}}
}

func (m *fakeMailer) SendMail(_ context.Context, message Mail) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts = append(m.attempts, message)
	if err := m.failFor[message.To]; err != nil {
		return "", err
	}
	return fmt.Sprintf("<msg-%d@test>", len(m.attempts)), nil
}

func (m *fakeMailer) sentTo(address string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, attempt := range m.attempts {
		if attempt.To == address {
			count++
		}
	}
	return count
}

type reminderFixture struct {
	db      database.DB
	repos   repositories.Repository
	mailer  *fakeMailer
	service *ReminderService
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	repos := repositories.New(db)
	mailer := newFakeMailer()
	links := NewLinkService("https://warranty.example.com", "test-secret")
	links.Now = func() time.Time { return fixedNow }

	service := NewReminderService(
		db,
		repos,
		newTestHelper(fixedNow),
		mailer,
		links,
		DefaultReminderPolicy(),
		"service@example.com",
	)

	return &reminderFixture{db: db, repos: repos, mailer: mailer, service: service}
}

// dueIn creates a sold machine whose next service is `days` away from fixedNow.
func (f *reminderFixture) dueIn(t *testing.T, days int, email string, mutate ...func(*testutil.MachineFixture)) *models.Machine {
	t.Helper()

	saleDate := fixedNow.AddDate(0, 0, days-180)
	fixture := testutil.MachineFixture{
		WarrantyPeriodMonths: 24,
		SaleDate:             &saleDate,
		CustomerName:         "Customer " + email,
		CustomerEmail:        email,
	}
	for _, fn := range mutate {
		fn(&fixture)
	}
	return testutil.CreateMachine(t, f.db.SQL, fixture)
}

func (f *reminderFixture) reminderLogs(t *testing.T) []models.ActionLog {
	t.Helper()

	var logs []models.ActionLog
	require.NoError(t, f.db.SQL.
		Where("action_type = ?", models.ActionTypeReminderSent).
		Find(&logs).Error)
	return logs
}

func TestReminderService_IsReminderDay(t *testing.T) {
	service := &ReminderService{policy: DefaultReminderPolicy()}

	tests := []struct {
		days     int
		expected bool
	}{
		{days: 30, expected: false},
		{days: 15, expected: true},
		{days: 14, expected: false},
		{days: 7, expected: true},
		{days: 3, expected: true},
		{days: 1, expected: false},
		{days: 0, expected: true},
		{days: -1, expected: true},
		{days: -2, expected: false},
		{days: -8, expected: true},
		{days: -15, expected: true},
		{days: -121, expected: false},
		{days: -120, expected: true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, service.IsReminderDay(tt.days), "days=%d", tt.days)
	}

	t.Run("single overdue reminder without repeat", func(t *testing.T) {
		service := &ReminderService{policy: ReminderPolicy{WindowDays: []int{0}}}
		assert.True(t, service.IsReminderDay(-1))
		assert.False(t, service.IsReminderDay(-8))
	})
}

func TestNewReminderPolicy(t *testing.T) {
	repeat := 3
	policy, err := NewReminderPolicy(config.Config{
		ReminderWindows:           "30, 10,1",
		ReminderOverdueRepeatDays: &repeat,
		ReminderConcurrency:       8,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{30, 10, 1}, policy.WindowDays)
	assert.Equal(t, 3, policy.OverdueRepeatDays)
	assert.Equal(t, 8, policy.Concurrency)

	defaults, err := NewReminderPolicy(config.Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultReminderPolicy(), defaults)

	_, err = NewReminderPolicy(config.Config{ReminderWindows: "7,x"})
	assert.Error(t, err)

	t.Run("explicit zero sends a single overdue reminder", func(t *testing.T) {
		zero := 0
		policy, err := NewReminderPolicy(config.Config{ReminderOverdueRepeatDays: &zero})
		require.NoError(t, err)
		assert.Equal(t, 0, policy.OverdueRepeatDays)

		service := &ReminderService{policy: policy}
		assert.True(t, service.IsReminderDay(-1))
		assert.False(t, service.IsReminderDay(-8))
		assert.False(t, service.IsReminderDay(-15))
	})
}

func TestReminderSubject(t *testing.T) {
	tests := []struct {
		urgency  types.Urgency
		days     int
		expected string
	}{
		{types.UrgencyOverdue, -4, "Service Overdue: AquaPure"},
		{types.UrgencyUrgent, 0, "Urgent: Service due today for AquaPure"},
		{types.UrgencyUrgent, 1, "Urgent: Service due in 1 day for AquaPure"},
		{types.UrgencyUrgent, 3, "Urgent: Service due in 3 days for AquaPure"},
		{types.UrgencySoon, 7, "Reminder: Service due soon for AquaPure"},
		{types.UrgencyUpcoming, 15, "Service Reminder: AquaPure"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ReminderSubject(tt.urgency, tt.days, "AquaPure"))
	}
}

func TestReminderService_ProcessReminders_FailureIsolation(t *testing.T) {
	f := newReminderFixture(t)
	f.dueIn(t, 7, "first@example.com")
	f.dueIn(t, 7, "second@example.com")
	f.dueIn(t, 7, "third@example.com")
	f.mailer.failFor["second@example.com"] = errors.New("smtp: mailbox unavailable")

	sent := f.service.ProcessReminders(context.Background())

	assert.Equal(t, 2, sent)
	assert.Len(t, f.mailer.attempts, 3)
	assert.Len(t, f.reminderLogs(t), 2)
}

func TestReminderService_ProcessReminders_DedupsWithinDay(t *testing.T) {
	f := newReminderFixture(t)
	f.dueIn(t, 3, "owner@example.com")

	assert.Equal(t, 1, f.service.ProcessReminders(context.Background()))
	assert.Equal(t, 0, f.service.ProcessReminders(context.Background()))
	assert.Equal(t, 1, f.mailer.sentTo("owner@example.com"))
	assert.Len(t, f.reminderLogs(t), 1)
}

func TestReminderService_ProcessReminders_RetriesAfterFailedSend(t *testing.T) {
	f := newReminderFixture(t)
	f.dueIn(t, 0, "flaky@example.com")
	f.mailer.failFor["flaky@example.com"] = errors.New("timeout")

	assert.Equal(t, 0, f.service.ProcessReminders(context.Background()))
	assert.Empty(t, f.reminderLogs(t))

	delete(f.mailer.failFor, "flaky@example.com")
	assert.Equal(t, 1, f.service.ProcessReminders(context.Background()))
	assert.Equal(t, 2, f.mailer.sentTo("flaky@example.com"))
}

func TestReminderService_ProcessReminders_Eligibility(t *testing.T) {
	f := newReminderFixture(t)
	f.dueIn(t, 7, "optout@example.com", func(m *testutil.MachineFixture) { m.ReminderOptOut = true })
	f.dueIn(t, 20, "notyet@example.com")
	f.dueIn(t, 7, "expired@example.com", func(m *testutil.MachineFixture) { m.WarrantyPeriodMonths = 3 })
	f.dueIn(t, 7, "")
	f.dueIn(t, -100, "overdue@example.com")
	f.dueIn(t, -8, "repeat@example.com")

	sent := f.service.ProcessReminders(context.Background())

	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, f.mailer.sentTo("optout@example.com"))
	assert.Equal(t, 0, f.mailer.sentTo("notyet@example.com"))
	assert.Equal(t, 0, f.mailer.sentTo("expired@example.com"))
	assert.Equal(t, 0, f.mailer.sentTo("overdue@example.com"))
	assert.Equal(t, 1, f.mailer.sentTo("repeat@example.com"))
	assert.Len(t, f.mailer.attempts, 1)
}

func TestReminderService_SendReminder_RecordsSnapshot(t *testing.T) {
	f := newReminderFixture(t)
	machine := f.dueIn(t, -1, "owner@example.com")

	require.True(t, f.service.SendReminder(context.Background(), machine))

	require.Len(t, f.mailer.attempts, 1)
	mail := f.mailer.attempts[0]
	assert.Equal(t, "service@example.com", mail.From)
	assert.True(t, strings.Contains(mail.Subject, "Overdue"))
	assert.Contains(t, mail.HTML, "/api/reminders/opt-out?token=")

	logs := f.reminderLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ChannelEmail, logs[0].Channel)

	metadata, err := logs[0].DecodeMetadata()
	require.NoError(t, err)
	snapshot := metadata.(*models.ReminderSentMetadata)
	assert.Equal(t, "owner@example.com", snapshot.SentTo)
	assert.Equal(t, -1, snapshot.DaysUntilService)
	assert.Equal(t, string(types.UrgencyOverdue), snapshot.Urgency)
	assert.Equal(t, GetUrgency(snapshot.DaysUntilService), types.Urgency(snapshot.Urgency))
	assert.Equal(t, mail.Subject, snapshot.Subject)
	assert.Equal(t, "<msg-1@test>", snapshot.MessageID)
	assert.True(t, snapshot.WarrantyActive)
	assert.NotNil(t, snapshot.WarrantyExpiryDate)
}

func TestReminderService_SendReminder_UnsoldMachine(t *testing.T) {
	f := newReminderFixture(t)
	machine := testutil.CreateMachine(t, f.db.SQL, testutil.MachineFixture{WarrantyPeriodMonths: 12})

	assert.False(t, f.service.SendReminder(context.Background(), machine))
	assert.False(t, f.service.SendReminder(context.Background(), nil))
	assert.Empty(t, f.mailer.attempts)
	assert.Empty(t, f.reminderLogs(t))
}

type failingActionLogRepository struct {
	repositories.ActionLogRepository
}

func (failingActionLogRepository) Create(context.Context, *gorm.DB, *models.ActionLog) error {
	return errors.New("disk full")
}

func TestReminderService_SendReminder_AuditFailureIsNotCounted(t *testing.T) {
	f := newReminderFixture(t)
	machine := f.dueIn(t, 7, "owner@example.com")
	f.service.actionLogRepo = failingActionLogRepository{f.repos.ActionLog}

	assert.False(t, f.service.SendReminder(context.Background(), machine))
	assert.Equal(t, 1, f.mailer.sentTo("owner@example.com"))
}

type failingMachineRepository struct {
	repositories.MachineRepository
}

func (failingMachineRepository) FindReminderCandidates(context.Context, *gorm.DB) ([]*models.Machine, error) {
	return nil, errors.New("connection refused")
}

func TestReminderService_BatchFailure(t *testing.T) {
	f := newReminderFixture(t)
	f.service.machineRepo = failingMachineRepository{f.repos.Machine}

	assert.Equal(t, 0, f.service.ProcessReminders(context.Background()))

	sent, err := f.service.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, sent)
}

type panickingMailer struct{}

func (panickingMailer) SendMail(context.Context, Mail) (string, error) {
	panic("transport exploded")
}

func TestReminderService_PanicIsContained(t *testing.T) {
	f := newReminderFixture(t)
	f.dueIn(t, 7, "owner@example.com")
	f.service.mailer = panickingMailer{}

	assert.NotPanics(t, func() {
		assert.Equal(t, 0, f.service.ProcessReminders(context.Background()))
	})
}

func TestReminderService_SendTestReminder(t *testing.T) {
	f := newReminderFixture(t)
	machine := f.dueIn(t, 15, "owner@example.com")

	assert.True(t, f.service.SendTestReminder(context.Background(), machine.ID, "qa@example.com"))
	require.Len(t, f.mailer.attempts, 1)
	assert.Equal(t, "qa@example.com", f.mailer.attempts[0].To)
	assert.Equal(t, "[TEST] Service Reminder: AquaPure 500", f.mailer.attempts[0].Subject)
	assert.Empty(t, f.reminderLogs(t))

	// A test send does not block the real reminder.
	assert.Equal(t, 1, f.service.ProcessReminders(context.Background()))

	assert.False(t, f.service.SendTestReminder(context.Background(), uuid.New(), "qa@example.com"))
}
