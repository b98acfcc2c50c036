package services

import (
	"testing"
	"time"
	"warrantyhub/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateServiceReminderHTML(t *testing.T) {
	expiry := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	base := ServiceReminderEmailData{
		CustomerName:       "Pat Owner",
		MachineName:        "AquaPure 500",
		SerialNumber:       "SN-1001",
		HealthScore:        64,
		TotalSavings:       decimal.NewFromFloat(120.5),
		WarrantyActive:     true,
		WarrantyExpiryDate: &expiry,
		ScheduleServiceURL: "https://warranty.example.com/machines/1/schedule-service?token=abc&x=1",
		OptOutURL:          "https://warranty.example.com/api/reminders/opt-out?token=def",
	}

	tests := []struct {
		name     string
		days     int
		urgency  types.Urgency
		contains []string
	}{
		{
			name:     "overdue",
			days:     -12,
			urgency:  types.UrgencyOverdue,
			contains: []string{"Your service is overdue", "12 days past its scheduled service"},
		},
		{
			name:     "due today",
			days:     0,
			urgency:  types.UrgencyUrgent,
			contains: []string{"Service due very soon", "due for service today"},
		},
		{
			name:     "one day",
			days:     1,
			urgency:  types.UrgencyUrgent,
			contains: []string{"in 1 day."},
		},
		{
			name:     "upcoming",
			days:     15,
			urgency:  types.UrgencyUpcoming,
			contains: []string{"Upcoming service reminder", "in 15 days"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := base
			data.DaysUntilService = tt.days
			data.Urgency = tt.urgency

			html, err := GenerateServiceReminderHTML(data)
			require.NoError(t, err)

			for _, fragment := range tt.contains {
				assert.Contains(t, html, fragment)
			}
			assert.Contains(t, html, "Hello Pat Owner")
			assert.Contains(t, html, "SN-1001")
			assert.Contains(t, html, "64/100")
			assert.Contains(t, html, "$120.50")
			assert.Contains(t, html, "until March 15, 2025")
			assert.Contains(t, html, "token=abc&amp;x=1")
			assert.Contains(t, html, "Stop service reminders")
		})
	}
}

func TestGenerateServiceReminderHTML_EscapesCustomerInput(t *testing.T) {
	html, err := GenerateServiceReminderHTML(ServiceReminderEmailData{
		CustomerName: "<script>alert(1)</script>",
		MachineName:  "AquaPure",
		Urgency:      types.UrgencySoon,
		TotalSavings: decimal.Zero,
	})
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "Saved under warranty")
	assert.NotContains(t, html, "Stop service reminders")
	assert.Contains(t, html, "Expired")
}
