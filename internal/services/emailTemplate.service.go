package services

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
	"warrantyhub/internal/types"

	"github.com/shopspring/decimal"
)

//go:embed templates/serviceReminder.html
var templateFS embed.FS

var serviceReminderTemplate = template.Must(
	template.ParseFS(templateFS, "templates/serviceReminder.html"),
)

type ServiceReminderEmailData struct {
	CustomerName       string
	MachineName        string
	SerialNumber       string
	DaysUntilService   int
	HealthScore        int
	TotalSavings       decimal.Decimal
	WarrantyActive     bool
	WarrantyExpiryDate *time.Time
	Urgency            types.Urgency
	ScheduleServiceURL string
	OptOutURL          string
}

// serviceReminderView is the flattened, display-ready form the template reads.
type serviceReminderView struct {
	Headline           string
	Message            string
	AccentColor        string
	CustomerName       string
	MachineName        string
	SerialNumber       string
	HealthScore        int
	WarrantyActive     bool
	WarrantyExpiry     string
	ShowSavings        bool
	TotalSavings       string
	ScheduleServiceURL template.URL
	OptOutURL          template.URL
}

// GenerateServiceReminderHTML renders the reminder email. It depends only on
// its input.
func GenerateServiceReminderHTML(data ServiceReminderEmailData) (string, error) {
	view := serviceReminderView{
		Headline:           reminderHeadline(data.Urgency),
		Message:            reminderMessage(data),
		AccentColor:        urgencyColor(data.Urgency),
		CustomerName:       data.CustomerName,
		MachineName:        data.MachineName,
		SerialNumber:       data.SerialNumber,
		HealthScore:        data.HealthScore,
		WarrantyActive:     data.WarrantyActive,
		ShowSavings:        data.TotalSavings.IsPositive(),
		TotalSavings:       "$" + data.TotalSavings.StringFixed(2),
		ScheduleServiceURL: template.URL(data.ScheduleServiceURL),
		OptOutURL:          template.URL(data.OptOutURL),
	}
	if view.CustomerName == "" {
		view.CustomerName = "there"
	}
	if data.WarrantyExpiryDate != nil {
		view.WarrantyExpiry = data.WarrantyExpiryDate.Format("January 2, 2006")
	}

	var buf bytes.Buffer
	if err := serviceReminderTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render service reminder: %w", err)
	}
	return buf.String(), nil
}

func reminderHeadline(urgency types.Urgency) string {
	switch urgency {
	case types.UrgencyOverdue:
		return "Your service is overdue"
	case types.UrgencyUrgent:
		return "Service due very soon"
	case types.UrgencySoon:
		return "Service due soon"
	default:
		return "Upcoming service reminder"
	}
}

func reminderMessage(data ServiceReminderEmailData) string {
	days := data.DaysUntilService
	switch {
	case days < 0:
		return fmt.Sprintf(
			"Your %s is %s past its scheduled service. Booking a visit now keeps it running reliably.",
			data.MachineName,
			pluralDays(-days),
		)
	case days == 0:
		return fmt.Sprintf("Your %s is due for service today.", data.MachineName)
	default:
		return fmt.Sprintf("Your %s is due for service in %s.", data.MachineName, pluralDays(days))
	}
}

func urgencyColor(urgency types.Urgency) string {
	switch urgency {
	case types.UrgencyOverdue:
		return "#c81e1e"
	case types.UrgencyUrgent:
		return "#d97706"
	case types.UrgencySoon:
		return "#2563eb"
	default:
		return "#0f766e"
	}
}

func pluralDays(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
