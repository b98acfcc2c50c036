package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

type Urgency string

const (
	UrgencyUpcoming Urgency = "UPCOMING"
	UrgencySoon     Urgency = "SOON"
	UrgencyUrgent   Urgency = "URGENT"
	UrgencyOverdue  Urgency = "OVERDUE"
)

// WarrantyStatus is derived from a machine's sale and service history on
// every read and is never persisted.
type WarrantyStatus struct {
	HealthScore        int             `json:"healthScore"`
	RiskLevel          RiskLevel       `json:"riskLevel"`
	WarrantyActive     bool            `json:"warrantyActive"`
	WarrantyExpiryDate *time.Time      `json:"warrantyExpiryDate"`
	NextServiceDue     *time.Time      `json:"nextServiceDue"`
	TotalSavings       decimal.Decimal `json:"totalSavings"`
	DaysUntilService   int             `json:"daysUntilService"`
	Urgency            Urgency         `json:"urgency"`
}
