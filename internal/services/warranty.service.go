package services

import (
	"math"
	"time"
	"warrantyhub/internal/models"
	"warrantyhub/internal/types"
	"warrantyhub/internal/utils"

	"github.com/shopspring/decimal"
)

const (
	DefaultServiceIntervalDays = 180

	overdueBasePenalty     = 25.0
	overduePenaltyPerDay   = 0.4
	dueSoonWindowDays      = 30
	visitBonus             = 5
	maxVisitBonus          = 15
	recentVisitBonus       = 5
	recentVisitWindowDays  = 365
	expiredWarrantyPenalty = 10
	lowRiskThreshold       = 70
	mediumRiskThreshold    = 40
	urgentThresholdDays    = 3
	soonThresholdDays      = 7
)

// Clock returns the current time. Tests replace it to pin "now".
type Clock func() time.Time

// WarrantyHelper derives warranty and service health from a hydrated machine
// (MachineModel, Sale and ServiceRequests.ServiceVisit preloaded). It never
// touches the database.
type WarrantyHelper struct {
	ServiceIntervalDays int
	Location            *time.Location
	Now                 Clock
}

func NewWarrantyHelper(serviceIntervalDays int, location *time.Location) *WarrantyHelper {
	if serviceIntervalDays <= 0 {
		serviceIntervalDays = DefaultServiceIntervalDays
	}
	if location == nil {
		location = time.UTC
	}

	return &WarrantyHelper{
		ServiceIntervalDays: serviceIntervalDays,
		Location:            location,
		Now:                 time.Now,
	}
}

func (h *WarrantyHelper) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *WarrantyHelper) location() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

func (h *WarrantyHelper) intervalDays(machine *models.Machine) int {
	if machine.MachineModel != nil && machine.MachineModel.ServiceIntervalDays != nil &&
		*machine.MachineModel.ServiceIntervalDays > 0 {
		return *machine.MachineModel.ServiceIntervalDays
	}
	if h.ServiceIntervalDays > 0 {
		return h.ServiceIntervalDays
	}
	return DefaultServiceIntervalDays
}

func (h *WarrantyHelper) IsWarrantyActive(machine *models.Machine) bool {
	expiry := h.GetWarrantyExpiryDate(machine)
	if expiry == nil {
		return false
	}
	return h.now().Before(*expiry)
}

// GetWarrantyExpiryDate adds the model's warranty months to the sale date
// using calendar months.
func (h *WarrantyHelper) GetWarrantyExpiryDate(machine *models.Machine) *time.Time {
	if machine == nil || !machine.IsSold() {
		return nil
	}
	expiry := machine.Sale.SaleDate.AddDate(0, machine.WarrantyPeriodMonths(), 0)
	return &expiry
}

// LastServiceDate returns the most recent completed visit date, or nil.
func (h *WarrantyHelper) LastServiceDate(machine *models.Machine) *time.Time {
	if machine == nil {
		return nil
	}

	var last *time.Time
	for _, visit := range machine.CompletedVisits() {
		if last == nil || visit.ServiceVisitDate.After(*last) {
			date := *visit.ServiceVisitDate
			last = &date
		}
	}
	return last
}

// GetNextServiceDue measures the service interval from the later of the sale
// date and the last completed visit.
func (h *WarrantyHelper) GetNextServiceDue(machine *models.Machine) *time.Time {
	if machine == nil || !machine.IsSold() {
		return nil
	}

	base := machine.Sale.SaleDate
	if last := h.LastServiceDate(machine); last != nil && last.After(base) {
		base = *last
	}

	due := base.AddDate(0, 0, h.intervalDays(machine))
	return &due
}

// GetDaysUntilService is the calendar-day distance from today to the due
// date. The second return is false when there is no due date.
func (h *WarrantyHelper) GetDaysUntilService(machine *models.Machine) (int, bool) {
	due := h.GetNextServiceDue(machine)
	if due == nil {
		return 0, false
	}
	return utils.CalendarDaysBetween(h.now(), *due, h.location()), true
}

// GetHealthScore starts at 100, subtracts for overdue or nearly due service
// and an expired warranty, and adds for completed visits. The result is
// clamped to [0,100]. Unsold machines score 0.
func (h *WarrantyHelper) GetHealthScore(machine *models.Machine) int {
	if machine == nil || !machine.IsSold() {
		return 0
	}

	score := 100.0

	days, _ := h.GetDaysUntilService(machine)
	switch {
	case days < 0:
		score -= overdueBasePenalty + overduePenaltyPerDay*float64(-days)
	case days < dueSoonWindowDays:
		score -= float64(dueSoonWindowDays-days) / 3
	}

	completed := len(machine.CompletedVisits())
	score += float64(min(completed*visitBonus, maxVisitBonus))

	if last := h.LastServiceDate(machine); last != nil {
		if utils.CalendarDaysBetween(*last, h.now(), h.location()) <= recentVisitWindowDays {
			score += recentVisitBonus
		}
	}

	if !h.IsWarrantyActive(machine) {
		score -= expiredWarrantyPenalty
	}

	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// GetTotalSavings sums the cost of completed visits that fell inside the
// warranty period.
func (h *WarrantyHelper) GetTotalSavings(machine *models.Machine) decimal.Decimal {
	total := decimal.Zero
	expiry := h.GetWarrantyExpiryDate(machine)
	if expiry == nil {
		return total
	}

	saleDate := machine.Sale.SaleDate
	for _, visit := range machine.CompletedVisits() {
		date := *visit.ServiceVisitDate
		if date.Before(saleDate) || !date.Before(*expiry) {
			continue
		}
		total = total.Add(visit.TotalCost)
	}
	return total
}

func GetUrgency(daysUntilService int) types.Urgency {
	switch {
	case daysUntilService < 0:
		return types.UrgencyOverdue
	case daysUntilService <= urgentThresholdDays:
		return types.UrgencyUrgent
	case daysUntilService <= soonThresholdDays:
		return types.UrgencySoon
	default:
		return types.UrgencyUpcoming
	}
}

func (h *WarrantyHelper) GetUrgency(daysUntilService int) types.Urgency {
	return GetUrgency(daysUntilService)
}

func RiskLevelFor(healthScore int) types.RiskLevel {
	switch {
	case healthScore >= lowRiskThreshold:
		return types.RiskLevelLow
	case healthScore >= mediumRiskThreshold:
		return types.RiskLevelMedium
	default:
		return types.RiskLevelHigh
	}
}

// GetWarrantyStatus computes a full snapshot. Unsold machines get zero
// values with LOW risk and UPCOMING urgency since nothing is due.
func (h *WarrantyHelper) GetWarrantyStatus(machine *models.Machine) types.WarrantyStatus {
	if machine == nil || !machine.IsSold() {
		return types.WarrantyStatus{
			RiskLevel:    types.RiskLevelLow,
			TotalSavings: decimal.Zero,
			Urgency:      types.UrgencyUpcoming,
		}
	}

	days, _ := h.GetDaysUntilService(machine)
	score := h.GetHealthScore(machine)

	return types.WarrantyStatus{
		HealthScore:        score,
		RiskLevel:          RiskLevelFor(score),
		WarrantyActive:     h.IsWarrantyActive(machine),
		WarrantyExpiryDate: h.GetWarrantyExpiryDate(machine),
		NextServiceDue:     h.GetNextServiceDue(machine),
		TotalSavings:       h.GetTotalSavings(machine),
		DaysUntilService:   days,
		Urgency:            GetUrgency(days),
	}
}
