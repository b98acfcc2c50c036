package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type MachineTestResult struct {
	Passed   bool               `json:"passed"`
	TestedAt *time.Time         `json:"testedAt,omitempty"`
	TestedBy string             `json:"testedBy,omitempty"`
	Readings map[string]float64 `json:"readings,omitempty"`
	Remarks  string             `json:"remarks,omitempty"`
}

type Machine struct {
	BaseUUIDModel
	SerialNumber   string             `gorm:"type:text;not null;uniqueIndex"      json:"serialNumber"`
	MachineModelID uuid.UUID          `gorm:"type:uuid;not null;index"            json:"machineModelId"`
	ManufacturedAt *time.Time         `gorm:"type:timestamp"                      json:"manufacturedAt,omitempty"`
	TestResult     *MachineTestResult `gorm:"serializer:json"                     json:"testResult,omitempty"`
	Notes          *string            `gorm:"type:text"                           json:"notes,omitempty"`

	// Relationships
	MachineModel    *MachineModel    `gorm:"foreignKey:MachineModelID" json:"machineModel,omitempty"`
	Sale            *Sale            `gorm:"foreignKey:MachineID"      json:"sale,omitempty"`
	ServiceRequests []ServiceRequest `gorm:"foreignKey:MachineID"      json:"serviceRequests,omitempty"`
}

// DisplayName is the name customers see in reminders: the model name when
// the catalogue entry is loaded, otherwise the serial number.
func (m *Machine) DisplayName() string {
	if m.MachineModel != nil && strings.TrimSpace(m.MachineModel.Name) != "" {
		return m.MachineModel.Name
	}
	return m.SerialNumber
}

// WarrantyPeriodMonths returns the model's warranty length, treating a
// missing model or a negative value as no warranty.
func (m *Machine) WarrantyPeriodMonths() int {
	if m.MachineModel == nil || m.MachineModel.WarrantyPeriodMonths < 0 {
		return 0
	}
	return m.MachineModel.WarrantyPeriodMonths
}

func (m *Machine) IsSold() bool {
	return m.Sale != nil && !m.Sale.SaleDate.IsZero()
}

// CustomerEmail returns the trimmed sale contact email or "".
func (m *Machine) CustomerEmail() string {
	if m.Sale == nil || m.Sale.CustomerEmail == nil {
		return ""
	}
	return strings.TrimSpace(*m.Sale.CustomerEmail)
}

// CompletedVisits returns the visits whose ticket reached COMPLETED and
// that carry a visit date.
func (m *Machine) CompletedVisits() []ServiceVisit {
	visits := make([]ServiceVisit, 0, len(m.ServiceRequests))
	for _, request := range m.ServiceRequests {
		if request.Status != ServiceRequestStatusCompleted || request.ServiceVisit == nil {
			continue
		}
		if request.ServiceVisit.ServiceVisitDate == nil {
			continue
		}
		visits = append(visits, *request.ServiceVisit)
	}
	return visits
}
