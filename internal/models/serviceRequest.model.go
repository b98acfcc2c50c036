package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServiceRequestStatus string

const (
	ServiceRequestStatusPending    ServiceRequestStatus = "PENDING"
	ServiceRequestStatusInProgress ServiceRequestStatus = "IN_PROGRESS"
	ServiceRequestStatusCompleted  ServiceRequestStatus = "COMPLETED"
	ServiceRequestStatusCancelled  ServiceRequestStatus = "CANCELLED"
	ServiceRequestStatusClosed     ServiceRequestStatus = "CLOSED"
)

type ServiceRequest struct {
	BaseUUIDModel
	MachineID uuid.UUID            `gorm:"type:uuid;not null;index"              json:"machineId"`
	Status    ServiceRequestStatus `gorm:"type:text;not null;default:'PENDING'" json:"status"`
	Complaint string               `gorm:"type:text"                            json:"complaint"`

	Machine      *Machine      `gorm:"foreignKey:MachineID"        json:"machine,omitempty"`
	ServiceVisit *ServiceVisit `gorm:"foreignKey:ServiceRequestID" json:"serviceVisit,omitempty"`
}

// ServiceVisit is the engineer visit attached to exactly one request.
type ServiceVisit struct {
	BaseUUIDModel
	ServiceRequestID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"serviceRequestId"`
	ServiceVisitDate *time.Time      `gorm:"type:timestamp;index"           json:"serviceVisitDate,omitempty"`
	TotalCost        decimal.Decimal `gorm:"type:decimal(10,2);not null"    json:"totalCost"`
	EngineerName     string          `gorm:"type:text"                      json:"engineerName"`
	Notes            *string         `gorm:"type:text"                      json:"notes,omitempty"`
}
