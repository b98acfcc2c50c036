package models

import (
	"time"

	"github.com/google/uuid"
)

// Sale records the single hand-over of a machine to its end customer.
type Sale struct {
	BaseUUIDModel
	MachineID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"  json:"machineId"`
	SaleDate       time.Time  `gorm:"type:timestamp;not null"         json:"saleDate"`
	CustomerName   string     `gorm:"type:text;not null"              json:"customerName"`
	CustomerEmail  *string    `gorm:"type:text;index"                 json:"customerEmail,omitempty"`
	CustomerPhone  *string    `gorm:"type:text"                       json:"customerPhone,omitempty"`
	WhatsappNumber *string    `gorm:"type:text"                       json:"whatsappNumber,omitempty"`
	DistributorID  *uuid.UUID `gorm:"type:uuid;index"                json:"distributorId,omitempty"`
	ReminderOptOut bool       `gorm:"type:bool;not null;default:false" json:"reminderOptOut"`

	Machine *Machine `gorm:"foreignKey:MachineID" json:"machine,omitempty"`
}
