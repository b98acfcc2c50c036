package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActionType string

const (
	ActionTypeReminderSent     ActionType = "REMINDER_SENT"
	ActionTypeServiceScheduled ActionType = "SERVICE_SCHEDULED"
	ActionTypeWarrantyViewed   ActionType = "WARRANTY_VIEWED"
	ActionTypeEmailOpened      ActionType = "EMAIL_OPENED"
	ActionTypeLinkClicked      ActionType = "LINK_CLICKED"
)

var ActionTypes = []ActionType{
	ActionTypeReminderSent,
	ActionTypeServiceScheduled,
	ActionTypeWarrantyViewed,
	ActionTypeEmailOpened,
	ActionTypeLinkClicked,
}

func (a ActionType) IsValid() bool {
	for _, actionType := range ActionTypes {
		if a == actionType {
			return true
		}
	}
	return false
}

// SystemOnly reports whether entries of this type may only be written by the
// service itself or an operator. REMINDER_SENT doubles as the dedup record.
func (a ActionType) SystemOnly() bool {
	return a == ActionTypeReminderSent || a == ActionTypeServiceScheduled
}

type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelWhatsapp Channel = "WHATSAPP"
	ChannelWeb      Channel = "WEB"
	ChannelSMS      Channel = "SMS"
	ChannelSystem   Channel = "SYSTEM"
)

var Channels = []Channel{ChannelEmail, ChannelWhatsapp, ChannelWeb, ChannelSMS, ChannelSystem}

func (c Channel) IsValid() bool {
	for _, channel := range Channels {
		if c == channel {
			return true
		}
	}
	return false
}

var ErrActionLogImmutable = errors.New("action log entries are append-only")

// ActionLog is an append-only audit record. It deliberately has no
// UpdatedAt/DeletedAt columns and refuses updates and deletes at the hook level.
type ActionLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"                                                     json:"id"`
	MachineID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_action_logs_dedup,priority:1"               json:"machineId"`
	ActionType ActionType     `gorm:"type:text;not null;index:idx_action_logs_dedup,priority:2"               json:"actionType"`
	Channel    Channel        `gorm:"type:text;not null"                                                       json:"channel"`
	Metadata   datatypes.JSON `                                                                                json:"metadata"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;not null;index:idx_action_logs_dedup,priority:3;index"     json:"createdAt"`

	Machine *Machine `gorm:"foreignKey:MachineID" json:"machine,omitempty"`
}

func (a *ActionLog) BeforeCreate(tx *gorm.DB) error {
	if a.MachineID == uuid.Nil || !a.ActionType.IsValid() || !a.Channel.IsValid() {
		return gorm.ErrInvalidValue
	}
	if a.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		a.ID = id
	}
	if len(a.Metadata) == 0 {
		a.Metadata = datatypes.JSON("{}")
	}
	return nil
}

func (a *ActionLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrActionLogImmutable
}

func (a *ActionLog) BeforeDelete(tx *gorm.DB) error {
	return ErrActionLogImmutable
}
