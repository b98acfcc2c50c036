package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActionMetadata is the typed payload stored in ActionLog.Metadata. Each
// action type has exactly one variant.
type ActionMetadata interface {
	ActionType() ActionType
}

type ReminderSentMetadata struct {
	DaysUntilService   int        `json:"daysUntilService"`
	HealthScore        int        `json:"healthScore"`
	Urgency            string     `json:"urgency"`
	SentTo             string     `json:"sentTo"`
	WarrantyActive     bool       `json:"warrantyActive"`
	WarrantyExpiryDate *time.Time `json:"warrantyExpiryDate"`
	Subject            string     `json:"subject,omitempty"`
	MessageID          string     `json:"messageId,omitempty"`
}

func (ReminderSentMetadata) ActionType() ActionType { return ActionTypeReminderSent }

type ServiceScheduledMetadata struct {
	ServiceRequestID *uuid.UUID `json:"serviceRequestId,omitempty"`
	ScheduledFor     *time.Time `json:"scheduledFor,omitempty"`
	Source           string     `json:"source,omitempty"`
}

func (ServiceScheduledMetadata) ActionType() ActionType { return ActionTypeServiceScheduled }

type WarrantyViewedMetadata struct {
	HealthScore    *int   `json:"healthScore,omitempty"`
	WarrantyActive *bool  `json:"warrantyActive,omitempty"`
	Source         string `json:"source,omitempty"`
}

func (WarrantyViewedMetadata) ActionType() ActionType { return ActionTypeWarrantyViewed }

type EmailOpenedMetadata struct {
	Campaign  string `json:"campaign,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

func (EmailOpenedMetadata) ActionType() ActionType { return ActionTypeEmailOpened }

type LinkClickedMetadata struct {
	Link   string `json:"link,omitempty"`
	Target string `json:"target,omitempty"`
}

func (LinkClickedMetadata) ActionType() ActionType { return ActionTypeLinkClicked }

// NewActionMetadata returns the zero variant for an action type.
func NewActionMetadata(actionType ActionType) (ActionMetadata, error) {
	switch actionType {
	case ActionTypeReminderSent:
		return &ReminderSentMetadata{}, nil
	case ActionTypeServiceScheduled:
		return &ServiceScheduledMetadata{}, nil
	case ActionTypeWarrantyViewed:
		return &WarrantyViewedMetadata{}, nil
	case ActionTypeEmailOpened:
		return &EmailOpenedMetadata{}, nil
	case ActionTypeLinkClicked:
		return &LinkClickedMetadata{}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", actionType)
}

// ParseActionMetadata decodes raw JSON into the variant for actionType. An
// empty payload yields the zero variant. Keys the variant does not define are
// rejected.
func ParseActionMetadata(actionType ActionType, raw []byte) (ActionMetadata, error) {
	metadata, err := NewActionMetadata(actionType)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return metadata, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(metadata); err != nil {
		return nil, fmt.Errorf("invalid %s metadata: %w", actionType, err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid %s metadata: trailing data", actionType)
	}
	return metadata, nil
}

// SetMetadata serializes a variant into the log, rejecting a variant that
// belongs to a different action type.
func (a *ActionLog) SetMetadata(metadata ActionMetadata) error {
	if metadata == nil {
		a.Metadata = datatypes.JSON("{}")
		return nil
	}
	if metadata.ActionType() != a.ActionType {
		return fmt.Errorf(
			"metadata for %s cannot be attached to a %s log",
			metadata.ActionType(),
			a.ActionType,
		)
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	a.Metadata = datatypes.JSON(encoded)
	return nil
}

func (a *ActionLog) DecodeMetadata() (ActionMetadata, error) {
	return ParseActionMetadata(a.ActionType, a.Metadata)
}
