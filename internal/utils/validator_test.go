package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	MachineID  string `json:"machineId"  validate:"required,uuid"`
	ActionType string `json:"actionType" validate:"required,action_type"`
	Channel    string `json:"channel"    validate:"required,channel"`
	Email      string `json:"email"      validate:"omitempty,email"`
}

func TestValidationMessage(t *testing.T) {
	validate := NewValidator()
	valid := sampleRequest{
		MachineID:  "0190b8a4-7c1e-7b3a-8f00-123456789abc",
		ActionType: "REMINDER_SENT",
		Channel:    "EMAIL",
	}

	tests := []struct {
		name     string
		mutate   func(r *sampleRequest)
		expected string
	}{
		{name: "missing machine", mutate: func(r *sampleRequest) { r.MachineID = "" }, expected: "machineId is required"},
		{name: "bad machine", mutate: func(r *sampleRequest) { r.MachineID = "abc" }, expected: "machineId must be a valid UUID"},
		{name: "bogus action", mutate: func(r *sampleRequest) { r.ActionType = "BOGUS" }, expected: "Invalid actionType"},
		{name: "missing action", mutate: func(r *sampleRequest) { r.ActionType = "" }, expected: "actionType is required"},
		{name: "bogus channel", mutate: func(r *sampleRequest) { r.Channel = "PIGEON" }, expected: "Invalid channel"},
		{name: "bad email", mutate: func(r *sampleRequest) { r.Email = "nope" }, expected: "email must be a valid email address"},
	}

	assert.NoError(t, validate.Struct(valid))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := valid
			tt.mutate(&request)

			err := validate.Struct(request)
			assert.Error(t, err)
			assert.Equal(t, tt.expected, ValidationMessage(err))
		})
	}

	assert.Equal(t, "plain", ValidationMessage(errors.New("plain")))
}
