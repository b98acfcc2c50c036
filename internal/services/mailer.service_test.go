package services

import (
	"context"
	"testing"
	"warrantyhub/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailer_FallsBackToLogMailer(t *testing.T) {
	mailer, err := NewMailer(config.Config{SMTPFrom: "service@example.com"})
	require.NoError(t, err)

	_, ok := mailer.(*LogMailer)
	assert.True(t, ok)
}

func TestLogMailer_SendMail(t *testing.T) {
	mailer := NewLogMailer("service@example.com")

	messageID, err := mailer.SendMail(context.Background(), Mail{
		To:      "owner@example.com",
		Subject: "Service Reminder: AquaPure 500",
		HTML:    "<p>hello</p>",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, messageID)

	_, err = mailer.SendMail(context.Background(), Mail{To: "not-an-address", Subject: "x"})
	assert.Error(t, err)
}

func TestSMTPMailer_SendMailFailsWithoutDialing(t *testing.T) {
	mailer, err := NewSMTPMailer(config.Config{
		SMTPHost:               "smtp.invalid",
		SMTPPort:               2525,
		SMTPFrom:               "service@example.com",
		SMTPSendTimeoutSeconds: 1,
		SMTPRatePerSecond:      1,
	})
	require.NoError(t, err)

	t.Run("invalid recipient", func(t *testing.T) {
		_, err := mailer.SendMail(context.Background(), Mail{To: "broken", Subject: "x", HTML: "x"})
		assert.ErrorContains(t, err, "invalid recipient")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := mailer.SendMail(ctx, Mail{To: "owner@example.com", Subject: "x", HTML: "x"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
