package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"warrantyhub/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/wneessen/go-mail"
	"golang.org/x/time/rate"
)

var ErrMailTimeout = errors.New("mail send timed out")

type Mail struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Mailer delivers a rendered email and returns the transport message id.
type Mailer interface {
	SendMail(ctx context.Context, message Mail) (string, error)
}

// NewMailer returns an SMTP transport, or a LogMailer when SMTP_HOST is unset.
func NewMailer(config config.Config) (Mailer, error) {
	if config.SMTPHost == "" {
		logger.New("mailer").Function("NewMailer").
			Warn("SMTP_HOST is empty, reminder emails will only be logged")
		return NewLogMailer(config.SMTPFrom), nil
	}
	return NewSMTPMailer(config)
}

type SMTPMailer struct {
	client  *mail.Client
	limiter *rate.Limiter
	from    string
	timeout time.Duration
	log     logger.Logger
}

func NewSMTPMailer(config config.Config) (*SMTPMailer, error) {
	log := logger.New("smtpMailer").Function("NewSMTPMailer")

	options := []mail.Option{
		mail.WithPort(config.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(config.SMTPSendTimeout()),
	}
	if config.SMTPUser != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.SMTPUser),
			mail.WithPassword(config.SMTPPassword),
		)
	}

	client, err := mail.NewClient(config.SMTPHost, options...)
	if err != nil {
		return nil, log.Err("failed to create SMTP client", err, "host", config.SMTPHost)
	}

	ratePerSecond := config.SMTPRatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}

	log.Info("SMTP mailer configured", "host", config.SMTPHost, "port", config.SMTPPort)
	return &SMTPMailer{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		from:    config.SMTPFrom,
		timeout: config.SMTPSendTimeout(),
		log:     logger.New("smtpMailer"),
	}, nil
}

// SendMail throttles to the configured rate and bounds the whole exchange by
// the send timeout. A timeout is reported as ErrMailTimeout.
func (m *SMTPMailer) SendMail(ctx context.Context, message Mail) (string, error) {
	log := m.log.TraceFromContext(ctx).Function("SendMail")

	msg, err := buildMessage(message, m.from)
	if err != nil {
		return "", log.Err("failed to build email", err, "to", message.To)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.limiter.Wait(ctx); err != nil {
		return "", log.Err("mail rate limiter aborted", err, "to", message.To)
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrMailTimeout, err)
		}
		return "", log.Err("failed to send email", err, "to", message.To)
	}

	return msg.GetMessageID(), nil
}

func buildMessage(message Mail, defaultFrom string) (*mail.Msg, error) {
	from := message.From
	if from == "" {
		from = defaultFrom
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(message.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(message.Subject)
	msg.SetBodyString(mail.TypeTextHTML, message.HTML)
	msg.SetMessageID()

	return msg, nil
}

// LogMailer is the development transport: it logs instead of sending.
type LogMailer struct {
	from string
	log  logger.Logger
}

func NewLogMailer(from string) *LogMailer {
	return &LogMailer{
		from: from,
		log:  logger.New("logMailer"),
	}
}

func (m *LogMailer) SendMail(ctx context.Context, message Mail) (string, error) {
	log := m.log.TraceFromContext(ctx).Function("SendMail")

	msg, err := buildMessage(message, m.from)
	if err != nil {
		return "", log.Err("failed to build email", err, "to", message.To)
	}

	log.Info(
		"Email not sent, SMTP is not configured",
		"to", message.To,
		"subject", message.Subject,
		"bytes", len(message.HTML),
		"messageID", msg.GetMessageID(),
	)
	return msg.GetMessageID(), nil
}
