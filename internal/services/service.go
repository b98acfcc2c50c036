package services

import (
	"warrantyhub/config"
	"warrantyhub/internal/database"
	"warrantyhub/internal/repositories"
)

type Service struct {
	Transaction *TransactionService
	Scheduler   *SchedulerService
	Warranty    *WarrantyHelper
	Links       *LinkService
	Mailer      Mailer
	Reminder    *ReminderService
}

func New(db database.DB, config config.Config, repos repositories.Repository) (Service, error) {
	location, err := config.Location()
	if err != nil {
		return Service{}, err
	}

	policy, err := NewReminderPolicy(config)
	if err != nil {
		return Service{}, err
	}

	mailer, err := NewMailer(config)
	if err != nil {
		return Service{}, err
	}

	transactionService := NewTransactionService(db)
	schedulerService := NewSchedulerService(location)
	warrantyHelper := NewWarrantyHelper(config.ReminderServiceIntervalDays, location)
	linkService := NewLinkService(config.AppBaseURL, config.SigningSecret())
	reminderService := NewReminderService(
		db,
		repos,
		warrantyHelper,
		mailer,
		linkService,
		policy,
		config.SMTPFrom,
	)

	return Service{
		Transaction: transactionService,
		Scheduler:   schedulerService,
		Warranty:    warrantyHelper,
		Links:       linkService,
		Mailer:      mailer,
		Reminder:    reminderService,
	}, nil
}
