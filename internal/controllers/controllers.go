package controllers

import (
	"warrantyhub/config"
	"warrantyhub/internal/database"
	"warrantyhub/internal/repositories"
	"warrantyhub/internal/services"

	actionLogController "warrantyhub/internal/controllers/actionLog"
	reminderController "warrantyhub/internal/controllers/reminder"
	warrantyController "warrantyhub/internal/controllers/warranty"
)

type Controllers struct {
	ActionLog actionLogController.ActionLogControllerInterface
	Reminder  reminderController.ReminderControllerInterface
	Warranty  warrantyController.WarrantyControllerInterface
}

func New(
	services services.Service,
	repos repositories.Repository,
	config config.Config,
	db database.DB,
) Controllers {
	return Controllers{
		ActionLog: actionLogController.New(repos, services, config, db),
		Reminder:  reminderController.New(repos, services, config, db),
		Warranty:  warrantyController.New(repos, services, config, db),
	}
}
