package database

import (
	"warrantyhub/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// Models lists every persisted model in dependency order.
var Models = []any{
	&models.MachineModel{},
	&models.Machine{},
	&models.Sale{},
	&models.ServiceRequest{},
	&models.ServiceVisit{},
	&models.ActionLog{},
}

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	for _, model := range Models {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}
