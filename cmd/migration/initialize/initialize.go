package initialize

import (
	"warrantyhub/config"
	. "warrantyhub/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := initializeMachineModels(db, log); err != nil {
		return log.Err("failed to initialize machine models", err)
	}

	log.Info("Table initialization complete")
	return nil
}

func initializeMachineModels(db *gorm.DB, log logger.Logger) error {
	log.Info("Initializing machine model catalogue")

	machineModels := getMachineModelsData()

	for _, machineModel := range machineModels {
		var existing MachineModel
		if err := db.First(&existing, "model_number = ?", machineModel.ModelNumber).Error; err == nil {
			log.Debug("Machine model already exists", "modelNumber", machineModel.ModelNumber)
			continue
		}
		log.Info("Initializing machine model", "modelNumber", machineModel.ModelNumber)
		if err := db.Create(&machineModel).Error; err != nil {
			return log.Err(
				"failed to create machine model",
				err,
				"modelNumber",
				machineModel.ModelNumber,
			)
		}
	}

	log.Info("Machine model catalogue initialized", "count", len(machineModels))
	return nil
}

func intPtr(value int) *int {
	return &value
}

func getMachineModelsData() []MachineModel {
	return []MachineModel{
		{
			Name:                 "AquaPure 300",
			ModelNumber:          "AP-300",
			Manufacturer:         "AquaPure",
			WarrantyPeriodMonths: 12,
		},
		{
			Name:                 "AquaPure 500",
			ModelNumber:          "AP-500",
			Manufacturer:         "AquaPure",
			WarrantyPeriodMonths: 24,
		},
		{
			Name:                 "AquaPure 900 Commercial",
			ModelNumber:          "AP-900C",
			Manufacturer:         "AquaPure",
			WarrantyPeriodMonths: 36,
			ServiceIntervalDays:  intPtr(90),
		},
		{
			Name:                 "ClearFlow Mini",
			ModelNumber:          "CF-MINI",
			Manufacturer:         "ClearFlow",
			WarrantyPeriodMonths: 6,
		},
		{
			Name:                 "ClearFlow Pro",
			ModelNumber:          "CF-PRO",
			Manufacturer:         "ClearFlow",
			WarrantyPeriodMonths: 18,
			ServiceIntervalDays:  intPtr(120),
		},
	}
}
