// Package testutil provides an in-memory SQLite database and fixtures for
// package tests. It is only imported from _test.go files.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"warrantyhub/internal/database"
	"warrantyhub/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens a private shared-cache in-memory database and migrates every model.
func NewTestDB(t *testing.T) database.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())

	gormDB, err := gorm.Open(sqlite.Open(dsn), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := database.NewFromGorm(gormDB)
	require.NoError(t, db.MigrateModels())

	return db
}

type MachineFixture struct {
	Serial               string
	ModelName            string
	WarrantyPeriodMonths int
	SaleDate             *time.Time
	CustomerName         string
	CustomerEmail        string
	ReminderOptOut       bool
	Visits               []VisitFixture
}

type VisitFixture struct {
	Status models.ServiceRequestStatus
	Date   time.Time
	Cost   int64
}

// CreateMachine persists a machine with its model, optional sale and visits
// and returns it fully hydrated.
func CreateMachine(t *testing.T, db *gorm.DB, fixture MachineFixture) *models.Machine {
	t.Helper()

	if fixture.Serial == "" {
		fixture.Serial = "SN-" + uuid.NewString()[:8]
	}
	if fixture.ModelName == "" {
		fixture.ModelName = "AquaPure 500"
	}

	machineModel := &models.MachineModel{
		Name:                 fixture.ModelName,
		ModelNumber:          "MM-" + uuid.NewString()[:8],
		Manufacturer:         "Acme",
		WarrantyPeriodMonths: fixture.WarrantyPeriodMonths,
	}
	require.NoError(t, db.Create(machineModel).Error)

	machine := &models.Machine{
		SerialNumber:   fixture.Serial,
		MachineModelID: machineModel.ID,
	}
	require.NoError(t, db.Create(machine).Error)

	if fixture.SaleDate != nil {
		sale := &models.Sale{
			MachineID:      machine.ID,
			SaleDate:       fixture.SaleDate.UTC(),
			CustomerName:   fixture.CustomerName,
			ReminderOptOut: fixture.ReminderOptOut,
		}
		if fixture.CustomerEmail != "" {
			email := fixture.CustomerEmail
			sale.CustomerEmail = &email
		}
		require.NoError(t, db.Create(sale).Error)
	}

	for _, visit := range fixture.Visits {
		request := &models.ServiceRequest{
			MachineID: machine.ID,
			Status:    visit.Status,
			Complaint: "routine service",
		}
		require.NoError(t, db.Create(request).Error)

		visitDate := visit.Date.UTC()
		require.NoError(t, db.Create(&models.ServiceVisit{
			ServiceRequestID: request.ID,
			ServiceVisitDate: &visitDate,
			TotalCost:        decimal.NewFromInt(visit.Cost),
			EngineerName:     "Sam Engineer",
		}).Error)
	}

	var hydrated models.Machine
	require.NoError(t, db.
		Preload("MachineModel").
		Preload("Sale").
		Preload("ServiceRequests.ServiceVisit").
		First(&hydrated, "id = ?", machine.ID).Error)

	return &hydrated
}

func TimePtr(t time.Time) *time.Time {
	return &t
}
