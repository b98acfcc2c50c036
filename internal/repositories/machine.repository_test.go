package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"
	"warrantyhub/internal/models"
	"warrantyhub/internal/repositories"
	"warrantyhub/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMachineRepository_FindReminderCandidates(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewMachineRepository()
	ctx := context.Background()
	saleDate := time.Now().UTC().AddDate(0, 0, -100)

	eligible := testutil.CreateMachine(t, db.SQL, testutil.MachineFixture{
		Serial:               "SN-A",
		WarrantyPeriodMonths: 12,
		SaleDate:             &saleDate,
		CustomerName:         "Ada",
		CustomerEmail:        "ada@example.com",
		Visits: []testutil.VisitFixture{
			{Status: models.ServiceRequestStatusCompleted, Date: saleDate.AddDate(0, 0, 30), Cost: 40},
		},
	})
	testutil.CreateMachine(t, db.SQL, testutil.MachineFixture{
		Serial:               "SN-B",
		WarrantyPeriodMonths: 12,
		SaleDate:             &saleDate,
		CustomerName:         "Opted Out",
		CustomerEmail:        "out@example.com",
		ReminderOptOut:       true,
	})
	testutil.CreateMachine(t, db.SQL, testutil.MachineFixture{
		Serial:               "SN-C",
		WarrantyPeriodMonths: 12,
		SaleDate:             &saleDate,
		CustomerName:         "No Email",
	})
	testutil.CreateMachine(t, db.SQL, testutil.MachineFixture{
		Serial:               "SN-D",
		WarrantyPeriodMonths: 12,
	})

	candidates, err := repo.FindReminderCandidates(ctx, db.SQL)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	candidate := candidates[0]
	assert.Equal(t, eligible.ID, candidate.ID)
	require.NotNil(t, candidate.Sale)
	require.NotNil(t, candidate.MachineModel)
	assert.Equal(t, "ada@example.com", candidate.CustomerEmail())
	require.Len(t, candidate.ServiceRequests, 1)
	require.NotNil(t, candidate.ServiceRequests[0].ServiceVisit)
	assert.Len(t, candidate.CompletedVisits(), 1)
}

func TestMachineRepository_GetByIDAndSerial(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewMachineRepository()
	ctx := context.Background()
	saleDate := time.Now().UTC().AddDate(0, -2, 0)

	created := testutil.CreateMachine(t, db.SQL, testutil.MachineFixture{
		Serial:               "SN-LOOKUP",
		WarrantyPeriodMonths: 24,
		SaleDate:             &saleDate,
		CustomerName:         "Grace",
		CustomerEmail:        "grace@example.com",
	})

	byID, err := repo.GetByID(ctx, db.SQL, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "SN-LOOKUP", byID.SerialNumber)
	assert.Equal(t, 24, byID.WarrantyPeriodMonths())

	bySerial, err := repo.GetBySerial(ctx, db.SQL, "SN-LOOKUP")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySerial.ID)
	assert.True(t, bySerial.IsSold())

	_, err = repo.GetByID(ctx, db.SQL, uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestSaleRepository_SetReminderOptOut(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repositories.NewSaleRepository()
	ctx := context.Background()
	saleDate := time.Now().UTC().AddDate(0, -1, 0)

	machine := testutil.CreateMachine(t, db.SQL, testutil.MachineFixture{
		WarrantyPeriodMonths: 12,
		SaleDate:             &saleDate,
		CustomerName:         "Linus",
		CustomerEmail:        "linus@example.com",
	})

	require.NoError(t, repo.SetReminderOptOut(ctx, db.SQL, machine.ID, true))

	sale, err := repo.GetByMachineID(ctx, db.SQL, machine.ID)
	require.NoError(t, err)
	assert.True(t, sale.ReminderOptOut)

	unsold := testutil.CreateMachine(t, db.SQL, testutil.MachineFixture{WarrantyPeriodMonths: 12})
	err = repo.SetReminderOptOut(ctx, db.SQL, unsold.ID, true)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
