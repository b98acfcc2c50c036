package repositories

import (
	"context"
	. "warrantyhub/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MachineRepository interface {
	FindReminderCandidates(ctx context.Context, tx *gorm.DB) ([]*Machine, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*Machine, error)
	GetBySerial(ctx context.Context, tx *gorm.DB, serialNumber string) (*Machine, error)
}

type machineRepository struct {
	log logger.Logger
}

func NewMachineRepository() MachineRepository {
	return &machineRepository{
		log: logger.New("machineRepository"),
	}
}

// hydrateMachine preloads everything the warranty calculations read.
func hydrateMachine(db *gorm.DB) *gorm.DB {
	return db.
		Preload("MachineModel").
		Preload("Sale").
		Preload("ServiceRequests.ServiceVisit")
}

// FindReminderCandidates returns sold machines whose customer left an email
// and has not opted out of reminders.
func (r *machineRepository) FindReminderCandidates(
	ctx context.Context,
	tx *gorm.DB,
) ([]*Machine, error) {
	log := r.log.TraceFromContext(ctx).Function("FindReminderCandidates")

	var machines []*Machine
	err := tx.WithContext(ctx).
		Scopes(hydrateMachine).
		Joins("JOIN sales ON sales.machine_id = machines.id AND sales.deleted_at IS NULL").
		Where("sales.customer_email IS NOT NULL").
		Where("TRIM(sales.customer_email) <> ''").
		Where("sales.reminder_opt_out = ?", false).
		Order("machines.serial_number ASC").
		Find(&machines).Error
	if err != nil {
		return nil, log.Err("failed to load reminder candidates", err)
	}

	log.Info("Loaded reminder candidates", "count", len(machines))
	return machines, nil
}

func (r *machineRepository) GetByID(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Machine, error) {
	log := r.log.TraceFromContext(ctx).Function("GetByID")

	var machine Machine
	err := tx.WithContext(ctx).
		Scopes(hydrateMachine).
		First(&machine, "machines.id = ?", id).Error
	if err != nil {
		return nil, log.Err("failed to get machine", err, "machineID", id)
	}

	return &machine, nil
}

func (r *machineRepository) GetBySerial(
	ctx context.Context,
	tx *gorm.DB,
	serialNumber string,
) (*Machine, error) {
	log := r.log.TraceFromContext(ctx).Function("GetBySerial")

	var machine Machine
	err := tx.WithContext(ctx).
		Scopes(hydrateMachine).
		First(&machine, "machines.serial_number = ?", serialNumber).Error
	if err != nil {
		return nil, log.Err("failed to get machine by serial", err, "serialNumber", serialNumber)
	}

	return &machine, nil
}
