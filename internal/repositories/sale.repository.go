package repositories

import (
	"context"
	. "warrantyhub/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	GetByMachineID(ctx context.Context, tx *gorm.DB, machineID uuid.UUID) (*Sale, error)
	SetReminderOptOut(ctx context.Context, tx *gorm.DB, machineID uuid.UUID, optOut bool) error
}

type saleRepository struct {
	log logger.Logger
}

func NewSaleRepository() SaleRepository {
	return &saleRepository{
		log: logger.New("saleRepository"),
	}
}

func (r *saleRepository) GetByMachineID(
	ctx context.Context,
	tx *gorm.DB,
	machineID uuid.UUID,
) (*Sale, error) {
	log := r.log.TraceFromContext(ctx).Function("GetByMachineID")

	sale, err := gorm.G[Sale](tx).Where("machine_id = ?", machineID).First(ctx)
	if err != nil {
		return nil, log.Err("failed to get sale", err, "machineID", machineID)
	}

	return &sale, nil
}

// SetReminderOptOut flips the customer-controlled suppression flag. It
// returns gorm.ErrRecordNotFound when the machine was never sold.
func (r *saleRepository) SetReminderOptOut(
	ctx context.Context,
	tx *gorm.DB,
	machineID uuid.UUID,
	optOut bool,
) error {
	log := r.log.TraceFromContext(ctx).Function("SetReminderOptOut")

	result := tx.WithContext(ctx).
		Model(&Sale{}).
		Where("machine_id = ?", machineID).
		Update("reminder_opt_out", optOut)
	if result.Error != nil {
		return log.Err("failed to update reminder opt-out", result.Error, "machineID", machineID)
	}

	if result.RowsAffected == 0 {
		return log.Err("no sale found for machine", gorm.ErrRecordNotFound, "machineID", machineID)
	}

	log.Info("Updated reminder opt-out", "machineID", machineID, "optOut", optOut)
	return nil
}
