package warrantyController

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"warrantyhub/config"
	"warrantyhub/internal/database"
	. "warrantyhub/internal/models"
	"warrantyhub/internal/repositories"
	"warrantyhub/internal/services"
	"warrantyhub/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

const viewSource = "warranty_page"

type WarrantyStatusResponse struct {
	MachineID    uuid.UUID `json:"machineId"`
	SerialNumber string    `json:"serialNumber"`
	MachineName  string    `json:"machineName"`
	Sold         bool      `json:"sold"`
	types.WarrantyStatus
}

type WarrantyControllerInterface interface {
	GetWarrantyStatus(ctx context.Context, machineID string) (*WarrantyStatusResponse, error)
	GetWarrantyStatusBySerial(ctx context.Context, serialNumber string) (*WarrantyStatusResponse, error)
}

type WarrantyController struct {
	machineRepo   repositories.MachineRepository
	actionLogRepo repositories.ActionLogRepository
	warranty      *services.WarrantyHelper
	db            database.DB
	log           logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) WarrantyControllerInterface {
	return &WarrantyController{
		machineRepo:   repos.Machine,
		actionLogRepo: repos.ActionLog,
		warranty:      services.Warranty,
		db:            db,
		log:           logger.New("warrantyController"),
	}
}

// GetWarrantyStatus derives the machine's current warranty health and
// records the view. A failed audit write does not fail the read.
func (c *WarrantyController) GetWarrantyStatus(
	ctx context.Context,
	machineID string,
) (*WarrantyStatusResponse, error) {
	log := c.log.TraceFromContext(ctx).Function("GetWarrantyStatus")

	id, err := uuid.Parse(machineID)
	if err != nil {
		log.Warn("invalid machine id", "machineID", machineID)
		return nil, fmt.Errorf("%w: invalid machine id", ErrValidation)
	}

	machine, err := c.machineRepo.GetByID(ctx, c.db.SQL, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: machine %s", ErrNotFound, id)
		}
		return nil, log.Err("failed to load machine", err, "machineID", id)
	}

	return c.statusFor(ctx, log, machine), nil
}

// GetWarrantyStatusBySerial is the lookup used when only the plate serial
// number is known.
func (c *WarrantyController) GetWarrantyStatusBySerial(
	ctx context.Context,
	serialNumber string,
) (*WarrantyStatusResponse, error) {
	log := c.log.TraceFromContext(ctx).Function("GetWarrantyStatusBySerial")

	serialNumber = strings.TrimSpace(serialNumber)
	if serialNumber == "" {
		log.Warn("empty serial number")
		return nil, fmt.Errorf("%w: serial number is required", ErrValidation)
	}

	machine, err := c.machineRepo.GetBySerial(ctx, c.db.SQL, serialNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: machine %s", ErrNotFound, serialNumber)
		}
		return nil, log.Err("failed to load machine", err, "serialNumber", serialNumber)
	}

	return c.statusFor(ctx, log, machine), nil
}

func (c *WarrantyController) statusFor(
	ctx context.Context,
	log logger.Logger,
	machine *Machine,
) *WarrantyStatusResponse {
	status := c.warranty.GetWarrantyStatus(machine)

	viewed := &ActionLog{
		MachineID:  machine.ID,
		ActionType: ActionTypeWarrantyViewed,
		Channel:    ChannelWeb,
	}
	if err := viewed.SetMetadata(&WarrantyViewedMetadata{
		HealthScore:    &status.HealthScore,
		WarrantyActive: &status.WarrantyActive,
		Source:         viewSource,
	}); err != nil {
		log.Warn("failed to encode warranty view metadata", "error", err)
	} else if err := c.actionLogRepo.Create(ctx, c.db.SQL, viewed); err != nil {
		log.Warn("failed to record warranty view", "machineID", machine.ID, "error", err)
	}

	return &WarrantyStatusResponse{
		MachineID:      machine.ID,
		SerialNumber:   machine.SerialNumber,
		MachineName:    machine.DisplayName(),
		Sold:           machine.IsSold(),
		WarrantyStatus: status,
	}
}
