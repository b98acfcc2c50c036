package actionLogController

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"warrantyhub/config"
	"warrantyhub/internal/constants"
	"warrantyhub/internal/database"
	. "warrantyhub/internal/models"
	"warrantyhub/internal/repositories"
	"warrantyhub/internal/services"
	"warrantyhub/internal/types"
	"warrantyhub/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

type LogActionRequest struct {
	MachineID  string          `json:"machineId"  validate:"required,uuid"`
	ActionType string          `json:"actionType" validate:"required,action_type"`
	Channel    string          `json:"channel"    validate:"required,channel"`
	Metadata   json.RawMessage `json:"metadata"`
}

type ListActionsQuery struct {
	MachineID  string `json:"machineId"  query:"machineId"  validate:"omitempty,uuid"`
	ActionType string `json:"actionType" query:"actionType" validate:"omitempty,action_type"`
	Channel    string `json:"channel"    query:"channel"    validate:"omitempty,channel"`
	From       string `json:"from"       query:"from"`
	To         string `json:"to"         query:"to"`
	Limit      int    `json:"limit"      query:"limit"`
}

type ActionLogControllerInterface interface {
	LogAction(ctx context.Context, request *LogActionRequest, operator bool) (*ActionLog, error)
	ListActions(ctx context.Context, query *ListActionsQuery) ([]*ActionLog, error)
	GetStats(ctx context.Context, from string, to string) (*types.ActionLogStats, error)
}

type ActionLogController struct {
	actionLogRepo repositories.ActionLogRepository
	machineRepo   repositories.MachineRepository
	db            database.DB
	validate      *validator.Validate
	location      *time.Location
	Now           services.Clock
	log           logger.Logger
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) ActionLogControllerInterface {
	location, err := config.Location()
	if err != nil {
		location = time.UTC
	}

	return &ActionLogController{
		actionLogRepo: repos.ActionLog,
		machineRepo:   repos.Machine,
		db:            db,
		validate:      utils.NewValidator(),
		location:      location,
		Now:           time.Now,
		log:           logger.New("actionLogController"),
	}
}

func validationError(log logger.Logger, message string, args ...any) error {
	log.Warn(message, args...)
	return fmt.Errorf("%w: %s", ErrValidation, message)
}

// LogAction records a client-reported action. System-only action types are
// accepted from operators only.
func (c *ActionLogController) LogAction(
	ctx context.Context,
	request *LogActionRequest,
	operator bool,
) (*ActionLog, error) {
	log := c.log.TraceFromContext(ctx).Function("LogAction")

	if err := c.validate.Struct(request); err != nil {
		return nil, validationError(log, utils.ValidationMessage(err))
	}

	machineID := uuid.MustParse(request.MachineID)
	actionType := ActionType(request.ActionType)

	if actionType.SystemOnly() && !operator {
		log.Warn("rejected system-only action from public caller", "actionType", actionType, "machineID", machineID)
		return nil, fmt.Errorf("%w: actionType %s requires operator credentials", ErrUnauthorized, actionType)
	}

	metadata, err := ParseActionMetadata(actionType, request.Metadata)
	if err != nil {
		return nil, validationError(log, "Invalid metadata", "error", err)
	}

	if _, err := c.machineRepo.GetByID(ctx, c.db.SQL, machineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: machine %s", ErrNotFound, machineID)
		}
		return nil, log.Err("failed to load machine", err, "machineID", machineID)
	}

	actionLog := &ActionLog{
		MachineID:  machineID,
		ActionType: actionType,
		Channel:    Channel(request.Channel),
	}
	if err := actionLog.SetMetadata(metadata); err != nil {
		return nil, validationError(log, "Invalid metadata", "error", err)
	}

	if err := c.actionLogRepo.Create(ctx, c.db.SQL, actionLog); err != nil {
		return nil, log.Err("failed to log action", err, "machineID", machineID)
	}

	return actionLog, nil
}

func (c *ActionLogController) ListActions(
	ctx context.Context,
	query *ListActionsQuery,
) ([]*ActionLog, error) {
	log := c.log.TraceFromContext(ctx).Function("ListActions")

	if err := c.validate.Struct(query); err != nil {
		return nil, validationError(log, utils.ValidationMessage(err))
	}

	filter := repositories.ActionLogFilter{
		Limit: repositories.NormalizeActionLogLimit(query.Limit),
	}

	if query.MachineID != "" {
		machineID := uuid.MustParse(query.MachineID)
		filter.MachineID = &machineID
	}
	if query.ActionType != "" {
		actionType := ActionType(query.ActionType)
		filter.ActionType = &actionType
	}
	if query.Channel != "" {
		channel := Channel(query.Channel)
		filter.Channel = &channel
	}

	var err error
	if filter.From, err = utils.ParseOptionalTimeParam(query.From, c.location); err != nil {
		return nil, validationError(log, "Invalid from", "error", err)
	}
	if filter.To, err = utils.ParseOptionalTimeParam(query.To, c.location); err != nil {
		return nil, validationError(log, "Invalid to", "error", err)
	}

	actions, err := c.actionLogRepo.List(ctx, c.db.SQL, filter)
	if err != nil {
		return nil, log.Err("failed to list actions", err)
	}

	return actions, nil
}

// GetStats aggregates the audit trail over [from, to). Both bounds are
// optional; the default window is the last 30 days.
func (c *ActionLogController) GetStats(
	ctx context.Context,
	from string,
	to string,
) (*types.ActionLogStats, error) {
	log := c.log.TraceFromContext(ctx).Function("GetStats")

	end := c.Now().UTC()
	if to != "" {
		parsed, err := utils.ParseTimeParam(to, c.location)
		if err != nil {
			return nil, validationError(log, "Invalid to", "error", err)
		}
		end = parsed.UTC()
	}

	start := end.AddDate(0, 0, -constants.DefaultStatsRangeDays)
	if from != "" {
		parsed, err := utils.ParseTimeParam(from, c.location)
		if err != nil {
			return nil, validationError(log, "Invalid from", "error", err)
		}
		start = parsed.UTC()
	}

	if !start.Before(end) {
		return nil, validationError(log, "from must be before to", "from", start, "to", end)
	}

	stats, err := c.actionLogRepo.Stats(ctx, c.db.SQL, start, end)
	if err != nil {
		return nil, log.Err("failed to load action stats", err)
	}

	return stats, nil
}
