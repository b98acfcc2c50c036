package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"
	"warrantyhub/internal/constants"
	"warrantyhub/internal/database"
	. "warrantyhub/internal/models"
	"warrantyhub/internal/types"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const actionLogStatsVersionKey = "version"

type ActionLogFilter struct {
	MachineID  *uuid.UUID
	ActionType *ActionType
	Channel    *Channel
	From       *time.Time
	To         *time.Time
	Limit      int
}

// NormalizeActionLogLimit applies the default page size and the hard cap.
func NormalizeActionLogLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultActionLogLimit
	}
	if limit > constants.MaxActionLogLimit {
		return constants.MaxActionLogLimit
	}
	return limit
}

// ActionLogRepository is append-only: there are no update or delete methods.
type ActionLogRepository interface {
	Create(ctx context.Context, tx *gorm.DB, actionLog *ActionLog) error
	FindFirst(
		ctx context.Context,
		tx *gorm.DB,
		machineID uuid.UUID,
		actionType ActionType,
		channel Channel,
		from time.Time,
		to time.Time,
	) (*ActionLog, error)
	List(ctx context.Context, tx *gorm.DB, filter ActionLogFilter) ([]*ActionLog, error)
	Stats(ctx context.Context, tx *gorm.DB, from time.Time, to time.Time) (*types.ActionLogStats, error)
}

type actionLogRepository struct {
	cache database.CacheClient
	log   logger.Logger
}

func NewActionLogRepository(cache database.CacheClient) ActionLogRepository {
	return &actionLogRepository{
		cache: cache,
		log:   logger.New("actionLogRepository"),
	}
}

func (r *actionLogRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	actionLog *ActionLog,
) error {
	log := r.log.TraceFromContext(ctx).Function("Create")

	if err := gorm.G[ActionLog](tx).Create(ctx, actionLog); err != nil {
		return log.Err(
			"failed to create action log",
			err,
			"machineID", actionLog.MachineID,
			"actionType", actionLog.ActionType,
		)
	}

	r.invalidateStats(ctx, log)
	return nil
}

// FindFirst returns the earliest entry of the type on the channel in
// [from, to), or nil when there is none.
func (r *actionLogRepository) FindFirst(
	ctx context.Context,
	tx *gorm.DB,
	machineID uuid.UUID,
	actionType ActionType,
	channel Channel,
	from time.Time,
	to time.Time,
) (*ActionLog, error) {
	log := r.log.TraceFromContext(ctx).Function("FindFirst")

	actionLog, err := gorm.G[ActionLog](tx).
		Where("machine_id = ? AND action_type = ? AND channel = ?", machineID, actionType, channel).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at ASC").
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, log.Err(
			"failed to look up action log",
			err,
			"machineID", machineID,
			"actionType", actionType,
			"channel", channel,
		)
	}

	return &actionLog, nil
}

func (r *actionLogRepository) List(
	ctx context.Context,
	tx *gorm.DB,
	filter ActionLogFilter,
) ([]*ActionLog, error) {
	log := r.log.TraceFromContext(ctx).Function("List")

	query := tx.WithContext(ctx).Model(&ActionLog{})
	if filter.MachineID != nil {
		query = query.Where("machine_id = ?", *filter.MachineID)
	}
	if filter.ActionType != nil {
		query = query.Where("action_type = ?", *filter.ActionType)
	}
	if filter.Channel != nil {
		query = query.Where("channel = ?", *filter.Channel)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", filter.To.UTC())
	}

	var actionLogs []*ActionLog
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(NormalizeActionLogLimit(filter.Limit)).
		Find(&actionLogs).Error
	if err != nil {
		return nil, log.Err("failed to list action logs", err)
	}

	return actionLogs, nil
}

type groupCount struct {
	Label string
	Total int64
}

func (r *actionLogRepository) Stats(
	ctx context.Context,
	tx *gorm.DB,
	from time.Time,
	to time.Time,
) (*types.ActionLogStats, error) {
	log := r.log.TraceFromContext(ctx).Function("Stats")

	cacheKey := r.statsCacheKey(ctx, from, to)

	var cached types.ActionLogStats
	cacheEntry := database.NewCacheBuilder(r.cache, cacheKey).
		WithContext(ctx).
		WithHash(constants.ActionLogStatsCachePrefix)
	found, err := cacheEntry.Get(&cached)
	if err != nil && !errors.Is(err, database.ErrCacheUnavailable) {
		log.Warn("discarding unreadable action log stats cache entry", "error", err, "key", cacheEntry.Key())
		if err := cacheEntry.Delete(); err != nil {
			log.Warn("failed to delete action log stats cache entry", "error", err)
		}
	}
	if found {
		return &cached, nil
	}

	stats := &types.ActionLogStats{
		From:         from.UTC(),
		To:           to.UTC(),
		ByActionType: make(map[string]int64, len(ActionTypes)),
		ByChannel:    make(map[string]int64, len(Channels)),
	}
	for _, actionType := range ActionTypes {
		stats.ByActionType[string(actionType)] = 0
	}
	for _, channel := range Channels {
		stats.ByChannel[string(channel)] = 0
	}

	inRange := func(db *gorm.DB) *gorm.DB {
		return db.Model(&ActionLog{}).Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC())
	}

	var byType []groupCount
	err = tx.WithContext(ctx).
		Scopes(inRange).
		Select("action_type AS label, COUNT(*) AS total").
		Group("action_type").
		Scan(&byType).Error
	if err != nil {
		return nil, log.Err("failed to count action logs by type", err)
	}

	var byChannel []groupCount
	err = tx.WithContext(ctx).
		Scopes(inRange).
		Select("channel AS label, COUNT(*) AS total").
		Group("channel").
		Scan(&byChannel).Error
	if err != nil {
		return nil, log.Err("failed to count action logs by channel", err)
	}

	err = tx.WithContext(ctx).
		Scopes(inRange).
		Distinct("machine_id").
		Count(&stats.Machines).Error
	if err != nil {
		return nil, log.Err("failed to count machines in action logs", err)
	}

	for _, row := range byType {
		stats.ByActionType[row.Label] = row.Total
		stats.Total += row.Total
	}
	for _, row := range byChannel {
		stats.ByChannel[row.Label] = row.Total
	}
	stats.RemindersSent = stats.ByActionType[string(ActionTypeReminderSent)]

	err = database.NewCacheBuilder(r.cache, cacheKey).
		WithContext(ctx).
		WithHash(constants.ActionLogStatsCachePrefix).
		WithStruct(stats).
		WithTTL(constants.ActionLogStatsCacheExpiry).
		Set()
	if err != nil && !errors.Is(err, database.ErrCacheUnavailable) {
		log.Warn("failed to cache action log stats", "error", err)
	}

	return stats, nil
}

// statsCacheKey embeds the current stats version so a Create makes every
// cached range stale at once.
func (r *actionLogRepository) statsCacheKey(ctx context.Context, from, to time.Time) string {
	version := "0"
	_, _ = database.NewCacheBuilder(r.cache, actionLogStatsVersionKey).
		WithContext(ctx).
		WithHash(constants.ActionLogStatsCachePrefix).
		Get(&version)

	return fmt.Sprintf("%s:%d:%d", version, from.Unix(), to.Unix())
}

func (r *actionLogRepository) invalidateStats(ctx context.Context, log logger.Logger) {
	err := database.NewCacheBuilder(r.cache, actionLogStatsVersionKey).
		WithContext(ctx).
		WithHash(constants.ActionLogStatsCachePrefix).
		WithStruct(uuid.NewString()).
		WithTTL(24 * time.Hour).
		Set()
	if err != nil && !errors.Is(err, database.ErrCacheUnavailable) {
		log.Warn("failed to invalidate action log stats cache", "error", err)
	}
}
