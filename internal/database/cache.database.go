package database

import (
	"context"
	"fmt"
	"time"
	"warrantyhub/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
)

// Valkey Database Index Organization
const (
	// GENERAL_CACHE_INDEX (DB 0) - General purpose caching
	GENERAL_CACHE_INDEX = iota

	// AUDIT_CACHE_INDEX (DB 1) - Action log aggregates for dashboards
	AUDIT_CACHE_INDEX

	// LOCKS_CACHE_INDEX (DB 2) - Short lived job locks (reminder batches)
	LOCKS_CACHE_INDEX
)

// initializeCacheDB connects the valkey clients. The cache is optional: an
// empty address leaves every client nil and callers fall back to the database.
func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		log.Warn("cache address or port is empty, running without cache")
		return nil
	}

	log.Info("initializing cache database", "address", address, "port", port)

	clients := []struct {
		target *CacheClient
		index  int
		name   string
	}{
		{&s.Cache.General, GENERAL_CACHE_INDEX, "general"},
		{&s.Cache.Audit, AUDIT_CACHE_INDEX, "audit"},
		{&s.Cache.Locks, LOCKS_CACHE_INDEX, "locks"},
	}

	for _, c := range clients {
		client, err := valkey.NewClient(
			valkey.ClientOption{
				InitAddress: []string{fmt.Sprintf("%s:%d", address, port)},
				SelectDB:    c.index,
			},
		)
		if err != nil {
			return log.Err("failed to create valkey client", err, "cache", c.name)
		}
		*c.target = client
	}

	if config.DatabaseCacheReset != -1 {
		go clearCacheDB(config.DatabaseCacheReset, s.Cache)
	}

	return nil
}

func clearCacheDB(index int, cacheDB Cache) {
	log := logger.New("database").File("cache.database").Function("clearCacheDB")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var client CacheClient
	var dbName string

	switch index {
	case GENERAL_CACHE_INDEX:
		client = cacheDB.General
		dbName = "General"
	case AUDIT_CACHE_INDEX:
		client = cacheDB.Audit
		dbName = "Audit"
	case LOCKS_CACHE_INDEX:
		client = cacheDB.Locks
		dbName = "Locks"
	default:
		log.Warn("Invalid cache database index", "index", index)
		return
	}

	if client == nil {
		return
	}

	if err := client.Do(ctx, client.B().Flushdb().Build()).Error(); err != nil {
		log.Er("Failed to clear cache database", err, "index", index, "dbName", dbName)
		return
	}

	log.Info("Successfully cleared cache database", "index", index, "dbName", dbName)
}
