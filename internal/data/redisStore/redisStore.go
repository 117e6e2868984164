package redisStore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/pkg/logger_i"
	"github.com/redis/go-redis/v9"
)

var (
	instances = make(map[int]*Store)
	mu        sync.RWMutex
	logger    = logger_i.NewLogger("redis_store")
	once      sync.Once
)

type Store struct {
	client *redis.Client
	Type   int
}

// GetRedisStore returns the shared client for one logical redis DB, creating
// it on first use. Clients are closed when ctx is done.
func GetRedisStore(ctx context.Context, settings *config.Settings, dbType int) (*Store, error) {
	mu.RLock()
	instance, exists := instances[dbType]
	mu.RUnlock()
	if exists {
		return instance, nil
	}

	mu.Lock()
	defer mu.Unlock()
	if instance, exists = instances[dbType]; exists {
		return instance, nil
	}
	return createNewStore(ctx, settings, dbType)
}

func closeRedisStores(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Redis Stores")
	mu.Lock()
	defer mu.Unlock()
	for dbType, store := range instances {
		if err := store.client.Close(); err != nil {
			logger.Error("Error closing redis client", "db", dbType, "error", err)
		}
		delete(instances, dbType)
	}
	logger.Info("Redis Store Closed successfully")
}

func createNewStore(ctx context.Context, settings *config.Settings, dbType int) (*Store, error) {
	newClient := redis.NewClient(&redis.Options{
		Addr:                  settings.RedisAddr,
		Password:              settings.RedisPassword,
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := newClient.Ping(pingCtx).Err(); err != nil {
		_ = newClient.Close()
		return nil, fmt.Errorf("redis db %d is offline: %w", dbType, err)
	}

	logger.Info("Redis client ready", "addr", settings.RedisAddr, "db", dbType)
	newStore := &Store{client: newClient, Type: dbType}
	instances[dbType] = newStore
	once.Do(func() {
		go closeRedisStores(ctx)
	})
	return newStore, nil
}

// NewTestStore wraps an existing client, for miniredis-backed tests.
func NewTestStore(client *redis.Client) *Store {
	return &Store{client: client}
}
