package cli

import (
	"context"
	"fmt"

	"recruit-assistant/analytics"
	"recruit-assistant/config"
	"recruit-assistant/database"

	"go.uber.org/zap"
)

// openStore connects the analytics backend selected by ANALYTICS_BACKEND.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (analytics.Store, error) {
	switch cfg.AnalyticsBackend {
	case config.BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("analytics backend %q requires DATABASE_URL", cfg.AnalyticsBackend)
		}
		store, err := database.NewPostgresStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure analytics schema: %w", err)
		}
		return store, nil

	case config.BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("analytics backend %q requires REDIS_URL or KV_REST_API_URL", cfg.AnalyticsBackend)
		}
		opts, err := analytics.RedisOptions(cfg.RedisURL, cfg.KVRestAPIToken)
		if err != nil {
			return nil, err
		}
		store, err := analytics.NewRedisStore(ctx, opts, cfg.AnalyticsRetention(), logger)
		if err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendMemory, "":
		logger.Warn("Using in-memory analytics; recorded questions are lost on restart")
		return analytics.NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown analytics backend %q", cfg.AnalyticsBackend)
	}
}
