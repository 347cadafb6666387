package docstore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tornado/internal/config"
)

// Open builds the store selected by cfg. Network backends are wrapped in a
// Breaker when cfg.Breaker is set.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		store   Store
		network bool
	)
	switch cfg.Backend {
	case "", "sqlite":
		s, err := OpenSQLite(cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		store = s
	case "remote":
		if cfg.URL == "" {
			return nil, fmt.Errorf("store backend remote needs store.url")
		}
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		store = NewRemoteStore(cfg.URL, &http.Client{Timeout: timeout}, logger)
		network = true
	case "dynamodb":
		s, err := NewDynamoStore(ctx, DynamoOptions{Table: cfg.Table, Region: cfg.Region, Endpoint: cfg.Endpoint}, logger)
		if err != nil {
			return nil, err
		}
		store = s
		network = true
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	logger.Info("document store opened", zap.String("backend", cfg.Backend))
	if network && cfg.Breaker {
		store = NewBreaker(store, DefaultBreakerConfig("docstore-"+cfg.Backend), logger)
	}
	return store, nil
}
