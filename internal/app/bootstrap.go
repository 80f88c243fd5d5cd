package app

import (
	"context"
	"fmt"

	"pnl-engine/internal/config"
	"pnl-engine/internal/core"
	"pnl-engine/internal/db"
	"pnl-engine/internal/lock"
	"pnl-engine/internal/logging"

	"github.com/sirupsen/logrus"
)

// Open wires an ApplicationService from configuration: Postgres when DatabaseURL is set,
// otherwise the JSON snapshot at DataFile, plus the Redis pass lock when configured.
// The returned cleanup closes every connection it opened.
func Open(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (ApplicationService, func(), error) {
	var (
		store   core.ReconciliationStore
		cash    core.CashStore
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		closers = append(closers, pool.Close)
		store = core.NewReconciliationStore(pool)
		cash = core.NewCashStore(pool)
		logger.Info("using postgres store")
	} else {
		snap, err := core.LoadSnapshotFile(cfg.DataFile)
		if err != nil {
			return nil, nil, fmt.Errorf("DATABASE_URL not set and snapshot unavailable: %w", err)
		}
		mem, err := core.NewMemoryStore(snap)
		if err != nil {
			return nil, nil, err
		}
		store, cash = mem, mem
		logger.WithField("file", cfg.DataFile).Info("using snapshot store")
	}

	locker, closeLocker := lock.NewLocker(ctx, cfg.RedisAddress, logger)
	closers = append(closers, func() {
		if err := closeLocker(); err != nil {
			logging.LogError(logger, "app", "Open", "closing redis client", nil, err)
		}
	})

	return NewAppService(store, cash, locker, cfg, WithLogger(logger)), cleanup, nil
}
