package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gearsync/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// CatalogSyncTriggerConfig
// ---------------------------------------------------------------------------

// CatalogSyncTriggerConfig holds configuration for the periodic trigger
type CatalogSyncTriggerConfig struct {
	// SyncInterval is how often each platform gets a detection pass
	SyncInterval time.Duration
	// CheckInterval is how often the trigger evaluates the schedule
	CheckInterval time.Duration
}

// DefaultCatalogSyncTriggerConfig returns default configuration
func DefaultCatalogSyncTriggerConfig() CatalogSyncTriggerConfig {
	return CatalogSyncTriggerConfig{
		SyncInterval:  15 * time.Minute,
		CheckInterval: time.Minute,
	}
}

// ---------------------------------------------------------------------------
// CatalogSyncTrigger
// ---------------------------------------------------------------------------

// CatalogSyncTrigger schedules a detection pass for every configured
// marketplace once per sync interval.
type CatalogSyncTrigger struct {
	config    CatalogSyncTriggerConfig
	scheduler *CatalogSyncScheduler
	platforms integration.PlatformRegistry
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Track last scheduled time per platform to avoid duplicate scheduling
	lastScheduledMu sync.RWMutex
	lastScheduled   map[integration.PlatformCode]time.Time
}

// NewCatalogSyncTrigger creates a new catalog sync trigger
func NewCatalogSyncTrigger(
	config CatalogSyncTriggerConfig,
	scheduler *CatalogSyncScheduler,
	platforms integration.PlatformRegistry,
	logger *zap.Logger,
) *CatalogSyncTrigger {
	if config.SyncInterval <= 0 {
		config.SyncInterval = DefaultCatalogSyncTriggerConfig().SyncInterval
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultCatalogSyncTriggerConfig().CheckInterval
	}
	return &CatalogSyncTrigger{
		config:        config,
		scheduler:     scheduler,
		platforms:     platforms,
		logger:        logger,
		lastScheduled: make(map[integration.PlatformCode]time.Time),
	}
}

// Start starts the trigger
func (c *CatalogSyncTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Catalog sync trigger started",
		zap.Duration("sync_interval", c.config.SyncInterval),
		zap.Duration("check_interval", c.config.CheckInterval),
	)

	return nil
}

// Stop stops the trigger
func (c *CatalogSyncTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Catalog sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop periodically checks and schedules detection passes
func (c *CatalogSyncTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	// Run immediately on start
	c.checkAndSchedule()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndSchedule()
		}
	}
}

// checkAndSchedule schedules a pass for every platform whose interval elapsed
func (c *CatalogSyncTrigger) checkAndSchedule() {
	codes := c.platforms.Codes()
	if len(codes) == 0 {
		c.logger.Debug("No platforms configured for catalog sync")
		return
	}

	now := time.Now()
	for _, code := range codes {
		c.lastScheduledMu.RLock()
		last, seen := c.lastScheduled[code]
		c.lastScheduledMu.RUnlock()

		if seen && now.Sub(last) < c.config.SyncInterval {
			continue
		}

		if err := c.scheduler.ScheduleSync(code); err != nil {
			c.logger.Error("Failed to schedule catalog sync",
				zap.String("platform", string(code)),
				zap.Error(err),
			)
			continue
		}

		c.lastScheduledMu.Lock()
		c.lastScheduled[code] = now
		c.lastScheduledMu.Unlock()
	}
}

// TriggerManualSync submits an immediate pass for one platform
func (c *CatalogSyncTrigger) TriggerManualSync(platform integration.PlatformCode) error {
	c.logger.Info("Manual catalog sync triggered",
		zap.String("platform", string(platform)),
	)
	return c.scheduler.ScheduleSync(platform)
}

// TriggerManualSyncAll submits an immediate pass for every platform
func (c *CatalogSyncTrigger) TriggerManualSyncAll() error {
	codes := c.platforms.Codes()
	if len(codes) == 0 {
		return ErrNoPlatformsConfigured
	}

	for _, code := range codes {
		if err := c.scheduler.ScheduleSync(code); err != nil {
			return err
		}
	}

	c.logger.Info("Manual catalog sync triggered for all platforms",
		zap.Int("platforms", len(codes)),
	)
	return nil
}
