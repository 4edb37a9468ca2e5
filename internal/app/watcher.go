package app

import (
	"context"
	"fmt"
	"time"

	"github.com/heimat-hq/listings-watcher/internal/config"
	"github.com/heimat-hq/listings-watcher/internal/logger"
	"github.com/heimat-hq/listings-watcher/internal/storage"
	"github.com/heimat-hq/listings-watcher/internal/watcher"
	"github.com/heimat-hq/listings-watcher/pkg/httpclient"
	"github.com/heimat-hq/listings-watcher/pkg/listings"
	"github.com/heimat-hq/listings-watcher/pkg/publishers"
	"github.com/heimat-hq/listings-watcher/pkg/watchlist"
)

// Watcher is the long-running runtime: it polls every watch on an interval and
// publishes new or changed listings.
type Watcher struct {
	cfg          *config.Config
	watches      *watchlist.Registry
	fanout       *publishers.Fanout
	service      *watcher.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewListingClient builds the listings client from config.
func NewListingClient(cfg *config.Config, log logger.Logger) (*listings.Client, error) {
	var http httpclient.Client
	if cfg.HTTPTrace {
		http = httpclient.NewTracedRestyClient(cfg.HTTPTimeout, log)
	} else {
		http = httpclient.NewRestyClient(cfg.HTTPTimeout)
	}
	client, err := listings.New(cfg.BackendURL, http)
	if err != nil {
		return nil, fmt.Errorf("init listings client: %w", err)
	}
	return client, nil
}

// NewWatcher builds a watcher runtime from config files.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := NewListingClient(cfg, log)
	if err != nil {
		return nil, err
	}

	watches, err := watchlist.Load(cfg.WatchlistFile)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	watchIDs := make([]string, 0, len(watches.All()))
	listingCount := 0
	for _, w := range watches.All() {
		watchIDs = append(watchIDs, w.ID)
		listingCount += len(w.ListingIDs)
	}
	log.InfoObj("watchlist loaded", "watchlist_meta", map[string]any{
		"count":    len(watchIDs),
		"ids":      watchIDs,
		"listings": listingCount,
	})

	publisherSet, err := publishers.Load(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	enabledPublishers := publisherSet.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers enabled")
	}
	if err := checkRoutes(watches, enabledPublishers); err != nil {
		return nil, err
	}

	fanout, err := publishers.Connect(ctx, publishers.DefaultBuilders(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("connect publishers: %w", err)
	}
	publisherSummaries := make([]map[string]any, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]any{
			"id":      pubCfg.ID,
			"type":    pubCfg.Type,
			"watches": pubCfg.Watches,
		})
	}
	log.InfoObj("publishers connected", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		ListingTTL:      cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"listing_ttl_seconds":      int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Watcher{
		cfg:          cfg,
		watches:      watches,
		fanout:       fanout,
		service:      watcher.NewService(client, fanout, log, store),
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// checkRoutes rejects publishers routing unknown watches and watches that no
// publisher routes, since their listings could never be marked as delivered.
func checkRoutes(watches *watchlist.Registry, pubs []publishers.PublisherConfig) error {
	for _, p := range pubs {
		for _, id := range p.Watches {
			if _, ok := watches.ByID(id); !ok {
				return fmt.Errorf("publisher %q routes unknown watch %q", p.ID, id)
			}
		}
	}
	for _, w := range watches.All() {
		routed := false
		for _, p := range pubs {
			if p.Routes(w.ID) {
				routed = true
				break
			}
		}
		if !routed {
			return fmt.Errorf("watch %q has no enabled publisher", w.ID)
		}
	}
	return nil
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.service == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	defer w.close()

	watches := w.watches.All()
	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"watches_count":    len(watches),
		"publishers_count": w.fanout.Size(),
		"poll_interval":    w.pollInterval.String(),
	})

	if err := w.runOnce(ctx, watches); err != nil {
		w.log.ErrorObj("initial pass failed", "error", err)
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := w.runOnce(ctx, watches); err != nil {
				w.log.ErrorObj("scheduled pass failed", "error", err)
			}
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, watches []watchlist.Watch) error {
	start := time.Now()
	w.log.InfoObj("pass started", "pass_meta", map[string]any{
		"watches_count": len(watches),
		"started_at":    start.UTC(),
	})
	if err := w.service.Run(ctx, watches); err != nil {
		return err
	}
	w.log.InfoObj("pass completed", "pass_meta", map[string]any{
		"watches_count": len(watches),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

func (w *Watcher) close() {
	if err := w.fanout.Close(); err != nil {
		w.log.ErrorObj("publisher close failed", "error", err)
	}
	if w.store != nil {
		if err := w.store.Close(); err != nil {
			w.log.ErrorObj("storage close failed", "error", err)
		}
	}
}
