package watcher

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic change detection
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/heimat-hq/listings-watcher/internal/logger"
	"github.com/heimat-hq/listings-watcher/pkg/listings"
	"github.com/heimat-hq/listings-watcher/pkg/publishers"
	"github.com/heimat-hq/listings-watcher/pkg/watchlist"
)

// Service runs watch passes: fetch listings, detect changes, publish events.
type Service struct {
	fetcher   ListingFetcher
	publisher EventPublisher
	deduper   Deduper
	log       logger.Logger
}

// Stats summarizes one watch pass.
type Stats struct {
	Fetched   int
	Changed   int
	Published int
}

// NewService wires a watcher. A nil deduper publishes every listing on every pass.
func NewService(fetcher ListingFetcher, publisher EventPublisher, log logger.Logger, deduper Deduper) *Service {
	return &Service{
		fetcher:   fetcher,
		publisher: publisher,
		deduper:   deduper,
		log:       logger.Ensure(log),
	}
}

// Run executes a pass over all watches. Failures of one watch do not stop the others.
func (s *Service) Run(ctx context.Context, watches []watchlist.Watch) error {
	if s == nil || s.fetcher == nil {
		return fmt.Errorf("watcher service is not initialized")
	}
	if len(watches) == 0 {
		return fmt.Errorf("no watches configured")
	}

	errs := s.runAll(ctx, watches)
	return errors.Join(errs...)
}

func (s *Service) runAll(ctx context.Context, watches []watchlist.Watch) []error {
	var errs []error
	for _, w := range watches {
		if ctx.Err() != nil {
			return errs
		}
		stats, err := s.runWatch(ctx, w)
		if err != nil {
			errs = append(errs, fmt.Errorf("watch %s: %w", w.ID, err))
			s.log.ErrorObj("watch pass failed", "watch_error", map[string]any{
				"watch_id": w.ID,
				"error":    err.Error(),
			})
		}
		s.log.InfoObj("watch pass completed", "watch_result", map[string]any{
			"watch_id":  w.ID,
			"fetched":   stats.Fetched,
			"changed":   stats.Changed,
			"published": stats.Published,
		})
	}
	return errs
}

func (s *Service) runWatch(ctx context.Context, w watchlist.Watch) (Stats, error) {
	var (
		stats Stats
		errs  []error
	)
	batches := w.Batches()
	delay := w.RequestDelay()

	for i, ids := range batches {
		resp, err := s.fetcher.Fetch(ctx, ids)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch %v: %w", ids, err))
		} else {
			stats.Fetched += len(resp.Listings)
			if err := s.processListings(ctx, w, resp.Listings, &stats); err != nil {
				errs = append(errs, err)
			}
		}

		if delay > 0 && i < len(batches)-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return stats, errors.Join(append(errs, ctx.Err())...)
			case <-timer.C:
			}
		}
	}
	return stats, errors.Join(errs...)
}

func (s *Service) processListings(ctx context.Context, w watchlist.Watch, items []listings.OuterListing, stats *Stats) error {
	var errs []error
	for _, l := range items {
		fp, err := Fingerprint(l.Listing)
		if err != nil {
			errs = append(errs, fmt.Errorf("listing %s: %w", l.ID, err))
			continue
		}
		if !s.changed(w, l.ID, fp) {
			continue
		}
		stats.Changed++

		if s.publisher == nil {
			continue
		}
		delivered, err := s.publisher.Publish(ctx, publishers.NewEvent(w.ID, w.Name, l, fp))
		if err != nil {
			errs = append(errs, fmt.Errorf("publish listing %s: %w", l.ID, err))
		}
		if delivered == 0 {
			continue
		}
		stats.Published++

		if s.deduper != nil {
			if err := s.deduper.Mark(l.ID, fp); err != nil {
				errs = append(errs, fmt.Errorf("mark listing %s: %w", l.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

// changed treats lookup failures as changes so a broken store never hides updates.
func (s *Service) changed(w watchlist.Watch, id, fp string) bool {
	if s.deduper == nil {
		return true
	}
	changed, err := s.deduper.Changed(id, fp)
	if err != nil {
		s.log.WarnObj("dedupe lookup failed", "dedupe_error", map[string]any{
			"watch_id":   w.ID,
			"listing_id": id,
			"error":      err.Error(),
		})
		return true
	}
	return changed
}

// Fingerprint hashes the canonical JSON encoding of a listing.
func Fingerprint(l listings.ExtendedListing) (string, error) {
	raw, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encode listing: %w", err)
	}
	sum := sha1.Sum(raw) //nolint:gosec
	return hex.EncodeToString(sum[:]), nil
}
