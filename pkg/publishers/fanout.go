package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/heimat-hq/listings-watcher/internal/logger"
)

// ErrUnrouted is returned when no publisher accepts an event's watch.
var ErrUnrouted = errors.New("no publisher routes this watch")

// Route binds a publisher to the watches it receives events for. No watches
// means every watch.
type Route struct {
	Publisher Publisher
	Watches   []string
}

func (r Route) accepts(watchID string) bool {
	return len(r.Watches) == 0 || slices.Contains(r.Watches, watchID)
}

// Fanout delivers listing events to every publisher routing the event's watch.
type Fanout struct {
	routes []Route
	log    logger.Logger
}

// NewFanout drops routes without a publisher.
func NewFanout(routes []Route, log logger.Logger) *Fanout {
	kept := make([]Route, 0, len(routes))
	for _, r := range routes {
		if r.Publisher != nil {
			kept = append(kept, r)
		}
	}
	return &Fanout{routes: kept, log: logger.Ensure(log)}
}

// Publish returns how many routed publishers accepted evt. Failures of single
// publishers are joined into the error; the others still receive the event.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil {
		return 0, nil
	}

	var (
		errs      []error
		routed    int
		delivered int
	)
	for _, r := range f.routes {
		if !r.accepts(evt.WatchID) {
			continue
		}
		routed++
		if err := r.Publisher.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher %q: %w", r.Publisher.Type(), r.Publisher.ID(), err))
			continue
		}
		delivered++
	}
	if routed == 0 {
		return 0, fmt.Errorf("watch %q: %w", evt.WatchID, ErrUnrouted)
	}

	if len(errs) > 0 {
		f.log.WarnObj("listing event not delivered everywhere", "publish_result", map[string]any{
			"watch_id":   evt.WatchID,
			"listing_id": evt.ListingID,
			"routed":     routed,
			"delivered":  delivered,
		})
	}
	return delivered, errors.Join(errs...)
}

// Covers reports whether at least one publisher routes watchID.
func (f *Fanout) Covers(watchID string) bool {
	if f == nil {
		return false
	}
	return slices.ContainsFunc(f.routes, func(r Route) bool { return r.accepts(watchID) })
}

// Size returns the number of publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.routes)
}

// Close releases publishers that hold client connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, r := range f.routes {
		c, ok := r.Publisher.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s publisher %q: %w", r.Publisher.Type(), r.Publisher.ID(), err))
		}
	}
	return errors.Join(errs...)
}
