package watcher

import (
	"context"

	"github.com/heimat-hq/listings-watcher/pkg/listings"
	"github.com/heimat-hq/listings-watcher/pkg/publishers"
)

// ListingFetcher retrieves listings by id.
type ListingFetcher interface {
	Fetch(ctx context.Context, ids []string) (listings.ListingResponse, error)
}

// EventPublisher publishes listing events downstream and reports how many sinks accepted them.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which listing versions were already published.
type Deduper interface {
	Changed(id, fingerprint string) (bool, error)
	Mark(id, fingerprint string) error
}
