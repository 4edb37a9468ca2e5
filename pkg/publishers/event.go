package publishers

import (
	"time"

	"github.com/heimat-hq/listings-watcher/pkg/listings"
)

// Event is the payload published when a watched listing is new or changed.
type Event struct {
	WatchID     string                   `json:"watch_id"`
	WatchName   string                   `json:"watch_name"`
	ListingID   string                   `json:"listing_id"`
	Fingerprint string                   `json:"fingerprint"`
	Listing     listings.ExtendedListing `json:"listing"`
	ObservedAt  time.Time                `json:"observed_at"`
}

// NewEvent constructs an Event for a listing observed by a watch.
func NewEvent(watchID, watchName string, l listings.OuterListing, fingerprint string) Event {
	return Event{
		WatchID:     watchID,
		WatchName:   watchName,
		ListingID:   l.ID,
		Fingerprint: fingerprint,
		Listing:     l.Listing,
		ObservedAt:  time.Now().UTC(),
	}
}

// attributes are the non-empty routing keys attached to messages, so
// subscribers can filter by watch or locale without decoding the body.
func (e Event) attributes() map[string]string {
	out := make(map[string]string, 3)
	if e.WatchID != "" {
		out["watch_id"] = e.WatchID
	}
	if e.ListingID != "" {
		out["listing_id"] = e.ListingID
	}
	if locale := e.Listing.Localization.Primary; locale != "" {
		out["primary_locale"] = locale
	}
	return out
}
