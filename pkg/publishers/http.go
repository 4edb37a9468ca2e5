package publishers

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/heimat-hq/listings-watcher/internal/logger"
	"github.com/heimat-hq/listings-watcher/pkg/httpclient"
)

// Headers identifying the listing on webhook deliveries.
const (
	HeaderWatchID     = "X-Watch-Id"
	HeaderListingID   = "X-Listing-Id"
	HeaderFingerprint = "X-Listing-Fingerprint"
)

type httpPublisher struct {
	id     string
	sink   HTTPSink
	client *resty.Client
	log    logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	sink := cfg.HTTP.normalized()

	return &httpPublisher{
		id:     cfg.ID,
		sink:   sink,
		client: httpclient.NewRestyHTTPClient(sink.Timeout()),
		log:    logger.Ensure(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

// Publish sends the event as JSON. Configured headers cannot override the
// listing identification headers.
func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	req := h.client.R().
		SetContext(ctx).
		SetHeaders(h.sink.Headers).
		SetHeader("Content-Type", "application/json").
		SetHeader(HeaderListingID, evt.ListingID).
		SetBody(evt)
	if evt.WatchID != "" {
		req.SetHeader(HeaderWatchID, evt.WatchID)
	}
	if evt.Fingerprint != "" {
		req.SetHeader(HeaderFingerprint, evt.Fingerprint)
	}

	resp, err := req.Execute(h.sink.Method, h.sink.URL)
	if err != nil {
		return fmt.Errorf("deliver listing %s: %w", evt.ListingID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("deliver listing %s: status %d: %s", evt.ListingID, resp.StatusCode(), httpclient.Snippet(resp.Body(), 512))
	}
	h.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"watch_id":     evt.WatchID,
		"listing_id":   evt.ListingID,
		"status":       resp.StatusCode(),
	})
	return nil
}
