package publishers

import (
	"context"
	"fmt"

	"github.com/heimat-hq/listings-watcher/internal/logger"
)

// Builder creates a Publisher from a validated config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)

// Builders maps publisher types to their constructors.
type Builders map[string]Builder

// DefaultBuilders knows every supported publisher type.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:   newHTTPPublisher,
		TypeSQS:    newSQSPublisher,
		TypeSNS:    newSNSPublisher,
		TypePubSub: newPubSubPublisher,
	}
}

func (b Builders) build(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	fn, ok := b[cfg.Type]
	if !ok || fn == nil {
		return nil, fmt.Errorf("publisher %q: no builder for type %q", cfg.ID, cfg.Type)
	}
	pub, err := fn(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build %s publisher %q: %w", cfg.Type, cfg.ID, err)
	}
	return pub, nil
}

// Connect builds a publisher per config and routes them through one Fanout.
// If any build fails the publishers built so far are closed.
func Connect(ctx context.Context, builders Builders, cfgs []PublisherConfig, log logger.Logger) (*Fanout, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log = logger.Ensure(log)

	routes := make([]Route, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := builders.build(ctx, cfg, log)
		if err != nil {
			_ = NewFanout(routes, log).Close()
			return nil, err
		}
		routes = append(routes, Route{Publisher: pub, Watches: cfg.Watches})
	}
	return NewFanout(routes, log), nil
}
