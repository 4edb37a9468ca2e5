package storage

import (
	"fmt"
	"strings"
	"time"
)

// Store remembers the last published fingerprint of each listing.
type Store interface {
	Close() error
	// Changed reports whether fingerprint differs from the one recorded for id
	// (an unknown or expired id counts as changed).
	Changed(id, fingerprint string) (bool, error)
	Mark(id, fingerprint string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ListingTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultListingTTL      = 14 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ListingTTL <= 0 {
		opts.ListingTTL = defaultListingTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopStore treats every listing as changed.
type noopStore struct{}

func (noopStore) Close() error                          { return nil }
func (noopStore) Changed(string, string) (bool, error) { return true, nil }
func (noopStore) Mark(string, string) error             { return nil }
