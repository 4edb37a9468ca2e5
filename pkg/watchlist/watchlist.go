package watchlist

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/heimat-hq/listings-watcher/internal/cfgfile"
)

const (
	defaultBatchSize      = 20
	defaultRequestDelayMs = 500
)

// Watch is a named set of listing ids polled together.
type Watch struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	ListingIDs     []string `json:"listing_ids" yaml:"listing_ids"`
	BatchSize      int      `json:"batch_size" yaml:"batch_size"`
	RequestDelayMs int      `json:"request_delay_ms" yaml:"request_delay_ms"`
}

type file struct {
	Watches []Watch `json:"watches" yaml:"watches"`
}

// Registry holds the watches loaded from a watchlist file.
type Registry struct {
	watches []Watch
	idx     map[string]Watch
}

// Load reads a YAML or JSON watchlist file.
func Load(path string) (*Registry, error) {
	var parsed file
	if err := cfgfile.Read(path, "watchlist", &parsed); err != nil {
		return nil, err
	}
	return New(parsed.Watches)
}

// New sanitizes and validates watches.
func New(watches []Watch) (*Registry, error) {
	if len(watches) == 0 {
		return nil, errors.New("watchlist contains no watches")
	}

	reg := &Registry{
		watches: make([]Watch, len(watches)),
		idx:     make(map[string]Watch, len(watches)),
	}
	for i := range watches {
		w := sanitize(watches[i])
		if err := validate(w); err != nil {
			return nil, fmt.Errorf("watches[%d]: %w", i, err)
		}
		if _, exists := reg.idx[w.ID]; exists {
			return nil, fmt.Errorf("duplicate watch id %q", w.ID)
		}
		reg.watches[i] = w
		reg.idx[w.ID] = w
	}
	return reg, nil
}

func sanitize(w Watch) Watch {
	w.ID = strings.TrimSpace(w.ID)
	w.Name = strings.TrimSpace(w.Name)
	w.ListingIDs = cfgfile.Trimmed(w.ListingIDs)

	if w.BatchSize <= 0 {
		w.BatchSize = defaultBatchSize
	}
	if w.RequestDelayMs <= 0 {
		w.RequestDelayMs = defaultRequestDelayMs
	}
	return w
}

func validate(w Watch) error {
	if w.ID == "" {
		return errors.New("id is required")
	}
	if w.Name == "" {
		return fmt.Errorf("name is required for watch %q", w.ID)
	}
	if len(w.ListingIDs) == 0 {
		return fmt.Errorf("listing_ids must not be empty for watch %q", w.ID)
	}
	return nil
}

// All returns a copy of the loaded watches in file order.
func (r *Registry) All() []Watch {
	if r == nil {
		return nil
	}
	out := make([]Watch, len(r.watches))
	copy(out, r.watches)
	return out
}

// ByID returns the watch with the given id.
func (r *Registry) ByID(id string) (Watch, bool) {
	if r == nil {
		return Watch{}, false
	}
	w, ok := r.idx[strings.TrimSpace(id)]
	return w, ok
}

// Batches splits the listing ids into request-sized chunks, keeping order.
func (w Watch) Batches() [][]string {
	size := w.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}
	var out [][]string
	for start := 0; start < len(w.ListingIDs); start += size {
		end := min(start+size, len(w.ListingIDs))
		out = append(out, w.ListingIDs[start:end])
	}
	return out
}

// RequestDelay returns the pause between two batch requests.
func (w Watch) RequestDelay() time.Duration {
	if w.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(w.RequestDelayMs) * time.Millisecond
}
