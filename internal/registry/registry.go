// Package registry keeps the snapshot of known scheme codes taken from the
// daily NAV feed and answers code validity checks against it.
package registry

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Source lists all scheme codes with their names.
type Source interface {
	FetchAllSchemes(ctx context.Context) (map[string]string, error)
}

// Registry holds the code snapshot. The snapshot only changes on Refresh.
type Registry struct {
	src    Source
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	codes map[string]string
	at    time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New builds a registry and takes the first snapshot.
func New(ctx context.Context, src Source, opts ...Option) (*Registry, error) {
	r := &Registry{
		src:    src,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Refresh re-fetches the code list and swaps the snapshot. On error the
// previous snapshot stays in place.
func (r *Registry) Refresh(ctx context.Context) error {
	codes, err := r.src.FetchAllSchemes(ctx)
	if err != nil {
		return fmt.Errorf("refresh scheme registry: %w", err)
	}
	at := r.now()

	r.mu.Lock()
	r.codes = codes
	r.at = at
	r.mu.Unlock()

	r.logger.Info().Int("schemes", len(codes)).Time("at", at).Msg("scheme registry refreshed")
	return nil
}

// IsValidCode reports whether code is in the snapshot.
func (r *Registry) IsValidCode(code string) bool {
	if code == "" {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.codes[code]
	return ok
}

// Name returns the scheme name recorded for code.
func (r *Registry) Name(code string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.codes[code]
	return name, ok
}

// Codes returns a copy of the snapshot.
func (r *Registry) Codes() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.codes)
}

// Len returns the number of codes in the snapshot.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codes)
}

// SnapshotAt returns when the snapshot was taken.
func (r *Registry) SnapshotAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.at
}
