// Package asset fetches images that need the bearer credential and hands
// them out as releasable local handles.
package asset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fjod/go_cart/storefront-client/internal/api"
	"github.com/fjod/go_cart/storefront-client/internal/logger"
	"github.com/fjod/go_cart/storefront-client/internal/metrics"
)

// DefaultPlaceholder is shown whenever an asset can't be loaded.
const DefaultPlaceholder = "/placeholder-payment.png"

type Fetcher interface {
	FetchBinary(ctx context.Context, op, rawURL string) (api.Binary, error)
}

type Loader struct {
	fetcher  Fetcher
	registry *Registry
	log      *slog.Logger
}

func NewLoader(fetcher Fetcher, m *metrics.Metrics, log *slog.Logger) *Loader {
	return &Loader{
		fetcher:  fetcher,
		registry: NewRegistry(m),
		log:      logger.OrDiscard(log),
	}
}

func (l *Loader) Registry() *Registry {
	return l.registry
}

// Load fetches source and wraps it in a Handle. On error no handle exists.
func (l *Loader) Load(ctx context.Context, source string) (*Handle, error) {
	bin, err := l.fetcher.FetchBinary(ctx, "fetch_asset", source)
	if err != nil {
		return nil, fmt.Errorf("load asset %s: %w", source, err)
	}
	return l.registry.add(source, bin.ContentType, bin.Data), nil
}

// View shows one asset at a time, the way an image element does. It owns
// its handle: changing the source or closing the view releases it.
type View struct {
	loader      *Loader
	placeholder string

	mu     sync.Mutex
	source string
	gen    uint64
	handle *Handle
	err    error
	closed bool
}

func (l *Loader) NewView(placeholder string) *View {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &View{loader: l, placeholder: placeholder}
}

// SetSource switches the view to source and returns the URL to display. The
// previous handle is released before the fetch starts. A failed fetch shows
// the placeholder; a fetch that completes after the view has moved on is
// released and dropped.
func (v *View) SetSource(ctx context.Context, source string) string {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return v.placeholder
	}
	v.gen++
	gen := v.gen
	v.source = source
	v.err = nil
	old := v.handle
	v.handle = nil
	v.mu.Unlock()

	if old != nil {
		old.Release()
	}
	if source == "" {
		return v.placeholder
	}

	h, err := v.loader.Load(ctx, source)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.gen != gen {
		if h != nil {
			h.Release()
		}
		return v.current()
	}
	if err != nil {
		v.err = err
		v.loader.log.Warn("asset load failed, showing placeholder", logger.Traced(ctx),
			slog.String("source", source), logger.Err(err))
		return v.placeholder
	}
	v.handle = h
	return h.URL()
}

// URL is what the view currently displays.
func (v *View) URL() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current()
}

// Handle is the held handle, or nil while the placeholder is shown.
func (v *View) Handle() *Handle {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.handle
}

// Err is the failure behind the placeholder, if any.
func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// Close releases the held handle. The view shows the placeholder from then
// on.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	old := v.handle
	v.handle = nil
	v.mu.Unlock()

	if old != nil {
		old.Release()
	}
}

func (v *View) current() string {
	if v.handle != nil {
		return v.handle.URL()
	}
	return v.placeholder
}
