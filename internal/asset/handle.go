package asset

import (
	"sync"

	"github.com/google/uuid"

	"github.com/fjod/go_cart/storefront-client/internal/metrics"
)

// Handle is a fetched asset held in memory under a local URL. It must be
// released; Release is safe to call more than once.
type Handle struct {
	id          uuid.UUID
	source      string
	contentType string
	registry    *Registry

	mu       sync.Mutex
	data     []byte
	released bool
}

// URL is the local address of the asset, valid until Release.
func (h *Handle) URL() string {
	return "blob:" + h.id.String()
}

func (h *Handle) Source() string {
	return h.source
}

func (h *Handle) ContentType() string {
	return h.contentType
}

// Data returns the asset bytes, or nil once released.
func (h *Handle) Data() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.data
}

func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

func (h *Handle) Release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	h.data = nil
	h.mu.Unlock()

	h.registry.remove(h)
}

// Registry tracks live handles so leaks show up in tests and metrics.
type Registry struct {
	metrics *metrics.Metrics

	mu       sync.Mutex
	live     map[uuid.UUID]*Handle
	released int
}

func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{metrics: m, live: make(map[uuid.UUID]*Handle)}
}

// Live is the number of handles acquired and not yet released.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Released counts every release so far.
func (r *Registry) Released() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

func (r *Registry) add(source, contentType string, data []byte) *Handle {
	h := &Handle{
		id:          uuid.New(),
		source:      source,
		contentType: contentType,
		data:        data,
		registry:    r,
	}
	r.mu.Lock()
	r.live[h.id] = h
	r.mu.Unlock()
	r.metrics.AssetAcquired()
	return h
}

func (r *Registry) remove(h *Handle) {
	r.mu.Lock()
	delete(r.live, h.id)
	r.released++
	r.mu.Unlock()
	r.metrics.AssetReleased()
}
