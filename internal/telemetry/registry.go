package telemetry

import (
	"sort"
	"sync"
)

// Registry owns one buffer per source so that history from one host never
// contaminates the detector baseline of another.
type Registry struct {
	mu       sync.RWMutex
	buffers  map[string]*Buffer
	capacity int
}

// NewRegistry creates a registry whose buffers hold up to capacity snapshots.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		buffers:  make(map[string]*Buffer),
		capacity: capacity,
	}
}

// Buffer returns the buffer for the given source, creating it on first use.
func (r *Registry) Buffer(sourceID string) *Buffer {
	r.mu.RLock()
	buf, ok := r.buffers[sourceID]
	r.mu.RUnlock()
	if ok {
		return buf
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if buf, ok := r.buffers[sourceID]; ok {
		return buf
	}
	buf = NewBuffer(r.capacity)
	r.buffers[sourceID] = buf
	return buf
}

// Lookup returns the buffer for the given source without creating one.
func (r *Registry) Lookup(sourceID string) (*Buffer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	buf, ok := r.buffers[sourceID]
	return buf, ok
}

// Sources lists the known source identifiers in stable order.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.buffers))
	for id := range r.buffers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
