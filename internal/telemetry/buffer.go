package telemetry

import (
	"sync"

	"github.com/pulseguard/pulse-sentinel/internal/models"
)

// DefaultCapacity bounds the rolling history kept per source.
const DefaultCapacity = 1000

// Buffer is a bounded window of the most recent snapshots for one source,
// stored as a ring. Appending at capacity overwrites the oldest entry in
// place, so writes stay O(1); retained history is advisory context, not a
// durable record.
type Buffer struct {
	mu       sync.RWMutex
	entries  []models.Snapshot
	next     int
	capacity int
}

// NewBuffer creates a buffer holding up to capacity snapshots.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		entries:  make([]models.Snapshot, 0, capacity),
		capacity: capacity,
	}
}

// Append stores a snapshot, overwriting the oldest entry when full.
func (b *Buffer) Append(snap models.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) < b.capacity {
		b.entries = append(b.entries, snap)
		return
	}
	b.entries[b.next] = snap
	b.next++
	if b.next == b.capacity {
		b.next = 0
	}
}

// Recent returns a copy of the last k snapshots, most recent last. When k
// exceeds the current length the whole window is returned.
func (b *Buffer) Recent(k int) []models.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.entries)
	if k <= 0 || n == 0 {
		return nil
	}
	if k > n {
		k = n
	}
	out := make([]models.Snapshot, k)
	for i := 0; i < k; i++ {
		out[i] = b.entries[b.index(n-k+i)]
	}
	return out
}

// Latest returns the most recent snapshot, if any.
func (b *Buffer) Latest() (models.Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.entries)
	if n == 0 {
		return models.Snapshot{}, false
	}
	return b.entries[b.index(n-1)], true
}

// Len returns the number of buffered snapshots.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// index maps a logical position (0 = oldest) to the physical slot. Until the
// ring fills, entries sit in insertion order and next stays zero.
func (b *Buffer) index(logical int) int {
	n := len(b.entries)
	if n < b.capacity {
		return logical
	}
	return (b.next + logical) % n
}
