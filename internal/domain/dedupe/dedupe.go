// Package dedupe coalesces duplicate pending work keyed by an id, such as
// several segmentation recalculations requested for the same customer before
// the first one runs.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 10000

// Deduper tracks ids whose work is pending.
type Deduper interface {
	// SeenAndRecord atomically checks if id is pending and records it if not.
	// Returns true if id was already pending.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord releases id so new work for it can be scheduled. Called when
	// the work starts, or when scheduling failed.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps pending ids in insertion order. When bounded and
// full, the oldest id is forgotten, which at worst lets a duplicate through.
type inMemoryDeduper struct {
	mu      sync.Mutex
	pending map[string]*list.Element
	order   *list.List
	maxSize int // <= 0 means unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		pending: make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord implements Deduper.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pending[id]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		if oldest := d.order.Front(); oldest != nil {
			delete(d.pending, d.order.Remove(oldest).(string))
			d.size.Add(-1)
		}
	}
	d.pending[id] = d.order.PushBack(id)
	d.size.Add(1)
	return false
}

// Unrecord implements Deduper.
func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.pending[id]; ok {
		d.order.Remove(el)
		delete(d.pending, id)
		d.size.Add(-1)
	}
}

// Size returns the number of pending ids.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
