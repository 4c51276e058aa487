// SPDX-License-Identifier: Apache-2.0

package heap

import (
	"sync"
	"weak"
)

// Pool provides a thread-safe pool of Heap instances for callers that set
// up and tear down whole arenas at a high rate. It uses weak pointers to
// allow garbage collection of unused heaps while maintaining a pool of
// reusable ones.
//
// By storing PoolItem as weak pointers, the GC can collect them at any
// time. Before using a PoolItem, we try to get a strong pointer while
// removing it from the pool; once Release is called, the item goes back to
// the pool as a weak pointer again. At any time the GC can claim the memory
// back, letting it manage an appropriate pool size depending on available
// memory and GC pressure.
type Pool struct {
	// pool is a slice of weak pointers to the struct holding the Heap
	pool  []weak.Pointer[PoolItem]
	sizes map[uint64]*heapPoolItemSize
	mu    sync.Mutex
}

// heapPoolItemSize tracks the required memory across the last 50 heaps
// released under one key.
type heapPoolItemSize struct {
	count      int
	totalBytes int
}

// PoolItem wraps a Heap for use in the pool.
type PoolItem struct {
	Heap Heap
	Key  uint64
}

// NewHeapPool creates a new Pool instance.
func NewHeapPool() *Pool {
	return &Pool{
		sizes: make(map[uint64]*heapPoolItemSize),
	}
}

// Acquire gets a heap from the pool or creates a new one if none are
// available. The key parameter is used to track heap sizes per use case,
// so new heaps are sized from the recorded peak usage.
func (p *Pool) Acquire(key uint64) (*PoolItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Try to find an available heap in the pool
	for len(p.pool) > 0 {
		// Pop the last item
		lastIdx := len(p.pool) - 1
		wp := p.pool[lastIdx]
		p.pool = p.pool[:lastIdx]

		v := wp.Value()
		if v != nil {
			v.Key = key
			return v, nil
		}
		// If weak pointer was nil (GC collected), continue to next item
	}

	// No heap available, create a new one
	h, err := New(p.heapSize(key))
	if err != nil {
		return nil, err
	}
	return &PoolItem{
		Heap: h,
		Key:  key,
	}, nil
}

// Release returns a heap to the pool for reuse. The peak memory usage is
// recorded to size future heaps for this use case.
func (p *Pool) Release(item *PoolItem) {
	peak := item.Heap.Peak()
	item.Heap.Reset()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.recordSize(item.Key, peak)
	item.Key = 0

	// Add the heap back to the pool using a weak pointer
	w := weak.Make(item)
	p.pool = append(p.pool, w)
}

// ReleaseMany returns several heaps to the pool under one lock.
func (p *Pool) ReleaseMany(items []*PoolItem) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, item := range items {
		peak := item.Heap.Peak()
		item.Heap.Reset()

		p.recordSize(item.Key, peak)
		item.Key = 0

		w := weak.Make(item)
		p.pool = append(p.pool, w)
	}
}

// recordSize folds a released heap's peak usage into the rolling average
// for its key. Callers must hold p.mu.
func (p *Pool) recordSize(key uint64, peak int) {
	if size, ok := p.sizes[key]; ok {
		if size.count == 50 {
			size.count = 1
			size.totalBytes = size.totalBytes / 50
		}
		size.count++
		size.totalBytes += peak
	} else {
		p.sizes[key] = &heapPoolItemSize{
			count:      1,
			totalBytes: peak,
		}
	}
}

// heapSize returns the arena size for a given use case key.
// If no usage is recorded yet, it defaults to 1MB.
func (p *Pool) heapSize(key uint64) int {
	if size, ok := p.sizes[key]; ok {
		if avg := size.totalBytes / size.count; avg > 0 {
			return avg
		}
	}
	return 1024 * 1024 // Default 1MB
}
