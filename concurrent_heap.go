// SPDX-License-Identifier: Apache-2.0

package heap

import (
	"io"
	"sync"
	"unsafe"
)

type concurrentHeap struct {
	mtx sync.Mutex
	h   Heap
}

// NewConcurrentHeap returns a heap that is safe to be accessed concurrently
// from multiple goroutines. One mutex serializes every operation: the
// next-fit scan, splitting, and coalescing all touch blocks that are not
// locally scoped, so a concurrent Free could invalidate a block an Alloc is
// mid-scan over.
func NewConcurrentHeap(h Heap) Heap {
	return &concurrentHeap{h: h}
}

// Alloc satisfies the Heap interface.
func (c *concurrentHeap) Alloc(size int) (unsafe.Pointer, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return nil, ErrNotInitialized
	}
	return c.h.Alloc(size)
}

// Free satisfies the Heap interface.
func (c *concurrentHeap) Free(ptr unsafe.Pointer) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return ErrNotInitialized
	}
	return c.h.Free(ptr)
}

// Reset satisfies the Heap interface.
func (c *concurrentHeap) Reset() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return
	}
	c.h.Reset()
}

// Release satisfies the Heap interface.
func (c *concurrentHeap) Release() {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return
	}
	c.h.Release()
}

// Len returns the number of bytes currently held by allocated blocks.
func (c *concurrentHeap) Len() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return 0
	}
	return c.h.Len()
}

// Cap returns the usable size of the arena in bytes.
func (c *concurrentHeap) Cap() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return 0
	}
	return c.h.Cap()
}

// Peak returns the high-water mark of Len.
func (c *concurrentHeap) Peak() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return 0
	}
	return c.h.Peak()
}

// Dump writes a listing of the block chain to w.
func (c *concurrentHeap) Dump(w io.Writer) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.h == nil {
		return
	}
	c.h.Dump(w)
}
