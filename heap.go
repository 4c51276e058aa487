// SPDX-License-Identifier: Apache-2.0

// Package heap implements a dynamic memory allocator over a single
// fixed-size arena obtained once from the operating system. Unlike a
// monotonic bump arena, individual allocations can be returned with Free:
// blocks carry boundary tags (a header word, plus a footer word on free
// blocks), allocation uses a next-fit scan with splitting, and freed blocks
// are immediately coalesced with free neighbors on both sides.
//
// Payloads are 8-byte aligned and must not be used to store Go pointers;
// the garbage collector does not scan arena memory.
package heap

import (
	"io"
	"unsafe"
)

// Heap is a memory allocator backed by one fixed-size arena.
type Heap interface {
	// Alloc allocates memory of the given size and returns a pointer to
	// it. The pointer is 8-byte aligned and addresses at least size bytes.
	Alloc(size int) (unsafe.Pointer, error)

	// Free returns a pointer previously obtained from Alloc to the heap.
	// Adjacent free blocks are merged immediately.
	Free(ptr unsafe.Pointer) error

	// Reset discards all allocations, restoring the state the heap had
	// immediately after construction. Any pointer previously returned by
	// Alloc becomes invalid.
	Reset()

	// Release returns the heap's underlying memory region to the system.
	// After invoking this method, the heap must not be used for further
	// allocations.
	Release()

	// Len returns the number of bytes currently held by allocated blocks,
	// block headers included.
	Len() int

	// Cap returns the usable size of the arena in bytes.
	Cap() int

	// Peak returns the high-water mark of Len. It is not reset when Reset
	// is called, allowing tracking of maximum usage.
	Peak() int

	// Dump writes a human-readable listing of the block chain to w, one
	// line per block, terminated by the end mark, followed by used/free
	// totals. It is a diagnostic aid and never mutates the heap.
	Dump(w io.Writer)
}

// Allocate allocates memory for a value of type T using the provided Heap.
// If the heap is nil, it falls back to Go's built-in new function.
func Allocate[T any](h Heap) (*T, error) {
	var x T
	size := int(unsafe.Sizeof(x))
	if h == nil || size == 0 {
		return new(T), nil
	}
	ptr, err := h.Alloc(size)
	if err != nil {
		return nil, err
	}
	return (*T)(ptr), nil
}

// FreePointer returns a value allocated with Allocate to the heap. Freeing
// a nil pointer, or any pointer when the heap is nil, is a no-op.
func FreePointer[T any](h Heap, p *T) error {
	var x T
	if h == nil || p == nil || unsafe.Sizeof(x) == 0 {
		return nil
	}
	return h.Free(unsafe.Pointer(p))
}
