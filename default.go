// SPDX-License-Identifier: Apache-2.0

package heap

import (
	"os"
	"unsafe"
)

// The package-level heap mirrors the classic malloc contract: one arena per
// process, set up exactly once. It is single-threaded by the same contract
// as Heap; wrap a heap from New in NewConcurrentHeap instead when multiple
// goroutines are involved.
var defaultHeap Heap

// Init sets up the package-level heap over a region of at least size
// bytes. It may be called at most once; later calls return
// ErrAlreadyInitialized and change nothing.
func Init(size int, opts ...Option) error {
	if defaultHeap != nil {
		return ErrAlreadyInitialized
	}
	h, err := New(size, opts...)
	if err != nil {
		return err
	}
	defaultHeap = h
	return nil
}

// Alloc allocates from the package-level heap.
func Alloc(size int) (unsafe.Pointer, error) {
	if defaultHeap == nil {
		return nil, ErrNotInitialized
	}
	return defaultHeap.Alloc(size)
}

// Free returns a pointer to the package-level heap.
func Free(ptr unsafe.Pointer) error {
	if defaultHeap == nil {
		return ErrNotInitialized
	}
	return defaultHeap.Free(ptr)
}

// Dump writes the package-level heap's block listing to standard output.
func Dump() {
	if defaultHeap == nil {
		return
	}
	defaultHeap.Dump(os.Stdout)
}
