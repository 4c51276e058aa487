// SPDX-License-Identifier: Apache-2.0

package heap

import (
	"errors"
)

var (
	// ErrInvalidSize is returned when a requested size is not positive,
	// exceeds the heap's capacity, or is not a valid block size.
	ErrInvalidSize = errors.New("heap: invalid size")

	// ErrOutOfMemory is returned when no free block can satisfy an
	// allocation after a full scan of the block chain. It is an ordinary
	// outcome and leaves the heap untouched.
	ErrOutOfMemory = errors.New("heap: out of memory")

	// ErrInvalidPointer is returned when a freed pointer is nil,
	// misaligned, or does not address a block inside the arena.
	ErrInvalidPointer = errors.New("heap: invalid pointer")

	// ErrDoubleFree is returned when the block addressed by a freed
	// pointer is already free.
	ErrDoubleFree = errors.New("heap: double free")

	// ErrAlreadyInitialized is returned by Init when the package-level
	// heap has already been set up.
	ErrAlreadyInitialized = errors.New("heap: already initialized")

	// ErrNotInitialized is returned when an operation is attempted before
	// Init succeeded, or on a heap whose region has been released.
	ErrNotInitialized = errors.New("heap: not initialized")

	// ErrRegionAcquisition is returned when the backing memory region
	// cannot be obtained from the operating system. It is fatal to the
	// heap's lifecycle.
	ErrRegionAcquisition = errors.New("heap: region acquisition failed")
)
