// SPDX-License-Identifier: Apache-2.0

package heap

import (
	"errors"
	"unsafe"
)

const growThreshold = 256

// AllocateSlice creates a slice of type T with a given length and capacity,
// using the provided Heap for the backing array. If the heap is nil, it
// returns a slice using Go's built-in make function. The returned slice
// must keep its original data pointer to be freeable with FreeSlice; do not
// reslice it forward.
func AllocateSlice[T any](h Heap, length, capacity int) ([]T, error) {
	var x T
	bufSize := int(unsafe.Sizeof(x)) * capacity
	if h == nil || bufSize == 0 {
		return make([]T, length, capacity), nil
	}
	ptr, err := h.Alloc(bufSize)
	if err != nil {
		return nil, err
	}
	s := unsafe.Slice((*T)(ptr), capacity)
	return s[:length], nil
}

// FreeSlice returns a slice's backing array, as handed out by
// AllocateSlice, to the heap. Freeing a zero-capacity slice, or any slice
// when the heap is nil, is a no-op.
func FreeSlice[T any](h Heap, s []T) error {
	if h == nil || cap(s) == 0 {
		return nil
	}
	return h.Free(unsafe.Pointer(unsafe.SliceData(s[:cap(s)])))
}

// SliceAppend appends elements to a slice of type T, growing it through the
// provided Heap when needed. A previous backing array that belongs to the
// heap is freed once its contents have been copied out.
func SliceAppend[T any](h Heap, s []T, data ...T) ([]T, error) {
	if h == nil {
		return append(s, data...), nil
	}
	s, err := growSlice(h, s, len(data))
	if err != nil {
		return nil, err
	}
	return append(s, data...), nil
}

func growSlice[T any](h Heap, s []T, dataLen int) ([]T, error) {
	newLen := len(s) + dataLen
	newCap := cap(s)

	if newCap > 0 {
		for newLen > newCap {
			if newCap < growThreshold {
				newCap *= 2
			} else {
				newCap += newCap / 4
			}
		}
	} else {
		newCap = dataLen
	}
	if newCap == cap(s) {
		return s, nil
	}
	s2, err := AllocateSlice[T](h, len(s), newCap)
	if err != nil {
		return nil, err
	}
	copy(s2, s)
	// The old backing array may have come from make rather than the heap;
	// foreign arrays are rejected as invalid pointers and left to the
	// garbage collector.
	if err := FreeSlice(h, s); err != nil && !errors.Is(err, ErrInvalidPointer) {
		return nil, err
	}
	return s2, nil
}
