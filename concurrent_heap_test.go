// SPDX-License-Identifier: Apache-2.0

package heap

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestConcurrentHeapNilInner(t *testing.T) {
	c := NewConcurrentHeap(nil)

	_, err := c.Alloc(8)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, c.Free(nil), ErrNotInitialized)
	require.Equal(t, 0, c.Len())
	require.Equal(t, 0, c.Cap())
	require.Equal(t, 0, c.Peak())
	c.Reset()
	c.Release()
}

func TestConcurrentHeapDelegates(t *testing.T) {
	inner := newTestHeap(t, 4096)
	c := NewConcurrentHeap(inner)

	require.Equal(t, 4088, c.Cap())

	p, err := c.Alloc(100)
	require.NoError(t, err)
	require.Equal(t, 104, c.Len())
	require.NoError(t, c.Free(p))
	require.Equal(t, 0, c.Len())
	require.Equal(t, 104, c.Peak())
}

func TestConcurrentHeapParallelAllocFree(t *testing.T) {
	inner := newTestHeap(t, 64*1024)
	c := NewConcurrentHeap(inner)

	const workers = 8
	const rounds = 200

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			var held []unsafe.Pointer
			for i := 0; i < rounds; i++ {
				size := 16 + (id*13+i*7)%240
				ptr, err := c.Alloc(size)
				if err == nil {
					held = append(held, ptr)
				}
				if len(held) > 4 {
					if err := c.Free(held[0]); err != nil {
						panic(err)
					}
					held = held[1:]
				}
			}
			for _, ptr := range held {
				if err := c.Free(ptr); err != nil {
					panic(err)
				}
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, 0, c.Len())
	blocks := checkInvariants(t, inner)
	require.Len(t, blocks, 1)
}
