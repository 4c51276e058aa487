// SPDX-License-Identifier: Apache-2.0

package heap

import (
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"
)

// fitHeap manages one contiguous region carved into an implicit chain of
// boundary-tagged blocks. The first block header sits at offset 4 so that
// payloads (header address + 4) land on 8-byte boundaries; the end mark
// occupies the last four bytes of the usable span. Blocks are addressed by
// integer offsets into the region, keeping all metadata access
// bounds-checked.
type fitHeap struct {
	region        []byte
	releaseRegion func([]byte) error

	start  int // offset of the first block header
	size   int // usable arena size, a multiple of 8
	cursor int // next-fit resume point, offset of a block header
	used   int // bytes held by allocated blocks
	peak   int
}

// Option configures a heap created by New.
type Option func(*config)

type config struct {
	pageSize      int
	acquireRegion func(int) ([]byte, error)
	releaseRegion func([]byte) error
}

// WithPageSize overrides the granularity the requested size is rounded up
// to before the region is acquired. It defaults to the platform page size
// and must be a power of two no smaller than 16.
func WithPageSize(size int) Option {
	return func(c *config) {
		c.pageSize = size
	}
}

// WithRegionAllocator replaces the functions used to obtain and return the
// backing region. The acquire function must hand back a zero-filled,
// read/write byte range whose base address is 8-byte aligned. release may
// be nil if the region needs no teardown.
func WithRegionAllocator(acquire func(int) ([]byte, error), release func([]byte) error) Option {
	return func(c *config) {
		c.acquireRegion = acquire
		c.releaseRegion = release
	}
}

// New creates a heap over a freshly acquired region of at least size bytes.
// The requested size is rounded up to the page size; eight bytes of the
// acquired region are consumed by alignment slack and the end mark, so the
// usable capacity is the rounded size minus eight.
func New(size int, opts ...Option) (Heap, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: region size %d is not positive", ErrInvalidSize, size)
	}
	cfg := config{
		pageSize:      os.Getpagesize(),
		acquireRegion: acquireRegion,
		releaseRegion: releaseRegion,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.pageSize < 2*minBlockSize || cfg.pageSize&(cfg.pageSize-1) != 0 {
		return nil, fmt.Errorf("%w: page size %d is not a power of two >= %d", ErrInvalidSize, cfg.pageSize, 2*minBlockSize)
	}

	padded := alignUp(size, cfg.pageSize)
	region, err := cfg.acquireRegion(padded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegionAcquisition, err)
	}
	if len(region) < padded {
		return nil, fmt.Errorf("%w: got %d of %d bytes", ErrRegionAcquisition, len(region), padded)
	}

	h := &fitHeap{
		region:        region,
		releaseRegion: cfg.releaseRegion,
		start:         headerSize,
		size:          padded - headerSize - footerSize,
	}
	if _, err := newTag(h.size, false, true); err != nil {
		return nil, err
	}
	h.format()
	return h, nil
}

// format lays down the initial chain: the end mark at the tail and a single
// free block, with its predecessor treated as allocated, spanning the whole
// usable arena. Reset reuses it to restore the post-construction state.
func (h *fitHeap) format() {
	h.putTag(h.start+h.size, endTag)
	h.writeFreeBlock(h.start, h.size, true)
	h.cursor = h.start
	h.used = 0
}

func (h *fitHeap) base() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(h.region))
}

func (h *fitHeap) tagAt(off int) blockTag {
	return blockTag(binary.LittleEndian.Uint32(h.region[off:]))
}

func (h *fitHeap) putTag(off int, t blockTag) {
	binary.LittleEndian.PutUint32(h.region[off:], uint32(t))
}

// writeFreeBlock writes a free block's header and footer in one step. The
// two must never be written separately: coalescing discovers the size from
// either end and relies on them agreeing.
func (h *fitHeap) writeFreeBlock(off, size int, prevAllocated bool) {
	h.putTag(off, blockTag(size).withPrevAllocated(prevAllocated))
	h.putTag(off+size-footerSize, blockTag(size))
}

// Alloc satisfies the Heap interface. It scans the chain from the next-fit
// cursor, splits the found block when the remainder is viable, and returns
// the payload address.
func (h *fitHeap) Alloc(size int) (unsafe.Pointer, error) {
	if h.region == nil {
		return nil, ErrNotInitialized
	}
	if size <= 0 || size > h.size {
		return nil, fmt.Errorf("%w: allocation of %d bytes", ErrInvalidSize, size)
	}

	// Total block size: payload rounded up plus the header word. The
	// rounding keeps every block size a multiple of 8, so the footer-less
	// payload of an allocated block is size-4 bytes.
	needed := alignUp(size+headerSize, alignment)

	off, err := h.findFit(needed)
	if err != nil {
		return nil, err
	}

	t := h.tagAt(off)
	if remainder := t.size() - needed; remainder >= minBlockSize {
		h.putTag(off, t.withSize(needed).asAllocated())
		// The split-off remainder is free and follows an allocated block.
		// Its successor already carried a clear p-bit while the original
		// block was free, so only the remainder itself needs writing.
		h.writeFreeBlock(off+needed, remainder, true)
	} else {
		h.putTag(off, t.asAllocated())
		if next := off + t.size(); h.tagAt(next) != endTag {
			h.putTag(next, h.tagAt(next).withPrevAllocated(true))
		}
	}

	h.used += h.tagAt(off).size()
	if h.used > h.peak {
		h.peak = h.used
	}
	h.cursor = off
	return unsafe.Add(h.base(), off+headerSize), nil
}

// findFit locates a free block of at least needed bytes using next-fit:
// the scan resumes at the cursor, wraps past the end mark to the first
// block, and gives up once the end mark has been reached twice, which
// bounds the walk to two passes over the chain.
func (h *fitHeap) findFit(needed int) (int, error) {
	off := h.cursor
	wraps := 0
	for {
		t := h.tagAt(off)
		if t == endTag {
			wraps++
			if wraps == 2 {
				return 0, fmt.Errorf("%w: no free block for %d bytes", ErrOutOfMemory, needed)
			}
			off = h.start
			continue
		}
		if !t.allocated() && t.size() >= needed {
			return off, nil
		}
		off += t.size()
	}
}

// Free satisfies the Heap interface. All validation happens before the
// first write, so a rejected pointer leaves the chain untouched.
func (h *fitHeap) Free(ptr unsafe.Pointer) error {
	if h.region == nil {
		return ErrNotInitialized
	}
	if ptr == nil {
		return fmt.Errorf("%w: nil pointer", ErrInvalidPointer)
	}
	p := uintptr(ptr)
	if p%alignment != 0 {
		return fmt.Errorf("%w: %#x is not %d-byte aligned", ErrInvalidPointer, p, alignment)
	}
	base := uintptr(h.base())
	if p < base+uintptr(h.start+headerSize) || p >= base+uintptr(h.start+h.size) {
		return fmt.Errorf("%w: %#x is outside the arena", ErrInvalidPointer, p)
	}

	off := int(p-base) - headerSize
	t := h.tagAt(off)
	if !t.allocated() {
		return fmt.Errorf("%w: block at %#x", ErrDoubleFree, p)
	}
	size := t.size()
	if size < minBlockSize || off+size > h.start+h.size {
		return fmt.Errorf("%w: %#x does not address a block", ErrInvalidPointer, p)
	}

	// Forward: a free successor is absorbed whole. Its footer becomes the
	// footer of the combined span, so only the stored size changes, never
	// the footer's address.
	next := off + size
	nt := h.tagAt(next)
	mergeForward := nt != endTag && !nt.allocated()
	combined := size
	if mergeForward {
		combined += nt.size()
	}

	// Backward: a free predecessor is found through its footer and absorbs
	// this block entirely.
	blockStart := off
	if !t.prevAllocated() {
		prevSize := h.tagAt(off - footerSize).size()
		if prevSize < minBlockSize || off-prevSize < h.start {
			return fmt.Errorf("%w: %#x has a corrupt predecessor footer", ErrInvalidPointer, p)
		}
		blockStart = off - prevSize
		combined += prevSize
	}

	if !mergeForward && nt != endTag {
		h.putTag(next, nt.withPrevAllocated(false))
	}
	// A free predecessor was just absorbed, so the final span's own
	// predecessor is always allocated (the first block counts as having
	// one).
	h.writeFreeBlock(blockStart, combined, true)
	h.used -= size

	// The cursor must never point into the interior of a merged span.
	if h.cursor > blockStart && h.cursor < blockStart+combined {
		h.cursor = blockStart
	}
	return nil
}

// Reset satisfies the Heap interface.
func (h *fitHeap) Reset() {
	if h.region == nil {
		return
	}
	h.format()
}

// Release satisfies the Heap interface.
func (h *fitHeap) Release() {
	if h.region == nil {
		return
	}
	if h.releaseRegion != nil {
		_ = h.releaseRegion(h.region)
	}
	h.region = nil
}

// Len returns the number of bytes currently held by allocated blocks.
func (h *fitHeap) Len() int {
	return h.used
}

// Cap returns the usable size of the arena in bytes.
func (h *fitHeap) Cap() int {
	return h.size
}

// Peak returns the high-water mark of Len.
func (h *fitHeap) Peak() int {
	return h.peak
}
