// SPDX-License-Identifier: Apache-2.0

package heap

import (
	"fmt"
)

const (
	// headerSize is the width of the tag word at the start of every block.
	headerSize = 4

	// footerSize is the width of the size word at the end of a free block.
	footerSize = 4

	// alignment is the payload alignment guarantee. Block sizes are always
	// a multiple of it.
	alignment = 8

	// minBlockSize is the smallest viable block: a header plus enough room
	// for a footer, rounded to the alignment.
	minBlockSize = 8

	allocatedBit = 1 << 0
	prevAllocBit = 1 << 1
	tagBits      = allocatedBit | prevAllocBit
)

// endTag terminates the block chain. It decodes as an allocated block of
// size zero and must never be split, allocated, or coalesced into.
const endTag blockTag = 1

// blockTag is the 32-bit word stored at the first four bytes of every block.
// It packs the block's total size (a multiple of 8) with two status bits:
// bit 0 records whether this block is allocated, bit 1 whether the
// immediately preceding block is. Free blocks duplicate the bare size
// (status bits clear) in their last four bytes so that coalescing can walk
// the chain backwards; allocated blocks carry no footer and use those bytes
// as payload.
type blockTag uint32

// newTag encodes a block tag, rejecting sizes that are negative or not a
// multiple of the alignment. Size zero is legal only for the end mark,
// which is built from endTag directly.
func newTag(size int, allocated, prevAllocated bool) (blockTag, error) {
	if size < 0 || size%alignment != 0 {
		return 0, fmt.Errorf("%w: block size %d is not a non-negative multiple of %d", ErrInvalidSize, size, alignment)
	}
	t := blockTag(size)
	if allocated {
		t |= allocatedBit
	}
	if prevAllocated {
		t |= prevAllocBit
	}
	return t, nil
}

// size reports the block's total span in bytes, header included.
func (t blockTag) size() int {
	return int(t &^ tagBits)
}

// allocated reports whether the block is in use.
func (t blockTag) allocated() bool {
	return t&allocatedBit != 0
}

// prevAllocated reports whether the immediately preceding block is in use.
// The first block has no predecessor and always carries the bit set, which
// terminates backward coalescing.
func (t blockTag) prevAllocated() bool {
	return t&prevAllocBit != 0
}

// withSize replaces the encoded size, keeping both status bits. The caller
// guarantees the new size is a multiple of the alignment.
func (t blockTag) withSize(size int) blockTag {
	return blockTag(size) | t&tagBits
}

func (t blockTag) asAllocated() blockTag {
	return t | allocatedBit
}

func (t blockTag) asFree() blockTag {
	return t &^ allocatedBit
}

func (t blockTag) withPrevAllocated(v bool) blockTag {
	if v {
		return t | prevAllocBit
	}
	return t &^ prevAllocBit
}

// alignUp rounds n up to the next multiple of align, which must be a power
// of two.
func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
