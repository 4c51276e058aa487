// SPDX-License-Identifier: Apache-2.0

package heap

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

// Dump satisfies the Heap interface. It writes one line per block: serial
// number, Free/used status, the predecessor's status, the addresses of the
// block's first and last byte, and its size, with the end mark as the final
// row. The traversal is bounded: it stops at the end mark, at the first tag
// that cannot advance the walk, or after more blocks than the arena can
// hold, so corrupted metadata cannot make it loop.
func (h *fitHeap) Dump(w io.Writer) {
	if h.region == nil {
		fmt.Fprintln(w, "heap: released")
		return
	}

	rule := strings.Repeat("*", 80)
	stars := strings.Repeat("*", 34)
	fmt.Fprintf(w, "%s Block list %s\n", stars, stars)
	fmt.Fprintln(w, "No.\tStatus\tPrev\tt_Begin\t\tt_End\t\tt_Size")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	base := uintptr(h.base())
	end := h.start + h.size
	usedSize, freeSize := 0, 0

	off := h.start
	for no := 1; no <= h.size/minBlockSize+1; no++ {
		t := h.tagAt(off)
		if t == endTag {
			fmt.Fprintf(w, "%d\tend\t%s\t%#08x\t%#08x\t%d\n",
				no, status(t.prevAllocated()), base+uintptr(off), base+uintptr(off+headerSize-1), 0)
			break
		}
		size := t.size()
		fmt.Fprintf(w, "%d\t%s\t%s\t%#08x\t%#08x\t%d\n",
			no, status(t.allocated()), status(t.prevAllocated()),
			base+uintptr(off), base+uintptr(off+size-1), size)

		if t.allocated() {
			usedSize += size
		} else {
			freeSize += size
		}
		if size < minBlockSize || off+size > end {
			fmt.Fprintf(w, "!\tcorrupt tag %#x at offset %d, aborting walk\n", uint32(t), off)
			break
		}
		off += size
	}

	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "Total used size = %d (%s)\n", usedSize, humanize.Bytes(uint64(usedSize)))
	fmt.Fprintf(w, "Total free size = %d (%s)\n", freeSize, humanize.Bytes(uint64(freeSize)))
	fmt.Fprintf(w, "Total size      = %d (%s)\n", usedSize+freeSize, humanize.Bytes(uint64(usedSize+freeSize)))
	fmt.Fprintln(w, rule)
}

func status(allocated bool) string {
	if allocated {
		return "used"
	}
	return "Free"
}
