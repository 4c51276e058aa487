// SPDX-License-Identifier: Apache-2.0

//go:build unix

package heap

import (
	"golang.org/x/sys/unix"
)

// acquireRegion obtains an anonymous, process-private, read/write mapping of
// the given size. The kernel hands the pages back zero-filled and
// page-aligned, which is what the block layout relies on for its alignment
// guarantee.
func acquireRegion(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// releaseRegion returns a mapping obtained from acquireRegion to the
// operating system.
func releaseRegion(region []byte) error {
	return unix.Munmap(region)
}
