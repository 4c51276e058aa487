// SPDX-License-Identifier: Apache-2.0

package heap

import (
	"errors"
	"io"
)

// Buffer is a bytes.Buffer-like struct backed by a Heap.
// It implements io.Writer, io.ReaderFrom and provides similar methods to
// bytes.Buffer. The backing array is allocated from the heap and grown by
// allocating a larger block, copying, and freeing the old one.
type Buffer struct {
	heap    Heap
	buf     []byte
	off     int    // length of valid data
	readBuf []byte // intermediate buffer for ReadFrom
}

// NewBuffer creates a new Buffer backed by the given heap.
// If heap is nil, it falls back to standard Go allocation.
func NewBuffer(h Heap) *Buffer {
	return &Buffer{
		heap: h,
	}
}

// Write implements the io.Writer interface.
// It writes len(p) bytes from p to the buffer.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}

	buf, err := SliceAppend(b.heap, b.buf, p...)
	if err != nil {
		return 0, err
	}
	b.buf = buf
	b.off = len(b.buf)

	return len(p), nil
}

// WriteByte writes a single byte to the buffer.
func (b *Buffer) WriteByte(c byte) error {
	buf, err := SliceAppend(b.heap, b.buf, c)
	if err != nil {
		return err
	}
	b.buf = buf
	b.off = len(b.buf)
	return nil
}

// WriteString writes a string to the buffer.
func (b *Buffer) WriteString(s string) (n int, err error) {
	if len(s) == 0 {
		return 0, nil
	}
	return b.Write([]byte(s))
}

func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	if b.off == 0 {
		return 0, nil
	}

	m, err := w.Write(b.buf[:b.off])
	if m > 0 {
		n += int64(m)
		// Remove written bytes by shifting remaining data
		copy(b.buf, b.buf[m:b.off])
		b.off -= m
		b.buf = b.buf[:b.off]
	}

	return n, err
}

// Read reads up to len(p) bytes from the buffer into p.
// It returns the number of bytes read and any error encountered.
func (b *Buffer) Read(p []byte) (n int, err error) {
	if b.off == 0 {
		return 0, io.EOF
	}

	n = copy(p, b.buf[:b.off])
	if n < len(p) {
		err = io.EOF
	}

	// Remove read bytes by shifting remaining data
	copy(b.buf, b.buf[n:b.off])
	b.off -= n
	b.buf = b.buf[:b.off]

	return n, err
}

// ReadByte reads and returns the next byte from the buffer.
// If no byte is available, it returns an error.
func (b *Buffer) ReadByte() (byte, error) {
	if b.off == 0 {
		return 0, io.EOF
	}

	c := b.buf[0]
	copy(b.buf, b.buf[1:b.off])
	b.off--
	b.buf = b.buf[:b.off]

	return c, nil
}

// Bytes returns a slice of length b.Len() holding the unread portion of the
// buffer. The slice is valid for use only until the next buffer
// modification.
func (b *Buffer) Bytes() []byte {
	if b.off == 0 {
		return []byte{}
	}
	return b.buf[:b.off]
}

// String returns the contents of the unread portion of the buffer as a
// string.
func (b *Buffer) String() string {
	return string(b.buf[:b.off])
}

// Len returns the number of bytes of the unread portion of the buffer.
func (b *Buffer) Len() int {
	return b.off
}

// Cap returns the capacity of the buffer's underlying byte slice.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset resets the buffer to be empty, keeping the backing array for
// future writes.
func (b *Buffer) Reset() {
	b.off = 0
	if b.buf != nil {
		b.buf = b.buf[:0]
	}
}

// Free returns the buffer's backing arrays to the heap. The buffer remains
// usable and will allocate again on the next write.
func (b *Buffer) Free() error {
	if err := b.freeBacking(b.buf); err != nil {
		return err
	}
	b.buf = nil
	b.off = 0
	if err := b.freeBacking(b.readBuf); err != nil {
		return err
	}
	b.readBuf = nil
	return nil
}

// freeBacking tolerates arrays that came from make rather than the heap.
func (b *Buffer) freeBacking(s []byte) error {
	if err := FreeSlice(b.heap, s); err != nil && !errors.Is(err, ErrInvalidPointer) {
		return err
	}
	return nil
}

// Truncate discards all but the first n unread bytes from the buffer.
// It panics if n is negative or greater than the length of the buffer.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > b.off {
		panic("heap: truncation out of range")
	}
	b.off = n
	b.buf = b.buf[:n]
}

// Next returns a slice containing the next n bytes from the buffer,
// advancing the buffer as if the bytes had been returned by Read.
func (b *Buffer) Next(n int) []byte {
	if n <= 0 {
		return []byte{}
	}

	if n > b.off {
		n = b.off
	}

	if n == 0 {
		return []byte{}
	}

	result := make([]byte, n)
	copy(result, b.buf[:n])
	copy(b.buf, b.buf[n:b.off])
	b.off -= n
	b.buf = b.buf[:b.off]

	return result
}

// ReadFrom implements the io.ReaderFrom interface.
// It reads data from r until EOF or error, writing it to the buffer.
// The intermediate read buffer is allocated from the heap.
func (b *Buffer) ReadFrom(r io.Reader) (n int64, err error) {
	if b.readBuf == nil {
		if err := b.allocateReadBuffer(); err != nil {
			return 0, err
		}
	}

	for {
		nr, er := r.Read(b.readBuf)
		if nr > 0 {
			_, ew := b.Write(b.readBuf[:nr])
			if ew != nil {
				return n, ew
			}
			n += int64(nr)
		}
		if er != nil {
			if er == io.EOF {
				break
			}
			return n, er
		}
	}
	return n, nil
}

// allocateReadBuffer allocates the intermediate read buffer from the heap.
func (b *Buffer) allocateReadBuffer() error {
	const readBufferSize = 4 * 1024
	buf, err := AllocateSlice[byte](b.heap, readBufferSize, readBufferSize)
	if err != nil {
		return err
	}
	b.readBuf = buf
	return nil
}
