// Buffer pool for rewritten programs
//
// Output programs are encoded into a reusable byte buffer before being
// written, so processing a directory of files does not allocate a fresh
// output buffer per file.
//
// Usage:
//
//	buf := pool.GetByteBuffer()
//	defer pool.PutByteBuffer(buf)
//	// encode into buf...
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import "sync"

// MaxPooledSize is the largest buffer capacity returned to the pool.
// Bigger buffers are left to the garbage collector.
const MaxPooledSize = 16 << 20

// ByteBuffer is an append-only encode buffer
type ByteBuffer struct {
	buf []byte
}

var byteBufferPool = sync.Pool{
	New: func() any {
		return &ByteBuffer{buf: make([]byte, 0, 64<<10)}
	},
}

// GetByteBuffer gets an empty byte buffer from the pool
func GetByteBuffer() *ByteBuffer {
	b := byteBufferPool.Get().(*ByteBuffer)
	b.buf = b.buf[:0] // Reset length but keep capacity
	return b
}

// PutByteBuffer returns a byte buffer to the pool. The buffer must not be
// used afterwards.
func PutByteBuffer(b *ByteBuffer) {
	if b == nil || cap(b.buf) > MaxPooledSize {
		return
	}
	byteBufferPool.Put(b)
}

// Bytes returns the buffer's contents. The slice is only valid until the
// buffer is returned to the pool.
func (b *ByteBuffer) Bytes() []byte {
	return b.buf
}

// Write appends bytes to the buffer
func (b *ByteBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte
func (b *ByteBuffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends a string
func (b *ByteBuffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// Len returns the buffer length
func (b *ByteBuffer) Len() int {
	return len(b.buf)
}

// Cap returns the buffer capacity
func (b *ByteBuffer) Cap() int {
	return cap(b.buf)
}

// Reset clears the buffer
func (b *ByteBuffer) Reset() {
	b.buf = b.buf[:0]
}

// Grow ensures the buffer has capacity for n more bytes
func (b *ByteBuffer) Grow(n int) {
	if cap(b.buf)-len(b.buf) < n {
		newBuf := make([]byte, len(b.buf), len(b.buf)+n)
		copy(newBuf, b.buf)
		b.buf = newBuf
	}
}
