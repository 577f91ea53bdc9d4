// Package bytebuf implements reference-counted byte buffers. Every *Buffer is an
// ownership token: Retain hands out a new token sharing the same storage, and Release
// consumes exactly one. The storage goes back to its allocator when the last token is
// released. Using or releasing a token twice is a programmer error and panics.
package bytebuf

import (
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

type storage struct {
	bb   *bytebufferpool.ByteBuffer
	refs atomic.Int32
	free func(*bytebufferpool.ByteBuffer)
}

type Buffer struct {
	s        *storage
	released bool
}

func newBuffer(bb *bytebufferpool.ByteBuffer, free func(*bytebufferpool.ByteBuffer)) *Buffer {
	s := &storage{bb: bb, free: free}
	s.refs.Store(1)

	return &Buffer{s: s}
}

// Bytes returns the underlying bytes. The slice is valid until the token is released.
func (b *Buffer) Bytes() []byte {
	b.mustBeAlive()
	return b.s.bb.B
}

func (b *Buffer) Len() int {
	b.mustBeAlive()
	return len(b.s.bb.B)
}

// Cap returns the number of bytes the buffer is able to hold before growing.
func (b *Buffer) Cap() int {
	b.mustBeAlive()
	return cap(b.s.bb.B)
}

// Write appends p to the buffer. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mustBeAlive()
	b.s.bb.B = append(b.s.bb.B, p...)
	return len(p), nil
}

func (b *Buffer) WriteString(str string) (int, error) {
	b.mustBeAlive()
	b.s.bb.B = append(b.s.bb.B, str...)
	return len(str), nil
}

func (b *Buffer) WriteByte(c byte) error {
	b.mustBeAlive()
	b.s.bb.B = append(b.s.bb.B, c)
	return nil
}

// Set replaces the content of the buffer.
func (b *Buffer) Set(p []byte) {
	b.mustBeAlive()
	b.s.bb.B = append(b.s.bb.B[:0], p...)
}

// Retain returns a new token, sharing the storage with the current one. Both tokens
// must be released independently.
func (b *Buffer) Retain() *Buffer {
	b.mustBeAlive()
	b.s.refs.Add(1)

	return &Buffer{s: b.s}
}

// Release consumes the token. The storage is freed as soon as no tokens remain.
func (b *Buffer) Release() {
	if b.released {
		panic("bytebuf: release of an already released buffer")
	}

	b.released = true
	switch refs := b.s.refs.Add(-1); {
	case refs == 0:
		bb := b.s.bb
		b.s.bb = nil
		b.s.free(bb)
	case refs < 0:
		panic("bytebuf: reference count dropped below zero")
	}
}

// Released reports whether the token was already consumed.
func (b *Buffer) Released() bool {
	return b.released
}

// RefCount returns the number of live tokens sharing the storage.
func (b *Buffer) RefCount() int {
	return int(b.s.refs.Load())
}

// Copy returns an independent buffer with the same content.
func (b *Buffer) Copy(alloc Allocator) *Buffer {
	return From(alloc, b.Bytes())
}

func (b *Buffer) String() string {
	return string(b.Bytes())
}

func (b *Buffer) mustBeAlive() {
	if b.released {
		panic("bytebuf: use of a released buffer")
	}
}
