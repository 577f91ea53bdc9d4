package bytebuf

import (
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Allocator hands out fresh buffers, each carrying a single token.
type Allocator interface {
	Allocate(sizeHint int) *Buffer
}

// Default is the process-wide pooled allocator.
var Default Allocator = NewPool()

// Pool allocates buffers backed by bytebufferpool.
type Pool struct {
	pool bytebufferpool.Pool
}

func NewPool() *Pool {
	return new(Pool)
}

func (p *Pool) Allocate(sizeHint int) *Buffer {
	bb := p.pool.Get()
	if cap(bb.B) < sizeHint {
		bb.B = make([]byte, 0, sizeHint)
	}

	return newBuffer(bb, p.pool.Put)
}

// From allocates a buffer holding a copy of data.
func From(alloc Allocator, data []byte) *Buffer {
	b := alloc.Allocate(len(data))
	_, _ = b.Write(data)

	return b
}

// FromString allocates a buffer holding a copy of str.
func FromString(alloc Allocator, str string) *Buffer {
	b := alloc.Allocate(len(str))
	_, _ = b.WriteString(str)

	return b
}

// Empty allocates a zero-length buffer.
func Empty(alloc Allocator) *Buffer {
	return alloc.Allocate(0)
}

// Tracker counts storages which are still alive. It is intended for tests, where
// Live must drop back to zero once every scenario is done.
type Tracker struct {
	inner     Allocator
	allocated atomic.Int64
	live      atomic.Int64
}

func NewTracker(inner Allocator) *Tracker {
	return &Tracker{inner: inner}
}

func (t *Tracker) Allocate(sizeHint int) *Buffer {
	b := t.inner.Allocate(sizeHint)
	t.allocated.Add(1)
	t.live.Add(1)

	free := b.s.free
	b.s.free = func(bb *bytebufferpool.ByteBuffer) {
		t.live.Add(-1)
		free(bb)
	}

	return b
}

// Live returns the number of storages not yet freed.
func (t *Tracker) Live() int {
	return int(t.live.Load())
}

// Allocated returns the number of storages ever allocated.
func (t *Tracker) Allocated() int {
	return int(t.allocated.Load())
}
