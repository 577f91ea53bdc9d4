package buffer

// Buffer accumulates a single line, which arrived split over multiple reads. The
// bytes are kept until Clear is called, so everything returned by Preview stays valid
// until then. Appending over the limit is refused.
type Buffer struct {
	memory  []byte
	maxSize int
}

func New(initialSize, maxSize int) *Buffer {
	return &Buffer{
		memory:  make([]byte, 0, initialSize),
		maxSize: maxSize,
	}
}

// Append writes data, checking whether the new amount of elements (bytes) doesn't exceed the
// limit, otherwise discarding the data and returning false.
func (b *Buffer) Append(elements []byte) (ok bool) {
	if len(b.memory)+len(elements) > b.maxSize {
		return false
	}

	b.memory = append(b.memory, elements...)
	return true
}

// AppendByte writes a single byte, checking whether it won't exceed the limit.
func (b *Buffer) AppendByte(c byte) (ok bool) {
	if len(b.memory)+1 > b.maxSize {
		return false
	}

	b.memory = append(b.memory, c)
	return true
}

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int {
	return len(b.memory)
}

// Empty reports whether nothing is pending. The decoder uses it to decide whether a
// complete line can be taken straight from the input instead of being copied.
func (b *Buffer) Empty() bool {
	return len(b.memory) == 0
}

// Preview returns the accumulated bytes without clearing them.
func (b *Buffer) Preview() []byte {
	return b.memory
}

// Clear resets the pointers, so old values may be overridden by new ones.
func (b *Buffer) Clear() {
	b.memory = b.memory[:0]
}
