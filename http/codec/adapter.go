package codec

import (
	"errors"
	"io"
	"iter"
)

// ErrStopped is returned by the decompressing reader, which was abandoned midway.
var ErrStopped = errors.New("decompression stopped")

// readerFactory wraps the source into a decompressing reader. It may reuse the reader
// built for the previous stream.
type readerFactory = func(src io.Reader) (io.Reader, error)

// pushAdapter drives a pull-based decompressing reader with the data pushed into it. The
// reader runs in a coroutine, which is suspended every time it runs out of the pushed
// data, and is resumed by the next push.
type pushAdapter struct {
	newReader readerFactory
	next      func() (struct{}, bool)
	stop      func()
	yield     func(struct{}) bool
	src       []byte
	dst       io.Writer
	buff      []byte
	err       error
	final     bool
	done      bool
}

func newPushAdapter(newReader readerFactory, bufferSize int) *pushAdapter {
	return &pushAdapter{
		newReader: newReader,
		buff:      make([]byte, bufferSize),
	}
}

func (p *pushAdapter) Reset() {
	p.Stop()
	p.src, p.dst, p.err = nil, nil, nil
	p.final, p.done = false, false
	p.next, p.stop = iter.Pull(p.run)
}

func (p *pushAdapter) Push(dst io.Writer, data []byte, final bool) error {
	if p.done || p.next == nil {
		return p.err
	}

	p.dst, p.src, p.final = dst, data, final
	if _, ok := p.next(); !ok {
		p.done = true
		p.next, p.stop = nil, nil
	}

	p.dst, p.src = nil, nil
	return p.err
}

func (p *pushAdapter) Done() bool {
	return p.done
}

func (p *pushAdapter) Stop() {
	if p.stop != nil {
		p.stop()
		p.next, p.stop = nil, nil
	}
}

// Read is what the decompressing reader consumes.
func (p *pushAdapter) Read(b []byte) (int, error) {
	for len(p.src) == 0 {
		if p.final {
			return 0, io.EOF
		}

		if !p.yield(struct{}{}) {
			return 0, ErrStopped
		}
	}

	n := copy(b, p.src)
	p.src = p.src[n:]

	return n, nil
}

func (p *pushAdapter) run(yield func(struct{}) bool) {
	p.yield = yield

	r, err := p.newReader(p)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			p.err = err
		}

		// an empty stream otherwise
		return
	}

	for {
		n, err := r.Read(p.buff)
		if n > 0 && p.dst != nil {
			if _, werr := p.dst.Write(p.buff[:n]); werr != nil {
				p.err = werr
				return
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return
		default:
			p.err = err
			return
		}
	}
}
