package codec

import (
	"io"
)

var _ Codec = baseCodec{}

type instantiator = func() Instance

type baseCodec struct {
	token   string
	newInst instantiator
}

func newBaseCodec(token string, newInst instantiator) baseCodec {
	return baseCodec{
		token:   token,
		newInst: newInst,
	}
}

func (b baseCodec) Token() string {
	return b.token
}

func (b baseCodec) New() Instance {
	return b.newInst()
}

var _ Instance = new(baseInstance)

type writeResetter interface {
	io.WriteCloser
	Flush() error
	Reset(dst io.Writer)
}

// decompressBufferSize is the size of a single read from the decompressing reader.
const decompressBufferSize = 4096

type baseInstance struct {
	w       writeResetter // compressor
	dst     io.Closer
	adapter *pushAdapter // decompressor
}

func newBaseInstance(newWriter func() writeResetter, newReader func() readerFactory) instantiator {
	return func() Instance {
		return &baseInstance{
			w:       newWriter(),
			adapter: newPushAdapter(newReader(), decompressBufferSize),
		}
	}
}

func (b *baseInstance) ResetCompressor(w io.Writer) {
	b.w.Reset(w)
	b.dst = nil

	if c, ok := w.(io.Closer); ok {
		b.dst = c
	}
}

func (b *baseInstance) Write(p []byte) (n int, err error) {
	return b.w.Write(p)
}

func (b *baseInstance) Flush() error {
	return b.w.Flush()
}

func (b *baseInstance) Close() error {
	if err := b.w.Close(); err != nil {
		return err
	}

	if b.dst != nil {
		return b.dst.Close()
	}

	return nil
}

func (b *baseInstance) ResetDecompressor() {
	b.adapter.Reset()
}

func (b *baseInstance) Decompress(dst io.Writer, p []byte, final bool) error {
	return b.adapter.Push(dst, p, final)
}

func (b *baseInstance) Done() bool {
	return b.adapter.Done()
}

func (b *baseInstance) Stop() {
	b.adapter.Stop()
}
