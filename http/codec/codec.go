// Package codec implements content codings: gzip, deflate (zlib-wrapped, with raw deflate
// recognized on decoding) and zstd, all of them backed by klauspost/compress.
package codec

import (
	"io"
)

const (
	GZIP     = "gzip"
	XGZIP    = "x-gzip"
	Deflate  = "deflate"
	XDeflate = "x-deflate"
	ZSTD     = "zstd"
	// Identity stands for "no encoding", according to RFC
	Identity = "identity"
)

type Codec interface {
	// Token returns a coding token associated with the codec itself.
	Token() string
	New() Instance
}

type Instance interface {
	Compressor
	Decompressor
}

// Compressor compresses a single stream at a time. Compressed bytes are written into the
// writer passed to ResetCompressor as soon as they are produced. Flush forces out all the
// pending data, so the peer is able to decompress everything written so far. Close
// flushes the rest, including the trailer of the stream.
type Compressor interface {
	io.WriteCloser
	Flush() error
	ResetCompressor(w io.Writer)
}

// Decompressor decompresses a single stream at a time. The compressed stream is pushed
// piece by piece, and every piece yields everything that can be decompressed so far.
type Decompressor interface {
	// ResetDecompressor starts a new stream, abandoning the previous one if it wasn't over.
	ResetDecompressor()
	// Decompress writes into dst everything decompressed after p was received. If final is
	// set, no more data follows, so a stream which isn't complete yet results in an error.
	// Errors are sticky until the next reset.
	Decompress(dst io.Writer, p []byte, final bool) error
	// Done reports whether the end of the compressed stream was reached.
	Done() bool
	// Stop abandons the current stream, releasing everything it holds.
	Stop()
}

// Canonical returns the token the alias stands for, e.g. gzip for x-gzip.
func Canonical(token string) string {
	switch token {
	case XGZIP:
		return GZIP
	case XDeflate:
		return Deflate
	default:
		return token
	}
}
