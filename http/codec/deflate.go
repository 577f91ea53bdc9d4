package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
)

// NewDeflate returns the deflate coding, which is the zlib format (RFC 1950) in HTTP. Unless
// strict, streams lacking the zlib wrapper are recognized and decoded as raw deflate, as
// some implementations send them.
func NewDeflate(level int, strict bool) Codec {
	newWriter := func() writeResetter {
		w, err := zlib.NewWriterLevel(nil, level)
		if err != nil {
			panic(err)
		}

		return w
	}

	newReader := func() readerFactory {
		var (
			zr io.ReadCloser
			fr io.ReadCloser
		)

		return func(src io.Reader) (io.Reader, error) {
			var header [2]byte
			n, err := io.ReadFull(src, header[:])
			if n == 0 {
				return nil, err
			}

			src = io.MultiReader(bytes.NewReader(header[:n]), src)
			if !strict && (n < len(header) || !isZlibHeader(header)) {
				if fr == nil {
					fr = flate.NewReader(src)
				} else if err = fr.(flate.Resetter).Reset(src, nil); err != nil {
					return nil, err
				}

				return fr, nil
			}

			if zr == nil {
				zr, err = zlib.NewReader(src)
			} else {
				err = zr.(zlib.Resetter).Reset(src, nil)
			}

			return zr, err
		}
	}

	return newBaseCodec(Deflate, newBaseInstance(newWriter, newReader))
}

// isZlibHeader checks the compression method, the window size and the check bits.
func isZlibHeader(h [2]byte) bool {
	return h[0]&0x0f == 8 && h[0]>>4 <= 7 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0
}
