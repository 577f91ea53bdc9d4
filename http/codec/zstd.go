package codec

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// NewZSTD returns the zstd coding. Both directions run synchronously, as the decompressing
// reader must consume its source from the goroutine pushing the data.
func NewZSTD(level int) Codec {
	newWriter := func() writeResetter {
		w, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		)
		if err != nil {
			panic(err)
		}

		return w
	}

	newReader := func() readerFactory {
		var r *zstd.Decoder

		return func(src io.Reader) (io.Reader, error) {
			if r == nil {
				var err error
				r, err = zstd.NewReader(src, zstd.WithDecoderConcurrency(1))
				return r, err
			}

			return r, r.Reset(src)
		}
	}

	return newBaseCodec(ZSTD, newBaseInstance(newWriter, newReader))
}
