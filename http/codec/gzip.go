package codec

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

// NewGZIP returns the gzip coding compressing at the level.
func NewGZIP(level int) Codec {
	newWriter := func() writeResetter {
		w, err := gzip.NewWriterLevel(nil, level)
		if err != nil {
			panic(err)
		}

		return w
	}

	newReader := func() readerFactory {
		r := new(gzip.Reader)

		return func(src io.Reader) (io.Reader, error) {
			if err := r.Reset(src); err != nil {
				return nil, err
			}

			return r, nil
		}
	}

	return newBaseCodec(GZIP, newBaseInstance(newWriter, newReader))
}
