package config

import (
	"errors"
	"fmt"
	"time"
)

type (
	Decoder struct {
		// MaxInitialLineLength limits the request or status line. Longer lines fail the message
		// with status.ErrTooLongInitialLine.
		MaxInitialLineLength int
		// MaxHeaderSize limits the whole header section, including trailers of a chunked body.
		MaxHeaderSize int
		// MaxChunkSize limits the size of a single decoded content chunk. Bigger bodies are
		// split into multiple chunks.
		MaxChunkSize int
		// ValidateHeaders enables the validation of header names and values on receipt.
		ValidateHeaders bool
		// AllowDuplicateContentLengths tolerates multiple Content-Length values, as long as all
		// of them are equal. The values are collapsed into one. Otherwise, such messages are
		// considered malformed.
		AllowDuplicateContentLengths bool `test:"nullable"`
		// AllowPartialChunks lets the decoder emit a piece of a chunk as soon as it arrived,
		// instead of waiting for the whole chunk.
		AllowPartialChunks bool
		// InitialBufferSize is the initial capacity of the buffer keeping lines, which arrived
		// split among multiple reads.
		InitialBufferSize int
	}

	Encoder struct {
		// HeaderSizeEstimate is the initial estimation of the header section size. It is
		// adjusted on every message and is used to size output buffers.
		HeaderSizeEstimate int
		// TrailerSizeEstimate does the same for the trailer section.
		TrailerSizeEstimate int
	}

	Aggregator struct {
		// MaxContentLength limits the size of an aggregated body.
		MaxContentLength int64
		// CloseOnExpectationFailed closes the connection after rejecting a request, whose
		// expectation failed, instead of discarding its body.
		CloseOnExpectationFailed bool `test:"nullable"`
	}

	Compression struct {
		// Level is the compression level, from 0 (no compression) to 9 (best).
		Level int
		// WindowBits is the base two logarithm of the window size, from 9 to 15.
		WindowBits int
		// MemLevel is the memory level of the compressor, from 1 to 9.
		MemLevel int
		// ContentSizeThreshold is the minimal size of a full response body to be compressed.
		ContentSizeThreshold int64 `test:"nullable"`
		// Strict disables decoding deflate streams lacking the zlib wrapper.
		Strict bool `test:"nullable"`
	}

	Client struct {
		// FailOnMissingResponse reports the connection being closed while some requests
		// are still unanswered.
		FailOnMissingResponse bool `test:"nullable"`
		// ParseHTTPAfterConnect keeps decoding HTTP after a successful CONNECT response
		// instead of passing the bytes through.
		ParseHTTPAfterConnect bool `test:"nullable"`
	}

	Pipeline struct {
		// AutoRead makes the serve loop read continuously. When disabled, data is read
		// only after some handler asked for it.
		AutoRead bool
	}

	NET struct {
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// socket
		ReadBufferSize int
		// ReadTimeout controls the maximal lifetime of IDLE connections. If no data was
		// received in this period of time, it'll be closed.
		ReadTimeout time.Duration
	}
)

// Config holds settings used across the codec, mainly restrictions and limitations.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	Decoder     Decoder
	Encoder     Encoder
	Aggregator  Aggregator
	Compression Compression
	Client      Client
	Pipeline    Pipeline
	NET         NET
}

// Default returns default config.
func Default() *Config {
	return &Config{
		Decoder: Decoder{
			MaxInitialLineLength: 4096,
			MaxHeaderSize:        8192,
			MaxChunkSize:         8192,
			ValidateHeaders:      true,
			AllowPartialChunks:   true,
			InitialBufferSize:    128,
		},
		Encoder: Encoder{
			HeaderSizeEstimate:  256,
			TrailerSizeEstimate: 256,
		},
		Aggregator: Aggregator{
			MaxContentLength: 1024 * 1024,
		},
		Compression: Compression{
			Level:      6,
			WindowBits: 15,
			MemLevel:   8,
		},
		Pipeline: Pipeline{
			AutoRead: true,
		},
		NET: NET{
			ReadBufferSize: 4096,
			ReadTimeout:    90 * time.Second,
		},
	}
}

// Validate reports all the settings, which are out of their range.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, value int64) {
		if value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, value))
		}
	}
	inRange := func(name string, value, low, high int) {
		if value < low || value > high {
			errs = append(errs, fmt.Errorf("%s must be in range [%d, %d], got %d", name, low, high, value))
		}
	}

	positive("Decoder.MaxInitialLineLength", int64(c.Decoder.MaxInitialLineLength))
	positive("Decoder.MaxHeaderSize", int64(c.Decoder.MaxHeaderSize))
	positive("Decoder.MaxChunkSize", int64(c.Decoder.MaxChunkSize))
	positive("Decoder.InitialBufferSize", int64(c.Decoder.InitialBufferSize))
	positive("Encoder.HeaderSizeEstimate", int64(c.Encoder.HeaderSizeEstimate))
	positive("Encoder.TrailerSizeEstimate", int64(c.Encoder.TrailerSizeEstimate))
	positive("NET.ReadBufferSize", int64(c.NET.ReadBufferSize))
	inRange("Compression.Level", c.Compression.Level, 0, 9)
	inRange("Compression.WindowBits", c.Compression.WindowBits, 9, 15)
	inRange("Compression.MemLevel", c.Compression.MemLevel, 1, 9)

	if c.Aggregator.MaxContentLength < 0 {
		errs = append(errs, fmt.Errorf(
			"Aggregator.MaxContentLength must not be negative, got %d", c.Aggregator.MaxContentLength,
		))
	}

	if c.Compression.ContentSizeThreshold < 0 {
		errs = append(errs, fmt.Errorf(
			"Compression.ContentSizeThreshold must not be negative, got %d", c.Compression.ContentSizeThreshold,
		))
	}

	return errors.Join(errs...)
}
