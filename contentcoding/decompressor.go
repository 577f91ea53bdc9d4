package contentcoding

import (
	"fmt"
	"strings"

	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/codec"
	"github.com/indigo-web/httpcodec/http/headers"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/httpcodec/internal/strutil"
	"github.com/indigo-web/httpcodec/pipeline"
	"go.uber.org/zap"
)

// decompressedChunkHint is the initial capacity of buffers keeping decompressed output.
const decompressedChunkHint = 4096

// Decompressor decompresses bodies of incoming messages encoded with gzip, deflate or zstd.
// Messages in other codings are passed as is. Decompressed messages lose their
// Content-Encoding and Content-Length, as the decompressed length isn't known up front.
type Decompressor struct {
	pipeline.Base
	cfg     config.Compression
	codings *registry
	out     sink
	// decoder is nil unless the body of the current message is being decompressed
	decoder          codec.Decompressor
	continueResponse bool
	discarding       bool
}

func NewDecompressor(cfg *config.Config) *Decompressor {
	return &Decompressor{cfg: cfg.Compression}
}

func (d *Decompressor) Added(ctx *pipeline.Context) {
	d.codings = newRegistry(d.cfg)
	d.out = sink{alloc: ctx.Alloc(), hint: decompressedChunkHint}
}

func (d *Decompressor) Removed(*pipeline.Context) {
	d.cleanup()
	d.codings.Stop()
}

func (d *Decompressor) Inactive(ctx *pipeline.Context) {
	d.cleanup()
	d.codings.Stop()
	ctx.FireInactive()
}

func (d *Decompressor) Read(ctx *pipeline.Context, msg any) {
	obj, ok := msg.(http.Object)
	if !ok {
		ctx.FireRead(msg)
		return
	}

	if resp, ok := http.ResponseOf(obj); ok && resp.Code == status.Continue {
		if _, isFull := obj.(http.Chunk); !isFull {
			d.continueResponse = true
		}

		ctx.FireRead(msg)
		return
	}

	if d.continueResponse {
		if chunk, ok := obj.(http.Chunk); ok && chunk.IsLast() {
			d.continueResponse = false
		}

		ctx.FireRead(msg)
		return
	}

	if m, ok := obj.(http.Message); ok {
		d.decodeMessage(ctx, m)
		return
	}

	d.decodeContent(ctx, obj.(http.Chunk))
}

func (d *Decompressor) decodeMessage(ctx *pipeline.Context, msg http.Message) {
	d.cleanup()

	if msg.Result().IsFailure() {
		ctx.FireRead(msg)
		return
	}

	h := msg.Header()
	coding := contentCodingOf(h)
	decoder := d.codings.Get(coding)
	if decoder == nil {
		ctx.FireRead(msg)
		return
	}

	h.Remove("content-encoding")
	decoder.ResetDecompressor()
	ctx.Logger().Debug("decompressing body", zap.String("coding", coding))

	full, isFull := msg.(http.FullMessage)
	if !isFull {
		// the decompressed length is unknown until the body is over
		if h.Has("content-length") {
			http.SetTransferEncodingChunked(msg, true)
		}

		d.decoder = decoder
		ctx.FireRead(msg)
		return
	}

	err := decoder.Decompress(&d.out, full.Bytes(), true)
	if err != nil {
		d.out.Discard()
	}

	decompressed := http.ReplacePayload(full, d.out.Take())
	full.Release()

	if err != nil {
		err = fmt.Errorf("%w: %w", status.ErrBadEncoding, err)
		decompressed.SetResult(http.Failure(err))
		ctx.FireRead(decompressed)
		ctx.FireError(err)
		return
	}

	if http.IsContentLengthSet(decompressed) {
		http.SetContentLength(decompressed, int64(decompressed.Len()))
	}

	ctx.FireRead(decompressed)
}

func (d *Decompressor) decodeContent(ctx *pipeline.Context, chunk http.Chunk) {
	if d.discarding {
		d.discarding = !chunk.IsLast()
		chunk.Release()
		return
	}

	if d.decoder == nil {
		ctx.FireRead(chunk)
		return
	}

	if chunk.Result().IsFailure() {
		d.cleanup()
		ctx.FireRead(chunk)
		return
	}

	err := d.decoder.Decompress(&d.out, chunk.Bytes(), chunk.IsLast())
	chunk.Release()

	if err != nil {
		d.cleanup()
		d.discarding = !chunk.IsLast()
		err = fmt.Errorf("%w: %w", status.ErrBadEncoding, err)
		last := http.NewLastContent(nil, nil)
		last.SetResult(http.Failure(err))
		ctx.FireRead(last)
		ctx.FireError(err)
		return
	}

	if !chunk.IsLast() {
		if out := d.out.Take(); out != nil {
			ctx.FireRead(http.NewContent(out))
		}

		return
	}

	d.decoder = nil
	ctx.FireRead(http.NewLastContent(d.out.Take(), chunk.Trailers()))
}

func (d *Decompressor) cleanup() {
	if d.decoder != nil {
		d.decoder.Stop()
		d.decoder = nil
	}

	d.discarding = false
	d.out.Discard()
}

// contentCodingOf returns Content-Encoding, or the first Transfer-Encoding coding if it's
// absent.
func contentCodingOf(h *headers.Headers) string {
	coding, found := h.Get("content-encoding")
	if !found {
		te, found := h.Get("transfer-encoding")
		if !found {
			return codec.Identity
		}

		coding, _, _ = strings.Cut(te, ",")
	}

	return strings.ToLower(strutil.StripWS(coding))
}
