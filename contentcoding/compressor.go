package contentcoding

import (
	"fmt"
	"strings"

	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/codec"
	"github.com/indigo-web/httpcodec/http/headers"
	"github.com/indigo-web/httpcodec/http/method"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/httpcodec/internal/strutil"
	"github.com/indigo-web/httpcodec/pipeline"
	"go.uber.org/zap"
)

type encoderState uint8

const (
	awaitHeaders encoderState = iota
	awaitContent
	passThrough
)

// compressedChunkHint is the initial capacity of buffers keeping compressed output.
const compressedChunkHint = 1024

// inflight is a request waiting for its response.
type inflight struct {
	acceptEncoding string
	method         method.Method
}

// Compressor compresses bodies of outgoing responses with the coding the matching request
// prefers the most. It must be placed after the server codec.
type Compressor struct {
	pipeline.Base
	cfg     config.Compression
	codings *registry
	queue   []inflight
	state   encoderState
	encoder codec.Compressor
	out     sink
}

func NewCompressor(cfg *config.Config) *Compressor {
	return &Compressor{cfg: cfg.Compression}
}

func (c *Compressor) Added(ctx *pipeline.Context) {
	c.codings = newRegistry(c.cfg)
	c.out = sink{alloc: ctx.Alloc(), hint: compressedChunkHint}
}

func (c *Compressor) Removed(*pipeline.Context) {
	c.cleanup()
}

func (c *Compressor) Inactive(ctx *pipeline.Context) {
	c.cleanup()
	ctx.FireInactive()
}

func (c *Compressor) Read(ctx *pipeline.Context, msg any) {
	if obj, ok := msg.(http.Object); ok {
		if req, ok := http.RequestOf(obj); ok {
			acceptEncoding := strings.Join(req.Headers.Values("accept-encoding"), ",")
			if len(acceptEncoding) == 0 {
				acceptEncoding = codec.Identity
			}

			c.queue = append(c.queue, inflight{
				acceptEncoding: acceptEncoding,
				method:         req.Method,
			})
		}
	}

	ctx.FireRead(msg)
}

func (c *Compressor) Write(ctx *pipeline.Context, msg any) error {
	obj, ok := msg.(http.Object)
	if !ok {
		return ctx.Write(msg)
	}

	_, isMessage := obj.(http.Message)

	switch c.state {
	case passThrough:
		if isMessage {
			break
		}

		if obj.(http.Chunk).IsLast() {
			c.state = awaitHeaders
		}

		return ctx.Write(msg)
	case awaitContent:
		if isMessage {
			break
		}

		return c.encodeContent(ctx, obj.(http.Chunk))
	default:
		if isMessage {
			return c.encodeMessage(ctx, obj.(http.Message))
		}
	}

	http.Release(msg)
	return fmt.Errorf("%w: %T while %s", status.ErrUnexpectedMessage, msg, c.state)
}

func (c *Compressor) encodeMessage(ctx *pipeline.Context, msg http.Message) error {
	resp, ok := http.ResponseOf(msg)
	if !ok {
		http.Release(msg)
		return fmt.Errorf("%w: compressing a request", status.ErrUnexpectedMessage)
	}

	full, isFull := msg.(*http.FullResponse)

	var request inflight
	if resp.Code != status.Continue {
		if len(c.queue) == 0 {
			http.Release(msg)
			return status.ErrUnpairedResponse
		}

		request = c.queue[0]
		c.queue = c.queue[1:]
	}

	if resp.Code == status.Continue || isPassThrough(resp, request.method) ||
		(isFull && full.Len() == 0) {
		return c.passThrough(ctx, msg, isFull)
	}

	if isFull && int64(full.Len()) < c.cfg.ContentSizeThreshold {
		return c.passThrough(ctx, msg, isFull)
	}

	if resp.Headers.Has("content-encoding") {
		return c.passThrough(ctx, msg, isFull)
	}

	coding := determineEncoding(request.acceptEncoding)
	if len(coding) == 0 {
		return c.passThrough(ctx, msg, isFull)
	}

	c.encoder = c.codings.Get(coding)
	c.encoder.ResetCompressor(&c.out)
	_ = resp.Headers.Set("content-encoding", coding)
	ctx.Logger().Debug("compressing response", zap.String("coding", coding))

	if isFull {
		return c.encodeFull(ctx, full)
	}

	http.SetTransferEncodingChunked(resp, true)
	c.state = awaitContent

	return ctx.Write(msg)
}

func (c *Compressor) passThrough(ctx *pipeline.Context, msg http.Message, isFull bool) error {
	if !isFull {
		c.state = passThrough
	}

	return ctx.Write(msg)
}

func (c *Compressor) encodeFull(ctx *pipeline.Context, full *http.FullResponse) error {
	withLength := http.IsContentLengthSet(full)
	err := c.compress(full.Bytes(), true)
	c.encoder = nil

	if err != nil {
		full.Release()
		c.out.Discard()
		return err
	}

	compressed := full.Replace(c.out.Take())
	full.Release()

	if withLength {
		http.SetContentLength(compressed, int64(compressed.Len()))
	} else {
		http.SetTransferEncodingChunked(compressed, true)
	}

	return ctx.Write(compressed)
}

func (c *Compressor) encodeContent(ctx *pipeline.Context, chunk http.Chunk) error {
	err := c.compress(chunk.Bytes(), chunk.IsLast())
	chunk.Release()

	if err != nil {
		c.cleanup()
		return err
	}

	if !chunk.IsLast() {
		if out := c.out.Take(); out != nil {
			return ctx.Write(http.NewContent(out))
		}

		return nil
	}

	c.state = awaitHeaders
	c.encoder = nil

	return ctx.Write(http.NewLastContent(c.out.Take(), chunk.Trailers()))
}

func (c *Compressor) compress(data []byte, last bool) error {
	if len(data) > 0 {
		if _, err := c.encoder.Write(data); err != nil {
			return err
		}

		if !last {
			return c.encoder.Flush()
		}
	}

	if last {
		return c.encoder.Close()
	}

	return nil
}

func (c *Compressor) cleanup() {
	c.encoder = nil
	c.state = awaitHeaders
	c.out.Discard()
}

// isPassThrough reports whether the response must be sent as is: it either can't have a
// body, or the peer might not understand the compressed one.
func isPassThrough(resp *http.Response, m method.Method) bool {
	code := resp.Code

	return code < 200 || code == status.NoContent || code == status.NotModified ||
		m == method.HEAD || (m == method.CONNECT && status.IsSuccess(code)) ||
		!http.AtLeast11(resp.Protocol)
}

// determineEncoding picks gzip or deflate, whichever has the higher quality. Gzip is
// preferred if both are equal. The wildcard grants a coding, which isn't mentioned
// explicitly. An empty string is returned if none is acceptable.
func determineEncoding(acceptEncoding string) string {
	starQ, gzipQ, deflateQ := -1.0, -1.0, -1.0

	for _, member := range strings.Split(acceptEncoding, ",") {
		q := headers.QualityOf(member)

		switch strings.ToLower(strutil.StripWS(headers.ValueOf(member))) {
		case "*":
			starQ = q
		case codec.GZIP, codec.XGZIP:
			gzipQ = max(gzipQ, q)
		case codec.Deflate, codec.XDeflate:
			deflateQ = max(deflateQ, q)
		}
	}

	if gzipQ > 0 || deflateQ > 0 {
		if gzipQ >= deflateQ {
			return codec.GZIP
		}

		return codec.Deflate
	}

	if starQ > 0 {
		if gzipQ == -1 {
			return codec.GZIP
		}

		if deflateQ == -1 {
			return codec.Deflate
		}
	}

	return ""
}

func (e encoderState) String() string {
	switch e {
	case awaitHeaders:
		return "awaiting headers"
	case awaitContent:
		return "awaiting content"
	case passThrough:
		return "passing through"
	default:
		return "unknown state"
	}
}
