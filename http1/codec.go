package http1

import (
	"fmt"

	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/method"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/httpcodec/pipeline"
)

// methodQueue remembers methods of the requests, which are still waiting for a response.
type methodQueue struct {
	methods []method.Method
}

func (q *methodQueue) push(m method.Method) {
	q.methods = append(q.methods, m)
}

func (q *methodQueue) peek() method.Method {
	if len(q.methods) == 0 {
		return method.Method{}
	}

	return q.methods[0]
}

func (q *methodQueue) poll() method.Method {
	if len(q.methods) == 0 {
		return method.Method{}
	}

	m := q.methods[0]
	q.methods = q.methods[1:]
	if len(q.methods) == 0 {
		q.methods = q.methods[:0:0]
	}

	return m
}

func (q *methodQueue) clear() {
	q.methods = nil
}

func (q *methodQueue) len() int {
	return len(q.methods)
}

// ServerCodec decodes requests and encodes responses. It correlates every response with
// the request it answers, so responses to HEAD never carry a body, and successful
// responses to CONNECT are not framed.
type ServerCodec struct {
	pipeline.Base
	cfg     *config.Config
	decoder *Decoder
	encoder *Encoder
	queue   methodQueue
	// method is of the request the response being encoded answers
	method method.Method
}

func NewServerCodec(cfg *config.Config) *ServerCodec {
	return &ServerCodec{cfg: cfg}
}

func (c *ServerCodec) Added(ctx *pipeline.Context) {
	c.decoder = NewRequestDecoder(c.cfg.Decoder, ctx.Alloc())
	c.encoder = NewResponseEncoder(c.cfg.Encoder, ctx.Alloc())
	c.encoder.SetAlwaysEmpty(c.isAlwaysEmpty)
	c.encoder.SetSanitizer(c.sanitize)
}

func (c *ServerCodec) Removed(*pipeline.Context) {
	c.decoder.Release()
}

func (c *ServerCodec) Read(ctx *pipeline.Context, msg any) {
	decodeInbound(ctx, c.decoder, msg, c.observe)
}

func (c *ServerCodec) Write(ctx *pipeline.Context, msg any) error {
	return encodeOutbound(ctx, c.encoder, msg)
}

func (c *ServerCodec) Event(ctx *pipeline.Context, event any) {
	if _, ok := event.(http.ExpectationFailedEvent); ok {
		c.decoder.ExpectationFailed()
	}

	ctx.FireEvent(event)
}

func (c *ServerCodec) Inactive(ctx *pipeline.Context) {
	decodeLast(ctx, c.decoder, c.observe)
	ctx.FireInactive()
}

// UpgradeFrom removes the codec from the pipeline, as the connection is going to speak
// another protocol.
func (c *ServerCodec) UpgradeFrom(ctx *pipeline.Context) error {
	return ctx.Pipeline().RemoveHandler(c)
}

// Pending returns the number of requests, which weren't responded yet.
func (c *ServerCodec) Pending() int {
	return c.queue.len()
}

func (c *ServerCodec) observe(obj http.Object) {
	if req, ok := http.RequestOf(obj); ok {
		c.queue.push(req.Method)
	}
}

func (c *ServerCodec) isAlwaysEmpty(msg http.Message) bool {
	// interim responses precede the final one, which is going to answer the same request
	if resp, ok := http.ResponseOf(msg); ok &&
		resp.Code >= 100 && resp.Code < 200 && resp.Code != status.SwitchingProtocols {
		c.method = c.queue.peek()
	} else {
		c.method = c.queue.poll()
	}

	return c.method == method.HEAD || IsResponseAlwaysEmpty(msg)
}

func (c *ServerCodec) sanitize(msg http.Message, alwaysEmpty bool) {
	if resp, ok := http.ResponseOf(msg); ok && !alwaysEmpty &&
		c.method == method.CONNECT && resp.Code >= 200 && resp.Code < 300 {
		// the tunnel is established, there's no message body to frame
		resp.Headers.Remove("transfer-encoding")
		return
	}

	SanitizeResponse(msg, alwaysEmpty)
}

// ClientCodec encodes requests and decodes responses. Responses to HEAD are known to carry
// no body. After a successful CONNECT the bytes are passed through, unless configured to
// keep decoding HTTP.
type ClientCodec struct {
	pipeline.Base
	cfg      config.Client
	decCfg   config.Decoder
	encCfg   config.Encoder
	decoder  *Decoder
	encoder  *Encoder
	queue    methodQueue
	missing  int64
	done     bool
	upgraded bool
}

func NewClientCodec(cfg *config.Config) *ClientCodec {
	return &ClientCodec{
		cfg:    cfg.Client,
		decCfg: cfg.Decoder,
		encCfg: cfg.Encoder,
	}
}

func (c *ClientCodec) Added(ctx *pipeline.Context) {
	c.decoder = NewResponseDecoder(c.decCfg, ctx.Alloc())
	c.decoder.SetAlwaysEmpty(c.isAlwaysEmpty)
	c.encoder = NewRequestEncoder(c.encCfg, ctx.Alloc())
}

func (c *ClientCodec) Removed(*pipeline.Context) {
	c.decoder.Release()
}

func (c *ClientCodec) Write(ctx *pipeline.Context, msg any) error {
	if c.upgraded {
		return ctx.Write(msg)
	}

	if obj, ok := msg.(http.Object); ok {
		if req, ok := http.RequestOf(obj); ok {
			c.queue.push(req.Method)
		}
	}

	chunk, isChunk := msg.(http.Chunk)
	isLast := isChunk && chunk.IsLast()

	if err := encodeOutbound(ctx, c.encoder, msg); err != nil {
		return err
	}

	if c.cfg.FailOnMissingResponse && !c.done && isLast {
		c.missing++
	}

	return nil
}

func (c *ClientCodec) Read(ctx *pipeline.Context, msg any) {
	decodeInbound(ctx, c.decoder, msg, c.observe)
}

func (c *ClientCodec) Inactive(ctx *pipeline.Context) {
	decodeLast(ctx, c.decoder, c.observe)
	ctx.FireInactive()

	if c.cfg.FailOnMissingResponse && c.missing > 0 {
		ctx.FireError(fmt.Errorf(
			"%w: channel gone inactive with %d missing response(s)",
			status.ErrPrematureClosure, c.missing,
		))
	}
}

// PrepareUpgradeFrom makes the codec pass outbound objects through, as they belong to
// the protocol the connection is being upgraded to.
func (c *ClientCodec) PrepareUpgradeFrom() {
	c.upgraded = true
}

// UpgradeFrom removes the codec from the pipeline.
func (c *ClientCodec) UpgradeFrom(ctx *pipeline.Context) error {
	return ctx.Pipeline().RemoveHandler(c)
}

// Missing returns the number of requests still waiting for their responses. It's counted
// only if FailOnMissingResponse is enabled.
func (c *ClientCodec) Missing() int64 {
	return c.missing
}

func (c *ClientCodec) observe(obj http.Object) {
	if !c.cfg.FailOnMissingResponse {
		return
	}

	if chunk, ok := obj.(http.Chunk); ok && chunk.IsLast() {
		c.missing--
	}
}

func (c *ClientCodec) isAlwaysEmpty(msg http.Message) bool {
	resp, ok := http.ResponseOf(msg)
	if !ok {
		return false
	}

	if resp.Code == status.Continue || resp.Code == status.SwitchingProtocols {
		// not paired with a request
		return IsContentAlwaysEmpty(msg)
	}

	switch c.queue.poll() {
	case method.HEAD:
		return true
	case method.CONNECT:
		if !status.IsSuccess(resp.Code) {
			break
		}

		if !c.cfg.ParseHTTPAfterConnect {
			c.done = true
			c.queue.clear()
			c.decoder.SetPassThrough()
		}

		return true
	}

	return IsContentAlwaysEmpty(msg)
}
