// Package aggregate combines streamed messages into full ones.
package aggregate

import (
	"fmt"

	"github.com/indigo-web/httpcodec/bytebuf"
	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/headers"
	"github.com/indigo-web/httpcodec/http/proto"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/httpcodec/pipeline"
	"go.uber.org/zap"
)

// Aggregator collects a message head, its content and the last content into a single full
// message. Bodies exceeding the limit are rejected: requests are answered with 413,
// responses close the connection. Expectations of requests are answered here too, as the
// application never sees a request before its body arrived.
type Aggregator struct {
	pipeline.Base
	cfg     config.Aggregator
	head    http.Message
	body    *bytebuf.Buffer
	trailer *headers.Headers
	// aggregating stays set after a message was rejected, so the rest of its body is
	// discarded until the next message begins
	aggregating bool
	emit        func(ctx *pipeline.Context, msg http.FullMessage)
}

// Option customizes the Aggregator.
type Option func(*Aggregator)

// OnAggregated hands complete messages to the callback instead of firing them further.
// It lets other handlers build on top of the aggregation.
func OnAggregated(fn func(ctx *pipeline.Context, msg http.FullMessage)) Option {
	return func(a *Aggregator) {
		a.emit = fn
	}
}

func New(cfg *config.Config, opts ...Option) *Aggregator {
	a := &Aggregator{
		cfg: cfg.Aggregator,
		emit: func(ctx *pipeline.Context, msg http.FullMessage) {
			ctx.FireRead(msg)
		},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *Aggregator) Removed(*pipeline.Context) {
	a.releaseCurrent()
}

func (a *Aggregator) Inactive(ctx *pipeline.Context) {
	a.releaseCurrent()
	ctx.FireInactive()
}

func (a *Aggregator) Read(ctx *pipeline.Context, msg any) {
	switch m := msg.(type) {
	case http.FullMessage:
		ctx.FireRead(msg)
	case http.Message:
		a.begin(ctx, m)
	case http.Chunk:
		if !a.aggregating {
			ctx.FireRead(msg)
			return
		}

		a.append(ctx, m)
	default:
		ctx.FireRead(msg)
	}
}

// ReadComplete keeps reading until the message is complete, even if auto-read is off.
func (a *Aggregator) ReadComplete(ctx *pipeline.Context) {
	if a.head != nil && !ctx.Pipeline().AutoRead() {
		ctx.Read()
	}

	ctx.FireReadComplete()
}

// Aggregating reports whether there's a message waiting for the rest of its body.
func (a *Aggregator) Aggregating() bool {
	return a.head != nil
}

func (a *Aggregator) begin(ctx *pipeline.Context, msg http.Message) {
	a.aggregating = true

	if a.head != nil {
		ctx.Logger().Warn("message head arrived before the previous message was completed")
		a.releaseCurrent()
	}

	if response := a.continueResponse(ctx, msg); response != nil {
		rejected := status.IsClientError(response.Code)
		if err := ctx.Write(response); err != nil {
			ctx.FireError(err)
		}

		if rejected && a.cfg.CloseOnExpectationFailed {
			_ = ctx.Close()
			return
		}

		if rejected {
			return
		}
	} else if http.ContentLengthOr(msg, -1) > a.cfg.MaxContentLength {
		a.handleOversized(ctx, msg, false)
		return
	}

	if msg.Result().IsFailure() {
		a.head = msg
		a.finish(ctx)
		return
	}

	http.SetTransferEncodingChunked(msg, false)
	a.head = msg
}

func (a *Aggregator) append(ctx *pipeline.Context, chunk http.Chunk) {
	if a.head == nil {
		// a rejected message
		chunk.Release()
		return
	}

	if int64(a.size())+int64(chunk.Len()) > a.cfg.MaxContentLength {
		head := a.head
		a.releaseCurrent()
		chunk.Release()
		a.handleOversized(ctx, head, true)
		return
	}

	if chunk.Len() > 0 {
		if a.body == nil {
			hint := max(http.ContentLengthOr(a.head, 0), int64(chunk.Len()))
			a.body = ctx.Alloc().Allocate(int(min(hint, a.cfg.MaxContentLength)))
		}

		_, _ = a.body.Write(chunk.Bytes())
	}

	last := chunk.IsLast()
	if last {
		a.trailer = chunk.Trailers()
	}

	if res := chunk.Result(); res.IsFailure() {
		a.head.SetResult(res)
		last = true
	}

	chunk.Release()

	if last {
		a.finish(ctx)
	}
}

func (a *Aggregator) finish(ctx *pipeline.Context) {
	full := http.Assemble(a.head, a.body, a.trailer)
	a.head, a.body, a.trailer = nil, nil, nil
	a.aggregating = false

	// HEAD responses carry the length of the body, which isn't there
	if !http.IsContentLengthSet(full) {
		http.SetContentLength(full, int64(full.Len()))
	}

	a.emit(ctx, full)
}

// continueResponse returns the response to the expectation of the request, or nil if
// there's none. Rejections are announced to the pipeline, so the decoder doesn't wait for
// the body, which isn't going to be sent.
func (a *Aggregator) continueResponse(ctx *pipeline.Context, msg http.Message) *http.FullResponse {
	var response *http.FullResponse

	switch {
	case http.IsUnsupportedExpectation(msg):
		ctx.Pipeline().FireEvent(http.ExpectationFailed)
		response = emptyResponse(status.ExpectationFailed, false)
	case http.Is100ContinueExpected(msg):
		if http.ContentLengthOr(msg, -1) <= a.cfg.MaxContentLength {
			response = http.NewFullResponse(proto.HTTP11, status.Continue, nil)
			break
		}

		ctx.Pipeline().FireEvent(http.ExpectationFailed)
		response = emptyResponse(status.RequestEntityTooLarge, false)
	default:
		return nil
	}

	msg.Header().Remove("expect")

	return response
}

func (a *Aggregator) handleOversized(ctx *pipeline.Context, msg http.Message, midStream bool) {
	ctx.Logger().Debug("message is too large", zap.Int64("limit", a.cfg.MaxContentLength))

	if _, isRequest := http.RequestOf(msg); !isRequest {
		_ = ctx.Close()
		ctx.FireError(fmt.Errorf("%w: response exceeds %d bytes", status.ErrTooLongContent, a.cfg.MaxContentLength))
		return
	}

	// the client might have started sending the body already, so the connection can be
	// reused only if it's waiting for the permission
	if midStream || (!http.Is100ContinueExpected(msg) && !http.IsKeepAlive(msg)) {
		if err := ctx.Write(emptyResponse(status.RequestEntityTooLarge, true)); err != nil {
			ctx.Logger().Debug("failed to reject the request", zap.Error(err))
		}

		_ = ctx.Close()
		return
	}

	if err := ctx.Write(emptyResponse(status.RequestEntityTooLarge, false)); err != nil {
		ctx.Logger().Debug("failed to reject the request", zap.Error(err))
		_ = ctx.Close()
	}
}

func (a *Aggregator) size() int {
	if a.body == nil {
		return 0
	}

	return a.body.Len()
}

func (a *Aggregator) releaseCurrent() {
	if a.body != nil {
		a.body.Release()
	}

	a.head, a.body, a.trailer = nil, nil, nil
}

func emptyResponse(code status.Code, closeConn bool) *http.FullResponse {
	response := http.NewFullResponse(proto.HTTP11, code, nil)
	http.SetContentLength(response, 0)
	if closeConn {
		_ = response.Headers.Set("connection", "close")
	}

	return response
}
