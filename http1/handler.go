package http1

import (
	"github.com/indigo-web/httpcodec/bytebuf"
	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/pipeline"
)

// DecoderHandler decodes inbound bytes into HTTP objects. Objects which aren't bytes are
// passed further as is. After the connection was upgraded, the bytes are passed further
// too.
type DecoderHandler struct {
	pipeline.Base
	cfg       config.Decoder
	isRequest bool
	decoder   *Decoder
}

func NewRequestDecoderHandler(cfg config.Decoder) *DecoderHandler {
	return &DecoderHandler{cfg: cfg, isRequest: true}
}

func NewResponseDecoderHandler(cfg config.Decoder) *DecoderHandler {
	return &DecoderHandler{cfg: cfg}
}

// Decoder returns the underlying decoder. It's nil until the handler is added to a
// pipeline.
func (h *DecoderHandler) Decoder() *Decoder {
	return h.decoder
}

func (h *DecoderHandler) Added(ctx *pipeline.Context) {
	h.decoder = newDecoder(h.cfg, ctx.Alloc(), h.isRequest)
}

func (h *DecoderHandler) Removed(*pipeline.Context) {
	h.decoder.Release()
}

func (h *DecoderHandler) Read(ctx *pipeline.Context, msg any) {
	decodeInbound(ctx, h.decoder, msg, nil)
}

func (h *DecoderHandler) Event(ctx *pipeline.Context, event any) {
	if _, ok := event.(http.ExpectationFailedEvent); ok {
		h.decoder.ExpectationFailed()
	}

	ctx.FireEvent(event)
}

func (h *DecoderHandler) Inactive(ctx *pipeline.Context) {
	decodeLast(ctx, h.decoder, nil)
	ctx.FireInactive()
}

// EncoderHandler encodes outbound HTTP objects into buffers. Anything else is passed
// further as is.
type EncoderHandler struct {
	pipeline.Base
	cfg       config.Encoder
	isRequest bool
	encoder   *Encoder
}

func NewRequestEncoderHandler(cfg config.Encoder) *EncoderHandler {
	return &EncoderHandler{cfg: cfg, isRequest: true}
}

func NewResponseEncoderHandler(cfg config.Encoder) *EncoderHandler {
	return &EncoderHandler{cfg: cfg}
}

// Encoder returns the underlying encoder. It's nil until the handler is added to a
// pipeline.
func (h *EncoderHandler) Encoder() *Encoder {
	return h.encoder
}

func (h *EncoderHandler) Added(ctx *pipeline.Context) {
	if h.isRequest {
		h.encoder = NewRequestEncoder(h.cfg, ctx.Alloc())
	} else {
		h.encoder = NewResponseEncoder(h.cfg, ctx.Alloc())
	}
}

func (h *EncoderHandler) Write(ctx *pipeline.Context, msg any) error {
	return encodeOutbound(ctx, h.encoder, msg)
}

// decodeInbound runs the decoder over the inbound bytes and fires every produced object.
// If the handler is removed meanwhile, the bytes left are pushed back into the transport,
// so whoever replaced the handler receives them with the next read.
func decodeInbound(ctx *pipeline.Context, d *Decoder, msg any, observe func(http.Object)) {
	var data []byte
	switch m := msg.(type) {
	case []byte:
		data = m
	case *bytebuf.Buffer:
		defer m.Release()
		data = m.Bytes()
	default:
		ctx.FireRead(msg)
		return
	}

	fire := func(obj http.Object) {
		if observe != nil {
			observe(obj)
		}

		ctx.FireRead(obj)
	}

	for {
		obj, rest := d.Decode(data)
		data = rest
		if obj == nil {
			if len(data) > 0 {
				// the decoder isn't interpreting the stream anymore
				ctx.FireRead(data)
			}

			return
		}

		// the pending object completes the message, so it's fired even if the handler
		// gets removed meanwhile
		pending := d.pending
		d.pending = nil
		fire(obj)
		if pending != nil {
			fire(pending)
		}

		if ctx.Removed() {
			if len(data) > 0 {
				ctx.Pipeline().Client().Pushback(data)
			}

			return
		}
	}
}

// decodeLast fires the objects terminating the current message, if the input closure
// terminates it legitimately.
func decodeLast(ctx *pipeline.Context, d *Decoder, observe func(http.Object)) {
	var fired bool
	for obj := d.DecodeLast(); obj != nil; obj = d.DecodeLast() {
		if observe != nil {
			observe(obj)
		}

		ctx.FireRead(obj)
		fired = true
	}

	if fired {
		ctx.FireReadComplete()
	}
}

// encodeOutbound writes the encoded object into the previous stage. HTTP objects and raw
// buffers are encoded, everything else is passed as is.
func encodeOutbound(ctx *pipeline.Context, e *Encoder, msg any) error {
	switch msg.(type) {
	case http.Object, *bytebuf.Buffer:
	default:
		return ctx.Write(msg)
	}

	out, err := e.Encode(msg)
	if err != nil {
		return err
	}

	for i, buf := range out {
		if err = ctx.Write(buf); err != nil {
			for _, unwritten := range out[i+1:] {
				unwritten.Release()
			}

			return err
		}
	}

	return nil
}
