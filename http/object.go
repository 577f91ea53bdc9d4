package http

import (
	"github.com/indigo-web/httpcodec/bytebuf"
	"github.com/indigo-web/httpcodec/http/headers"
	"github.com/indigo-web/httpcodec/http/method"
	"github.com/indigo-web/httpcodec/http/proto"
	"github.com/indigo-web/httpcodec/http/status"
)

// Object is anything the decoder produces or the encoder consumes. The set of
// implementations is closed: *Request, *Response, *Content, *LastContent, *FullRequest
// and *FullResponse.
type Object interface {
	Result() DecodeResult
	SetResult(DecodeResult)
	httpObject()
}

// Message is an object starting a new message: a request or a response.
type Message interface {
	Object
	Header() *headers.Headers
	Proto() proto.Protocol
	SetProto(proto.Protocol)
}

// Chunk is an object carrying body bytes. Trailers returns nil unless the chunk is the last
// one of the message. The payload may be nil, in which case the chunk is empty.
type Chunk interface {
	Object
	Payload() *bytebuf.Buffer
	Bytes() []byte
	Len() int
	Trailers() *headers.Headers
	IsLast() bool
	// Release consumes the payload token, if there is any.
	Release()
}

// FullMessage is a message with its whole body and trailers in place.
type FullMessage interface {
	Message
	Chunk
}

type result struct {
	res DecodeResult
}

func (r *result) Result() DecodeResult {
	return r.res
}

func (r *result) SetResult(res DecodeResult) {
	r.res = res
}

func (*result) httpObject() {}

// Head holds everything requests and responses have in common.
type Head struct {
	result
	Protocol proto.Protocol
	Headers  *headers.Headers
}

func (h *Head) Header() *headers.Headers {
	return h.Headers
}

func (h *Head) Proto() proto.Protocol {
	return h.Protocol
}

func (h *Head) SetProto(p proto.Protocol) {
	h.Protocol = p
}

// Request represents the head of an HTTP request.
type Request struct {
	Head
	Method method.Method
	// Target is the request-target exactly as it appeared on the wire.
	Target string
}

// NewRequest returns a request with an empty validating header store.
func NewRequest(p proto.Protocol, m method.Method, target string) *Request {
	return &Request{
		Head:   Head{Protocol: p, Headers: headers.NewValidating()},
		Method: m,
		Target: target,
	}
}

// Response represents the head of an HTTP response.
type Response struct {
	Head
	Code   status.Code
	Reason string
}

// NewResponse returns a response with the standard reason phrase and an empty validating
// header store.
func NewResponse(p proto.Protocol, code status.Code) *Response {
	return &Response{
		Head:   Head{Protocol: p, Headers: headers.NewValidating()},
		Code:   code,
		Reason: status.Text(code),
	}
}

type body struct {
	Data *bytebuf.Buffer
}

func (b *body) Payload() *bytebuf.Buffer {
	return b.Data
}

func (b *body) Bytes() []byte {
	if b.Data == nil {
		return nil
	}

	return b.Data.Bytes()
}

func (b *body) Len() int {
	if b.Data == nil {
		return 0
	}

	return b.Data.Len()
}

func (b *body) Release() {
	if b.Data != nil {
		b.Data.Release()
	}
}

// Content is a non-terminal piece of a message body.
type Content struct {
	result
	body
}

func NewContent(data *bytebuf.Buffer) *Content {
	return &Content{body: body{Data: data}}
}

func (*Content) Trailers() *headers.Headers {
	return nil
}

func (*Content) IsLast() bool {
	return false
}

// LastContent terminates the message body, optionally carrying trailers.
type LastContent struct {
	result
	body
	Trailer *headers.Headers
}

// NewLastContent returns the terminal chunk. The data may be nil, the trailers are created
// when nil is passed.
func NewLastContent(data *bytebuf.Buffer, trailer *headers.Headers) *LastContent {
	if trailer == nil {
		trailer = headers.New()
	}

	return &LastContent{body: body{Data: data}, Trailer: trailer}
}

func (l *LastContent) Trailers() *headers.Headers {
	return l.Trailer
}

func (*LastContent) IsLast() bool {
	return true
}

// FullRequest is a request with its whole body.
type FullRequest struct {
	Request
	body
	Trailer *headers.Headers
}

func NewFullRequest(p proto.Protocol, m method.Method, target string, data *bytebuf.Buffer) *FullRequest {
	return &FullRequest{
		Request: *NewRequest(p, m, target),
		body:    body{Data: data},
		Trailer: headers.New(),
	}
}

func (f *FullRequest) Trailers() *headers.Headers {
	return f.Trailer
}

func (*FullRequest) IsLast() bool {
	return true
}

// Replace returns a copy of the request with deeply copied headers and trailers, but
// holding the passed data instead.
func (f *FullRequest) Replace(data *bytebuf.Buffer) *FullRequest {
	dup := &FullRequest{
		Request: f.Request,
		body:    body{Data: data},
		Trailer: f.Trailer.Clone(),
	}
	dup.Headers = f.Headers.Clone()

	return dup
}

// FullResponse is a response with its whole body.
type FullResponse struct {
	Response
	body
	Trailer *headers.Headers
}

func NewFullResponse(p proto.Protocol, code status.Code, data *bytebuf.Buffer) *FullResponse {
	return &FullResponse{
		Response: *NewResponse(p, code),
		body:     body{Data: data},
		Trailer:  headers.New(),
	}
}

func (f *FullResponse) Trailers() *headers.Headers {
	return f.Trailer
}

func (*FullResponse) IsLast() bool {
	return true
}

// Replace returns a copy of the response with deeply copied headers and trailers, but
// holding the passed data instead.
func (f *FullResponse) Replace(data *bytebuf.Buffer) *FullResponse {
	dup := &FullResponse{
		Response: f.Response,
		body:     body{Data: data},
		Trailer:  f.Trailer.Clone(),
	}
	dup.Headers = f.Headers.Clone()

	return dup
}

// Release consumes the payload of the object, if it carries any. Anything else owning
// buffers, like events carrying messages, is released too.
func Release(obj any) {
	if r, ok := obj.(interface{ Release() }); ok {
		r.Release()
	}
}

// Assemble makes a full message out of the head, the whole body and the trailers. The head
// is taken over rather than copied, so it must not be used afterward.
func Assemble(head Message, data *bytebuf.Buffer, trailer *headers.Headers) FullMessage {
	if trailer == nil {
		trailer = headers.New()
	}

	switch m := head.(type) {
	case *Request:
		return &FullRequest{Request: *m, body: body{Data: data}, Trailer: trailer}
	case *Response:
		return &FullResponse{Response: *m, body: body{Data: data}, Trailer: trailer}
	default:
		panic("BUG: unknown message type")
	}
}

// ReplacePayload returns a copy of the full message, holding the data instead. Headers and
// trailers are deeply copied.
func ReplacePayload(msg FullMessage, data *bytebuf.Buffer) FullMessage {
	switch m := msg.(type) {
	case *FullRequest:
		return m.Replace(data)
	case *FullResponse:
		return m.Replace(data)
	default:
		panic("BUG: unknown full message type")
	}
}

// Duplicate returns a deep copy of the full message. The copy shares body storage with the
// original through a retained token, so both must be released.
func Duplicate(msg FullMessage) FullMessage {
	var data *bytebuf.Buffer
	if payload := msg.Payload(); payload != nil {
		data = payload.Retain()
	}

	return ReplacePayload(msg, data)
}
