package http1

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/indigo-web/httpcodec/bytebuf"
	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/headers"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/httpcodec/internal/hexconv"
)

type encoderState uint8

const (
	stInit encoderState = iota
	stContentNonChunk
	stContentAlwaysEmpty
	stContentChunk
)

const (
	crlf           = "\r\n"
	lastChunkCRLF  = "0\r\n"
	emptyLastChunk = lastChunkCRLF + crlf

	weightNew        = 0.2
	weightHistorical = 0.8
)

// Encoder serializes HTTP objects into buffers, ready to be written into the connection.
// Message heads are followed by their content chunks, which are either written as is,
// or framed with the chunked transfer coding, depending on the message headers.
type Encoder struct {
	alloc       bytebuf.Allocator
	alwaysEmpty func(http.Message) bool
	sanitize    func(msg http.Message, alwaysEmpty bool)
	out         []*bytebuf.Buffer
	// headerEstimate and trailerEstimate are moving averages of the encoded sections sizes,
	// used to size new buffers
	headerEstimate  float64
	trailerEstimate float64
	state           encoderState
}

// NewRequestEncoder returns an encoder of requests.
func NewRequestEncoder(cfg config.Encoder, alloc bytebuf.Allocator) *Encoder {
	e := newEncoder(cfg, alloc)
	e.alwaysEmpty = func(http.Message) bool {
		return false
	}

	return e
}

// NewResponseEncoder returns an encoder of responses.
func NewResponseEncoder(cfg config.Encoder, alloc bytebuf.Allocator) *Encoder {
	e := newEncoder(cfg, alloc)
	e.alwaysEmpty = IsResponseAlwaysEmpty
	e.sanitize = SanitizeResponse

	return e
}

func newEncoder(cfg config.Encoder, alloc bytebuf.Allocator) *Encoder {
	return &Encoder{
		alloc:           alloc,
		sanitize:        func(http.Message, bool) {},
		headerEstimate:  float64(cfg.HeaderSizeEstimate),
		trailerEstimate: float64(cfg.TrailerSizeEstimate),
	}
}

// SetAlwaysEmpty overrides the predicate deciding whether the body of a message must not be
// written.
func (e *Encoder) SetAlwaysEmpty(fn func(http.Message) bool) {
	e.alwaysEmpty = fn
}

// SetSanitizer overrides the hook, which is called on every message before its headers are
// encoded.
func (e *Encoder) SetSanitizer(fn func(msg http.Message, alwaysEmpty bool)) {
	e.sanitize = fn
}

// Encode serializes the object. The returned buffers must be written in order, and their
// ownership is transferred to the caller. The returned slice itself is reused by the next
// call.
//
// The object is consumed in any case, including when an error is returned. Accepted
// objects are HTTP objects and raw *bytebuf.Buffer, which are considered body content.
func (e *Encoder) Encode(msg any) ([]*bytebuf.Buffer, error) {
	e.out = e.out[:0]

	var head *bytebuf.Buffer
	if m, ok := msg.(http.Message); ok {
		if e.state != stInit {
			http.Release(msg)
			return nil, fmt.Errorf("%w: %T while the previous message is incomplete", status.ErrUnexpectedMessage, msg)
		}

		head = e.alloc.Allocate(int(e.headerEstimate))
		if err := encodeInitialLine(head, m); err != nil {
			head.Release()
			http.Release(msg)
			return nil, err
		}

		switch {
		case e.alwaysEmpty(m):
			e.state = stContentAlwaysEmpty
		case http.IsTransferEncodingChunked(m):
			e.state = stContentChunk
		default:
			e.state = stContentNonChunk
		}

		e.sanitize(m, e.state == stContentAlwaysEmpty)
		if e.state == stContentChunk && !http.IsTransferEncodingChunked(m) {
			e.state = stContentNonChunk
		}

		encodeHeaders(head, m.Header())
		_, _ = head.WriteString(crlf)
		e.headerEstimate = weightNew*float64(padSize(head.Len())) + weightHistorical*e.headerEstimate
	}

	if raw, ok := msg.(*bytebuf.Buffer); ok && raw.Len() == 0 {
		// empty buffers are let through as is in any state
		return append(e.out, raw), nil
	}

	chunk, isChunk := msg.(http.Chunk)
	raw, isRaw := msg.(*bytebuf.Buffer)
	if !isChunk && !isRaw {
		if head == nil {
			http.Release(msg)
			return nil, fmt.Errorf("%w: %T", status.ErrUnexpectedMessage, msg)
		}

		return append(e.out, head), nil
	}

	payload := raw
	if isChunk {
		payload = chunk.Payload()
	}

	length := 0
	if payload != nil {
		length = payload.Len()
	}

	switch e.state {
	case stInit:
		http.Release(msg)
		return nil, fmt.Errorf("%w: %T before the message head", status.ErrUnexpectedMessage, msg)
	case stContentNonChunk:
		if length > 0 {
			switch {
			case head != nil && isChunk && head.Cap()-head.Len() >= length:
				_, _ = head.Write(payload.Bytes())
				payload.Release()
				e.out = append(e.out, head)
			case head != nil:
				e.out = append(e.out, head, payload)
			default:
				e.out = append(e.out, payload)
			}

			break
		}

		fallthrough
	case stContentAlwaysEmpty:
		if payload != nil {
			payload.Release()
		}

		if head == nil {
			head = bytebuf.Empty(e.alloc)
		}

		e.out = append(e.out, head)
	case stContentChunk:
		e.encodeChunked(head, payload, length, chunk, isChunk)
	}

	if isChunk && chunk.IsLast() {
		e.state = stInit
	}

	return e.out, nil
}

// encodeChunked frames the content as a chunk. The size line is appended to the head,
// if there is one, and the closing CRLF is merged with the last chunk and trailers, if
// the content is the last one.
func (e *Encoder) encodeChunked(head, payload *bytebuf.Buffer, length int, chunk http.Chunk, isChunk bool) {
	isLast := isChunk && chunk.IsLast()

	if length > 0 {
		prefix := head
		if prefix == nil {
			prefix = e.alloc.Allocate(maxChunkSizeDigits + len(crlf))
		}

		var scratch [maxChunkSizeDigits]byte
		_, _ = prefix.Write(hexconv.Append(scratch[:0], uint64(length)))
		_, _ = prefix.WriteString(crlf)
		e.out = append(e.out, prefix, payload)
		head = nil
	} else if payload != nil {
		payload.Release()
	}

	if !isLast {
		switch {
		case length > 0:
			e.out = append(e.out, bytebuf.FromString(e.alloc, crlf))
		case head != nil:
			e.out = append(e.out, head)
		default:
			e.out = append(e.out, bytebuf.Empty(e.alloc))
		}

		return
	}

	suffix := head
	if suffix == nil {
		suffix = e.alloc.Allocate(int(e.trailerEstimate))
	}

	if length > 0 {
		_, _ = suffix.WriteString(crlf)
	}

	trailers := chunk.Trailers()
	if trailers == nil || trailers.Empty() {
		_, _ = suffix.WriteString(emptyLastChunk)
		e.out = append(e.out, suffix)
		return
	}

	before := suffix.Len()
	_, _ = suffix.WriteString(lastChunkCRLF)
	encodeHeaders(suffix, trailers)
	_, _ = suffix.WriteString(crlf)
	e.trailerEstimate = weightNew*float64(padSize(suffix.Len()-before)) + weightHistorical*e.trailerEstimate
	e.out = append(e.out, suffix)
}

func encodeInitialLine(buf *bytebuf.Buffer, msg http.Message) error {
	if req, ok := http.RequestOf(msg); ok {
		_, _ = buf.WriteString(req.Method.String())
		_ = buf.WriteByte(' ')
		_, _ = buf.WriteString(normalizeTarget(req.Target))
		_ = buf.WriteByte(' ')
		_, _ = buf.WriteString(req.Protocol.String())
		_, _ = buf.WriteString(crlf)
		return nil
	}

	if resp, ok := http.ResponseOf(msg); ok {
		reason := resp.Reason
		if len(reason) == 0 {
			reason = status.Text(resp.Code)
		}

		_, _ = buf.WriteString(resp.Protocol.String())
		_ = buf.WriteByte(' ')
		_, _ = buf.WriteString(strconv.Itoa(int(resp.Code)))
		_ = buf.WriteByte(' ')
		_, _ = buf.WriteString(reason)
		_, _ = buf.WriteString(crlf)
		return nil
	}

	return fmt.Errorf("%w: %T", status.ErrUnexpectedMessage, msg)
}

// normalizeTarget makes sure the target is never empty and that absolute targets carry
// at least the root path.
func normalizeTarget(target string) string {
	if len(target) == 0 {
		return "/"
	}

	start := strings.Index(target, "://")
	if start == -1 || target[0] == '/' {
		return target
	}

	start += len("://")
	if query := strings.IndexByte(target[start:], '?'); query != -1 {
		query += start
		if strings.LastIndexByte(target[:query], '/') < start {
			return target[:query] + "/" + target[query:]
		}

		return target
	}

	if strings.LastIndexByte(target, '/') < start {
		return target + "/"
	}

	return target
}

func encodeHeaders(buf *bytebuf.Buffer, h *headers.Headers) {
	for name, value := range h.Iter() {
		_, _ = buf.WriteString(name)
		_, _ = buf.WriteString(": ")
		_, _ = buf.WriteString(value)
		_, _ = buf.WriteString(crlf)
	}
}

// padSize inflates the size a bit, so the estimation tends to allocate enough.
func padSize(n int) int {
	return n * 4 / 3
}

// IsResponseAlwaysEmpty is the default predicate of responses whose body must not be
// written: informational ones, 204, 205 and 304. The only exception is the handshake of
// the earliest WebSocket drafts, which is recognized by the lack of Sec-WebSocket-Version
// and carries a body.
func IsResponseAlwaysEmpty(msg http.Message) bool {
	resp, ok := http.ResponseOf(msg)
	if !ok {
		return false
	}

	switch {
	case resp.Code == status.SwitchingProtocols:
		return resp.Headers.Has("sec-websocket-version")
	case resp.Code >= 100 && resp.Code < 200:
		return true
	default:
		return resp.Code == status.NoContent ||
			resp.Code == status.NotModified ||
			resp.Code == status.ResetContent
	}
}

// SanitizeResponse removes framing headers, which must not be present on a body-less
// response. 205 gets an explicit zero length instead.
func SanitizeResponse(msg http.Message, alwaysEmpty bool) {
	resp, ok := http.ResponseOf(msg)
	if !ok || !alwaysEmpty {
		return
	}

	switch {
	case resp.Code >= 100 && resp.Code < 200, resp.Code == status.NoContent:
		resp.Headers.Remove("content-length")
		resp.Headers.Remove("transfer-encoding")
	case resp.Code == status.ResetContent:
		resp.Headers.Remove("transfer-encoding")
		http.SetContentLength(resp, 0)
	}
}
