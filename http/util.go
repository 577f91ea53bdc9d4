package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/indigo-web/httpcodec/http/method"
	"github.com/indigo-web/httpcodec/http/proto"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/httpcodec/internal/strutil"
	"github.com/indigo-web/utils/strcomp"
)

// IsKeepAlive reports whether the connection can be persisted after the message.
func IsKeepAlive(m Message) bool {
	h := m.Header()

	return !h.ContainsValue("connection", "close", true) &&
		(m.Proto().KeepAliveDefault() || h.ContainsValue("connection", "keep-alive", true))
}

// SetKeepAlive sets the Connection header so that the message declares the wanted
// persistence, omitting it when the protocol default already matches.
func SetKeepAlive(m Message, keepAlive bool) {
	h := m.Header()

	switch {
	case keepAlive && m.Proto().KeepAliveDefault(), !keepAlive && !m.Proto().KeepAliveDefault():
		h.Remove("connection")
	case keepAlive:
		_ = h.Set("connection", "keep-alive")
	default:
		_ = h.Set("connection", "close")
	}
}

// ContentLength returns the declared length of the body. When Content-Length is absent,
// the implicit length of a WebSocket Hixie-76 handshake is considered.
func ContentLength(m Message) (int64, error) {
	value, found := m.Header().Get("content-length")
	if !found {
		if n := WebSocketContentLength(m); n >= 0 {
			return int64(n), nil
		}

		return 0, fmt.Errorf("%w: header is not present", status.ErrBadContentLength)
	}

	n, err := ParseContentLength(value)
	if err != nil {
		return 0, err
	}

	return n, nil
}

// ContentLengthOr returns the declared length of the body, or the passed value when it
// is missing or malformed.
func ContentLengthOr(m Message, or int64) int64 {
	n, err := ContentLength(m)
	if err != nil {
		return or
	}

	return n
}

// ParseContentLength parses a non-negative decimal.
func ParseContentLength(value string) (int64, error) {
	value = strutil.StripWS(value)
	if len(value) == 0 || value[0] < '0' || value[0] > '9' {
		return 0, fmt.Errorf("%w: %q", status.ErrBadContentLength, value)
	}

	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", status.ErrBadContentLength, value)
	}

	return n, nil
}

func IsContentLengthSet(m Message) bool {
	return m.Header().Has("content-length")
}

func SetContentLength(m Message, n int64) {
	_ = m.Header().Set("content-length", strconv.FormatInt(n, 10))
}

// WebSocketContentLength returns the body length a WebSocket Hixie-76 handshake implies,
// or -1 if the message isn't one.
func WebSocketContentLength(m Message) int {
	h := m.Header()

	if req, ok := RequestOf(m); ok {
		if req.Method == method.GET && h.Has("sec-websocket-key1") && h.Has("sec-websocket-key2") {
			return 8
		}
	} else if resp, ok := ResponseOf(m); ok {
		if resp.Code == status.SwitchingProtocols &&
			h.Has("sec-websocket-origin") && h.Has("sec-websocket-location") {
			return 16
		}
	}

	return -1
}

// IsTransferEncodingChunked reports whether the message body is chunked.
func IsTransferEncodingChunked(m Message) bool {
	return m.Header().ContainsValue("transfer-encoding", "chunked", true)
}

// SetTransferEncodingChunked either switches the message to the chunked transfer
// encoding, dropping Content-Length, or removes the chunked coding from the
// Transfer-Encoding values.
func SetTransferEncodingChunked(m Message, chunked bool) {
	h := m.Header()

	if chunked {
		_ = h.Set("transfer-encoding", "chunked")
		h.Remove("content-length")
		return
	}

	if !h.Has("transfer-encoding") {
		return
	}

	var kept []string
	for _, value := range h.Values("transfer-encoding") {
		for value != "" {
			var coding string
			coding, value, _ = strings.Cut(value, ",")
			if coding = strutil.StripWS(coding); coding != "" && !strcomp.EqualFold(coding, "chunked") {
				kept = append(kept, coding)
			}
		}
	}

	h.Remove("transfer-encoding")
	if len(kept) > 0 {
		_ = h.Add("transfer-encoding", strings.Join(kept, ", "))
	}
}

// Is100ContinueExpected reports whether the request carries Expect: 100-continue.
func Is100ContinueExpected(m Message) bool {
	return isExpectHeaderValid(m) && m.Header().ContainsValue("expect", "100-continue", true)
}

// IsUnsupportedExpectation reports whether the request carries an Expect header with
// anything but 100-continue.
func IsUnsupportedExpectation(m Message) bool {
	if !isExpectHeaderValid(m) {
		return false
	}

	value, found := m.Header().Get("expect")
	return found && !strcomp.EqualFold(value, "100-continue")
}

// Set100ContinueExpected adds or removes the Expect: 100-continue header.
func Set100ContinueExpected(m Message, expected bool) {
	if expected {
		_ = m.Header().Set("expect", "100-continue")
		return
	}

	m.Header().Remove("expect")
}

// Remove100ContinueExpectation drops the Expect header, if it asks for 100-continue.
func Remove100ContinueExpectation(m Message) {
	if Is100ContinueExpected(m) {
		m.Header().Remove("expect")
	}
}

func isExpectHeaderValid(m Message) bool {
	_, isRequest := RequestOf(m)
	return isRequest && AtLeast11(m.Proto())
}

// AtLeast11 reports whether the protocol version is HTTP/1.1 or newer.
func AtLeast11(p proto.Protocol) bool {
	return p.Major() > 1 || (p.Major() == 1 && p.Minor() >= 1)
}

// RequestOf returns the request head of either *Request or *FullRequest.
func RequestOf(obj Object) (*Request, bool) {
	switch o := obj.(type) {
	case *Request:
		return o, true
	case *FullRequest:
		return &o.Request, true
	default:
		return nil, false
	}
}

// ResponseOf returns the response head of either *Response or *FullResponse.
func ResponseOf(obj Object) (*Response, bool) {
	switch o := obj.(type) {
	case *Response:
		return o, true
	case *FullResponse:
		return &o.Response, true
	default:
		return nil, false
	}
}
