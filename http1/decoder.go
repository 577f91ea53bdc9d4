package http1

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/indigo-web/httpcodec/bytebuf"
	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/headers"
	"github.com/indigo-web/httpcodec/http/method"
	"github.com/indigo-web/httpcodec/http/proto"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/httpcodec/internal/buffer"
	"github.com/indigo-web/httpcodec/internal/hexconv"
	"github.com/indigo-web/httpcodec/internal/strutil"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

type decoderState uint8

const (
	eSkipControlChars decoderState = iota
	eReadInitial
	eReadHeader
	eReadVariableLengthContent
	eReadFixedLengthContent
	eReadChunkSize
	eReadChunkedContent
	eReadChunkDelimiter
	eReadChunkFooter
	eBadMessage
	eUpgraded
)

var stateNames = [...]string{
	eSkipControlChars:          "SkipControlChars",
	eReadInitial:               "ReadInitial",
	eReadHeader:                "ReadHeader",
	eReadVariableLengthContent: "ReadVariableLengthContent",
	eReadFixedLengthContent:    "ReadFixedLengthContent",
	eReadChunkSize:             "ReadChunkSize",
	eReadChunkedContent:        "ReadChunkedContent",
	eReadChunkDelimiter:        "ReadChunkDelimiter",
	eReadChunkFooter:           "ReadChunkFooter",
	eBadMessage:                "BadMessage",
	eUpgraded:                  "Upgraded",
}

func (s decoderState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}

	return "Unknown"
}

// lengthUnknown marks the cached content length as not computed yet.
const lengthUnknown = math.MinInt64

// maxChunkSizeDigits is the longest hex chunk size, which fits into int64.
const maxChunkSizeDigits = 16

var (
	errLineTooLong      = errors.New("line is too long")
	errPrematureHeaders = fmt.Errorf("%w: connection closed before received headers", status.ErrPrematureClosure)
	unknownStatus       = status.Code(999)
)

// Decoder turns a stream of bytes into HTTP objects: a message head, followed by zero or
// more content chunks and exactly one last content. Bodies are delimited by Content-Length,
// by the chunked transfer coding, or by the connection closure.
//
// The decoder is a step function: every call to Decode yields at most one object, so that
// the caller is able to react (e.g. request a reset) before the next one is produced.
// Malformed input never results in an error returned; instead, the failure is attached to
// the produced object, and the decoder discards everything until it's reset.
type Decoder struct {
	cfg         config.Decoder
	alloc       bytebuf.Allocator
	line        *buffer.Buffer
	message     http.Message
	trailer     *headers.Headers
	partial     *bytebuf.Buffer
	pending     http.Object
	alwaysEmpty func(http.Message) bool
	// name and value hold the header, which is still subject to continuation lines
	name, value string
	// contentLength is cached for the current message
	contentLength int64
	// chunkSize is the number of body bytes still expected, either in the whole fixed-length
	// body or in the current chunk
	chunkSize         int64
	lineSize          int
	headerSize        int
	initialLineLength int
	state             decoderState
	isRequest         bool
	haveName          bool
	lineDone          bool
	chunked           bool
	resetRequested    bool
	passThrough       bool
}

// NewRequestDecoder returns a decoder of requests.
func NewRequestDecoder(cfg config.Decoder, alloc bytebuf.Allocator) *Decoder {
	return newDecoder(cfg, alloc, true)
}

// NewResponseDecoder returns a decoder of responses.
func NewResponseDecoder(cfg config.Decoder, alloc bytebuf.Allocator) *Decoder {
	return newDecoder(cfg, alloc, false)
}

func newDecoder(cfg config.Decoder, alloc bytebuf.Allocator, isRequest bool) *Decoder {
	return &Decoder{
		cfg:           cfg,
		alloc:         alloc,
		line:          buffer.New(cfg.InitialBufferSize, max(cfg.MaxInitialLineLength, cfg.MaxHeaderSize)+1),
		alwaysEmpty:   IsContentAlwaysEmpty,
		contentLength: lengthUnknown,
		isRequest:     isRequest,
	}
}

// SetAlwaysEmpty overrides the predicate deciding whether a message never has a body,
// regardless of its headers. Codecs use it to account for the method of the request a
// response answers.
func (d *Decoder) SetAlwaysEmpty(fn func(http.Message) bool) {
	d.alwaysEmpty = fn
}

// Reset requests the decoder to start over from the next message. The reset is applied
// right before the next object is decoded.
func (d *Decoder) Reset() {
	d.resetRequested = true
}

// ExpectationFailed resets the decoder, if it's waiting for a body. The peer whose
// expectation was rejected won't send it.
func (d *Decoder) ExpectationFailed() {
	switch d.state {
	case eReadFixedLengthContent, eReadVariableLengthContent, eReadChunkSize:
		d.Reset()
	}
}

// SetPassThrough stops decoding for good. All the following bytes are left untouched.
func (d *Decoder) SetPassThrough() {
	d.passThrough = true
}

// PassThrough reports whether the decoder stopped interpreting the stream, either because
// the connection was upgraded to another protocol or because it was told so.
func (d *Decoder) PassThrough() bool {
	return d.passThrough || d.state == eUpgraded
}

// Idle reports whether no message is being decoded right now.
func (d *Decoder) Idle() bool {
	return d.pending == nil && d.state == eSkipControlChars && d.line.Empty()
}

// Decode consumes data, until either an object is produced, or the data is over. The rest
// is the part of the data, which wasn't consumed yet. It is non-empty only if an object is
// returned, or the decoder is passing the bytes through, in which case the rest is the whole
// data.
//
// Payloads of produced chunks are copies, so data may be reused once Decode returns.
func (d *Decoder) Decode(data []byte) (obj http.Object, rest []byte) {
	if d.pending != nil {
		obj, d.pending = d.pending, nil
		return obj, data
	}

	if d.resetRequested {
		d.resetNow()
	}

	if d.passThrough {
		return nil, data
	}

	for {
		switch d.state {
		case eSkipControlChars:
			i := 0
			for i < len(data) && strutil.IsControl(data[i]) {
				i++
			}

			if data = data[i:]; len(data) == 0 {
				return nil, nil
			}

			d.state = eReadInitial
		case eReadInitial:
			line, rest, ok, err := d.readLine(data, d.cfg.MaxInitialLineLength, &d.lineSize)
			if err != nil {
				return d.invalidMessage(fmt.Errorf("%w: exceeded %d bytes", status.ErrTooLongInitialLine, d.cfg.MaxInitialLineLength)), nil
			}

			if !ok {
				return nil, nil
			}

			data = rest
			d.initialLineLength, d.lineSize = d.lineSize, 0
			first, second, third := splitInitialLine(line)
			if len(first) == 0 || len(second) == 0 || (d.isRequest && len(third) == 0) {
				// junk, not a start of a message
				d.state = eSkipControlChars
				continue
			}

			msg, err := d.createMessage(first, second, third)
			if err != nil {
				return d.invalidMessage(err), nil
			}

			d.message = msg
			d.state = eReadHeader
		case eReadHeader:
			next, rest, ok, err := d.readHeaders(data)
			if err != nil {
				return d.invalidMessage(err), nil
			}

			if !ok {
				return nil, nil
			}

			data = rest
			d.state = next
			msg := d.message

			switch next {
			case eSkipControlChars:
				d.pending = http.NewLastContent(nil, nil)
				d.resetNow()
				return msg, data
			case eReadChunkSize:
				d.chunked = true
				return msg, data
			default:
				length := d.getContentLength()
				if length == 0 || (length == -1 && d.isRequest) {
					d.pending = http.NewLastContent(nil, nil)
					d.resetNow()
					return msg, data
				}

				if next == eReadFixedLengthContent {
					d.chunkSize = length
				}

				return msg, data
			}
		case eReadVariableLengthContent:
			if len(data) == 0 {
				return nil, nil
			}

			n := min(len(data), d.cfg.MaxChunkSize)
			return http.NewContent(bytebuf.From(d.alloc, data[:n])), data[n:]
		case eReadFixedLengthContent:
			if len(data) == 0 {
				return nil, nil
			}

			n := int(min(int64(len(data)), int64(d.cfg.MaxChunkSize), d.chunkSize))
			payload := bytebuf.From(d.alloc, data[:n])
			if d.chunkSize -= int64(n); d.chunkSize == 0 {
				d.resetNow()
				return http.NewLastContent(payload, nil), data[n:]
			}

			return http.NewContent(payload), data[n:]
		case eReadChunkSize:
			line, rest, ok, err := d.readLine(data, d.cfg.MaxInitialLineLength, &d.lineSize)
			if err != nil {
				return d.invalidChunk(fmt.Errorf("%w: exceeded %d bytes", status.ErrTooLongChunkLength, d.cfg.MaxInitialLineLength)), nil
			}

			if !ok {
				return nil, nil
			}

			data = rest
			d.lineSize = 0
			size, err := parseChunkSize(line)
			if err != nil {
				return d.invalidChunk(err), nil
			}

			d.chunkSize = size
			if size == 0 {
				d.trailer = d.newHeaders()
				d.state = eReadChunkFooter
				continue
			}

			d.state = eReadChunkedContent
		case eReadChunkedContent:
			chunk, rest := d.readChunk(data)
			if chunk == nil {
				return nil, nil
			}

			if d.chunkSize == 0 {
				d.state = eReadChunkDelimiter
			}

			return chunk, rest
		case eReadChunkDelimiter:
			lf := bytes.IndexByte(data, '\n')
			if lf == -1 {
				return nil, nil
			}

			data = data[lf+1:]
			d.state = eReadChunkSize
		case eReadChunkFooter:
			rest, done, err := d.readFields(data, d.trailer, true)
			if err != nil {
				return d.invalidChunk(err), nil
			}

			if !done {
				return nil, nil
			}

			last := http.NewLastContent(nil, d.trailer)
			d.trailer = nil
			d.resetNow()
			return last, rest
		case eBadMessage:
			return nil, nil
		case eUpgraded:
			return nil, data
		default:
			panic("BUG: unreachable code")
		}
	}
}

// DecodeLast must be called after the input is over, once Decode returned nothing. It
// returns the object, which completes the current message, if the end of input is a
// legitimate end of it.
func (d *Decoder) DecodeLast() http.Object {
	if d.pending != nil {
		obj := d.pending
		d.pending = nil
		return obj
	}

	if d.resetRequested {
		d.resetNow()
	}

	switch d.state {
	case eReadVariableLengthContent:
		d.resetNow()
		return http.NewLastContent(nil, nil)
	case eReadHeader:
		obj := d.invalidMessage(errPrematureHeaders)
		d.resetNow()
		return obj
	case eReadChunkDelimiter, eReadChunkFooter, eBadMessage, eUpgraded:
		return nil
	}

	if d.message == nil {
		d.resetNow()
		return nil
	}

	// the end of a request, or of a chunked body is never a legitimate closure. The same
	// is true for a response with the length known
	premature := d.isRequest || d.chunked || d.getContentLength() > 0
	d.resetNow()
	if premature {
		return nil
	}

	return http.NewLastContent(nil, nil)
}

// Release frees everything the decoder holds. The decoder must not be used afterward.
func (d *Decoder) Release() {
	if d.partial != nil {
		d.partial.Release()
		d.partial = nil
	}

	if d.pending != nil {
		http.Release(d.pending)
		d.pending = nil
	}
}

func (d *Decoder) resetNow() {
	msg := d.message
	d.message = nil
	d.name, d.value, d.haveName = "", "", false
	d.contentLength = lengthUnknown
	d.chunkSize = 0
	d.chunked = false
	d.line.Clear()
	d.lineDone = false
	d.lineSize = 0
	d.headerSize = 0
	d.initialLineLength = 0
	d.trailer = nil
	if d.partial != nil {
		d.partial.Release()
		d.partial = nil
	}

	if resp, ok := msg.(*http.Response); ok && IsSwitchingToNonHTTP1(resp) {
		d.state = eUpgraded
		return
	}

	d.resetRequested = false
	d.state = eSkipControlChars
}

// readLine looks for a complete line. Partial lines are accumulated internally, so if
// ok is false, the whole data was consumed. The returned line lacks the CRLF and is valid
// until the next call. The size counter is incremented by the line length without CR.
func (d *Decoder) readLine(data []byte, limit int, size *int) (line, rest []byte, ok bool, err error) {
	if d.lineDone {
		d.line.Clear()
		d.lineDone = false
	}

	lf := bytes.IndexByte(data, '\n')
	if lf == -1 {
		if *size += len(data); *size > limit || !d.line.Append(data) {
			return nil, nil, false, errLineTooLong
		}

		return nil, nil, false, nil
	}

	chunk := data[:lf]
	if *size += len(chunk); *size > limit {
		return nil, nil, false, errLineTooLong
	}

	if d.line.Empty() {
		line = chunk
	} else {
		if !d.line.Append(chunk) {
			return nil, nil, false, errLineTooLong
		}

		line = d.line.Preview()
		d.lineDone = true
	}

	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
		*size--
	}

	return line, data[lf+1:], true, nil
}

// readHeaders reads the header section and decides how the body is delimited.
func (d *Decoder) readHeaders(data []byte) (next decoderState, rest []byte, ok bool, err error) {
	h := d.message.Header()
	rest, ok, err = d.readFields(data, h, false)
	if err != nil || !ok {
		return 0, nil, ok, err
	}

	d.message.SetResult(http.Decoded(d.initialLineLength, d.headerSize))

	hasContentLength := h.Has("content-length")
	if hasContentLength {
		if err = d.normalizeContentLength(h); err != nil {
			return 0, nil, false, err
		}
	}

	switch {
	case d.alwaysEmpty(d.message):
		http.SetTransferEncodingChunked(d.message, false)
		return eSkipControlChars, rest, true, nil
	case http.IsTransferEncodingChunked(d.message):
		if hasContentLength && d.message.Proto() == proto.HTTP11 {
			// the chunked coding overrides the length, and keeping both is a request
			// smuggling vector
			h.Remove("content-length")
			d.contentLength = lengthUnknown
		}

		return eReadChunkSize, rest, true, nil
	case d.getContentLength() >= 0:
		return eReadFixedLengthContent, rest, true, nil
	default:
		return eReadVariableLengthContent, rest, true, nil
	}
}

// readFields reads header lines into dst until an empty line. Lines beginning with a
// whitespace continue the previous field. In trailers, fields which may affect the
// framing are dropped.
func (d *Decoder) readFields(data []byte, dst *headers.Headers, trailers bool) (rest []byte, done bool, err error) {
	for {
		line, rest, ok, err := d.readLine(data, d.cfg.MaxHeaderSize, &d.headerSize)
		if err != nil {
			return nil, false, fmt.Errorf("%w: exceeded %d bytes", status.ErrHeaderFieldsTooLarge, d.cfg.MaxHeaderSize)
		}

		if !ok {
			return nil, false, nil
		}

		data = rest
		if len(line) == 0 {
			break
		}

		if d.haveName && (line[0] == ' ' || line[0] == '\t') {
			d.value = d.value + " " + strutil.StripWS(string(line))
			continue
		}

		if err = d.flushField(dst, trailers); err != nil {
			return nil, false, err
		}

		if d.name, d.value, err = d.splitHeader(line); err != nil {
			return nil, false, err
		}

		d.haveName = true
	}

	if err = d.flushField(dst, trailers); err != nil {
		return nil, false, err
	}

	return data, true, nil
}

func (d *Decoder) flushField(dst *headers.Headers, trailers bool) error {
	if !d.haveName {
		return nil
	}

	name, value := d.name, d.value
	d.name, d.value, d.haveName = "", "", false
	if trailers && isForbiddenTrailer(name) {
		return nil
	}

	return dst.Add(name, value)
}

func isForbiddenTrailer(name string) bool {
	return strcomp.EqualFold(name, "content-length") ||
		strcomp.EqualFold(name, "transfer-encoding") ||
		strcomp.EqualFold(name, "trailer")
}

// splitHeader splits the line into the name and the trimmed value. Names of response
// headers also end at a whitespace, which is tolerated before the colon.
func (d *Decoder) splitHeader(line []byte) (name, value string, err error) {
	nameStart := 0
	for nameStart < len(line) && (line[nameStart] == ' ' || line[nameStart] == '\t') {
		nameStart++
	}

	nameEnd := nameStart
	for ; nameEnd < len(line); nameEnd++ {
		c := line[nameEnd]
		if c == ':' || (!d.isRequest && (c == ' ' || c == '\t')) {
			break
		}
	}

	colon := bytes.IndexByte(line[nameEnd:], ':')
	if colon == -1 {
		return "", "", fmt.Errorf("%w: %q", status.ErrMissingColon, line)
	}

	name = string(line[nameStart:nameEnd])
	value = strutil.StripWS(string(line[nameEnd+colon+1:]))

	return name, value, nil
}

// normalizeContentLength collapses duplicate Content-Length values into one, if allowed,
// and validates the value.
func (d *Decoder) normalizeContentLength(h *headers.Headers) error {
	fields := h.Values("content-length")
	multiple := len(fields) > 1 || strings.IndexByte(fields[0], ',') != -1

	var length int64
	if multiple {
		if !d.cfg.AllowDuplicateContentLengths {
			return fmt.Errorf("%w: %q", status.ErrDuplicateContentLength, fields)
		}

		length = -1
		for _, field := range fields {
			for _, token := range strings.Split(field, ",") {
				n, err := http.ParseContentLength(token)
				if err != nil {
					return err
				}

				if length != -1 && n != length {
					return fmt.Errorf("%w: %q", status.ErrDuplicateContentLength, fields)
				}

				length = n
			}
		}
	} else {
		n, err := http.ParseContentLength(fields[0])
		if err != nil {
			return err
		}

		length = n
	}

	if canonical := strconv.FormatInt(length, 10); multiple || strutil.StripWS(fields[0]) != canonical {
		if err := h.Set("content-length", canonical); err != nil {
			return err
		}
	}

	d.contentLength = length
	return nil
}

func (d *Decoder) getContentLength() int64 {
	if d.contentLength == lengthUnknown {
		d.contentLength = http.ContentLengthOr(d.message, -1)
	}

	return d.contentLength
}

// readChunk cuts the next piece of the current chunk. Without partial chunks allowed, the
// bytes are accumulated until the piece is complete.
func (d *Decoder) readChunk(data []byte) (chunk *http.Content, rest []byte) {
	toRead := min(d.chunkSize, int64(d.cfg.MaxChunkSize))

	if !d.cfg.AllowPartialChunks {
		if d.partial == nil {
			d.partial = d.alloc.Allocate(int(toRead))
		}

		n := int(min(toRead-int64(d.partial.Len()), int64(len(data))))
		_, _ = d.partial.Write(data[:n])
		if int64(d.partial.Len()) < toRead {
			return nil, nil
		}

		payload := d.partial
		d.partial = nil
		d.chunkSize -= toRead
		return http.NewContent(payload), data[n:]
	}

	n := int(min(toRead, int64(len(data))))
	if n == 0 {
		return nil, nil
	}

	d.chunkSize -= int64(n)
	return http.NewContent(bytebuf.From(d.alloc, data[:n])), data[n:]
}

func (d *Decoder) createMessage(first, second, third []byte) (http.Message, error) {
	if d.isRequest {
		if !method.Valid(uf.B2S(first)) {
			return nil, fmt.Errorf("%w: bad method %q", status.ErrBadInitialLine, first)
		}

		version, err := proto.FromBytes(third)
		if err != nil {
			return nil, err
		}

		req := &http.Request{
			Method: method.Parse(uf.B2S(first)),
			Target: string(second),
		}
		req.Protocol = version
		req.Headers = d.newHeaders()

		return req, nil
	}

	version, err := proto.FromBytes(first)
	if err != nil {
		return nil, err
	}

	code, err := parseStatusCode(second)
	if err != nil {
		return nil, err
	}

	resp := &http.Response{
		Code:   code,
		Reason: string(third),
	}
	resp.Protocol = version
	resp.Headers = d.newHeaders()

	return resp, nil
}

func (d *Decoder) newHeaders() *headers.Headers {
	if d.cfg.ValidateHeaders {
		return headers.NewValidating()
	}

	return headers.New()
}

// invalidMessage switches to discarding everything and returns the message carrying the
// failure. If no message head was decoded yet, a placeholder one is created.
func (d *Decoder) invalidMessage(err error) http.Object {
	d.state = eBadMessage
	d.line.Clear()
	d.lineDone = false
	msg := d.message
	d.message = nil

	if msg == nil {
		if d.isRequest {
			msg = http.NewFullRequest(proto.HTTP10, method.GET, "/bad-request", nil)
		} else {
			msg = http.NewFullResponse(proto.HTTP10, unknownStatus, nil)
		}
	}

	msg.SetResult(http.Failure(err))
	return msg
}

// invalidChunk switches to discarding everything and returns an empty last content
// carrying the failure.
func (d *Decoder) invalidChunk(err error) http.Object {
	d.state = eBadMessage
	d.line.Clear()
	d.lineDone = false
	d.message = nil
	d.trailer = nil

	last := http.NewLastContent(nil, nil)
	last.SetResult(http.Failure(err))
	return last
}

// splitInitialLine splits the line into three whitespace-separated tokens. The last token
// spans until the end of the line, so it may contain whitespaces itself (reason phrases).
func splitInitialLine(line []byte) (first, second, third []byte) {
	aStart := findNonSP(line, 0)
	aEnd := findSP(line, aStart)
	bStart := findNonSP(line, aEnd)
	bEnd := findSP(line, bStart)
	cStart := findNonSP(line, bEnd)
	cEnd := len(line)
	for cEnd > cStart && isLenientSP(line[cEnd-1]) {
		cEnd--
	}

	return line[aStart:aEnd], line[bStart:bEnd], line[cStart:cEnd]
}

func findNonSP(line []byte, offset int) int {
	for offset < len(line) && isLenientSP(line[offset]) {
		offset++
	}

	return offset
}

func findSP(line []byte, offset int) int {
	for offset < len(line) && !isLenientSP(line[offset]) {
		offset++
	}

	return offset
}

func isLenientSP(c byte) bool {
	switch c {
	case ' ', '\t', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

func parseStatusCode(raw []byte) (status.Code, error) {
	if len(raw) != 3 {
		return 0, fmt.Errorf("%w: %q", status.ErrBadStatusCode, raw)
	}

	var code status.Code
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", status.ErrBadStatusCode, raw)
		}

		code = code*10 + status.Code(c-'0')
	}

	return code, nil
}

// parseChunkSize parses the hex chunk size, ignoring chunk extensions.
func parseChunkSize(line []byte) (int64, error) {
	line = bytes.TrimFunc(line, func(r rune) bool {
		return r <= ' '
	})

	for i, c := range line {
		if c == ';' || strutil.IsControl(c) {
			line = line[:i]
			break
		}
	}

	if len(line) == 0 {
		return 0, fmt.Errorf("%w: empty chunk size", status.ErrBadChunk)
	}

	if len(line) > maxChunkSizeDigits {
		return 0, fmt.Errorf("%w: %d digits", status.ErrTooLongChunkLength, len(line))
	}

	var size uint64
	for _, c := range line {
		half := hexconv.Halfbyte[c]
		if half == 0xFF {
			return 0, fmt.Errorf("%w: bad chunk size %q", status.ErrBadChunk, line)
		}

		size = size<<4 | uint64(half)
	}

	if size > math.MaxInt64 {
		return 0, fmt.Errorf("%w: chunk size overflows", status.ErrBadChunk)
	}

	return int64(size), nil
}

// IsContentAlwaysEmpty is the default predicate of messages which never carry a body:
// informational responses (except for a WebSocket Hixie-76 handshake), 204 and 304.
func IsContentAlwaysEmpty(msg http.Message) bool {
	resp, ok := http.ResponseOf(msg)
	if !ok {
		return false
	}

	switch {
	case resp.Code >= 100 && resp.Code < 200:
		return !(resp.Code == status.SwitchingProtocols &&
			!resp.Headers.Has("sec-websocket-accept") &&
			resp.Headers.ContainsValue("upgrade", "websocket", true))
	case resp.Code == status.NoContent, resp.Code == status.NotModified:
		return true
	default:
		return false
	}
}

// IsSwitchingToNonHTTP1 reports whether the response switches the connection to a protocol
// other than HTTP/1.x, so the bytes following it aren't HTTP/1 anymore.
func IsSwitchingToNonHTTP1(resp *http.Response) bool {
	if resp.Code != status.SwitchingProtocols {
		return false
	}

	protocol, found := resp.Headers.Get("upgrade")
	return !found || (!strings.Contains(protocol, proto.HTTP10.String()) &&
		!strings.Contains(protocol, proto.HTTP11.String()))
}
