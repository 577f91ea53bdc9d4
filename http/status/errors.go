package status

// HTTPError is a protocol-level failure. Code is the status a server would respond with,
// had the failure happened while decoding a request.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrBadRequest             = NewError(BadRequest, "bad request")
	ErrTooLongInitialLine     = NewError(RequestURITooLong, "initial line is too long")
	ErrHeaderFieldsTooLarge   = NewError(RequestHeaderFieldsTooLarge, "too large headers section")
	ErrBadInitialLine         = NewError(BadRequest, "malformed initial line")
	ErrBadStatusCode          = NewError(BadRequest, "malformed status code")
	ErrBadVersion             = NewError(HTTPVersionNotSupported, "malformed protocol version")
	ErrMissingColon           = NewError(BadRequest, "no colon found in the header line")
	ErrInvalidHeaderName      = NewError(BadRequest, "invalid header name")
	ErrInvalidHeaderValue     = NewError(BadRequest, "invalid header value")
	ErrBadContentLength       = NewError(BadRequest, "malformed Content-Length value")
	ErrDuplicateContentLength = NewError(BadRequest, "multiple Content-Length values found")
	ErrBadChunk               = NewError(BadRequest, "malformed chunk-encoded data")
	ErrTooLongChunkLength     = NewError(BadRequest, "chunk length is too long")
	ErrPrematureClosure       = NewError(BadRequest, "connection closed before the message was completed")
	ErrTooLongContent         = NewError(RequestEntityTooLarge, "content length exceeded the limit")
	ErrExpectationFailed      = NewError(ExpectationFailed, "expectation failed")
	ErrBadEncoding            = NewError(BadRequest, "malformed content encoding")
	ErrUnsupportedEncoding    = NewError(UnsupportedMediaType, "encoding is not supported")
	ErrUnexpectedMessage      = NewError(InternalServerError, "unexpected message type")
	ErrUpgradeFailed          = NewError(BadRequest, "protocol upgrade failed")
	ErrUnpairedResponse       = NewError(InternalServerError, "more responses than requests")
)
