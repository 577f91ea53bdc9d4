package http

// DecodeResult tells whether the object was decoded successfully. A successfully decoded
// message additionally carries the length of its initial line and the size of its header
// section.
type DecodeResult struct {
	err               error
	initialLineLength int
	headerSize        int
}

// Success is the result of every object which wasn't produced by a decoder, and of
// decoded content.
var Success = DecodeResult{}

// Decoded returns a successful result carrying the sizes of the decoded message head.
func Decoded(initialLineLength, headerSize int) DecodeResult {
	return DecodeResult{
		initialLineLength: initialLineLength,
		headerSize:        headerSize,
	}
}

// Failure returns a failed result. The error must not be nil.
func Failure(err error) DecodeResult {
	if err == nil {
		panic("BUG: failure without a cause")
	}

	return DecodeResult{err: err}
}

func (d DecodeResult) IsSuccess() bool {
	return d.err == nil
}

func (d DecodeResult) IsFailure() bool {
	return d.err != nil
}

// Err returns the cause of the failure, or nil.
func (d DecodeResult) Err() error {
	return d.err
}

func (d DecodeResult) InitialLineLength() int {
	return d.initialLineLength
}

func (d DecodeResult) HeaderSize() int {
	return d.headerSize
}

// TotalSize returns the combined size of the initial line and the header section.
func (d DecodeResult) TotalSize() int {
	return d.initialLineLength + d.headerSize
}

func (d DecodeResult) String() string {
	if d.err != nil {
		return "failure(" + d.err.Error() + ")"
	}

	return "success"
}
