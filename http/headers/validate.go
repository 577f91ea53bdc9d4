package headers

import (
	"fmt"

	"github.com/indigo-web/httpcodec/http/status"
	"golang.org/x/net/http/httpguts"
)

// Validate checks both name and value, returning a wrapped status.ErrInvalidHeaderName or
// status.ErrInvalidHeaderValue.
func Validate(name, value string) error {
	if !httpguts.ValidHeaderFieldName(name) {
		return fmt.Errorf("%w: %q", status.ErrInvalidHeaderName, name)
	}

	if !ValidValue(value) {
		return fmt.Errorf("%w: %q (in %s)", status.ErrInvalidHeaderValue, value, name)
	}

	return nil
}

// ValidValue rejects NUL, vertical tab and form feed, as well as CR or LF which don't form
// an obs-fold (CRLF followed by a space or horizontal tab). Anything else passes, including
// obs-text.
func ValidValue(value string) bool {
	const (
		plain = iota
		afterCR
		afterLF
	)

	state := plain
	for i := 0; i < len(value); i++ {
		switch c := value[i]; c {
		case 0x0, '\v', '\f':
			return false
		default:
			switch state {
			case plain:
				switch c {
				case '\r':
					state = afterCR
				case '\n':
					state = afterLF
				}
			case afterCR:
				if c != '\n' {
					return false
				}

				state = afterLF
			case afterLF:
				if c != ' ' && c != '\t' {
					return false
				}

				state = plain
			}
		}
	}

	return state == plain
}
