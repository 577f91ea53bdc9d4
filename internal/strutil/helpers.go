// Package strutil holds string helpers shared by the header store and the codec.
package strutil

func LStripWS(str string) string {
	for i := 0; i < len(str); i++ {
		switch str[i] {
		case ' ', '\t':
		default:
			return str[i:]
		}
	}

	return ""
}

func RStripWS(str string) string {
	for i := len(str); i > 0; i-- {
		switch str[i-1] {
		case ' ', '\t':
		default:
			return str[:i]
		}
	}

	return ""
}

// StripWS strips leading and trailing spaces and horizontal tabs.
func StripWS(str string) string {
	return RStripWS(LStripWS(str))
}

// IsControl reports whether the char is an ISO control character (C0 or C1) or a whitespace.
func IsControl(c byte) bool {
	return c <= ' ' || (c >= 0x7f && c <= 0x9f)
}
