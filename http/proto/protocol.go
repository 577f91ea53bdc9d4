package proto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/utils/uf"
)

// Protocol is an immutable protocol version, e.g. HTTP/1.1. HTTP/1.0 and HTTP/1.1 are
// pooled, other versions are compared by their content.
type Protocol struct {
	text         string
	name         string
	major, minor int
	keepAlive    bool
}

var (
	HTTP10 = Protocol{text: "HTTP/1.0", name: "HTTP", major: 1, minor: 0, keepAlive: false}
	HTTP11 = Protocol{text: "HTTP/1.1", name: "HTTP", major: 1, minor: 1, keepAlive: true}
)

// FromBytes recognizes the pooled versions without allocating and falls back to Parse.
func FromBytes(raw []byte) (Protocol, error) {
	switch uf.B2S(raw) {
	case HTTP11.text:
		return HTTP11, nil
	case HTTP10.text:
		return HTTP10, nil
	}

	return Parse(string(raw))
}

// Parse parses a NAME/MAJOR.MINOR version. The name is case-insensitive and is stored
// upper-cased. Versions other than HTTP/1.0 default to persistent connections.
func Parse(text string) (Protocol, error) {
	text = strings.ToUpper(strings.TrimSpace(text))

	name, version, found := strings.Cut(text, "/")
	if !found || len(name) == 0 || strings.ContainsAny(name, " \t") {
		return Protocol{}, fmt.Errorf("%w: %q", status.ErrBadVersion, text)
	}

	majorStr, minorStr, found := strings.Cut(version, ".")
	if !found {
		return Protocol{}, fmt.Errorf("%w: %q", status.ErrBadVersion, text)
	}

	major, err := parseDigits(majorStr)
	if err != nil {
		return Protocol{}, fmt.Errorf("%w: %q", status.ErrBadVersion, text)
	}

	minor, err := parseDigits(minorStr)
	if err != nil {
		return Protocol{}, fmt.Errorf("%w: %q", status.ErrBadVersion, text)
	}

	if name == HTTP11.name && major == 1 {
		switch minor {
		case 0:
			return HTTP10, nil
		case 1:
			return HTTP11, nil
		}
	}

	return Protocol{
		text:      text,
		name:      name,
		major:     major,
		minor:     minor,
		keepAlive: true,
	}, nil
}

func parseDigits(str string) (int, error) {
	if len(str) == 0 || len(str) > 3 {
		return 0, strconv.ErrSyntax
	}

	for i := 0; i < len(str); i++ {
		if str[i] < '0' || str[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}

	return strconv.Atoi(str)
}

func (p Protocol) String() string {
	return p.text
}

// Name returns the protocol name, e.g. HTTP.
func (p Protocol) Name() string {
	return p.name
}

func (p Protocol) Major() int {
	return p.major
}

func (p Protocol) Minor() int {
	return p.minor
}

// KeepAliveDefault reports whether connections are persistent unless stated otherwise.
func (p Protocol) KeepAliveDefault() bool {
	return p.keepAlive
}

// IsZero reports whether the protocol is unset.
func (p Protocol) IsZero() bool {
	return len(p.text) == 0
}
