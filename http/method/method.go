package method

import (
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Method is an immutable request method. The standard ones are taken from a process-wide
// table, so comparing against them (m == method.HEAD) costs nothing. Extension methods
// are compared by their name, case-sensitively.
type Method struct {
	name string
}

var (
	GET     = Method{"GET"}
	HEAD    = Method{"HEAD"}
	POST    = Method{"POST"}
	PUT     = Method{"PUT"}
	DELETE  = Method{"DELETE"}
	CONNECT = Method{"CONNECT"}
	OPTIONS = Method{"OPTIONS"}
	TRACE   = Method{"TRACE"}
	PATCH   = Method{"PATCH"}
)

// List contains all the standard HTTP methods.
var List = []Method{GET, HEAD, POST, PUT, DELETE, CONNECT, OPTIONS, TRACE, PATCH}

// Parse returns the pooled instance for standard methods. Otherwise, a new method
// holding its own copy of the name is returned.
func Parse(str string) Method {
	switch len(str) {
	case 3:
		if str == "GET" {
			return GET
		} else if str == "PUT" {
			return PUT
		}
	case 4:
		if str == "POST" {
			return POST
		} else if str == "HEAD" {
			return HEAD
		}
	case 5:
		if str == "PATCH" {
			return PATCH
		} else if str == "TRACE" {
			return TRACE
		}
	case 6:
		if str == "DELETE" {
			return DELETE
		}
	case 7:
		if str == "CONNECT" {
			return CONNECT
		} else if str == "OPTIONS" {
			return OPTIONS
		}
	}

	return Method{strings.Clone(str)}
}

// Valid reports whether the string is a non-empty token and therefore can be a method.
func Valid(str string) bool {
	if len(str) == 0 {
		return false
	}

	for i := 0; i < len(str); i++ {
		if !httpguts.IsTokenRune(rune(str[i])) {
			return false
		}
	}

	return true
}

func (m Method) String() string {
	return m.name
}

// IsZero reports whether the method is unset.
func (m Method) IsZero() bool {
	return len(m.name) == 0
}

// Standard reports whether the method is one of the pooled ones.
func (m Method) Standard() bool {
	for _, std := range List {
		if m == std {
			return true
		}
	}

	return false
}
