// Package upgrade switches connections from HTTP/1.x to another protocol, as requested by
// the Upgrade header.
package upgrade

import (
	"slices"
	"strings"

	"github.com/indigo-web/httpcodec/internal/strutil"
	"github.com/indigo-web/utils/strcomp"
)

// splitTokens splits the comma-separated header value, dropping empty elements.
func splitTokens(value string) (tokens []string) {
	for _, token := range strings.Split(value, ",") {
		if token = strutil.StripWS(token); len(token) > 0 {
			tokens = append(tokens, token)
		}
	}

	return tokens
}

func containsFold(tokens []string, token string) bool {
	return slices.ContainsFunc(tokens, func(t string) bool {
		return strcomp.EqualFold(t, token)
	})
}
