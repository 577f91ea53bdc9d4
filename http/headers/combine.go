package headers

import (
	"encoding/csv"
	"strings"

	"github.com/indigo-web/httpcodec/internal/strutil"
)

// EscapeCSV makes the value safe for being comma-joined with others. The value is trimmed
// first. Values containing commas, quotes or line breaks are quoted, with inner quotes
// doubled; values which are already a properly quoted field are left as is.
func EscapeCSV(value string) string {
	value = strutil.StripWS(value)
	if isQuotedField(value) {
		return value
	}

	if !strings.ContainsAny(value, ",\"\r\n") {
		return value
	}

	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// SplitCombined splits the combined value back into separate values, unescaping quoted
// fields. A value which can't be parsed as a CSV record is returned as the only element.
func SplitCombined(value string) []string {
	reader := csv.NewReader(strings.NewReader(value))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	fields, err := reader.Read()
	if err != nil {
		return []string{value}
	}

	if _, err = reader.Read(); err == nil {
		// the value contained a bare line break, therefore it's rather not a combined value
		return []string{value}
	}

	for i, field := range fields {
		fields[i] = strutil.RStripWS(field)
	}

	return fields
}

func isQuotedField(value string) bool {
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return false
	}

	inner := value[1 : len(value)-1]
	for i := 0; i < len(inner); i++ {
		if inner[i] != '"' {
			continue
		}

		if i+1 == len(inner) || inner[i+1] != '"' {
			return false
		}

		i++
	}

	return true
}
