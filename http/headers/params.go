package headers

import (
	"strconv"
	"strings"
)

// ValueOf returns a value until first semicolon is met. Even if the value after semicolon
// is not a parameter, it will anyway be counted as a parameter
func ValueOf(str string) string {
	if index := strings.IndexByte(str, ';'); index != -1 {
		return str[:index]
	}

	return str
}

// ParamOf looks for a parameter in a value, and if found, returns a parameter value.
// In case parameter is not found, the or value is returned
func ParamOf(str, key, or string) string {
	if index := strings.Index(str, ";"+key+"="); index != -1 {
		valOffset := index + len(key) + 1 + 1

		return str[valOffset : valOffset+getParamEnd(str[valOffset:])]
	}

	return or
}

func getParamEnd(str string) int {
	for i := range str {
		switch str[i] {
		case ',', ';':
			return i
		}
	}

	return len(str)
}

// QualityOf returns the weight of a single list member, e.g. "gzip;q=0.5". Members without
// a weight are weighted 1, malformed weights count as 0.
func QualityOf(member string) float64 {
	index := strings.IndexByte(member, '=')
	if index == -1 {
		return 1
	}

	q, err := strconv.ParseFloat(strings.TrimSpace(member[index+1:]), 64)
	if err != nil {
		return 0
	}

	return q
}
