package main

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dumpString(t *testing.T, input string, opts options) []record {
	var out bytes.Buffer
	require.NoError(t, run(strings.NewReader(input), &out, opts, zap.NewNop()))

	var records []record
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var rec record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}

	return records
}

func kinds(records []record) (out []string) {
	for _, rec := range records {
		out = append(out, rec.Kind)
	}

	return out
}

func TestDump(t *testing.T) {
	const pipelined = "GET /a HTTP/1.1\r\nHost: x\r\n\r\n" +
		"POST /b HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"

	t.Run("streamed", func(t *testing.T) {
		records := dumpString(t, pipelined, options{chunk: 5})
		require.GreaterOrEqual(t, len(records), 4)
		require.Equal(t, []string{"request", "last-content", "request"}, kinds(records[:3]))
		require.Equal(t, "GET", records[0].Method)
		require.Equal(t, "/a", records[0].Target)
		require.Equal(t, "HTTP/1.1", records[0].Proto)
		require.Len(t, records[0].Headers, 1)
		require.True(t, strings.EqualFold("host", records[0].Headers[0][0]))
		require.Equal(t, "x", records[0].Headers[0][1])

		var body string
		for _, rec := range records[3:] {
			body += rec.Body
		}

		require.Equal(t, "hello", body)
		require.Equal(t, "last-content", records[len(records)-1].Kind)
	})

	t.Run("aggregated", func(t *testing.T) {
		for _, chunk := range []int{1, 7, 4096} {
			records := dumpString(t, pipelined, options{chunk: chunk, aggregate: true})
			require.Equal(t, []string{"full-request", "full-request"}, kinds(records))
			require.Empty(t, records[0].Body)
			require.Equal(t, "POST", records[1].Method)
			require.Equal(t, "hello", records[1].Body)
		}
	})

	t.Run("expectation", func(t *testing.T) {
		records := dumpString(t,
			"POST / HTTP/1.1\r\nExpect: 100-continue\r\nContent-Length: 2\r\n\r\nok",
			options{chunk: 16, aggregate: true},
		)
		require.Equal(t, []string{"full-request"}, kinds(records))
		require.Equal(t, "ok", records[0].Body)
	})

	t.Run("compressed response", func(t *testing.T) {
		var compressed bytes.Buffer
		w := gzip.NewWriter(&compressed)
		_, err := w.Write([]byte("hello, world"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		input := "HTTP/1.1 200 OK\r\nContent-Encoding: gzip\r\nContent-Length: " +
			strconv.Itoa(compressed.Len()) + "\r\n\r\n" + compressed.String()
		records := dumpString(t, input, options{chunk: 10, response: true, decompress: true, aggregate: true})
		require.Equal(t, []string{"full-response"}, kinds(records))
		require.Equal(t, 200, records[0].Code)
		require.Equal(t, "OK", records[0].Reason)
		require.Equal(t, "hello, world", records[0].Body)
	})

	t.Run("malformed", func(t *testing.T) {
		records := dumpString(t, "GET / HTTP/1.1\r\nContent-Length: abc\r\n\r\n", options{chunk: 64})
		require.NotEmpty(t, records)

		var failed bool
		for _, rec := range records {
			failed = failed || strings.Contains(rec.Error, "Content-Length")
		}

		require.True(t, failed)
	})

	t.Run("bad chunk size", func(t *testing.T) {
		err := run(strings.NewReader(""), new(bytes.Buffer), options{chunk: 0}, zap.NewNop())
		require.Error(t, err)
	})
}
