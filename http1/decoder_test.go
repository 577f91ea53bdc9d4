package http1

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/httpcodec/bytebuf"
	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/headers"
	"github.com/indigo-web/httpcodec/http/method"
	"github.com/indigo-web/httpcodec/http/proto"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/stretchr/testify/require"
)

func getDecoder(isRequest bool, mutate ...func(*config.Decoder)) (*Decoder, *bytebuf.Tracker) {
	cfg := config.Default().Decoder
	for _, fn := range mutate {
		fn(&cfg)
	}

	tracker := bytebuf.NewTracker(bytebuf.NewPool())
	return newDecoder(cfg, tracker, isRequest), tracker
}

func splitIntoParts(data []byte, n int) (parts [][]byte) {
	for i := 0; i < len(data); i += n {
		parts = append(parts, data[i:min(i+n, len(data))])
	}

	return parts
}

// decodeAll feeds every piece, collecting all the produced objects.
func decodeAll(d *Decoder, pieces ...[]byte) (objs []http.Object) {
	for _, piece := range pieces {
		data := piece
		for {
			obj, rest := d.Decode(data)
			data = rest
			if obj == nil {
				break
			}

			objs = append(objs, obj)
		}
	}

	return objs
}

func releaseAll(objs []http.Object) {
	for _, obj := range objs {
		http.Release(obj)
	}
}

func describeHeaders(h *headers.Headers) string {
	if h == nil {
		return ""
	}

	var b strings.Builder
	for name, value := range h.Iter() {
		fmt.Fprintf(&b, "%s=%s;", strings.ToLower(name), value)
	}

	return b.String()
}

// summarize describes the objects in a way independent of how the body was chunked.
func summarize(objs []http.Object) (out []string) {
	var body strings.Builder

	for _, obj := range objs {
		if req, ok := http.RequestOf(obj); ok {
			out = append(out, fmt.Sprintf("%s %s %s [%s]",
				req.Method, req.Target, req.Protocol, describeHeaders(req.Headers)))
		} else if resp, ok := http.ResponseOf(obj); ok {
			out = append(out, fmt.Sprintf("%s %d %s [%s]",
				resp.Protocol, resp.Code, resp.Reason, describeHeaders(resp.Headers)))
		}

		if chunk, ok := obj.(http.Chunk); ok {
			body.Write(chunk.Bytes())
			if chunk.IsLast() {
				out = append(out, fmt.Sprintf("body %q [%s]", body.String(), describeHeaders(chunk.Trailers())))
				body.Reset()
			}
		}

		if res := obj.Result(); res.IsFailure() {
			out = append(out, "failure: "+res.Err().Error())
		}
	}

	return out
}

func generateHeaders(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("X-")
		b.WriteString(uniuri.NewLen(8))
		b.WriteString(": ")
		b.WriteString(uniuri.New())
		b.WriteString("\r\n")
	}

	return b.String()
}

func BenchmarkDecoder(b *testing.B) {
	for _, n := range []int{5, 10, 50} {
		b.Run(fmt.Sprintf("with %d headers", n), func(b *testing.B) {
			data := []byte("POST /" + strings.Repeat("a", 500) + " HTTP/1.1\r\n" +
				generateHeaders(n) + "Content-Length: 13\r\n\r\nHello, world!")
			d := newDecoder(config.Default().Decoder, bytebuf.NewPool(), true)
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				for obj, rest := d.Decode(data); obj != nil; obj, rest = d.Decode(rest) {
					http.Release(obj)
				}
			}
		})
	}
}

func TestDecoderRequests(t *testing.T) {
	t.Run("simple GET", func(t *testing.T) {
		d, tracker := getDecoder(true)
		objs := decodeAll(d, []byte("GET /index HTTP/1.1\r\nHost: example.com\r\n\r\n"))
		require.Len(t, objs, 2)

		req, ok := objs[0].(*http.Request)
		require.True(t, ok)
		require.Equal(t, method.GET, req.Method)
		require.Equal(t, "/index", req.Target)
		require.Equal(t, proto.HTTP11, req.Protocol)
		require.Equal(t, "example.com", req.Headers.Value("host"))

		res := req.Result()
		require.True(t, res.IsSuccess())
		require.Equal(t, len("GET /index HTTP/1.1"), res.InitialLineLength())
		require.Equal(t, len("Host: example.com"), res.HeaderSize())

		last, ok := objs[1].(*http.LastContent)
		require.True(t, ok)
		require.Zero(t, last.Len())
		require.True(t, d.Idle())

		releaseAll(objs)
		require.Zero(t, tracker.Live())
	})

	t.Run("leading CRLF and junk", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("\r\n\r\nHELLO\r\nGET / HTTP/1.0\r\n\r\n"))
		require.Equal(t, []string{
			"GET / HTTP/1.0 []",
			`body "" []`,
		}, summarize(objs))
	})

	t.Run("only LF", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("GET / HTTP/1.1\nHello: World!\n\n"))
		require.Equal(t, []string{
			"GET / HTTP/1.1 [hello=World!;]",
			`body "" []`,
		}, summarize(objs))
	})

	t.Run("fixed length", func(t *testing.T) {
		d, tracker := getDecoder(true)
		objs := decodeAll(d, []byte("POST / HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"))
		require.Len(t, objs, 2)
		last, ok := objs[1].(*http.LastContent)
		require.True(t, ok)
		require.Equal(t, "hello", string(last.Bytes()))

		releaseAll(objs)
		require.Zero(t, tracker.Live())
	})

	t.Run("fixed length split by max chunk size", func(t *testing.T) {
		d, tracker := getDecoder(true, func(cfg *config.Decoder) {
			cfg.MaxChunkSize = 2
		})
		objs := decodeAll(d, []byte("POST / HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello"))
		require.Len(t, objs, 4)

		for i, want := range []string{"he", "ll"} {
			content, ok := objs[i+1].(*http.Content)
			require.True(t, ok)
			require.Equal(t, want, string(content.Bytes()))
		}

		last, ok := objs[3].(*http.LastContent)
		require.True(t, ok)
		require.Equal(t, "o", string(last.Bytes()))

		releaseAll(objs)
		require.Zero(t, tracker.Live())
	})

	t.Run("no content length", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("DELETE /item HTTP/1.1\r\n\r\nPUT / HTTP/1.1\r\nContent-Length: 0\r\n\r\n"))
		require.Equal(t, []string{
			"DELETE /item HTTP/1.1 []",
			`body "" []`,
			"PUT / HTTP/1.1 [content-length=0;]",
			`body "" []`,
		}, summarize(objs))
	})

	t.Run("chunked", func(t *testing.T) {
		d, tracker := getDecoder(true)
		raw := "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
			"5\r\nhello\r\n6;ext=1\r\n world\r\n0\r\nX-Trailer: yes\r\nContent-Length: 3\r\n\r\n"
		objs := decodeAll(d, []byte(raw))
		require.Len(t, objs, 4)

		for i, want := range []string{"hello", " world"} {
			content, ok := objs[i+1].(*http.Content)
			require.True(t, ok)
			require.Equal(t, want, string(content.Bytes()))
		}

		last, ok := objs[3].(*http.LastContent)
		require.True(t, ok)
		require.Zero(t, last.Len())
		require.Equal(t, "yes", last.Trailer.Value("x-trailer"))
		require.False(t, last.Trailer.Has("content-length"))
		require.True(t, d.Idle())

		releaseAll(objs)
		require.Zero(t, tracker.Live())
	})

	t.Run("chunked overrides content length", func(t *testing.T) {
		d, _ := getDecoder(true)
		raw := "POST / HTTP/1.1\r\nContent-Length: 100\r\nTransfer-Encoding: chunked\r\n\r\n" +
			"3\r\nabc\r\n0\r\n\r\n"
		objs := decodeAll(d, []byte(raw))
		require.Equal(t, []string{
			"POST / HTTP/1.1 [transfer-encoding=chunked;]",
			`body "abc" []`,
		}, summarize(objs))
		releaseAll(objs)
	})

	t.Run("whole chunks only", func(t *testing.T) {
		d, tracker := getDecoder(true, func(cfg *config.Decoder) {
			cfg.AllowPartialChunks = false
		})
		raw := []byte("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n")
		objs := decodeAll(d, splitIntoParts(raw, 1)...)
		require.Len(t, objs, 3)
		content, ok := objs[1].(*http.Content)
		require.True(t, ok)
		require.Equal(t, "hello", string(content.Bytes()))

		releaseAll(objs)
		require.Zero(t, tracker.Live())
	})

	t.Run("header continuation", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("GET / HTTP/1.1\r\nX-Folded: a\r\n  b\r\n\tc\r\nHost: x\r\n\r\n"))
		req := objs[0].(*http.Request)
		require.Equal(t, "a b c", req.Headers.Value("x-folded"))
		require.Equal(t, "x", req.Headers.Value("host"))
	})

	t.Run("multiple header values", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("GET / HTTP/1.1\r\nAccept: one,two\r\nAccept: three\r\n\r\n"))
		req := objs[0].(*http.Request)
		require.Equal(t, []string{"one,two", "three"}, req.Headers.Values("accept"))
	})

	t.Run("absolute target", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("GET http://www.w3.org/pub/WWW/TheProject.html HTTP/1.1\r\n\r\n"))
		require.Equal(t, "http://www.w3.org/pub/WWW/TheProject.html", objs[0].(*http.Request).Target)
	})

	t.Run("extension method", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("PURGE /cache HTTP/1.1\r\n\r\n"))
		req := objs[0].(*http.Request)
		require.Equal(t, "PURGE", req.Method.String())
		require.False(t, req.Method.Standard())
	})

	t.Run("hixie websocket handshake", func(t *testing.T) {
		d, _ := getDecoder(true)
		raw := "GET /demo HTTP/1.1\r\nUpgrade: WebSocket\r\nConnection: Upgrade\r\n" +
			"Sec-WebSocket-Key1: 4 @1  46546xW%0l 1 5\r\nSec-WebSocket-Key2: 12998 5 Y3 1  .P00\r\n\r\n" +
			"^n:ds[4U"
		objs := decodeAll(d, []byte(raw))
		require.Len(t, objs, 2)
		require.Equal(t, "^n:ds[4U", string(objs[1].(*http.LastContent).Bytes()))
		releaseAll(objs)
	})

	t.Run("expectation failed", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("PUT / HTTP/1.1\r\nExpect: 100-continue\r\nContent-Length: 5\r\n\r\n"))
		require.Len(t, objs, 1)
		require.Equal(t, eReadFixedLengthContent, d.state)

		d.ExpectationFailed()
		objs = decodeAll(d, []byte("GET / HTTP/1.1\r\n\r\n"))
		require.Equal(t, []string{
			"GET / HTTP/1.1 []",
			`body "" []`,
		}, summarize(objs))
	})

	t.Run("expectation failed after the body", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("GET / HTTP/1.1\r\n\r\n"))
		require.Len(t, objs, 2)

		d.ExpectationFailed()
		require.False(t, d.resetRequested)
	})

	t.Run("pipelined", func(t *testing.T) {
		d, tracker := getDecoder(true)
		raw := "POST /a HTTP/1.1\r\nContent-Length: 3\r\n\r\nabc" +
			"POST /b HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n2\r\nde\r\n0\r\n\r\n" +
			"GET /c HTTP/1.1\r\n\r\n"
		objs := decodeAll(d, []byte(raw))
		require.Equal(t, []string{
			"POST /a HTTP/1.1 [content-length=3;]",
			`body "abc" []`,
			"POST /b HTTP/1.1 [transfer-encoding=chunked;]",
			`body "de" []`,
			"GET /c HTTP/1.1 []",
			`body "" []`,
		}, summarize(objs))

		releaseAll(objs)
		require.Zero(t, tracker.Live())
	})
}

func TestDecoderResponses(t *testing.T) {
	t.Run("close delimited", func(t *testing.T) {
		d, tracker := getDecoder(false)
		objs := decodeAll(d, []byte("HTTP/1.1 200 OK\r\nServer: test\r\n\r\nhello, "), []byte("world"))
		require.Equal(t, []string{
			"HTTP/1.1 200 OK [server=test;]",
		}, summarize(objs))
		require.Len(t, objs, 3)

		last := d.DecodeLast()
		require.NotNil(t, last)
		objs = append(objs, last)
		require.Equal(t, []string{
			"HTTP/1.1 200 OK [server=test;]",
			`body "hello, world" []`,
		}, summarize(objs))
		require.Nil(t, d.DecodeLast())

		releaseAll(objs)
		require.Zero(t, tracker.Live())
	})

	t.Run("empty reason", func(t *testing.T) {
		d, _ := getDecoder(false)
		objs := decodeAll(d, []byte("HTTP/1.1 200\r\nContent-Length: 0\r\n\r\n"))
		require.Len(t, objs, 2)
		resp := objs[0].(*http.Response)
		require.Equal(t, status.OK, resp.Code)
		require.Empty(t, resp.Reason)
	})

	t.Run("multi-word reason", func(t *testing.T) {
		d, _ := getDecoder(false)
		objs := decodeAll(d, []byte("HTTP/1.0 404 Not Found\r\nContent-Length: 0\r\n\r\n"))
		resp := objs[0].(*http.Response)
		require.Equal(t, "Not Found", resp.Reason)
		require.Equal(t, proto.HTTP10, resp.Protocol)
	})

	t.Run("always empty", func(t *testing.T) {
		for _, code := range []int{100, 204, 304} {
			d, _ := getDecoder(false)
			raw := fmt.Sprintf("HTTP/1.1 %d Whatever\r\nTransfer-Encoding: chunked\r\n\r\n", code) +
				"HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"
			objs := decodeAll(d, []byte(raw))
			require.Equal(t, []string{
				fmt.Sprintf("HTTP/1.1 %d Whatever []", code),
				`body "" []`,
				"HTTP/1.1 200 OK [content-length=2;]",
				`body "ok" []`,
			}, summarize(objs), code)
			releaseAll(objs)
		}
	})

	t.Run("response header whitespace before colon", func(t *testing.T) {
		d, _ := getDecoder(false, func(cfg *config.Decoder) {
			cfg.ValidateHeaders = false
		})
		objs := decodeAll(d, []byte("HTTP/1.1 200 OK\r\nServer : test\r\nContent-Length: 0\r\n\r\n"))
		require.Equal(t, "test", objs[0].(*http.Response).Headers.Value("server"))
	})

	t.Run("upgrade to websocket", func(t *testing.T) {
		d, _ := getDecoder(false)
		raw := "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n" +
			"Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n\r\n\x81\x05hello"
		obj, rest := d.Decode([]byte(raw))
		require.IsType(t, &http.Response{}, obj)
		obj, rest = d.Decode(rest)
		require.IsType(t, &http.LastContent{}, obj)
		require.True(t, d.PassThrough())

		obj, rest = d.Decode(rest)
		require.Nil(t, obj)
		require.Equal(t, "\x81\x05hello", string(rest))
		require.Nil(t, d.DecodeLast())
	})

	t.Run("upgrade to HTTP/1.1", func(t *testing.T) {
		d, _ := getDecoder(false)
		raw := "HTTP/1.1 101 Switching Protocols\r\nUpgrade: HTTP/1.1\r\n\r\n" +
			"HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
		objs := decodeAll(d, []byte(raw))
		require.Len(t, objs, 4)
		require.False(t, d.PassThrough())
	})

	t.Run("premature closure", func(t *testing.T) {
		d, tracker := getDecoder(false)
		objs := decodeAll(d, []byte("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nhello"))
		require.Len(t, objs, 2)
		require.Nil(t, d.DecodeLast())

		releaseAll(objs)
		require.Zero(t, tracker.Live())
	})

	t.Run("closure while reading headers", func(t *testing.T) {
		d, _ := getDecoder(false)
		objs := decodeAll(d, []byte("HTTP/1.1 200 OK\r\nContent-Le"))
		require.Empty(t, objs)

		obj := d.DecodeLast()
		require.NotNil(t, obj)
		require.True(t, errors.Is(obj.Result().Err(), status.ErrPrematureClosure))
		require.Nil(t, d.DecodeLast())
	})

	t.Run("closure while idle", func(t *testing.T) {
		d, _ := getDecoder(false)
		require.Nil(t, d.DecodeLast())
	})
}

func TestDecoderErrors(t *testing.T) {
	failure := func(t *testing.T, objs []http.Object, want error) http.Object {
		require.NotEmpty(t, objs)
		obj := objs[len(objs)-1]
		require.True(t, obj.Result().IsFailure())
		require.True(t, errors.Is(obj.Result().Err(), want), obj.Result().Err())

		return obj
	}

	t.Run("missing colon", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("GET / HTTP/1.1\r\nBad Header\r\n\r\nGET / HTTP/1.1\r\n\r\n"))
		require.Len(t, objs, 1)
		obj := failure(t, objs, status.ErrMissingColon)
		require.IsType(t, &http.Request{}, obj)
		require.Equal(t, eBadMessage, d.state)
	})

	t.Run("invalid header name", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("GET / HTTP/1.1\r\nBad Name: value\r\n\r\n"))
		failure(t, objs, status.ErrInvalidHeaderName)
	})

	t.Run("bad version", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("GET / HTTP/x\r\n\r\n"))
		obj := failure(t, objs, status.ErrBadVersion)
		req, ok := obj.(*http.FullRequest)
		require.True(t, ok)
		require.Equal(t, method.GET, req.Method)
		require.Equal(t, "/bad-request", req.Target)
		require.Equal(t, proto.HTTP10, req.Protocol)
	})

	t.Run("bad method", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("G(E)T / HTTP/1.1\r\n\r\n"))
		failure(t, objs, status.ErrBadInitialLine)
	})

	t.Run("bad status code", func(t *testing.T) {
		d, _ := getDecoder(false)
		objs := decodeAll(d, []byte("HTTP/1.1 2000 OK\r\n\r\n"))
		obj := failure(t, objs, status.ErrBadStatusCode)
		resp, ok := obj.(*http.FullResponse)
		require.True(t, ok)
		require.Equal(t, status.Code(999), resp.Code)
		require.Equal(t, proto.HTTP10, resp.Protocol)
	})

	t.Run("too long initial line", func(t *testing.T) {
		d, _ := getDecoder(true, func(cfg *config.Decoder) {
			cfg.MaxInitialLineLength = 16
		})
		objs := decodeAll(d, []byte("GET /very/long/path/here"))
		failure(t, objs, status.ErrTooLongInitialLine)
	})

	t.Run("too large headers", func(t *testing.T) {
		d, _ := getDecoder(true, func(cfg *config.Decoder) {
			cfg.MaxHeaderSize = 20
		})
		objs := decodeAll(d, []byte("GET / HTTP/1.1\r\nA: 0123456789\r\nB: 0123456789\r\n\r\n"))
		obj := failure(t, objs, status.ErrHeaderFieldsTooLarge)
		require.IsType(t, &http.Request{}, obj)
	})

	t.Run("headers and trailers share the limit", func(t *testing.T) {
		d, _ := getDecoder(true, func(cfg *config.Decoder) {
			cfg.MaxHeaderSize = 40
		})
		raw := "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n0\r\nX-Trailer: 0123456789\r\n\r\n"
		objs := decodeAll(d, []byte(raw))
		require.Len(t, objs, 2)
		obj := failure(t, objs, status.ErrHeaderFieldsTooLarge)
		require.IsType(t, &http.LastContent{}, obj)
	})

	t.Run("bad content length", func(t *testing.T) {
		for _, value := range []string{"-1", "abc", "+5", ""} {
			d, _ := getDecoder(true)
			objs := decodeAll(d, []byte("POST / HTTP/1.1\r\nContent-Length: "+value+"\r\n\r\n"))
			failure(t, objs, status.ErrBadContentLength)
		}
	})

	t.Run("duplicate content length", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("POST / HTTP/1.1\r\nContent-Length: 5\r\nContent-Length: 5\r\n\r\nhello"))
		failure(t, objs, status.ErrDuplicateContentLength)
	})

	t.Run("allowed duplicate content length", func(t *testing.T) {
		for _, lengths := range []string{
			"Content-Length: 5\r\nContent-Length: 5\r\n",
			"Content-Length: 5, 5\r\n",
			"Content-Length: 5,05\r\n",
		} {
			d, _ := getDecoder(true, func(cfg *config.Decoder) {
				cfg.AllowDuplicateContentLengths = true
			})
			objs := decodeAll(d, []byte("POST / HTTP/1.1\r\n"+lengths+"\r\nhello"))
			require.Equal(t, []string{
				"POST / HTTP/1.1 [content-length=5;]",
				`body "hello" []`,
			}, summarize(objs), lengths)
			releaseAll(objs)
		}
	})

	t.Run("conflicting content length", func(t *testing.T) {
		d, _ := getDecoder(true, func(cfg *config.Decoder) {
			cfg.AllowDuplicateContentLengths = true
		})
		objs := decodeAll(d, []byte("POST / HTTP/1.1\r\nContent-Length: 5\r\nContent-Length: 6\r\n\r\nhello"))
		failure(t, objs, status.ErrDuplicateContentLength)
	})

	t.Run("bad chunk size", func(t *testing.T) {
		for _, size := range []string{"zz", "", ";ext"} {
			d, _ := getDecoder(true)
			objs := decodeAll(d, []byte("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n"+size+"\r\n"))
			require.Len(t, objs, 2)
			obj := failure(t, objs, status.ErrBadChunk)
			require.IsType(t, &http.LastContent{}, obj)
		}
	})

	t.Run("too long chunk size", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n"+
			strings.Repeat("1", 17)+"\r\n"))
		failure(t, objs, status.ErrTooLongChunkLength)
	})

	t.Run("reset after failure", func(t *testing.T) {
		d, _ := getDecoder(true)
		objs := decodeAll(d, []byte("GET / HTTP/x\r\n\r\n"))
		require.Len(t, objs, 1)

		d.Reset()
		objs = decodeAll(d, []byte("GET / HTTP/1.1\r\n\r\n"))
		require.Equal(t, []string{
			"GET / HTTP/1.1 []",
			`body "" []`,
		}, summarize(objs))
	})
}

func TestDecoderPartialFeed(t *testing.T) {
	inputs := []struct {
		isRequest bool
		entries   int
		raw       string
	}{
		{
			isRequest: true,
			entries:   6,
			raw: "\r\nPOST /a HTTP/1.1\r\nHost: example.com\r\nX-Folded: a\r\n b\r\nContent-Length: 11\r\n\r\n" +
				"hello world" +
				"PUT /b HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n" +
				"4;name=value\r\nWiki\r\n5\r\npedia\r\n0\r\nExpires: never\r\n\r\n" +
				"GET /c HTTP/1.0\r\n" + generateHeaders(3) + "\r\n",
		},
		{
			isRequest: false,
			entries:   8,
			raw: "HTTP/1.1 100 Continue\r\n\r\n" +
				"HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello" +
				"HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n3\r\nabc\r\n0\r\n\r\n" +
				"HTTP/1.1 304 Not Modified\r\nETag: \"x\"\r\n\r\n",
		},
	}

	for _, input := range inputs {
		d, _ := getDecoder(input.isRequest)
		whole := decodeAll(d, []byte(input.raw))
		want := summarize(whole)
		releaseAll(whole)
		require.Len(t, want, input.entries)

		for n := 1; n < len(input.raw); n++ {
			d, tracker := getDecoder(input.isRequest)
			objs := decodeAll(d, splitIntoParts([]byte(input.raw), n)...)
			require.Equal(t, want, summarize(objs), n)
			releaseAll(objs)
			require.Zero(t, tracker.Live())
		}

		for i := 1; i < len(input.raw); i++ {
			d, _ := getDecoder(input.isRequest)
			objs := decodeAll(d, []byte(input.raw[:i]), []byte(input.raw[i:]))
			require.Equal(t, want, summarize(objs), i)
			releaseAll(objs)
		}
	}
}

func TestParseChunkSize(t *testing.T) {
	for line, want := range map[string]int64{
		"0":                0,
		"a":                10,
		"FF":               255,
		"  1f  ":           31,
		"10;ext=val":       16,
		"7fffffffffffffff": 1<<63 - 1,
	} {
		size, err := parseChunkSize([]byte(line))
		require.NoError(t, err, line)
		require.Equal(t, want, size, line)
	}

	for _, line := range []string{"", "g", "-1", "8000000000000000", "10000000000000000"} {
		_, err := parseChunkSize([]byte(line))
		require.Error(t, err, line)
	}
}
