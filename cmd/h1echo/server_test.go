package main

import (
	"bufio"
	"bytes"
	"io"
	"net"
	stdhttp "net/http"
	"strconv"
	"testing"
	"time"

	"github.com/indigo-web/httpcodec/config"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startServer(t *testing.T) (addr string, stop func()) {
	srv := newServer(config.Default(), zap.NewNop())
	require.NoError(t, srv.Bind("127.0.0.1:0"))

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve()
	}()

	return srv.Addr().String(), func() {
		srv.tcp.Stop()
		require.NoError(t, <-done)
		require.NoError(t, srv.Stop())
	}
}

func roundTrip(t *testing.T, conn net.Conn, r *bufio.Reader, request string) (*stdhttp.Response, []byte) {
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err := conn.Write([]byte(request))
	require.NoError(t, err)

	resp, err := stdhttp.ReadResponse(r, nil)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, body
}

func gzipped(t *testing.T, data string) []byte {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	_, err := w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return b.Bytes()
}

func gunzip(t *testing.T, data []byte) string {
	r, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(out)
}

func TestEcho(t *testing.T) {
	addr, stop := startServer(t)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	r := bufio.NewReader(conn)

	t.Run("plain", func(t *testing.T) {
		resp, body := roundTrip(t, conn, r, "POST /echo HTTP/1.1\r\nHost: localhost\r\n"+
			"Content-Type: text/plain\r\nContent-Length: 5\r\n\r\nhello")
		require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
		require.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
		require.Empty(t, resp.Header.Get("Content-Encoding"))
		require.Equal(t, "hello", string(body))
	})

	t.Run("compressed response", func(t *testing.T) {
		resp, body := roundTrip(t, conn, r, "POST / HTTP/1.1\r\nHost: localhost\r\n"+
			"Accept-Encoding: gzip\r\nContent-Length: 11\r\n\r\nhello world")
		require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
		require.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
		require.Equal(t, "hello world", gunzip(t, body))
	})

	t.Run("compressed request", func(t *testing.T) {
		payload := gzipped(t, "squeezed")
		resp, body := roundTrip(t, conn, r, "POST / HTTP/1.1\r\nHost: localhost\r\n"+
			"Content-Encoding: gzip\r\nContent-Length: "+strconv.Itoa(len(payload))+"\r\n\r\n"+string(payload))
		require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
		require.Equal(t, "squeezed", string(body))
	})

	t.Run("chunked request", func(t *testing.T) {
		resp, body := roundTrip(t, conn, r, "POST / HTTP/1.1\r\nHost: localhost\r\n"+
			"Transfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n")
		require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
		require.Equal(t, "hello world", string(body))
	})

	t.Run("malformed request", func(t *testing.T) {
		resp, _ := roundTrip(t, conn, r, "GET / HTTP/1.1\r\nContent-Length: abc\r\n\r\n")
		require.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
		require.True(t, resp.Close)

		_, err := r.ReadByte()
		require.ErrorIs(t, err, io.EOF)
	})

	require.NoError(t, conn.Close())
	stop()
}
