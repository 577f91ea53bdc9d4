package transport

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/indigo-web/httpcodec/config"
	"github.com/stretchr/testify/require"
)

func TestTCP(t *testing.T) {
	tcp := NewTCP()
	require.NoError(t, tcp.Bind("127.0.0.1:0"))

	done := make(chan error, 1)
	go func() {
		done <- tcp.Listen(10*time.Millisecond, func(conn net.Conn) {
			client := NewClient(conn, config.Default().NET)
			data, err := client.Read()
			if err != nil {
				return
			}

			client.Pushback(data)
			data, err = client.Read()
			if err != nil {
				return
			}

			_, _ = client.Write(data)
		})
	}()

	conn, err := net.Dial("tcp", tcp.Addr().String())
	require.NoError(t, err)
	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	buff := make([]byte, 4)
	_, err = io.ReadFull(conn, buff)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buff))
	require.NoError(t, conn.Close())

	tcp.Stop()
	require.NoError(t, <-done)
	tcp.Wait()
	require.NoError(t, tcp.Close())
}
