package dummy

import (
	"io"
	"net"

	"github.com/indigo-web/httpcodec/transport"
)

var _ transport.Client = new(Client)

// Client returns the same data as it was initialised with on every read, unless set to
// shoot once. It also tracks all the written data, making it thereby a universal mock
// suitable for most of the tests.
type Client struct {
	closed     bool
	once       bool
	journaling bool
	pointer    int
	writes     int
	tmp        []byte
	written    []byte
	data       [][]byte
}

func NewMockClient(data ...[]byte) *Client {
	return &Client{
		data:       data,
		pointer:    0,
		journaling: true,
	}
}

func (c *Client) Read() (data []byte, err error) {
	if c.closed {
		return nil, io.EOF
	}

	if len(c.tmp) > 0 {
		data, c.tmp = c.tmp, nil

		return data, nil
	}

	if c.pointer >= len(c.data) {
		if c.once || len(c.data) == 0 {
			c.closed = true
			return nil, io.EOF
		}

		c.pointer = 0
	}

	piece := c.data[c.pointer]
	c.pointer++

	return piece, nil
}

func (c *Client) Pushback(takeback []byte) {
	c.tmp = append(c.tmp[:0:0], takeback...)
}

// Pending returns the data preserved via Pushback.
func (c *Client) Pending() []byte {
	return c.tmp
}

func (c *Client) Write(p []byte) (int, error) {
	if c.closed {
		return 0, net.ErrClosed
	}

	c.writes++
	if c.journaling {
		c.written = append(c.written, p...)
	}

	return len(p), nil
}

func (*Client) Conn() net.Conn {
	return nil
}

func (*Client) Remote() net.Addr {
	return nil
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}

func (c *Client) Closed() bool {
	return c.closed
}

func (c *Client) Once() *Client {
	c.once = true
	return c
}

func (c *Client) Journaling(flag bool) *Client {
	c.journaling = flag
	return c
}

// Writes returns the number of Write calls.
func (c *Client) Writes() int {
	return c.writes
}

func (c *Client) Written() string {
	if !c.journaling {
		panic("mock client: cannot access written data: journaling is disabled!")
	}

	return string(c.written)
}

// Reset forgets the written data.
func (c *Client) Reset() {
	c.written = c.written[:0]
	c.writes = 0
}
