package pipeline

import (
	"github.com/indigo-web/httpcodec/bytebuf"
	"go.uber.org/zap"
)

// Context binds a handler to its position in the pipeline.
type Context struct {
	name       string
	handler    Handler
	pipeline   *Pipeline
	prev, next *Context
	removed    bool
}

func (c *Context) Name() string {
	return c.name
}

func (c *Context) Handler() Handler {
	return c.handler
}

func (c *Context) Pipeline() *Pipeline {
	return c.pipeline
}

func (c *Context) Logger() *zap.Logger {
	return c.pipeline.log
}

func (c *Context) Alloc() bytebuf.Allocator {
	return c.pipeline.alloc
}

// Removed reports whether the handler isn't part of the pipeline anymore. Events fired
// from a removed context still reach the stages, which were its neighbours.
func (c *Context) Removed() bool {
	return c.removed
}

func (c *Context) FireRead(msg any) {
	next := c.following()
	next.handler.Read(next, msg)
}

func (c *Context) FireReadComplete() {
	next := c.following()
	next.handler.ReadComplete(next)
}

func (c *Context) FireEvent(event any) {
	next := c.following()
	next.handler.Event(next, event)
}

func (c *Context) FireError(err error) {
	next := c.following()
	next.handler.Error(next, err)
}

func (c *Context) FireInactive() {
	next := c.following()
	next.handler.Inactive(next)
}

// Write passes the message to the previous stage. The ownership of the message is
// transferred, even if an error is returned.
func (c *Context) Write(msg any) error {
	prev := c.preceding()
	return prev.handler.Write(prev, msg)
}

// following returns the next context, skipping those removed after c was unlinked.
func (c *Context) following() *Context {
	next := c.next
	for next.removed {
		next = next.next
	}

	return next
}

func (c *Context) preceding() *Context {
	prev := c.prev
	for prev.removed {
		prev = prev.prev
	}

	return prev
}

// Read requests one more read from the transport. It matters only if auto-read is off.
func (c *Context) Read() {
	c.pipeline.Read()
}

// Close closes the connection. Inactive is fired after the current callback chain
// returns.
func (c *Context) Close() error {
	return c.pipeline.Close()
}
