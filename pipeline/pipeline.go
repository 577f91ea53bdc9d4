// Package pipeline chains handlers processing a single connection. All the callbacks are
// invoked sequentially, from a single goroutine, in the order the data arrives.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/indigo-web/httpcodec/bytebuf"
	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/httpcodec/transport"
	"go.uber.org/zap"
)

var (
	ErrDuplicateName = errors.New("handler with such a name already exists")
	ErrNoSuchHandler = errors.New("no such handler")
	ErrClosed        = errors.New("connection is closed")
)

type Option func(*Pipeline)

func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

func WithAllocator(alloc bytebuf.Allocator) Option {
	return func(p *Pipeline) {
		p.alloc = alloc
	}
}

// WithConfig applies the pipeline-related settings.
func WithConfig(cfg *config.Config) Option {
	return func(p *Pipeline) {
		p.autoRead = cfg.Pipeline.AutoRead
	}
}

// Pipeline is a doubly-linked list of handlers, sitting between the transport (head)
// and the application (tail).
type Pipeline struct {
	head, tail *Context
	client     transport.Client
	log        *zap.Logger
	alloc      bytebuf.Allocator
	// depth counts nested pipeline entries, so that Inactive is never fired in the middle
	// of another callback chain.
	depth           int
	autoRead        bool
	needsRead       bool
	closed          bool
	inactivePending bool
}

func New(client transport.Client, opts ...Option) *Pipeline {
	p := &Pipeline{
		client:   client,
		log:      zap.NewNop(),
		alloc:    bytebuf.Default,
		autoRead: true,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.head = &Context{name: "head", handler: headHandler{}, pipeline: p}
	p.tail = &Context{name: "tail", handler: tailHandler{}, pipeline: p}
	p.head.next, p.tail.prev = p.tail, p.head

	return p
}

func (p *Pipeline) Logger() *zap.Logger {
	return p.log
}

func (p *Pipeline) Alloc() bytebuf.Allocator {
	return p.alloc
}

func (p *Pipeline) Client() transport.Client {
	return p.client
}

// AddLast appends the handler right before the tail.
func (p *Pipeline) AddLast(name string, h Handler) error {
	return p.insert(p.tail.prev, name, h)
}

// AddFirst inserts the handler right after the head.
func (p *Pipeline) AddFirst(name string, h Handler) error {
	return p.insert(p.head, name, h)
}

func (p *Pipeline) AddBefore(base, name string, h Handler) error {
	ctx := p.Context(base)
	if ctx == nil {
		return fmt.Errorf("%w: %s", ErrNoSuchHandler, base)
	}

	return p.insert(ctx.prev, name, h)
}

func (p *Pipeline) AddAfter(base, name string, h Handler) error {
	ctx := p.Context(base)
	if ctx == nil {
		return fmt.Errorf("%w: %s", ErrNoSuchHandler, base)
	}

	return p.insert(ctx, name, h)
}

// Remove removes the handler by its name.
func (p *Pipeline) Remove(name string) error {
	ctx := p.Context(name)
	if ctx == nil {
		return fmt.Errorf("%w: %s", ErrNoSuchHandler, name)
	}

	p.unlink(ctx)
	return nil
}

// RemoveHandler removes the handler by its identity.
func (p *Pipeline) RemoveHandler(h Handler) error {
	ctx := p.ContextOf(h)
	if ctx == nil {
		return fmt.Errorf("%w: %T", ErrNoSuchHandler, h)
	}

	p.unlink(ctx)
	return nil
}

// Replace puts the new handler at the position of the old one.
func (p *Pipeline) Replace(old, name string, h Handler) error {
	ctx := p.Context(old)
	if ctx == nil {
		return fmt.Errorf("%w: %s", ErrNoSuchHandler, old)
	}

	if name != old && p.Context(name) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	prev := ctx.prev
	p.unlink(ctx)

	return p.insert(prev, name, h)
}

// Get returns the handler by its name, or nil.
func (p *Pipeline) Get(name string) Handler {
	if ctx := p.Context(name); ctx != nil {
		return ctx.handler
	}

	return nil
}

// Context returns the context of the handler by its name, or nil.
func (p *Pipeline) Context(name string) *Context {
	for ctx := p.head.next; ctx != p.tail; ctx = ctx.next {
		if ctx.name == name {
			return ctx
		}
	}

	return nil
}

// ContextOf returns the context of the handler, or nil.
func (p *Pipeline) ContextOf(h Handler) *Context {
	for ctx := p.head.next; ctx != p.tail; ctx = ctx.next {
		if ctx.handler == h {
			return ctx
		}
	}

	return nil
}

// Names returns the names of the handlers, from the head to the tail.
func (p *Pipeline) Names() (names []string) {
	for ctx := p.head.next; ctx != p.tail; ctx = ctx.next {
		names = append(names, ctx.name)
	}

	return names
}

func (p *Pipeline) insert(after *Context, name string, h Handler) error {
	if p.Context(name) != nil {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	ctx := &Context{
		name:     name,
		handler:  h,
		pipeline: p,
		prev:     after,
		next:     after.next,
	}
	after.next.prev = ctx
	after.next = ctx
	h.Added(ctx)

	return nil
}

func (p *Pipeline) unlink(ctx *Context) {
	ctx.prev.next = ctx.next
	ctx.next.prev = ctx.prev
	ctx.removed = true
	ctx.handler.Removed(ctx)
}

// FireRead passes the message to the first handler.
func (p *Pipeline) FireRead(msg any) {
	p.enter()
	p.head.FireRead(msg)
	p.leave()
}

func (p *Pipeline) FireReadComplete() {
	p.enter()
	p.head.FireReadComplete()
	p.leave()
}

// FireEvent passes the event to the first handler.
func (p *Pipeline) FireEvent(event any) {
	p.enter()
	p.head.FireEvent(event)
	p.leave()
}

func (p *Pipeline) FireError(err error) {
	p.enter()
	p.head.FireError(err)
	p.leave()
}

// Write passes the message to the last handler.
func (p *Pipeline) Write(msg any) error {
	p.enter()
	err := p.tail.Write(msg)
	p.leave()

	return err
}

// Read requests one more read from the transport.
func (p *Pipeline) Read() {
	p.needsRead = true
}

// NeedsRead reports whether a read was requested and not performed yet.
func (p *Pipeline) NeedsRead() bool {
	return p.needsRead
}

func (p *Pipeline) AutoRead() bool {
	return p.autoRead
}

func (p *Pipeline) SetAutoRead(flag bool) {
	p.autoRead = flag
}

func (p *Pipeline) Closed() bool {
	return p.closed
}

// Close closes the transport. Inactive is fired right away, unless the pipeline is
// in the middle of a callback chain, in which case it's fired right after the chain
// completes.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}

	p.closed = true
	p.inactivePending = true
	err := p.client.Close()

	p.enter()
	p.leave()

	return err
}

// Serve reads from the transport and feeds the data to the handlers, until either the
// connection is closed, or auto-read is off and no handler requested more data. In the
// latter case nil is returned while the connection is still open, so Serve can be called
// again after Read.
func (p *Pipeline) Serve() error {
	for !p.closed {
		if !p.autoRead && !p.needsRead {
			return nil
		}

		p.needsRead = false
		data, err := p.client.Read()
		if len(data) > 0 {
			p.enter()
			p.head.FireRead(data)
			p.head.FireReadComplete()
			p.leave()
		}

		if err != nil {
			_ = p.Close()
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}

			return err
		}
	}

	return nil
}

func (p *Pipeline) enter() {
	p.depth++
}

func (p *Pipeline) leave() {
	if p.depth--; p.depth == 0 && p.inactivePending {
		p.inactivePending = false
		p.depth++
		p.head.FireInactive()
		p.depth--
	}
}

// headHandler writes outgoing buffers into the transport.
type headHandler struct {
	Base
}

func (headHandler) Write(ctx *Context, msg any) error {
	p := ctx.pipeline

	switch m := msg.(type) {
	case *bytebuf.Buffer:
		defer m.Release()

		if p.closed {
			return ErrClosed
		}

		if m.Len() == 0 {
			return nil
		}

		_, err := p.client.Write(m.Bytes())
		return err
	case []byte:
		if p.closed {
			return ErrClosed
		}

		_, err := p.client.Write(m)
		return err
	default:
		http.Release(msg)
		return fmt.Errorf("%w: %T reached the transport", status.ErrUnexpectedMessage, msg)
	}
}

// tailHandler discards everything, which wasn't consumed by the application.
type tailHandler struct {
	Base
}

func (tailHandler) Read(ctx *Context, msg any) {
	ctx.Logger().Debug("discarding inbound message which reached the end of the pipeline",
		zap.String("type", fmt.Sprintf("%T", msg)),
	)
	http.Release(msg)
}

func (tailHandler) ReadComplete(*Context) {}

func (tailHandler) Event(ctx *Context, event any) {
	ctx.Logger().Debug("discarding event which reached the end of the pipeline",
		zap.String("type", fmt.Sprintf("%T", event)),
	)
	http.Release(event)
}

func (tailHandler) Error(ctx *Context, err error) {
	ctx.Logger().Warn("unhandled error reached the end of the pipeline", zap.Error(err))
}

func (tailHandler) Inactive(*Context) {}
