// Package pipetest runs handlers in a pipeline over a mock client and collects everything,
// which reaches the application end of it.
package pipetest

import (
	"testing"

	"github.com/indigo-web/httpcodec/bytebuf"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/pipeline"
	"github.com/indigo-web/httpcodec/transport/dummy"
	"github.com/stretchr/testify/require"
)

// Collector is the application end of a test pipeline. Objects are kept, raw bytes are
// copied, as they are valid only during the call. Other messages are passed to the tail.
type Collector struct {
	pipeline.Base
	Objs          []http.Object
	Raw           []byte
	Events        []any
	Errs          []error
	ReadCompletes int
	InactiveFired bool
	// OnRead is called after the object was collected
	OnRead func(ctx *pipeline.Context, obj http.Object)
}

func (c *Collector) Read(ctx *pipeline.Context, msg any) {
	switch m := msg.(type) {
	case http.Object:
		c.Objs = append(c.Objs, m)
		if c.OnRead != nil {
			c.OnRead(ctx, m)
		}
	case []byte:
		c.Raw = append(c.Raw, m...)
	case *bytebuf.Buffer:
		c.Raw = append(c.Raw, m.Bytes()...)
		m.Release()
	default:
		ctx.FireRead(msg)
	}
}

func (c *Collector) ReadComplete(*pipeline.Context) {
	c.ReadCompletes++
}

func (c *Collector) Event(_ *pipeline.Context, event any) {
	c.Events = append(c.Events, event)
}

func (c *Collector) Error(_ *pipeline.Context, err error) {
	c.Errs = append(c.Errs, err)
}

func (c *Collector) Inactive(*pipeline.Context) {
	c.InactiveFired = true
}

// Release releases and forgets all the collected objects.
func (c *Collector) Release() {
	for _, obj := range c.Objs {
		http.Release(obj)
	}

	c.Objs = nil
}

// Stage is a named handler.
type Stage struct {
	name    string
	handler pipeline.Handler
}

func Named(name string, handler pipeline.Handler) Stage {
	return Stage{name: name, handler: handler}
}

// Harness is a pipeline of the stages followed by the collector, named "app". Buffers are
// allocated by the tracker, so leaks can be detected.
type Harness struct {
	*pipeline.Pipeline
	Client  *dummy.Client
	Tracker *bytebuf.Tracker
	App     *Collector
}

func New(t testing.TB, stages ...Stage) *Harness {
	client := dummy.NewMockClient()
	tracker := bytebuf.NewTracker(bytebuf.NewPool())
	p := pipeline.New(client, pipeline.WithAllocator(tracker))

	for _, stage := range stages {
		require.NoError(t, p.AddLast(stage.name, stage.handler))
	}

	app := new(Collector)
	require.NoError(t, p.AddLast("app", app))

	return &Harness{
		Pipeline: p,
		Client:   client,
		Tracker:  tracker,
		App:      app,
	}
}

// WriteAll writes the objects from the application end, requiring no error.
func (h *Harness) WriteAll(t testing.TB, objs ...any) {
	for _, obj := range objs {
		require.NoError(t, h.Write(obj))
	}
}

// Buffer allocates a buffer holding the string.
func (h *Harness) Buffer(str string) *bytebuf.Buffer {
	return bytebuf.FromString(h.Tracker, str)
}
