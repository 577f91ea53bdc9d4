package pipeline

// Handler is a single stage of the pipeline. Inbound callbacks (Read, ReadComplete,
// Event, Error, Inactive) travel from the transport towards the application, Write
// travels the opposite way.
//
// Objects carrying a *bytebuf.Buffer are owned by whoever currently handles them: a
// handler must either pass them further or release them.
type Handler interface {
	// Added is called after the handler was inserted into the pipeline.
	Added(ctx *Context)
	// Removed is called after the handler was removed from the pipeline.
	Removed(ctx *Context)
	Read(ctx *Context, msg any)
	// ReadComplete is fired after the data of a single transport read was processed.
	ReadComplete(ctx *Context)
	Write(ctx *Context, msg any) error
	Event(ctx *Context, event any)
	Error(ctx *Context, err error)
	// Inactive is fired once, after the connection was closed.
	Inactive(ctx *Context)
}

// Base forwards everything to the neighbouring stages. Embed it in order to override
// only the callbacks of interest.
type Base struct{}

func (Base) Added(*Context) {}

func (Base) Removed(*Context) {}

func (Base) Read(ctx *Context, msg any) {
	ctx.FireRead(msg)
}

func (Base) ReadComplete(ctx *Context) {
	ctx.FireReadComplete()
}

func (Base) Write(ctx *Context, msg any) error {
	return ctx.Write(msg)
}

func (Base) Event(ctx *Context, event any) {
	ctx.FireEvent(event)
}

func (Base) Error(ctx *Context, err error) {
	ctx.FireError(err)
}

func (Base) Inactive(ctx *Context) {
	ctx.FireInactive()
}
