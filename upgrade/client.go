package upgrade

import (
	"errors"
	"fmt"
	"strings"

	"github.com/indigo-web/httpcodec/aggregate"
	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/httpcodec/pipeline"
	"github.com/indigo-web/utils/strcomp"
)

// ErrInProgress is returned on attempt to write a request while waiting for the answer to
// the upgrade request.
var ErrInProgress = errors.New("attempting to write HTTP request with upgrade in progress")

// ClientSourceCodec is the HTTP/1.x codec of the client.
type ClientSourceCodec interface {
	// PrepareUpgradeFrom makes the codec pass the next protocol's messages through.
	PrepareUpgradeFrom()
	UpgradeFrom(ctx *pipeline.Context) error
}

// ClientUpgradeCodec installs the protocol the client wants to switch to.
type ClientUpgradeCodec interface {
	Protocol() string
	// SetUpgradeHeaders adds the protocol-specific headers to the request and returns their
	// names, which are nominated in the Connection header.
	SetUpgradeHeaders(ctx *pipeline.Context, req http.Message) []string
	UpgradeTo(ctx *pipeline.Context, resp *http.FullResponse) error
}

// ClientEvent reports how the upgrade goes.
type ClientEvent uint8

const (
	// Issued is fired after the upgrade request was written.
	Issued ClientEvent = iota + 1
	// Successful is fired after the new protocol was installed, but before the HTTP/1.x codec
	// is removed.
	Successful
	// Rejected is fired if the server answered with anything but 101. The handler is removed
	// and the response is passed further.
	Rejected
)

func (e ClientEvent) String() string {
	switch e {
	case Issued:
		return "upgrade issued"
	case Successful:
		return "upgrade successful"
	case Rejected:
		return "upgrade rejected"
	default:
		return "unknown upgrade event"
	}
}

// Client requests the upgrade with the first request written through it and switches the
// protocol, once the server agrees.
type Client struct {
	pipeline.Base
	agg       *aggregate.Aggregator
	source    ClientSourceCodec
	codec     ClientUpgradeCodec
	requested bool
}

func NewClient(source ClientSourceCodec, codec ClientUpgradeCodec, cfg *config.Config) *Client {
	c := &Client{
		source: source,
		codec:  codec,
	}
	c.agg = aggregate.New(cfg, aggregate.OnAggregated(c.aggregated))

	return c
}

func (c *Client) Removed(ctx *pipeline.Context) {
	c.agg.Removed(ctx)
}

func (c *Client) Write(ctx *pipeline.Context, msg any) error {
	req, ok := msg.(http.Message)
	if !ok {
		return ctx.Write(msg)
	}

	if _, isRequest := http.RequestOf(req); !isRequest {
		return ctx.Write(msg)
	}

	if c.requested {
		http.Release(msg)
		return ErrInProgress
	}

	c.requested = true
	c.setUpgradeHeaders(ctx, req)
	err := ctx.Write(msg)
	ctx.FireEvent(Issued)

	return err
}

func (c *Client) Read(ctx *pipeline.Context, msg any) {
	obj, ok := msg.(http.Object)
	if !ok {
		ctx.FireRead(msg)
		return
	}

	if !c.requested {
		http.Release(msg)
		c.fail(ctx, fmt.Errorf("%w: response read without requesting protocol switch", status.ErrUpgradeFailed))
		return
	}

	if resp, ok := http.ResponseOf(obj); ok && resp.Code != status.SwitchingProtocols {
		ctx.FireEvent(Rejected)
		_ = ctx.Pipeline().RemoveHandler(c)
		ctx.FireRead(msg)
		return
	}

	if full, ok := obj.(*http.FullResponse); ok {
		c.upgrade(ctx, full)
		return
	}

	c.agg.Read(ctx, msg)
}

func (c *Client) ReadComplete(ctx *pipeline.Context) {
	c.agg.ReadComplete(ctx)
}

func (c *Client) Inactive(ctx *pipeline.Context) {
	c.agg.Inactive(ctx)
}

func (c *Client) aggregated(ctx *pipeline.Context, msg http.FullMessage) {
	if resp, ok := msg.(*http.FullResponse); ok {
		c.upgrade(ctx, resp)
		return
	}

	ctx.FireRead(msg)
}

func (c *Client) upgrade(ctx *pipeline.Context, resp *http.FullResponse) {
	defer resp.Release()

	if res := resp.Result(); res.IsFailure() {
		c.fail(ctx, fmt.Errorf("%w: %w", status.ErrUpgradeFailed, res.Err()))
		return
	}

	if protocol, found := resp.Headers.Get("upgrade"); found && !strcomp.EqualFold(protocol, c.codec.Protocol()) {
		c.fail(ctx, fmt.Errorf("%w: switching to unexpected protocol %q", status.ErrUpgradeFailed, protocol))
		return
	}

	c.source.PrepareUpgradeFrom()
	if err := c.codec.UpgradeTo(ctx, resp); err != nil {
		c.fail(ctx, err)
		return
	}

	// the new protocol's handlers get to know about the upgrade before its first message
	ctx.FireEvent(Successful)

	if err := c.source.UpgradeFrom(ctx); err != nil {
		c.fail(ctx, err)
		return
	}

	_ = ctx.Pipeline().RemoveHandler(c)
}

func (c *Client) fail(ctx *pipeline.Context, err error) {
	ctx.FireError(err)
	_ = ctx.Pipeline().RemoveHandler(c)
}

func (c *Client) setUpgradeHeaders(ctx *pipeline.Context, req http.Message) {
	hdrs := req.Header()
	_ = hdrs.Set("upgrade", c.codec.Protocol())

	var connection []string
	for _, name := range c.codec.SetUpgradeHeaders(ctx, req) {
		if !containsFold(connection, name) {
			connection = append(connection, name)
		}
	}

	connection = append(connection, "upgrade")
	_ = hdrs.Add("connection", strings.Join(connection, ","))
}
