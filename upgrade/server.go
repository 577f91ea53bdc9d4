package upgrade

import (
	"github.com/indigo-web/httpcodec/aggregate"
	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/headers"
	"github.com/indigo-web/httpcodec/http/proto"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/httpcodec/pipeline"
	"go.uber.org/zap"
)

// SourceCodec is the HTTP/1.x codec of the server, which is removed once the upgrade
// response is written.
type SourceCodec interface {
	UpgradeFrom(ctx *pipeline.Context) error
}

// ServerUpgradeCodec installs the protocol the connection is upgraded to.
type ServerUpgradeCodec interface {
	// RequiredHeaders lists the headers, which must be both present in the request and
	// nominated by its Connection header.
	RequiredHeaders() []string
	// PrepareResponse may add headers to the 101 response. Returning false refuses the
	// upgrade, and the request is processed as a regular one.
	PrepareResponse(ctx *pipeline.Context, req *http.FullRequest, hdrs *headers.Headers) bool
	// UpgradeTo is called after the HTTP/1.x codec was removed. It usually adds the handlers
	// of the new protocol.
	UpgradeTo(ctx *pipeline.Context, req *http.FullRequest) error
}

// CodecFactory returns the codec of the protocol or nil, if the protocol isn't supported.
type CodecFactory func(protocol string) ServerUpgradeCodec

// Event is fired after the connection was upgraded. The request is owned by the receiver
// and must be released.
type Event struct {
	Protocol string
	Request  *http.FullRequest
}

func (e Event) Release() {
	e.Request.Release()
}

// Server handles requests to switch the protocol. Such requests are aggregated, and if any
// of the nominated protocols is supported, the upgrade is performed instead of passing the
// request further. Everything else is passed as is.
type Server struct {
	pipeline.Base
	agg       *aggregate.Aggregator
	source    SourceCodec
	factory   CodecFactory
	upgrading bool
}

func NewServer(source SourceCodec, factory CodecFactory, cfg *config.Config) *Server {
	s := &Server{
		source:  source,
		factory: factory,
	}
	s.agg = aggregate.New(cfg, aggregate.OnAggregated(s.aggregated))

	return s
}

func (s *Server) Removed(ctx *pipeline.Context) {
	s.agg.Removed(ctx)
}

func (s *Server) Read(ctx *pipeline.Context, msg any) {
	if !s.upgrading {
		req, ok := msg.(http.Message)
		if !ok || !isUpgradeRequest(req) {
			ctx.FireRead(msg)
			return
		}

		s.upgrading = true
	}

	if full, ok := msg.(*http.FullRequest); ok {
		s.upgrading = false
		s.upgrade(ctx, full)
		return
	}

	s.agg.Read(ctx, msg)
}

func (s *Server) ReadComplete(ctx *pipeline.Context) {
	s.agg.ReadComplete(ctx)
}

func (s *Server) Inactive(ctx *pipeline.Context) {
	s.agg.Inactive(ctx)
}

func (s *Server) aggregated(ctx *pipeline.Context, msg http.FullMessage) {
	s.upgrading = false

	if full, ok := msg.(*http.FullRequest); ok {
		s.upgrade(ctx, full)
		return
	}

	ctx.FireRead(msg)
}

func (s *Server) upgrade(ctx *pipeline.Context, req *http.FullRequest) {
	if !s.tryUpgrade(ctx, req) {
		ctx.FireRead(req)
	}
}

func (s *Server) tryUpgrade(ctx *pipeline.Context, req *http.FullRequest) bool {
	if req.Result().IsFailure() {
		return false
	}

	var (
		codec    ServerUpgradeCodec
		protocol string
	)

	for _, p := range splitTokens(req.Headers.Value("upgrade")) {
		if codec = s.factory(p); codec != nil {
			protocol = p
			break
		}
	}

	if codec == nil {
		return false
	}

	var connection []string
	for _, value := range req.Headers.Values("connection") {
		connection = append(connection, splitTokens(value)...)
	}

	if !containsFold(connection, "upgrade") {
		return false
	}

	for _, name := range codec.RequiredHeaders() {
		if !containsFold(connection, name) || !req.Headers.Has(name) {
			return false
		}
	}

	response := http.NewFullResponse(proto.HTTP11, status.SwitchingProtocols, nil)
	_ = response.Headers.Add("connection", "upgrade")
	_ = response.Headers.Add("upgrade", protocol)
	if !codec.PrepareResponse(ctx, req, response.Headers) {
		return false
	}

	// the response goes through the old codec, and the next protocol's data may follow
	// right after it, so the pipeline is restructured regardless of how the write went
	writeErr := ctx.Write(response)

	if err := s.source.UpgradeFrom(ctx); err != nil {
		ctx.Logger().Warn("failed to remove the HTTP/1 codec", zap.Error(err))
	}

	if err := codec.UpgradeTo(ctx, req); err != nil {
		req.Release()
		ctx.FireError(err)
		_ = ctx.Close()
		return true
	}

	_ = ctx.Pipeline().RemoveHandler(s)
	ctx.Logger().Debug("connection upgraded", zap.String("protocol", protocol))
	ctx.FireEvent(Event{Protocol: protocol, Request: req})

	if writeErr != nil {
		ctx.Logger().Debug("failed to write the upgrade response", zap.Error(writeErr))
		_ = ctx.Close()
	}

	return true
}

func isUpgradeRequest(msg http.Message) bool {
	_, isRequest := http.RequestOf(msg)
	return isRequest && msg.Header().Has("upgrade")
}
