package main

import (
	"errors"
	"net"
	"time"

	"github.com/indigo-web/httpcodec/aggregate"
	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/contentcoding"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/proto"
	"github.com/indigo-web/httpcodec/http/status"
	"github.com/indigo-web/httpcodec/http1"
	"github.com/indigo-web/httpcodec/pipeline"
	"github.com/indigo-web/httpcodec/transport"
	"go.uber.org/zap"
)

const interruptPeriod = 100 * time.Millisecond

// server runs a pipeline per accepted connection.
type server struct {
	cfg *config.Config
	log *zap.Logger
	tcp *transport.TCP
}

func newServer(cfg *config.Config, log *zap.Logger) *server {
	return &server{
		cfg: cfg,
		log: log,
		tcp: transport.NewTCP(),
	}
}

func (s *server) Bind(addr string) error {
	return s.tcp.Bind(addr)
}

func (s *server) Addr() net.Addr {
	return s.tcp.Addr()
}

// Serve accepts connections until Stop is called.
func (s *server) Serve() error {
	return s.tcp.Listen(interruptPeriod, s.serveConn)
}

// Stop stops accepting new connections and waits for the open ones to be closed.
func (s *server) Stop() error {
	s.tcp.Stop()
	s.tcp.Wait()

	return s.tcp.Close()
}

func (s *server) serveConn(conn net.Conn) {
	log := s.log.With(zap.Stringer("remote", conn.RemoteAddr()))
	p := pipeline.New(
		transport.NewClient(conn, s.cfg.NET),
		pipeline.WithLogger(log),
		pipeline.WithConfig(s.cfg),
	)

	handlers := []struct {
		name    string
		handler pipeline.Handler
	}{
		{"codec", http1.NewServerCodec(s.cfg)},
		{"decompressor", contentcoding.NewDecompressor(s.cfg)},
		{"compressor", contentcoding.NewCompressor(s.cfg)},
		{"aggregator", aggregate.New(s.cfg)},
		{"echo", echo{}},
	}

	for _, h := range handlers {
		if err := p.AddLast(h.name, h.handler); err != nil {
			log.Error("failed to build the pipeline", zap.Error(err))
			return
		}
	}

	if err := p.Serve(); err != nil {
		log.Debug("connection closed", zap.Error(err))
	}
}

// echo answers every request with its own body. Malformed requests are answered with the
// status their failure carries, and the connection is closed afterward.
type echo struct {
	pipeline.Base
}

func (echo) Read(ctx *pipeline.Context, msg any) {
	req, ok := msg.(*http.FullRequest)
	if !ok {
		http.Release(msg)
		return
	}

	if res := req.Result(); res.IsFailure() {
		req.Release()
		respond(ctx, http.NewFullResponse(proto.HTTP11, codeOf(res.Err()), nil), false)
		return
	}

	// the body is handed over to the response
	resp := http.NewFullResponse(req.Protocol, status.OK, req.Payload())
	if contentType, found := req.Headers.Get("content-type"); found {
		_ = resp.Headers.Set("content-type", contentType)
	}

	respond(ctx, resp, http.IsKeepAlive(req))
}

func (echo) Error(ctx *pipeline.Context, err error) {
	ctx.Logger().Debug("closing the connection", zap.Error(err))
	_ = ctx.Close()
}

func respond(ctx *pipeline.Context, resp *http.FullResponse, keepAlive bool) {
	http.SetContentLength(resp, int64(resp.Len()))
	if !keepAlive {
		_ = resp.Headers.Set("connection", "close")
	}

	if err := ctx.Write(resp); err != nil {
		ctx.Logger().Debug("failed to respond", zap.Error(err))
		_ = ctx.Close()
		return
	}

	if !keepAlive {
		_ = ctx.Close()
	}
}

func codeOf(err error) status.Code {
	var httpErr status.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return status.BadRequest
}
