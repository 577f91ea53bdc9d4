package main

import (
	"fmt"
	"io"
	"net"

	"github.com/indigo-web/httpcodec/aggregate"
	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/contentcoding"
	"github.com/indigo-web/httpcodec/http"
	"github.com/indigo-web/httpcodec/http/headers"
	"github.com/indigo-web/httpcodec/http1"
	"github.com/indigo-web/httpcodec/pipeline"
	"github.com/indigo-web/httpcodec/transport"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

type options struct {
	response   bool
	decompress bool
	aggregate  bool
	chunk      int
}

type stage struct {
	name    string
	handler pipeline.Handler
}

// record is a single line of the output.
type record struct {
	Kind     string      `json:"kind"`
	Method   string      `json:"method,omitempty"`
	Target   string      `json:"target,omitempty"`
	Proto    string      `json:"proto,omitempty"`
	Code     int         `json:"code,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	Headers  [][2]string `json:"headers,omitempty"`
	Body     string      `json:"body,omitempty"`
	Trailers [][2]string `json:"trailers,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// run decodes the stream, writing a record for every object, event and error reaching the
// end of the pipeline. The stream is served through a real transport over an in-memory
// connection, so it's read in pieces of at most opts.chunk bytes.
func run(in io.Reader, out io.Writer, opts options, log *zap.Logger) error {
	cfg := config.Default()
	cfg.NET.ReadBufferSize = opts.chunk
	cfg.NET.ReadTimeout = 0
	if err := cfg.Validate(); err != nil {
		return err
	}

	local, remote := net.Pipe()
	go feed(remote, in, log)

	p := pipeline.New(
		transport.NewClient(local, cfg.NET),
		pipeline.WithLogger(log),
		pipeline.WithConfig(cfg),
	)

	stages := []stage{
		{"decoder", http1.NewRequestDecoderHandler(cfg.Decoder)},
		// responses to expectations are written by the aggregator
		{"encoder", http1.NewResponseEncoderHandler(cfg.Encoder)},
	}

	if opts.response {
		stages = []stage{{"decoder", http1.NewResponseDecoderHandler(cfg.Decoder)}}
	}

	if opts.decompress {
		stages = append(stages, stage{"decompressor", contentcoding.NewDecompressor(cfg)})
	}

	if opts.aggregate {
		stages = append(stages, stage{"aggregator", aggregate.New(cfg)})
	}

	d := &dumper{out: out}
	for _, s := range stages {
		if err := p.AddLast(s.name, s.handler); err != nil {
			return err
		}
	}

	if err := p.AddLast("dump", d); err != nil {
		return err
	}

	if err := p.Serve(); err != nil {
		return err
	}

	return d.err
}

// feed writes the input into the connection and closes it afterward. Everything the
// pipeline writes back is logged and dropped.
func feed(conn net.Conn, in io.Reader, log *zap.Logger) {
	go func() {
		buff := make([]byte, 1024)
		for {
			n, err := conn.Read(buff)
			if n > 0 {
				log.Debug("pipeline wrote", zap.ByteString("data", buff[:n]))
			}

			if err != nil {
				return
			}
		}
	}()

	if _, err := io.Copy(conn, in); err != nil {
		log.Debug("stopped feeding the input", zap.Error(err))
	}

	_ = conn.Close()
}

type dumper struct {
	pipeline.Base
	out io.Writer
	err error
}

func (d *dumper) Read(_ *pipeline.Context, msg any) {
	defer http.Release(msg)

	switch m := msg.(type) {
	case http.Object:
		d.emit(recordOf(m))
	case []byte:
		d.emit(record{Kind: "raw", Body: string(m)})
	default:
		d.emit(record{Kind: "unknown", Body: fmt.Sprintf("%T", msg)})
	}
}

func (d *dumper) Event(_ *pipeline.Context, event any) {
	d.emit(record{Kind: "event", Body: fmt.Sprintf("%T", event)})
	http.Release(event)
}

func (d *dumper) Error(_ *pipeline.Context, err error) {
	d.emit(record{Kind: "error", Error: err.Error()})
}

func (d *dumper) emit(rec record) {
	if d.err != nil {
		return
	}

	stream := json.ConfigDefault.BorrowStream(d.out)
	stream.WriteVal(rec)
	stream.WriteRaw("\n")
	d.err = stream.Flush()
	json.ConfigDefault.ReturnStream(stream)
}

func recordOf(obj http.Object) (rec record) {
	switch m := obj.(type) {
	case *http.Request:
		rec.Kind = "request"
	case *http.Response:
		rec.Kind = "response"
	case *http.Content:
		rec.Kind = "content"
	case *http.LastContent:
		rec.Kind = "last-content"
	case *http.FullRequest:
		rec.Kind = "full-request"
	case *http.FullResponse:
		rec.Kind = "full-response"
	default:
		rec.Kind = fmt.Sprintf("%T", m)
	}

	if req, ok := http.RequestOf(obj); ok {
		rec.Method = req.Method.String()
		rec.Target = req.Target
		rec.Proto = req.Protocol.String()
		rec.Headers = pairsOf(req.Headers)
	} else if resp, ok := http.ResponseOf(obj); ok {
		rec.Proto = resp.Protocol.String()
		rec.Code = int(resp.Code)
		rec.Reason = resp.Reason
		rec.Headers = pairsOf(resp.Headers)
	}

	if chunk, ok := obj.(http.Chunk); ok {
		rec.Body = string(chunk.Bytes())
		if chunk.IsLast() {
			rec.Trailers = pairsOf(chunk.Trailers())
		}
	}

	if res := obj.Result(); res.IsFailure() {
		rec.Error = res.Err().Error()
	}

	return rec
}

func pairsOf(hdrs *headers.Headers) (pairs [][2]string) {
	if hdrs == nil {
		return nil
	}

	for name, value := range hdrs.Iter() {
		pairs = append(pairs, [2]string{name, value})
	}

	return pairs
}
