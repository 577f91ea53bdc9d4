// Package contentcoding contains the pipeline handlers, which compress outgoing responses
// according to the Accept-Encoding of the requests they answer, and decompress the bodies
// of incoming messages.
package contentcoding

import (
	"github.com/indigo-web/httpcodec/bytebuf"
	"github.com/indigo-web/httpcodec/config"
	"github.com/indigo-web/httpcodec/http/codec"
)

// registry lazily instantiates codecs. Instances are bound to a single connection.
type registry struct {
	codecs    map[string]codec.Codec
	instances map[string]codec.Instance
}

func newRegistry(cfg config.Compression) *registry {
	codecs := make(map[string]codec.Codec, 3)
	for _, c := range []codec.Codec{
		codec.NewGZIP(cfg.Level),
		codec.NewDeflate(cfg.Level, cfg.Strict),
		codec.NewZSTD(cfg.Level),
	} {
		codecs[c.Token()] = c
	}

	return &registry{
		codecs:    codecs,
		instances: make(map[string]codec.Instance, 1),
	}
}

// Get returns an instance of the coding, or nil if it isn't supported.
func (r *registry) Get(token string) codec.Instance {
	token = codec.Canonical(token)
	if inst, found := r.instances[token]; found {
		return inst
	}

	c, found := r.codecs[token]
	if !found {
		return nil
	}

	inst := c.New()
	r.instances[token] = inst

	return inst
}

// Stop abandons all the decompression streams in progress.
func (r *registry) Stop() {
	for _, inst := range r.instances {
		inst.Stop()
	}
}

// sink collects the output of a codec into a lazily allocated buffer.
type sink struct {
	alloc bytebuf.Allocator
	hint  int
	buff  *bytebuf.Buffer
}

func (s *sink) Write(p []byte) (int, error) {
	if s.buff == nil {
		s.buff = s.alloc.Allocate(max(len(p), s.hint))
	}

	return s.buff.Write(p)
}

// Take returns the collected output, or nil if there's none.
func (s *sink) Take() *bytebuf.Buffer {
	buff := s.buff
	s.buff = nil

	if buff != nil && buff.Len() == 0 {
		buff.Release()
		return nil
	}

	return buff
}

func (s *sink) Discard() {
	if s.buff != nil {
		s.buff.Release()
		s.buff = nil
	}
}
