// H1echo is an HTTP/1.x server answering every request with its body. Request bodies are
// decompressed, and responses are compressed as the client accepts.
//
//	h1echo [-addr host:port] [-v]
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/indigo-web/httpcodec/config"
	"go.uber.org/zap"
)

func main() {
	if err := serve(); err != nil {
		fmt.Fprintln(os.Stderr, "h1echo:", err)
		os.Exit(1)
	}
}

func serve() error {
	var (
		addr    string
		verbose bool
	)
	flag.StringVar(&addr, "addr", "localhost:8080", "address to listen on")
	flag.BoolVar(&verbose, "v", false, "log every connection")
	flag.Parse()

	var (
		log *zap.Logger
		err error
	)
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	defer func() {
		_ = log.Sync()
	}()

	cfg := config.Default()
	if err = cfg.Validate(); err != nil {
		return err
	}

	srv := newServer(cfg, log)
	if err = srv.Bind(addr); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info("shutting down")
		srv.tcp.Stop()
	}()

	log.Info("listening", zap.Stringer("addr", srv.Addr()))
	if err = srv.Serve(); err != nil {
		return err
	}

	return srv.Stop()
}
