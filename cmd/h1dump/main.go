// H1dump decodes a captured HTTP/1.x stream and prints every decoded object as a JSON line.
//
//	h1dump [-response] [-decompress] [-aggregate] [-chunk n] [-v] [file]
//
// The stream is read from stdin, if no file is given.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

func main() {
	if err := dump(); err != nil {
		fmt.Fprintln(os.Stderr, "h1dump:", err)
		os.Exit(1)
	}
}

func dump() error {
	var (
		opts    options
		verbose bool
	)
	flag.BoolVar(&opts.response, "response", false, "decode responses instead of requests")
	flag.BoolVar(&opts.decompress, "decompress", false, "decode content codings")
	flag.BoolVar(&opts.aggregate, "aggregate", false, "aggregate messages into full ones")
	flag.IntVar(&opts.chunk, "chunk", 4096, "size of pieces the stream is fed in")
	flag.BoolVar(&verbose, "v", false, "log to stderr")
	flag.Parse()

	log := zap.NewNop()
	if verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}

		defer func() {
			_ = log.Sync()
		}()
	}

	var in io.Reader = os.Stdin
	if flag.NArg() > 0 {
		file, err := os.Open(flag.Arg(0))
		if err != nil {
			return err
		}

		defer file.Close()
		in = file
	}

	return run(in, os.Stdout, opts, log)
}
