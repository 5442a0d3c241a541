package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/lukaarma/wannabeCurl/cli"
	"github.com/lukaarma/wannabeCurl/client"
	"github.com/lukaarma/wannabeCurl/internal/obs"
	"github.com/lukaarma/wannabeCurl/output"
	"github.com/lukaarma/wannabeCurl/protocol"
)

func main() {
	opts, err := cli.Parse("wannabecurl", os.Args[1:], os.Stderr)
	if err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	log := obs.NewConsoleLogger(os.Stdout, opts.Level(), color)

	if err := run(opts, log); err != nil {
		log.Logf(obs.Fatal, "%v", err)
		os.Exit(1)
	}
}

func run(opts *cli.Options, log obs.Logger) error {
	req, err := opts.Request(log)
	if err != nil {
		return err
	}

	out := output.NewWriter(opts.OutDir, time.Now(), log)
	if err := out.Prepare(); err != nil {
		return err
	}

	log.Logf(obs.Verbose, "Request info: secure %t, method %s, path '%s', host '%s', headers %d, content type '%s'",
		req.Secure, req.Method, req.Path, req.Host, req.Headers.Len(), req.Type.Value())

	c, err := client.New(opts.TransportConfig(log))
	if err != nil {
		return err
	}

	log.Logf(obs.Info, "Building and sending HTTP payload...")

	res, err := c.Do(req)
	if opts.Level() <= obs.Debug && req.Payload != nil {
		if _, derr := out.DumpRequest(req.Host, req); derr != nil {
			log.Logf(obs.Error, "%v", derr)
		}
	}
	if err != nil {
		return err
	}

	if opts.Level() <= obs.Debug {
		if _, derr := out.DumpResponse(req.Host, res); derr != nil {
			log.Logf(obs.Error, "%v", derr)
		}
	}

	log.Logf(obs.Verbose, "Response info: content type %s, content length %d", res.Type, res.ContentLength)

	if len(res.Body) > 0 {
		// written whatever the log level
		name, err := out.WriteBody(req.Host, res)
		if err != nil {
			return err
		}
		log.Logf(obs.Info, "Response successfully received! Size: %d bytes, saved to '%s'.", len(res.Body), name)
	} else {
		log.Logf(obs.Info, "Response successfully received! It had no body!")
	}

	logStatus(log, res.StatusCode)
	return nil
}

func logStatus(log obs.Logger, code int) {
	level := obs.Info
	switch {
	case code >= 300 && code < 400:
		level = obs.Warn
	case code >= 400:
		level = obs.Error
	}
	log.Logf(level, "Status %d: %s", code, protocol.StatusText(code))
}
