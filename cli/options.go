package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"

	"github.com/lukaarma/wannabeCurl/errors"
	"github.com/lukaarma/wannabeCurl/internal/obs"
	"github.com/lukaarma/wannabeCurl/protocol"
	"github.com/lukaarma/wannabeCurl/transport"
)

// DefaultOutDir is where response bodies are written unless -o says otherwise.
const DefaultOutDir = "./out"

// BodyArg is one body declaration in command-line order.
type BodyArg struct {
	Kind  protocol.ContentType
	Value string
}

// Options holds everything read from the command line.
type Options struct {
	Verbose int
	Quiet   bool
	Method  string
	Headers []string
	// Bodies keeps -f, -t and -j in the order they were given, so the first
	// declared kind wins.
	Bodies []BodyArg
	OutDir string

	Backend         string
	Network         string
	UnixSocket      string
	MaxLineBytes    int
	MaxPayloadBytes int

	// URL is the first positional argument; Extra holds any others.
	URL   string
	Extra []string
}

// bodyValue is a pflag.Value appending to a shared ordered list.
type bodyValue struct {
	kind protocol.ContentType
	list *[]BodyArg
}

func (b *bodyValue) String() string { return "" }
func (b *bodyValue) Type() string   { return "string" }

func (b *bodyValue) Set(s string) error {
	*b.list = append(*b.list, BodyArg{Kind: b.kind, Value: s})
	return nil
}

// NewFlagSet returns the flag set bound to opts.
func NewFlagSet(name string, opts *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.CountVarP(&opts.Verbose, "verbose", "v", "Enable verbose console output, repeat for debug output")
	fs.BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress all console output except errors")
	fs.StringVarP(&opts.Method, "method", "m", "GET", "Method of the HTTP/S request: GET, HEAD, OPTIONS, POST, PUT, DELETE")
	fs.StringArrayVarP(&opts.Headers, "header", "h", nil, "Add a 'name: value' header to the request, can be used multiple times")
	fs.VarP(&bodyValue{protocol.ContentForm, &opts.Bodies}, "form", "f", "Add a 'key=value' form entry to the body, can be used multiple times")
	fs.VarP(&bodyValue{protocol.ContentText, &opts.Bodies}, "text", "t", "Add a text body to the request")
	fs.VarP(&bodyValue{protocol.ContentJSON, &opts.Bodies}, "json", "j", "Add a json body to the request")
	fs.StringVarP(&opts.OutDir, "out", "o", DefaultOutDir, "Directory the response body is written to")

	fs.StringVar(&opts.Backend, "backend", string(transport.BackendNet), "Socket backend: net, iouring or uring")
	fs.StringVar(&opts.Network, "network", "ip4", "Address family used for DNS: ip4, ip6 or ip")
	fs.StringVar(&opts.UnixSocket, "unix-socket", "", "Connect through this Unix domain socket instead of the URL host")
	fs.IntVar(&opts.MaxLineBytes, "max-line-bytes", 0, "Longest header block or chunk line accepted, 0 for no limit")
	fs.IntVar(&opts.MaxPayloadBytes, "max-payload-bytes", 0, "Largest request payload or chunked body accepted, 0 for the 1 GiB default")

	return fs
}

// Parse reads args, without the program name. Usage and parse errors are
// written to out. pflag.ErrHelp is returned for --help.
func Parse(name string, args []string, out io.Writer) (*Options, error) {
	opts := &Options{}
	fs := NewFlagSet(name, opts)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: %s [OPTION...] URL\n\n", name)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return nil, errors.NewInvalidArgumentError("Missing/Invalid url!")
	}
	opts.URL = fs.Arg(0)
	opts.Extra = fs.Args()[1:]

	if opts.MaxLineBytes < 0 {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("--max-line-bytes must not be negative, got %d", opts.MaxLineBytes))
	}
	if opts.MaxPayloadBytes < 0 {
		return nil, errors.NewInvalidArgumentError(fmt.Sprintf("--max-payload-bytes must not be negative, got %d", opts.MaxPayloadBytes))
	}

	return opts, nil
}

// Level returns the minimum log level selected by -v and -q.
func (o *Options) Level() obs.Level {
	return obs.Verbosity(o.Verbose, o.Quiet)
}

// TransportConfig maps the connection flags onto a transport.Config.
func (o *Options) TransportConfig(log obs.Logger) transport.Config {
	cfg := transport.DefaultConfig()
	cfg.Backend = transport.Backend(strings.ToLower(o.Backend))
	cfg.Network = o.Network
	cfg.UnixSocket = o.UnixSocket
	cfg.MaxLineBytes = o.MaxLineBytes
	cfg.MaxPayloadBytes = o.MaxPayloadBytes
	if log != nil {
		cfg.Logger = log
	}
	return cfg
}

// Request builds the request described by the options. Conflicting body
// declarations and extra URLs are reported to log and skipped.
func (o *Options) Request(log obs.Logger) (*protocol.HttpRequest, error) {
	if log == nil {
		log = obs.NopLogger{}
	}

	for _, extra := range o.Extra {
		log.Logf(obs.Warn, "Only one url can be requested! Ignoring '%s'", extra)
	}

	method, err := protocol.ParseMethod(o.Method)
	if err != nil {
		return nil, err
	}

	secure, host, path, err := ParseURL(o.URL)
	if err != nil {
		return nil, err
	}
	log.Logf(obs.Debug, "proto => secure %t, host => %s, path => %s", secure, host, path)

	req, err := protocol.NewHttpRequest(method, host, path, secure)
	if err != nil {
		return nil, err
	}

	for _, h := range o.Headers {
		log.Logf(obs.Debug, "(--header) %s", h)
		if err := req.AddHeader(h); err != nil {
			return nil, err
		}
	}

	for _, b := range o.Bodies {
		var ok bool
		if b.Kind == protocol.ContentForm {
			ok = req.AddFormEntry(b.Value)
		} else {
			ok = req.SetBody(b.Kind, b.Value)
		}
		if !ok {
			log.Logf(obs.Warn, "You cannot declare multiple types of body content! Ignoring %s body", b.Kind)
			continue
		}
		log.Logf(obs.Debug, "(--%s) %s", b.Kind, b.Value)

		if b.Kind == protocol.ContentJSON && !json.Valid([]byte(b.Value)) {
			log.Logf(obs.Warn, "The json body is not valid JSON, sending it anyway")
		}
	}

	return req, nil
}
