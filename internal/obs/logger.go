package obs

import (
	"io"

	"github.com/rs/zerolog"
)

type Level int

const (
	Debug Level = iota
	Verbose
	Info
	Warn
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Verbose:
		return "VERBOSE"
	case Info:
		return "INFO"
	case Warn:
		return "WARNING"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the diagnostic sink handed to every layer of the client.
type Logger interface {
	Logf(level Level, format string, args ...interface{})
}

// NopLogger discards all logs.
type NopLogger struct{}

func (NopLogger) Logf(level Level, format string, args ...interface{}) {}

// ZeroLogger adapts a zerolog logger. Messages below Min are dropped before
// they reach zerolog, so the threshold lives with the logger value rather
// than in zerolog's global level.
type ZeroLogger struct {
	L   zerolog.Logger
	Min Level
}

// NewConsoleLogger writes human readable lines to w.
func NewConsoleLogger(w io.Writer, min Level, color bool) ZeroLogger {
	cw := zerolog.ConsoleWriter{Out: w, NoColor: !color, TimeFormat: "15:04:05"}
	return ZeroLogger{
		L:   zerolog.New(cw).With().Timestamp().Logger(),
		Min: min,
	}
}

func (z ZeroLogger) Logf(level Level, format string, args ...interface{}) {
	if level < z.Min {
		return
	}
	z.L.WithLevel(zerologLevel(level)).Msgf(format, args...)
}

func zerologLevel(l Level) zerolog.Level {
	switch l {
	case Debug, Verbose:
		return zerolog.DebugLevel
	case Info:
		return zerolog.InfoLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	case Fatal:
		// WithLevel never exits the process; the caller decides that.
		return zerolog.FatalLevel
	default:
		return zerolog.NoLevel
	}
}

// Verbosity maps the -v count and -q flag to a minimum level. Info is the
// default; each -v goes one step further down to Debug; quiet keeps only
// fatal messages.
func Verbosity(verbose int, quiet bool) Level {
	if quiet {
		return Fatal
	}
	l := Info - Level(verbose)
	if l < Debug {
		l = Debug
	}
	return l
}
