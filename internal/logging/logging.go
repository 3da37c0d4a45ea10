// Package logging configures the process-wide zerolog logger. Logs always
// go to stderr so stdout stays reserved for listings and command lines.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Config controls logger initialization.
type Config struct {
	Debug  bool
	Format string // "console", "json" or "auto"
	Out    io.Writer
}

var isTerminalFn = term.IsTerminal

func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = zerolog.New(newConsoleWriter(os.Stderr)).With().Timestamp().Logger()
}

// Init sets the global level and writer and returns the new base logger.
func Init(cfg Config) zerolog.Logger {
	level := zerolog.WarnLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = false

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	log.Logger = zerolog.New(selectWriter(cfg.Format, out)).With().Timestamp().Logger()
	return log.Logger
}

func selectWriter(format string, out io.Writer) io.Writer {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return out
	case "console":
		return newConsoleWriter(out)
	default:
		if f, ok := out.(*os.File); ok && !isTerminalFn(int(f.Fd())) {
			return out
		}
		return newConsoleWriter(out)
	}
}

func newConsoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05.000",
	}
}
