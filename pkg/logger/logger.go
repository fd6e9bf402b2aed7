package logx

import (
	"io"
	"os"
	"strings"

	"github.com/retail-assistant/server/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Environment core.Environment
	// Level overrides the environment's default level when it parses.
	Level string
}

// Init replaces the global logger. Production gets JSON lines on stdout at
// info; everything else gets a console writer with callers at debug.
func Init(opts Options) {
	log.Logger = build(os.Stdout, opts)
}

func build(w io.Writer, opts Options) zerolog.Logger {
	ctx := zerolog.New(w).With().Timestamp()
	if !opts.Environment.IsProduction() {
		ctx = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Caller()
	}
	return ctx.Logger().Level(levelFor(opts))
}

func levelFor(opts Options) zerolog.Level {
	if name := strings.ToLower(strings.TrimSpace(opts.Level)); name != "" {
		if lvl, err := zerolog.ParseLevel(name); err == nil {
			return lvl
		}
	}
	if opts.Environment.IsProduction() {
		return zerolog.InfoLevel
	}
	return zerolog.DebugLevel
}

func Debug() *zerolog.Event { return log.Debug() }

func Info() *zerolog.Event { return log.Info() }

func Warn() *zerolog.Event { return log.Warn() }

func Error() *zerolog.Event { return log.Error() }
