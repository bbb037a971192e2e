package utils

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	baseLogger zerolog.Logger
	loggerMu   sync.RWMutex
)

func init() {
	InitLogger("info", "json", os.Stdout)
}

// InitLogger configures the process-wide logger. format is "json" or "console".
func InitLogger(level, format string, out io.Writer) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if out == nil {
		out = os.Stdout
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	writer := out
	if format == "console" {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	baseLogger = zerolog.New(writer).With().Timestamp().Logger()
}

// Logger returns a logger tagged with the given component name.
func Logger(component string) zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return baseLogger.With().Str("component", component).Logger()
}

func LogError(message string, err error) {
	l := Logger("app")
	l.Error().Err(err).Msg(message)
}

func LogFatal(message string, err error) {
	l := Logger("app")
	l.Fatal().Err(err).Msg(message)
}
