package log

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu     sync.Mutex
	logger zerolog.Logger
	inited bool
)

// get returns the global logger, initializing it on first use to write
// to stderr with timestamps at INFO level.
func get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if !inited {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger().Level(zerolog.InfoLevel)
		inited = true
	}
	return logger
}

func SetLevel(l Level) {
	base := get()
	mu.Lock()
	defer mu.Unlock()
	switch l {
	case LevelDebug:
		logger = base.Level(zerolog.DebugLevel)
	case LevelInfo:
		logger = base.Level(zerolog.InfoLevel)
	case LevelError:
		logger = base.Level(zerolog.ErrorLevel)
	}
}

func Debug(msg string, kv ...any) {
	l := get()
	l.Debug().Fields(kv).Msg(msg)
}

func Info(msg string, kv ...any) {
	l := get()
	l.Info().Fields(kv).Msg(msg)
}

func Error(msg string, err error, kv ...any) {
	l := get()
	l.Error().Err(err).Fields(kv).Msg(msg)
}
