package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Options configures the process-wide logger.
type Options struct {
	// Level is one of debug, info, warn, error (case-insensitive).
	Level string
	// Format is "console" (default) or "json".
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

var (
	mu         sync.RWMutex
	logger     zerolog.Logger
	loggerOnce sync.Once
)

// initLogger initializes the global logger to write console lines to stderr.
func initLogger() {
	loggerOnce.Do(func() {
		logger = build(Options{Level: "info", Format: "console"})
	})
}

// Configure replaces the global logger.
func Configure(opts Options) {
	initLogger()
	l := build(opts)
	mu.Lock()
	logger = l
	mu.Unlock()
}

func build(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(opts.Format, "json") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339Nano, NoColor: true}
	}
	return zerolog.New(out).Level(parseLevel(opts.Level)).With().Timestamp().Logger()
}

func SetLevel(l Level) {
	initLogger()
	mu.Lock()
	logger = logger.Level(parseLevel(string(l)))
	mu.Unlock()
}

func Debug(msg string, kv ...any) {
	logWithLevel(zerolog.DebugLevel, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(zerolog.InfoLevel, msg, kv...)
}

// Warn is used for degraded-but-recoverable paths (cache misses, dropped
// notifications).
func Warn(msg string, kv ...any) {
	logWithLevel(zerolog.WarnLevel, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	logWithLevel(zerolog.ErrorLevel, msg, extended...)
}

func logWithLevel(level zerolog.Level, msg string, kv ...any) {
	initLogger()
	mu.RLock()
	l := logger
	mu.RUnlock()

	ev := l.WithLevel(level)
	if ev == nil {
		return
	}
	appendKVs(ev, kv...).Msg(msg)
}

func appendKVs(ev *zerolog.Event, kv ...any) *zerolog.Event {
	// Expect kv as pairs: key, value, key, value, ...
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		switch v := kv[i+1].(type) {
		case error:
			if v == nil {
				ev = ev.Str(key, "<nil>")
			} else {
				ev = ev.Str(key, v.Error())
			}
		case string:
			ev = ev.Str(key, v)
		case int:
			ev = ev.Int(key, v)
		case bool:
			ev = ev.Bool(key, v)
		case time.Time:
			ev = ev.Time(key, v)
		case time.Duration:
			ev = ev.Dur(key, v)
		case fmt.Stringer:
			ev = ev.Stringer(key, v)
		default:
			ev = ev.Interface(key, v)
		}
	}
	// If odd number of args, last one is ignored.
	return ev
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
