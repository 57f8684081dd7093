package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
)

var base zerolog.Logger

func init() {
	Setup(os.Stdout, os.Getenv("ENVIRONMENT"))
}

// Setup points the package logger at w. Debug output is only enabled in development.
func Setup(w io.Writer, environment string) {
	level := zerolog.InfoLevel
	if environment == "development" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	base = zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// L exposes the underlying structured logger for call sites that want fields.
func L() *zerolog.Logger {
	return &base
}

func Info(format string, v ...interface{}) {
	base.Info().Msgf(format, v...)
}

func Error(format string, v ...interface{}) {
	base.Error().Str("caller", caller()).Msgf(format, v...)
}

func Debug(format string, v ...interface{}) {
	base.Debug().Msgf(format, v...)
}

func Warn(format string, v ...interface{}) {
	base.Warn().Msgf(format, v...)
}

// LogTransactionError records a failed side effect of a committed store transaction.
func LogTransactionError(recordID, action string, err error) {
	base.Warn().Err(err).Str("action", action).Str("record_id", recordID).Msg("Transaction side effect failed")
}

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}
