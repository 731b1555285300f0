// Wraps zerolog, ensuring the timestamp goes in the beginning.
package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var logger zerolog.Logger

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.DurationFieldInteger = true
	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger = zerolog.New(os.Stderr).With().Stack().Logger()
}

type Logger interface {
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
}

func Info() *zerolog.Event {
	return logger.Info().Timestamp()
}

func Warn() *zerolog.Event {
	return logger.Warn().Timestamp()
}

func Error() *zerolog.Event {
	return logger.Error().Timestamp()
}

// BackgroundLogger is the process-wide logger, for code that doesn't run
// within a request or an analysis run.
type BackgroundLogger struct{}

func (BackgroundLogger) Info() *zerolog.Event {
	return Info()
}

func (BackgroundLogger) Warn() *zerolog.Event {
	return Warn()
}

func (BackgroundLogger) Error() *zerolog.Event {
	return Error()
}

// RunLogger tags every event with the analysis run id.
type RunLogger struct {
	RunId string
}

func (l *RunLogger) Info() *zerolog.Event {
	return Info().Str("run_id", l.RunId)
}

func (l *RunLogger) Warn() *zerolog.Event {
	return Warn().Str("run_id", l.RunId)
}

func (l *RunLogger) Error() *zerolog.Event {
	return Error().Str("run_id", l.RunId)
}
