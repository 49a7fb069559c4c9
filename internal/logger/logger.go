package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/yukikurage/task-tracker-api/internal/config"
)

func init() {
	zerolog.TimestampFieldName = "timestamp"
}

// New builds the application logger for the given env. Local runs get a
// human readable console writer, every other env logs JSON to stdout.
func New(env string) (zerolog.Logger, error) {
	return NewWithWriter(env, os.Stdout)
}

func NewWithWriter(env string, out io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	w := out

	switch env {
	case config.EnvDev:
		level = zerolog.DebugLevel
	case config.EnvProd:
		level = zerolog.InfoLevel
	case config.EnvLocal:
		level = zerolog.TraceLevel

		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = out
		w = consoleWriter
	default:
		return zerolog.Nop(), fmt.Errorf("unknown env: %s", env)
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger(), nil
}
