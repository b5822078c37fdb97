package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a zerolog logger tagged with component. APP_ENV=dev switches to
// the console writer; LOG_LEVEL sets the minimum level (default info).
func New(component string) zerolog.Logger {
	return NewWithWriter(component, os.Stdout)
}

func NewWithWriter(component string, out io.Writer) zerolog.Logger {
	if strings.EqualFold(os.Getenv("APP_ENV"), "dev") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("component", component).Logger()
}
