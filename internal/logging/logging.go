// Package logging builds the process logger. Logs go to stderr because stdout
// carries the host protocol.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Config struct {
	Level   string
	Format  string
	NoColor bool
}

func New(cfg Config, w io.Writer) (zerolog.Logger, error) {
	level, ok := ParseLevel(cfg.Level)
	if !ok {
		return zerolog.Nop(), fmt.Errorf("unknown log level %q", cfg.Level)
	}

	var out io.Writer
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", FormatConsole:
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: cfg.NoColor}
	case FormatJSON:
		out = w
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Str("app", "sessiond").Logger(), nil
}

// ParseLevel accepts zerolog level names plus a few aliases. An empty value
// means info.
func ParseLevel(raw string) (zerolog.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "":
		return zerolog.InfoLevel, true
	case "warning":
		return zerolog.WarnLevel, true
	case "off", "none":
		return zerolog.Disabled, true
	}

	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel, false
	}
	return level, true
}
