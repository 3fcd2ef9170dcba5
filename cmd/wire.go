package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/bnema/chat-sessiond/internal/adapters/authstate"
	"github.com/bnema/chat-sessiond/internal/adapters/engine/simulated"
	"github.com/bnema/chat-sessiond/internal/config"
	"github.com/bnema/chat-sessiond/internal/logging"
	"github.com/bnema/chat-sessiond/internal/ports"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type app struct {
	settings config.Settings
	log      zerolog.Logger
	engine   ports.Engine
	opener   authstate.Opener
	clock    ports.Clock
}

// wireApp resolves settings and builds the process dependencies. Logs go to
// logOut, never to stdout.
func wireApp(opts *rootOptions, logOut io.Writer) (*app, error) {
	settings, err := config.Load(viper.New(), opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Level:   settings.Log.Level,
		Format:  settings.Log.Format,
		NoColor: !isTerminal(logOut),
	}, logOut)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	if settings.Source != "" {
		logger.Debug().Str("path", settings.Source).Msg("config file loaded")
	}

	engine, err := newEngine(settings, logger)
	if err != nil {
		return nil, err
	}

	return &app{
		settings: settings,
		log:      logger,
		engine:   engine,
		opener:   authstate.Opener{Logger: logger},
		clock:    ports.SystemClock{},
	}, nil
}

func newEngine(settings config.Settings, logger zerolog.Logger) (ports.Engine, error) {
	switch settings.Engine {
	case config.EngineSimulated:
		return simulated.New(simulated.Options{
			Logger:       logger,
			PairingDelay: settings.Simulated.PairingDelay,
			Groups:       simulated.FixtureGroups(),
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", config.ErrInvalidConfig, settings.Engine)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
