// Package config resolves sessiond settings from defaults, an optional
// sessiond.toml and SESSIOND_* environment variables, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyEngine               = "engine"
	KeyReconnectDelay       = "reconnect_delay"
	KeyQueueSize            = "queue_size"
	KeyMaxLineBytes         = "max_line_bytes"
	KeyLogLevel             = "log.level"
	KeyLogFormat            = "log.format"
	KeySimulatedPairingWait = "simulated.pairing_delay"

	EngineSimulated = "simulated"

	envPrefix  = "SESSIOND"
	configName = "sessiond"
	configType = "toml"
)

var ErrInvalidConfig = errors.New("invalid config")

type Settings struct {
	Engine         string
	ReconnectDelay time.Duration
	QueueSize      int
	MaxLineBytes   int
	Log            LogSettings
	Simulated      SimulatedSettings
	// Source is the config file that was read, empty when none was found.
	Source string
}

type LogSettings struct {
	Level  string
	Format string
}

type SimulatedSettings struct {
	PairingDelay time.Duration
}

func Defaults() Settings {
	return Settings{
		Engine:         EngineSimulated,
		ReconnectDelay: 3 * time.Second,
		QueueSize:      1024,
		MaxLineBytes:   16 * 1024 * 1024,
		Log:            LogSettings{Level: "info", Format: "console"},
		Simulated:      SimulatedSettings{PairingDelay: 2 * time.Second},
	}
}

// Load reads settings into cfg. file, when set, must exist; otherwise
// sessiond.toml is looked up in the working directory and in
// $HOME/.config/sessiond, and its absence is not an error.
func Load(cfg *viper.Viper, file string) (Settings, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	defaults := Defaults()
	cfg.SetDefault(KeyEngine, defaults.Engine)
	cfg.SetDefault(KeyReconnectDelay, defaults.ReconnectDelay)
	cfg.SetDefault(KeyQueueSize, defaults.QueueSize)
	cfg.SetDefault(KeyMaxLineBytes, defaults.MaxLineBytes)
	cfg.SetDefault(KeyLogLevel, defaults.Log.Level)
	cfg.SetDefault(KeyLogFormat, defaults.Log.Format)
	cfg.SetDefault(KeySimulatedPairingWait, defaults.Simulated.PairingDelay)

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	if file != "" {
		cfg.SetConfigFile(file)
	} else {
		cfg.SetConfigName(configName)
		cfg.SetConfigType(configType)
		cfg.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			cfg.AddConfigPath(filepath.Join(homeDir, ".config", configName))
		}
	}

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &configNotFound) {
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
	}

	settings := Settings{
		Engine:         strings.ToLower(strings.TrimSpace(cfg.GetString(KeyEngine))),
		ReconnectDelay: cfg.GetDuration(KeyReconnectDelay),
		QueueSize:      cfg.GetInt(KeyQueueSize),
		MaxLineBytes:   cfg.GetInt(KeyMaxLineBytes),
		Log: LogSettings{
			Level:  cfg.GetString(KeyLogLevel),
			Format: cfg.GetString(KeyLogFormat),
		},
		Simulated: SimulatedSettings{PairingDelay: cfg.GetDuration(KeySimulatedPairingWait)},
		Source:    cfg.ConfigFileUsed(),
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s Settings) Validate() error {
	switch {
	case s.Engine != EngineSimulated:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalidConfig, s.Engine)
	case s.ReconnectDelay <= 0:
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyReconnectDelay)
	case s.QueueSize <= 0:
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyQueueSize)
	case s.MaxLineBytes <= 0:
		return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, KeyMaxLineBytes)
	case s.Simulated.PairingDelay < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, KeySimulatedPairingWait)
	}
	return nil
}
