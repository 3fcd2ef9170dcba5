package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	configDirMode  = 0o700
	configFileMode = 0o600
	tempPattern    = ".sessiond-*.toml"
)

var ErrConfigExists = errors.New("config file already exists")

// fileSchema is the on-disk layout. Durations are kept as strings so the file
// reads "3s" rather than nanoseconds.
type fileSchema struct {
	Engine         string          `toml:"engine"`
	ReconnectDelay string          `toml:"reconnect_delay"`
	QueueSize      int             `toml:"queue_size"`
	MaxLineBytes   int             `toml:"max_line_bytes"`
	Log            logSchema       `toml:"log"`
	Simulated      simulatedSchema `toml:"simulated"`
}

type logSchema struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type simulatedSchema struct {
	PairingDelay string `toml:"pairing_delay"`
}

func toSchema(s Settings) fileSchema {
	return fileSchema{
		Engine:         s.Engine,
		ReconnectDelay: s.ReconnectDelay.String(),
		QueueSize:      s.QueueSize,
		MaxLineBytes:   s.MaxLineBytes,
		Log:            logSchema{Level: s.Log.Level, Format: s.Log.Format},
		Simulated:      simulatedSchema{PairingDelay: s.Simulated.PairingDelay.String()},
	}
}

// TOML renders s in the config file format.
func (s Settings) TOML() ([]byte, error) {
	data, err := toml.Marshal(toSchema(s))
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// WriteFile writes s to path through a temp file and rename. An existing file
// is only replaced when overwrite is set.
func WriteFile(path string, s Settings, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config file: %w", err)
		}
	}

	data, err := s.TOML()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempPattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tempFile.Chmod(configFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}

	cleanup = false
	return nil
}

// DefaultPath is where `config init` writes when no path is given.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configName, configName+"."+configType), nil
}
