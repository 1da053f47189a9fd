// Package config resolves where the terminology definitions live. Precedence:
// an explicit flag value, then the SNOMAP_DEFINITIONS environment variable,
// then a .snomap.yaml in the working directory or home directory.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// ErrNoDefinitionsPath means no configuration source named a definitions
// directory.
var ErrNoDefinitionsPath = errors.New("no definitions path configured (use --definitions, SNOMAP_DEFINITIONS, or .snomap.yaml)")

const (
	configName = ".snomap"
	envVar     = "SNOMAP_DEFINITIONS"
	key        = "definitions"
)

// ResolveDefinitions returns the absolute definitions root. flagValue comes
// from the command line and wins when non-empty.
func ResolveDefinitions(flagValue string) (string, error) {
	if flagValue != "" {
		return absolute(flagValue)
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	if err := v.BindEnv(key, envVar); err != nil {
		return "", err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return "", fmt.Errorf("read config: %w", err)
		}
	}

	path := v.GetString(key)
	if path == "" {
		return "", ErrNoDefinitionsPath
	}
	return absolute(path)
}

func absolute(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve definitions path: %w", err)
	}
	return abs, nil
}
