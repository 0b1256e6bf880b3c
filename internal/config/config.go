// Package config holds the viper-backed configuration for the ideas binary.
//
// Precedence, highest first: command-line flags copied in with Set,
// IDEAS_* environment variables, the config file, defaults from Keys.
// Callers that apply flag overrides run Validate again afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "IDEAS"

var v *viper.Viper

// Initialize sets up the viper configuration singleton.
// configFile, when non-empty, is used instead of searching.
// Should be called once at application startup.
func Initialize(configFile string) error {
	v = viper.New()
	v.SetConfigType("yaml")

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// IDEAS_DB_PATH maps to db.path, IDEAS_LOG_MAX_SIZE_MB to log.max-size-mb
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for _, k := range Keys {
		v.SetDefault(k.Key, k.Default)
	}

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}
	return Validate()
}

// findConfigFile returns the first existing config file:
// ./.ideas/config.yaml walking up from the working directory, then
// <user config dir>/ideas/config.yaml.
func findConfigFile() string {
	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; ; dir = filepath.Dir(dir) {
			p := filepath.Join(dir, ".ideas", "config.yaml")
			if _, err := os.Stat(p); err == nil {
				return p
			}
			if dir == filepath.Dir(dir) {
				break
			}
		}
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		p := filepath.Join(configDir, "ideas", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Viper exposes the singleton for flag binding.
func Viper() *viper.Viper {
	if v == nil {
		v = viper.New()
		for _, k := range Keys {
			v.SetDefault(k.Key, k.Default)
		}
	}
	return v
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func ConfigFileUsed() string {
	return Viper().ConfigFileUsed()
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	return Viper().GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	return Viper().GetBool(key)
}

// GetInt retrieves an integer configuration value
func GetInt(key string) int {
	return Viper().GetInt(key)
}

// Set sets a configuration value
func Set(key string, value any) {
	Viper().Set(key, value)
}

// Validate runs every key's validator against its effective value.
func Validate() error {
	var errs []error
	for _, k := range Keys {
		if k.Validate == nil {
			continue
		}
		if err := k.Validate(GetString(k.Key)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k.Key, err))
		}
	}
	return errors.Join(errs...)
}

// ConfigSource identifies where a value came from.
type ConfigSource string

const (
	SourceDefault    ConfigSource = "default"
	SourceConfigFile ConfigSource = "config_file"
	SourceEnvVar     ConfigSource = "env_var"
	SourceFlag       ConfigSource = "flag"
)

// GetValueSource reports where the effective value of key came from.
func GetValueSource(key string) ConfigSource {
	if isFlagSet(key) {
		return SourceFlag
	}
	if os.Getenv(EnvVar(key)) != "" {
		return SourceEnvVar
	}
	if v != nil && v.InConfig(key) {
		return SourceConfigFile
	}
	return SourceDefault
}

var flagKeys = map[string]func() bool{}

// MarkFlag records how to tell whether key was set on the command line.
func MarkFlag(key string, changed func() bool) {
	flagKeys[key] = changed
}

func isFlagSet(key string) bool {
	changed, ok := flagKeys[key]
	return ok && changed()
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
