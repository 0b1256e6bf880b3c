package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteDefault when the file is already present.
var ErrConfigExists = errors.New("config file already exists")

// DefaultYAML renders every key's default as a nested YAML document.
func DefaultYAML() ([]byte, error) {
	return renderYAML(func(k Key) any { return k.Default })
}

// EffectiveYAML renders the current effective values, masking secrets.
func EffectiveYAML() ([]byte, error) {
	return renderYAML(func(k Key) any {
		if k.Secret && GetString(k.Key) != "" {
			return "********"
		}
		return Viper().Get(k.Key)
	})
}

func renderYAML(value func(Key) any) ([]byte, error) {
	doc := map[string]any{}
	for _, k := range Keys {
		section, name, nested := strings.Cut(k.Key, ".")
		if !nested {
			doc[k.Key] = value(k)
			continue
		}
		m, ok := doc[section].(map[string]any)
		if !ok {
			m = map[string]any{}
			doc[section] = m
		}
		m[name] = value(k)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrConfigExists)
		}
	}
	data, err := DefaultYAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	header := []byte("# ideas configuration. Environment variables IDEAS_<SECTION>_<KEY> override these values.\n")
	if err := os.WriteFile(path, append(header, data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
