package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrExists is returned by WriteDefault when the target file already exists.
var ErrExists = errors.New("config file already exists")

// WriteDefault writes a config file holding every default setting.
// It refuses to overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	return writeTOML(path, Defaults())
}

// Set updates one dotted key (e.g. "source.consent") in the config file,
// creating the file if needed. Other keys in the file are preserved.
func Set(path, key string, value any) error {
	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	section, name, ok := strings.Cut(key, ".")
	if !ok || section == "" || name == "" {
		doc[key] = value
	} else {
		table, _ := doc[section].(map[string]any)
		if table == nil {
			table = map[string]any{}
		}
		table[name] = value
		doc[section] = table
	}

	return writeTOML(path, doc)
}

// SaveConsent records that the user allowed contact access.
func SaveConsent(path string) error {
	return Set(path, "source.consent", true)
}

func writeTOML[T any](path string, doc T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
