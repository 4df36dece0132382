package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/ssrreload/internal/service/fs"
	"github.com/mitchellh/mapstructure"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "ssrreload"
	// UserConfigFile is the per-user config file name
	UserConfigFile = "config.json"
	// ProjectConfigFile is the config file name looked up in the project root
	ProjectConfigFile = "ssrreload.json"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs FileSystem
}

// NewLoader creates a production Loader using the real filesystem
func NewLoader() *Loader {
	return &Loader{fs: fs.NewOSFileSystem()}
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing)
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// Load layers ~/.config/ssrreload/config.json and then <root>/ssrreload.json
// over the defaults and validates the result. Missing files are skipped.
// Returns error only for parse errors, permission issues, or validation failures.
func (l *Loader) Load(root string) (*Config, error) {
	cfg := DefaultConfig()

	var paths []string
	if home, err := l.fs.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigDir, UserConfigFile))
	}
	if root != "" {
		paths = append(paths, filepath.Join(root, ProjectConfigFile))
	}

	for _, p := range paths {
		if err := l.merge(cfg, p); err != nil {
			return nil, err
		}
	}

	cfg.Base = NormalizeBase(cfg.Base)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) merge(cfg *Config, path string) error {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	// Decoding over the existing struct keeps defaults for absent keys.
	// WeaklyTypedInput lifts a lone string into a one-element list, so
	// "entry": "src/**" is accepted as well as "entry": ["src/**"].
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(dropNulls(raw)); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// dropNulls removes null values so they behave like absent keys.
func dropNulls(m map[string]any) map[string]any {
	for k, v := range m {
		switch val := v.(type) {
		case nil:
			delete(m, k)
		case map[string]any:
			m[k] = dropNulls(val)
		}
	}
	return m
}

// NormalizeBase makes sure a non-empty base path ends with a slash.
func NormalizeBase(base string) string {
	if base == "" {
		return "/"
	}
	if !strings.HasSuffix(base, "/") {
		return base + "/"
	}
	return base
}

// Load is a convenience function using the default loader
func Load(root string) (*Config, error) {
	return NewLoader().Load(root)
}
