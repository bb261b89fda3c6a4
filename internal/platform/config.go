package platform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the vault config file inside the system dir.
const ConfigFileName = "config.yaml"

// DefaultContentDir is the directory, relative to the vault root, holding
// the content tree.
const DefaultContentDir = "content"

// FileConfig is the on-disk vault configuration. Explicit options win over
// values read from the file.
type FileConfig struct {
	Adapter    string `yaml:"adapter,omitempty"`
	ContentDir string `yaml:"content_dir,omitempty"`
	ReadOnly   bool   `yaml:"read_only,omitempty"`
	LogLevel   string `yaml:"log_level,omitempty"`
}

// DefaultFileConfig is what a fresh vault is initialized with.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Adapter:    AdapterSQLite,
		ContentDir: DefaultContentDir,
		LogLevel:   "info",
	}
}

// LoadConfig reads the config file at path. A missing file is not an error;
// it yields DefaultFileConfig and false.
func LoadConfig(fsys afero.Fs, path string) (FileConfig, bool, error) {
	cfg := DefaultFileConfig()
	data, err := afero.ReadFile(fsys, path)
	if os.IsNotExist(err) {
		return cfg, false, nil
	}
	if err != nil {
		return cfg, false, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, false, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	if cfg.ContentDir == "" {
		cfg.ContentDir = DefaultContentDir
	}
	if cfg.Adapter == "" {
		cfg.Adapter = AdapterSQLite
	}
	return cfg, true, nil
}

// WriteConfig writes cfg to path.
func WriteConfig(fsys afero.Fs, path string, cfg FileConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return afero.WriteFile(fsys, path, data, 0644)
}

// ParseLogLevel maps a config log level to a slog level. Empty means Info.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
