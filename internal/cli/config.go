package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/screens/internal/form"
	"github.com/mesh-intelligence/screens/internal/logging"
	"github.com/mesh-intelligence/screens/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "SCREENS"

	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyLayout          = "layout"
	cfgKeyProviderTimeout = "provider_timeout"
	cfgKeyLogLevel        = "log_level"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# screens configuration

# Storage backend
backend: sqlite

# Data directory, relative to this directory (overridable by --data-dir)
# data_dir: data

# Section layout: stacked or tabs
layout: stacked

# How long to wait for a data provider before degrading the widget
provider_timeout: 2s

# panic, fatal, error, warn, info, debug, trace
log_level: warn
`

// settings are the resolved configuration values.
type settings struct {
	Backend         string
	DataDir         string
	Layout          form.Layout
	ProviderTimeout time.Duration
	LogLevel        string
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. SCREENS_* environment variables override file
// values.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLayout, string(form.LayoutStacked))
	v.SetDefault(cfgKeyProviderTimeout, form.DefaultProviderTimeout)
	v.SetDefault(cfgKeyLogLevel, logging.DefaultLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// decodeSettings validates the values read by viper.
func decodeSettings(v *viper.Viper) (settings, error) {
	s := settings{
		Backend:         v.GetString(cfgKeyBackend),
		DataDir:         v.GetString(cfgKeyDataDir),
		ProviderTimeout: v.GetDuration(cfgKeyProviderTimeout),
		LogLevel:        v.GetString(cfgKeyLogLevel),
	}
	layout, err := form.ParseLayout(v.GetString(cfgKeyLayout))
	if err != nil {
		return s, fmt.Errorf("%s: %w", cfgKeyLayout, err)
	}
	s.Layout = layout
	if s.ProviderTimeout <= 0 {
		return s, fmt.Errorf("%w: %s must be positive", types.ErrInvalidData, cfgKeyProviderTimeout)
	}
	return s, nil
}
