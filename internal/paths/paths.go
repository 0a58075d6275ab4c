// Package paths resolves where screens keeps its configuration and data.
package paths

import (
	"os"
	"path/filepath"
)

// AppName names the per-user directories.
const AppName = "screens"

// LocalDirName is a project-local configuration directory. When it exists
// in the working directory it is preferred over the per-user one.
const LocalDirName = ".screens"

// DataSubdir is the data directory inside the configuration directory.
const DataSubdir = "data"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "SCREENS_CONFIG_DIR"
	EnvDataDir   = "SCREENS_DATA_DIR"
)

// userDirs can be replaced in tests.
var userDirs = struct {
	getwd         func() (string, error)
	userConfigDir func() (string, error)
}{
	getwd:         os.Getwd,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns ./.screens when it exists, otherwise the per-user
// configuration directory ($XDG_CONFIG_HOME/screens on Linux, the
// Application Support folder on macOS, %AppData% on Windows).
func DefaultConfigDir() (string, error) {
	cwd, err := userDirs.getwd()
	if err != nil {
		return "", err
	}
	local := filepath.Join(cwd, LocalDirName)
	if info, err := os.Stat(local); err == nil && info.IsDir() {
		return local, nil
	}
	base, err := userDirs.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

// ResolveConfigDir applies the precedence flag > SCREENS_CONFIG_DIR >
// DefaultConfigDir. The result is absolute.
func ResolveConfigDir(flag string) (string, error) {
	for _, dir := range []string{flag, os.Getenv(EnvConfigDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies the precedence flag > config file value >
// SCREENS_DATA_DIR > configDir/data. A relative config file value is taken
// relative to configDir; other relative paths are relative to the working
// directory.
func ResolveDataDir(flag, configValue, configDir string) (string, error) {
	switch {
	case flag != "":
		return filepath.Abs(flag)
	case configValue != "":
		if filepath.IsAbs(configValue) {
			return filepath.Clean(configValue), nil
		}
		return filepath.Abs(filepath.Join(configDir, configValue))
	case os.Getenv(EnvDataDir) != "":
		return filepath.Abs(os.Getenv(EnvDataDir))
	}
	return filepath.Abs(filepath.Join(configDir, DataSubdir))
}
