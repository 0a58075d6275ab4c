package paths

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirs points the working and per-user directories at temp dirs for
// the duration of the test.
func fakeDirs(t *testing.T) (cwd, userBase string) {
	t.Helper()
	cwd, userBase = t.TempDir(), t.TempDir()
	saved := userDirs
	userDirs.getwd = func() (string, error) { return cwd, nil }
	userDirs.userConfigDir = func() (string, error) { return userBase, nil }
	t.Cleanup(func() { userDirs = saved })
	return cwd, userBase
}

func TestDefaultConfigDir(t *testing.T) {
	t.Run("per-user dir when no local dir", func(t *testing.T) {
		_, base := fakeDirs(t)
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, AppName), got)
	})

	t.Run("local dir wins when present", func(t *testing.T) {
		cwd, _ := fakeDirs(t)
		require.NoError(t, os.Mkdir(filepath.Join(cwd, LocalDirName), 0o755))
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, LocalDirName), got)
	})

	t.Run("local file is ignored", func(t *testing.T) {
		cwd, base := fakeDirs(t)
		require.NoError(t, os.WriteFile(filepath.Join(cwd, LocalDirName), nil, 0o644))
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, AppName), got)
	})

	t.Run("user dir error", func(t *testing.T) {
		fakeDirs(t)
		userDirs.userConfigDir = func() (string, error) { return "", errors.New("no home") }
		_, err := DefaultConfigDir()
		assert.Error(t, err)
	})
}

func TestResolveConfigDir(t *testing.T) {
	_, base := fakeDirs(t)

	tests := []struct {
		name   string
		flag   string
		envVal string
		want   string
	}{
		{"flag wins over env", "/explicit/config", "/env/config", "/explicit/config"},
		{"env wins when flag empty", "", "/env/config", "/env/config"},
		{"default when both empty", "", "", filepath.Join(base, AppName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	tests := []struct {
		name        string
		flag        string
		configValue string
		envVal      string
		want        string
	}{
		{"flag wins over all", "/flag/data", "/config/data", "/env/data", "/flag/data"},
		{"config value wins over env", "", "/config/data", "/env/data", "/config/data"},
		{"relative config value", "", "db", "/env/data", "/cfg/db"},
		{"env when flag and config empty", "", "", "/env/data", "/env/data"},
		{"under config dir by default", "", "", "", "/cfg/data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configValue, "/cfg")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_RelativeBecomesAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "relative/env")
	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)

	t.Setenv(EnvDataDir, "")
	got, err = ResolveDataDir("relative/flag", "", "/cfg")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}
