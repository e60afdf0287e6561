// Package paths resolves where the timeline CLI reads its configuration and
// keeps its clip store.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appDir is the directory name used under every platform base directory.
const appDir = "timeline"

// ConfigFileName is the configuration file inside the config directory.
const ConfigFileName = "config.yaml"

// Environment variables that override the platform defaults.
const (
	EnvConfigDir = "TIMELINE_CONFIG_DIR"
	EnvDataDir   = "TIMELINE_DATA_DIR"
)

// platformDir is swapped out in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// platformBase returns the base directory for app files. On Linux it honours
// xdgVar and falls back to home joined with linuxRel; elsewhere it is
// os.UserConfigDir (Application Support on macOS, %APPDATA% on Windows).
func platformBase(xdgVar string, linuxRel ...string) (string, error) {
	if runtime.GOOS != "linux" {
		return platformDir.userConfigDir()
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return xdg, nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, linuxRel...)...), nil
}

// DefaultConfigDir returns the platform configuration directory:
// $XDG_CONFIG_HOME/timeline or ~/.config/timeline on Linux.
func DefaultConfigDir() (string, error) {
	base, err := platformBase("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDir), nil
}

// DefaultDataDir returns the platform data directory:
// $XDG_DATA_HOME/timeline or ~/.local/share/timeline on Linux.
func DefaultDataDir() (string, error) {
	base, err := platformBase("XDG_DATA_HOME", ".local", "share")
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDir), nil
}

// firstAbs returns the first non-empty candidate made absolute.
func firstAbs(candidates ...string) (string, bool, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		abs, err := filepath.Abs(c)
		return abs, true, err
	}
	return "", false, nil
}

// ResolveConfigDir applies flag > TIMELINE_CONFIG_DIR > platform default.
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok, err := firstAbs(flag, os.Getenv(EnvConfigDir)); ok {
		return dir, err
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > data_dir from config.yaml >
// TIMELINE_DATA_DIR > platform default.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir, ok, err := firstAbs(flag, configValue, os.Getenv(EnvDataDir)); ok {
		return dir, err
	}
	return DefaultDataDir()
}

// ConfigFile returns the config.yaml path inside configDir.
func ConfigFile(configDir string) string {
	return filepath.Join(configDir, ConfigFileName)
}
