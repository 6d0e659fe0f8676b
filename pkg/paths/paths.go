// Package paths locates per-user cavework files.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const configFileName = "config.yaml"

// ConfigDir returns the config directory for cavework.
// Order: XDG_CONFIG_HOME/cavework, platform-specific fallback.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cavework")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "Cavework")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cavework")
}

// DefaultConfigFile is the config file read when --config is not given. It
// need not exist.
func DefaultConfigFile() string {
	return filepath.Join(ConfigDir(), configFileName)
}
