package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "parlor"

// GetConfigDir returns the OS-appropriate configuration directory for parlor
func GetConfigDir() (string, error) {
	if xdg.ConfigHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
	return filepath.Join(xdg.ConfigHome, appName), nil
}

// GetPersonalitiesDir returns the directory where user persona files are stored
func GetPersonalitiesDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "personalities"), nil
}

// GetConfigFile returns the path of the TOML settings file
func GetConfigFile() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// GetDataDir returns the directory holding the turn journal
func GetDataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// GetSocketPath returns the default daemon socket location
func GetSocketPath() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, appName, "daemon.sock")
	}
	return filepath.Join(GetDataDir(), "daemon.sock")
}

// EnsureConfigDirs creates the config and personalities directories if they don't exist
func EnsureConfigDirs() error {
	personalitiesDir, err := GetPersonalitiesDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(personalitiesDir, 0755)
}
