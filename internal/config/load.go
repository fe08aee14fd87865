package config

import (
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

const (
	userConfigRelPath = ".config/teleterm/config.toml"
	systemConfigPath  = "/etc/teleterm/config.toml"
)

// Load resolves and parses the config file: `~/.config/teleterm/config.toml`
// first, falling back to `/etc/teleterm/config.toml`. Either may be absent,
// in which case Default() values stand. Returns the path actually loaded,
// or "" if neither file exists, so the caller can pass it to WatchReload.
func Load() (Config, string, error) {
	cfg := Default()

	path, err := resolvePath()
	if err != nil {
		return cfg, "", err
	}
	if path == "" {
		return cfg, "", nil
	}

	if err := decodeInto(path, &cfg); err != nil {
		return cfg, "", err
	}

	return cfg, path, nil
}

func decodeInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return nil
}

// resolvePath finds the config file to use. Per §4.6, a resolved home
// directory of "/" is treated as "no home directory": the user path is
// skipped entirely and resolution goes straight to /etc.
func resolvePath() (string, error) {
	home, err := homedir.Dir()
	if err == nil && home != "" && home != "/" {
		userPath := filepath.Join(home, userConfigRelPath)
		if _, statErr := os.Stat(userPath); statErr == nil {
			return userPath, nil
		}
	}

	if _, statErr := os.Stat(systemConfigPath); statErr == nil {
		return systemConfigPath, nil
	}

	return "", nil
}
