package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the daemon settings.
type Config struct {
	SocketPath       string
	DesktopDirs      []string
	LogLevel         string
	LogFormat        string
	LogFile          string
	Notifications    bool
	LauncherProgress bool
}

const (
	defaultConfigPath = "~/.config/snapdesk/config.toml"
	defaultSocketPath = "/run/snapd.socket"
	defaultDesktopDir = "/var/lib/snapd/desktop/applications"
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		SocketPath:       defaultSocketPath,
		DesktopDirs:      []string{defaultDesktopDir},
		LogLevel:         defaultLogLevel,
		LogFormat:        defaultLogFormat,
		Notifications:    true,
		LauncherProgress: true,
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		SocketPath       string   `toml:"socket_path"`
		DesktopDirs      []string `toml:"desktop_dirs"`
		LogLevel         string   `toml:"log_level"`
		LogFormat        string   `toml:"log_format"`
		LogFile          string   `toml:"log_file"`
		Notifications    *bool    `toml:"notifications"`
		LauncherProgress *bool    `toml:"launcher_progress"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.SocketPath); v != "" {
		cfg.SocketPath = v
	}
	if !strings.HasPrefix(cfg.SocketPath, "http://") && !strings.HasPrefix(cfg.SocketPath, "https://") {
		cfg.SocketPath = mustExpand(cfg.SocketPath)
	}

	var dirs []string
	for _, dir := range raw.DesktopDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		dirs = append(dirs, mustExpand(dir))
	}
	if len(dirs) > 0 {
		cfg.DesktopDirs = dirs
	}

	if v := strings.ToLower(strings.TrimSpace(raw.LogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.LogFormat)); v != "" {
		if v != "text" && v != "json" {
			return Config{}, fmt.Errorf("log_format %q: must be text or json", raw.LogFormat)
		}
		cfg.LogFormat = v
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if raw.Notifications != nil {
		cfg.Notifications = *raw.Notifications
	}
	if raw.LauncherProgress != nil {
		cfg.LauncherProgress = *raw.LauncherProgress
	}

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
