package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DirName is the per-project configuration directory.
const DirName = ".execgraph"

// FileName is the configuration file inside DirName.
const FileName = "config.yaml"

// Discover finds the configuration file to use: the nearest
// .execgraph/config.yaml walking up from the working directory (not above
// home), then ~/.config/execgraph/config.yaml. It returns "" when none exists.
func Discover() string {
	if dir, err := os.Getwd(); err == nil {
		if root, ok := findConfigRoot(dir); ok {
			return filepath.Join(root, DirName, FileName)
		}
	}
	if p := userConfigPath(); p != "" {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// LoadDiscovered loads the discovered file, or the defaults when there is none.
func LoadDiscovered() (Config, string, error) {
	path := Discover()
	cfg, err := Load(path)
	return cfg, path, err
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "execgraph", FileName)
}

// findConfigRoot walks up from dir looking for a .execgraph/config.yaml.
func findConfigRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		candidate := filepath.Join(dir, DirName, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
