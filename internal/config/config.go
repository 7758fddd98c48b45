package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	WorkDir string `toml:"work_dir"`
}

// Storage contains artifact store configuration. Backend selects the
// implementation: "s3" (AWS S3 or any MinIO-compatible endpoint) or "local"
// (a directory tree, intended for development and tests).
type Storage struct {
	Backend           string `toml:"backend"`
	Endpoint          string `toml:"endpoint"`
	Bucket            string `toml:"bucket"`
	AccessKey         string `toml:"access_key"`
	SecretKey         string `toml:"secret_key"`
	Region            string `toml:"region"`
	LocalDir          string `toml:"local_dir"`
	PresignTTLSeconds int    `toml:"presign_ttl_seconds"`
}

// Providers selects the pipeline provider backends. The core only consumes
// their structured output; "mock" backends are used in tests and development.
type Providers struct {
	Transcriber   string `toml:"transcriber"`
	StepGenerator string `toml:"step_generator"`
}

// Limits bounds accepted input videos.
type Limits struct {
	MaxVideoMinutes int `toml:"max_video_minutes"`
	MaxVideoSizeMB  int `toml:"max_video_size_mb"`
}

// Workflow contains worker pool tuning.
type Workflow struct {
	WorkerCount int `toml:"worker_count"`
	QueueDepth  int `toml:"queue_depth"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ManualStudio.
type Config struct {
	Paths           Paths     `toml:"paths"`
	Storage         Storage   `toml:"storage"`
	Providers       Providers `toml:"providers"`
	Limits          Limits    `toml:"limits"`
	Workflow        Workflow  `toml:"workflow"`
	Logging         Logging   `toml:"logging"`
	DefaultLanguage string    `toml:"default_language"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/manualstudio/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("manualstudio.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.WorkDir}
	if c.Storage.Backend == BackendLocal && strings.TrimSpace(c.Storage.LocalDir) != "" {
		dirs = append(dirs, c.Storage.LocalDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MaxVideoBytes returns the upload size limit in bytes.
func (c *Config) MaxVideoBytes() int64 {
	return int64(c.Limits.MaxVideoSizeMB) * 1024 * 1024
}

// MaxVideoSeconds returns the duration limit in seconds.
func (c *Config) MaxVideoSeconds() int {
	return c.Limits.MaxVideoMinutes * 60
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
