package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/covgap/covgap/internal/coverage"
)

// ConfigFileName is the name of the covgap configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the covgap configuration directory
const ConfigDirName = ".covgap"

// Config holds all covgap configuration
type Config struct {
	CoverageThreshold   int      `yaml:"coverage_threshold"`
	MinCoverageIncrease int      `yaml:"min_coverage_increase"`
	CoverageFormat      string   `yaml:"coverage_format"`
	CoverageFile        string   `yaml:"coverage_file"`
	ExcludePaths        []string `yaml:"exclude_paths"`
	Languages           []string `yaml:"languages"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .covgap/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		// No config dir found, return defaults
		return DefaultConfig(), nil
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	return LoadFromPath(configPath)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// FindConfigDir locates the .covgap directory by walking up from startDir.
// Returns the path to the .covgap directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, config not found
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .covgap directory if it doesn't exist.
// Returns the path to the .covgap directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error wrapping ErrInvalidConfig if validation fails.
func Validate(cfg *Config) error {
	if cfg.CoverageThreshold < 0 || cfg.CoverageThreshold > 100 {
		return fmt.Errorf("%w: coverage_threshold must be between 0 and 100, got %d",
			ErrInvalidConfig, cfg.CoverageThreshold)
	}

	if cfg.MinCoverageIncrease < 0 {
		return fmt.Errorf("%w: min_coverage_increase must be non-negative, got %d",
			ErrInvalidConfig, cfg.MinCoverageIncrease)
	}

	// An empty format means "probe for it"; a set format must name a parser.
	if cfg.CoverageFormat != "" {
		if _, err := coverage.ParseFormatName(cfg.CoverageFormat); err != nil {
			return fmt.Errorf("%w: coverage_format: %v", ErrInvalidConfig, err)
		}
	}

	for _, language := range cfg.Languages {
		if !IsSupportedLanguage(language) {
			return fmt.Errorf("%w: unsupported language %q (valid: %v)",
				ErrInvalidConfig, language, SupportedLanguageNames())
		}
	}

	return nil
}

// SaveDefault writes the default configuration to .covgap/config.yaml in
// workDir. Creates the .covgap directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	// Don't clobber an existing config
	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# covgap configuration\n" +
		"# coverage_threshold: minimum acceptable overall coverage percent\n" +
		"# min_coverage_increase: required gain over the stored baseline\n" +
		"# coverage_format / coverage_file: pin the report instead of probing\n" +
		"# exclude_paths: glob patterns dropped before correlation\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
