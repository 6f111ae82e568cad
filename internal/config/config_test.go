package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.CoverageThreshold != 80 {
		t.Errorf("expected coverage_threshold 80, got %d", cfg.CoverageThreshold)
	}

	if cfg.MinCoverageIncrease != 5 {
		t.Errorf("expected min_coverage_increase 5, got %d", cfg.MinCoverageIncrease)
	}

	if cfg.CoverageFormat != "" {
		t.Errorf("expected empty coverage_format, got %q", cfg.CoverageFormat)
	}

	if cfg.CoverageFile != "" {
		t.Errorf("expected empty coverage_file, got %q", cfg.CoverageFile)
	}

	if len(cfg.ExcludePaths) != 4 {
		t.Errorf("expected 4 exclude patterns, got %d", len(cfg.ExcludePaths))
	}

	if len(cfg.Languages) != 5 || cfg.Languages[0] != "go" {
		t.Errorf("expected all supported languages starting with go, got %v", cfg.Languages)
	}
}

func TestIsSupportedLanguage(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"go", true},
		{"python", true},
		{"javascript", true},
		{"typescript", true},
		{"java", true},
		{"ruby", false},
		{"", false},
		{"Go", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsSupportedLanguage(tt.name)
			if result != tt.valid {
				t.Errorf("IsSupportedLanguage(%q) = %v, want %v", tt.name, result, tt.valid)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "threshold above 100",
			modify: func(c *Config) {
				c.CoverageThreshold = 101
			},
			wantErr: true,
		},
		{
			name: "threshold negative",
			modify: func(c *Config) {
				c.CoverageThreshold = -1
			},
			wantErr: true,
		},
		{
			name: "negative increase",
			modify: func(c *Config) {
				c.MinCoverageIncrease = -5
			},
			wantErr: true,
		},
		{
			name: "unknown format",
			modify: func(c *Config) {
				c.CoverageFormat = "jacoco"
			},
			wantErr: true,
		},
		{
			name: "format alias accepted",
			modify: func(c *Config) {
				c.CoverageFormat = "pytest-json"
			},
			wantErr: false,
		},
		{
			name: "unsupported language",
			modify: func(c *Config) {
				c.Languages = []string{"go", "cobol"}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected error to wrap ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	defaults := DefaultConfig()

	t.Run("empty loaded uses all defaults", func(t *testing.T) {
		loaded := &Config{}
		merged := Merge(loaded, defaults)

		if merged.CoverageThreshold != defaults.CoverageThreshold {
			t.Errorf("expected threshold %d, got %d", defaults.CoverageThreshold, merged.CoverageThreshold)
		}

		if len(merged.ExcludePaths) != len(defaults.ExcludePaths) {
			t.Errorf("expected %d exclude patterns, got %d", len(defaults.ExcludePaths), len(merged.ExcludePaths))
		}
	})

	t.Run("loaded values take precedence", func(t *testing.T) {
		loaded := &Config{
			CoverageThreshold: 95,
			CoverageFormat:    "lcov",
			Languages:         []string{"python"},
		}
		merged := Merge(loaded, defaults)

		if merged.CoverageThreshold != 95 {
			t.Errorf("expected threshold 95, got %d", merged.CoverageThreshold)
		}

		if merged.CoverageFormat != "lcov" {
			t.Errorf("expected format lcov, got %q", merged.CoverageFormat)
		}

		if len(merged.Languages) != 1 || merged.Languages[0] != "python" {
			t.Errorf("expected languages [python], got %v", merged.Languages)
		}

		// Unset values should use defaults
		if merged.MinCoverageIncrease != defaults.MinCoverageIncrease {
			t.Errorf("expected increase %d, got %d", defaults.MinCoverageIncrease, merged.MinCoverageIncrease)
		}
	})
}

func TestFindConfigDir(t *testing.T) {
	tmpDir := t.TempDir()

	// Create nested directories: tmpDir/project/subdir
	projectDir := filepath.Join(tmpDir, "project")
	subDir := filepath.Join(projectDir, "subdir")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("no config dir returns error", func(t *testing.T) {
		_, err := FindConfigDir(subDir)
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	// Create .covgap directory in project root
	configDir := filepath.Join(projectDir, ConfigDirName)
	if err := os.Mkdir(configDir, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("finds config dir in current directory", func(t *testing.T) {
		found, err := FindConfigDir(projectDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if found != configDir {
			t.Errorf("expected %s, got %s", configDir, found)
		}
	})

	t.Run("finds config dir in parent directory", func(t *testing.T) {
		found, err := FindConfigDir(subDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if found != configDir {
			t.Errorf("expected %s, got %s", configDir, found)
		}
	})
}

func TestEnsureConfigDir(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates config directory", func(t *testing.T) {
		dir, err := EnsureConfigDir(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		expectedDir := filepath.Join(tmpDir, ConfigDirName)
		if dir != expectedDir {
			t.Errorf("expected %s, got %s", expectedDir, dir)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("config directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected directory, got file")
		}
	})

	t.Run("returns existing directory", func(t *testing.T) {
		dir, err := EnsureConfigDir(tmpDir)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		expectedDir := filepath.Join(tmpDir, ConfigDirName)
		if dir != expectedDir {
			t.Errorf("expected %s, got %s", expectedDir, dir)
		}
	})
}

func TestLoadFromPath(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("loads valid config file", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		content := `
coverage_threshold: 95
coverage_format: xml
exclude_paths:
  - "*.generated.go"
languages: [python, typescript]
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFromPath(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Check loaded values
		if cfg.CoverageThreshold != 95 {
			t.Errorf("expected threshold 95, got %d", cfg.CoverageThreshold)
		}
		if cfg.CoverageFormat != "xml" {
			t.Errorf("expected format xml, got %q", cfg.CoverageFormat)
		}
		if len(cfg.ExcludePaths) != 1 || cfg.ExcludePaths[0] != "*.generated.go" {
			t.Errorf("expected excludes [*.generated.go], got %v", cfg.ExcludePaths)
		}
		if len(cfg.Languages) != 2 {
			t.Errorf("expected 2 languages, got %d", len(cfg.Languages))
		}

		// Check defaults were applied for missing values
		if cfg.MinCoverageIncrease != 5 {
			t.Errorf("expected default increase 5, got %d", cfg.MinCoverageIncrease)
		}
		if cfg.CoverageFile != "" {
			t.Errorf("expected empty coverage_file, got %q", cfg.CoverageFile)
		}
	})

	t.Run("returns defaults for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromPath(filepath.Join(tmpDir, "nonexistent.yaml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		defaults := DefaultConfig()
		if cfg.CoverageThreshold != defaults.CoverageThreshold {
			t.Errorf("expected default threshold, got %d", cfg.CoverageThreshold)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "invalid.yaml")
		if err := os.WriteFile(configPath, []byte("coverage: threshold: 80"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromPath(configPath)
		if err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("returns error for wrong value type", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "wrong-type.yaml")
		if err := os.WriteFile(configPath, []byte("coverage_threshold: eighty\n"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromPath(configPath)
		if err == nil {
			t.Error("expected error for non-integer threshold")
		}
	})

	t.Run("returns error for invalid config values", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "bad-values.yaml")
		content := `
coverage_format: jacoco
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := LoadFromPath(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("returns defaults when no config dir exists", func(t *testing.T) {
		cfg, err := Load(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		defaults := DefaultConfig()
		if cfg.CoverageThreshold != defaults.CoverageThreshold {
			t.Errorf("expected default config")
		}
	})

	t.Run("loads config from .covgap directory", func(t *testing.T) {
		configDir := filepath.Join(tmpDir, ConfigDirName)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			t.Fatal(err)
		}

		content := `
coverage_threshold: 70
`
		configPath := filepath.Join(configDir, ConfigFileName)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.CoverageThreshold != 70 {
			t.Errorf("expected threshold 70, got %d", cfg.CoverageThreshold)
		}
	})
}

func TestSaveDefault(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("creates default config file", func(t *testing.T) {
		configPath, err := SaveDefault(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expectedPath := filepath.Join(tmpDir, ConfigDirName, ConfigFileName)
		if configPath != expectedPath {
			t.Errorf("expected path %s, got %s", expectedPath, configPath)
		}

		// Saved file starts with the comment header
		data, err := os.ReadFile(configPath)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(data), "# covgap configuration") {
			t.Error("expected comment header at top of saved config")
		}

		// Round-trips through the loader
		cfg, err := LoadFromPath(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		defaults := DefaultConfig()
		if cfg.CoverageThreshold != defaults.CoverageThreshold {
			t.Errorf("saved config doesn't match defaults")
		}
	})

	t.Run("fails if config already exists", func(t *testing.T) {
		// Config was created in previous subtest
		_, err := SaveDefault(tmpDir)
		if err == nil {
			t.Error("expected error when config already exists")
		}
	})
}
