package config

import "github.com/covgap/covgap/internal/lang"

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		CoverageThreshold:   80,
		MinCoverageIncrease: 5,
		ExcludePaths: []string{
			"*.pyc",
			"__pycache__",
			"node_modules",
			"*.git",
		},
		Languages: SupportedLanguageNames(),
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	// CoverageThreshold: use loaded if non-zero
	if loaded.CoverageThreshold != 0 {
		result.CoverageThreshold = loaded.CoverageThreshold
	} else {
		result.CoverageThreshold = defaults.CoverageThreshold
	}

	// MinCoverageIncrease: use loaded if non-zero. A zero gate cannot be
	// expressed in the file; use the --min-increase flag for that.
	if loaded.MinCoverageIncrease != 0 {
		result.MinCoverageIncrease = loaded.MinCoverageIncrease
	} else {
		result.MinCoverageIncrease = defaults.MinCoverageIncrease
	}

	// CoverageFormat: use loaded if non-empty
	if loaded.CoverageFormat != "" {
		result.CoverageFormat = loaded.CoverageFormat
	} else {
		result.CoverageFormat = defaults.CoverageFormat
	}

	// CoverageFile: use loaded if non-empty
	if loaded.CoverageFile != "" {
		result.CoverageFile = loaded.CoverageFile
	} else {
		result.CoverageFile = defaults.CoverageFile
	}

	// Use loaded exclude patterns if provided, otherwise defaults
	if len(loaded.ExcludePaths) > 0 {
		result.ExcludePaths = loaded.ExcludePaths
	} else {
		result.ExcludePaths = defaults.ExcludePaths
	}

	// Use loaded languages if provided, otherwise defaults
	if len(loaded.Languages) > 0 {
		result.Languages = loaded.Languages
	} else {
		result.Languages = defaults.Languages
	}

	return result
}

// SupportedLanguageNames lists the language names accepted in the
// languages list, in the parser's stable order.
func SupportedLanguageNames() []string {
	supported := lang.Supported()
	names := make([]string, 0, len(supported))
	for _, l := range supported {
		names = append(names, string(l))
	}
	return names
}

// IsSupportedLanguage checks if the given language name can be parsed
func IsSupportedLanguage(name string) bool {
	for _, l := range lang.Supported() {
		if string(l) == name {
			return true
		}
	}
	return false
}
