package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/covgap/covgap/internal/config"
	"github.com/covgap/covgap/internal/correlate"
	"github.com/covgap/covgap/internal/coverage"
	"github.com/covgap/covgap/internal/exclude"
	"github.com/covgap/covgap/internal/lang"
	"github.com/covgap/covgap/internal/output"
	"github.com/covgap/covgap/internal/store"
)

// loadConfig resolves the effective configuration: an explicit --config
// path wins, otherwise the nearest .covgap/config.yaml, otherwise the
// built-in defaults.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load(".")
}

// projectRoot returns the directory the analysis is anchored to: the
// parent of the nearest .covgap directory, or the working directory when
// the project was never initialized.
func projectRoot() string {
	configDir, err := config.FindConfigDir(".")
	if err != nil {
		return "."
	}
	return filepath.Dir(configDir)
}

// projectName derives the baseline store key for a project root.
func projectName(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Base(root)
	}
	return filepath.Base(abs)
}

// resolveReport locates, reads, parses, and normalizes the coverage
// report. An explicit file beats the configured file beats discovery,
// and an explicit format beats the configured format beats sniffing.
func resolveReport(cfg *config.Config, root, file, format string) (*coverage.Result, *coverage.Detection, error) {
	if file == "" {
		file = cfg.CoverageFile
	}
	if format == "" {
		format = cfg.CoverageFormat
	}

	var det *coverage.Detection
	var data []byte
	var err error

	if file != "" {
		// Relative paths are tried against the working directory,
		// then the project root (where config-declared paths live).
		path := file
		if !filepath.IsAbs(path) {
			if _, statErr := os.Stat(path); statErr != nil {
				path = filepath.Join(root, file)
			}
		}
		data, err = coverage.ReadReportFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("coverage file: %w", err)
		}
		det, err = coverage.Sniff([]coverage.Candidate{{Path: file, Data: data}})
		if err != nil && format == "" {
			return nil, nil, fmt.Errorf("%s: %w", file, err)
		}
		if det == nil {
			det = &coverage.Detection{Path: file}
		}
	} else {
		det, data, err = coverage.FindReport(root)
		if err != nil {
			return nil, nil, err
		}
	}

	if format != "" {
		f, err := coverage.ParseFormatName(format)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		det.Format = f
	}

	res, err := coverage.Parse(data, det.Format)
	if err != nil {
		return nil, nil, err
	}
	return coverage.Normalize(res, root), det, nil
}

// collectSources gathers the files handed to the correlator. Explicit
// paths (files or directories) are walked; with no paths every file the
// report mentions that exists on disk is used. Excluded paths,
// dependency directories, and disabled languages are filtered out.
func collectSources(cfg *config.Config, root string, paths []string, report *coverage.CoverageReport) ([]correlate.SourceFile, error) {
	matcher := exclude.NewMatcher(cfg.ExcludePaths)
	allowed := make(map[lang.Language]bool, len(cfg.Languages))
	for _, name := range cfg.Languages {
		allowed[lang.Language(name)] = true
	}

	deps := exclude.DetectDependencyDirs(root)
	skipDirs := make(map[string]bool, len(deps.Directories))
	for _, d := range deps.Directories {
		skipDirs[filepath.ToSlash(d)] = true
	}

	wanted := func(rel string) bool {
		language := lang.FromPath(rel)
		if language == "" || !allowed[language] {
			return false
		}
		return !matcher.Match(rel)
	}

	var rels []string
	if len(paths) == 0 {
		for _, rel := range sortedReportPaths(report) {
			if wanted(rel) {
				rels = append(rels, rel)
			}
		}
	} else {
		for _, p := range paths {
			// Arguments resolve against the working directory, the
			// way every other file-taking tool treats them.
			abs, err := filepath.Abs(p)
			if err != nil {
				return nil, fmt.Errorf("path %s: %w", p, err)
			}
			info, err := os.Stat(abs)
			if err != nil {
				return nil, fmt.Errorf("path %s: %w", p, err)
			}
			if !info.IsDir() {
				rel := relToRoot(root, abs)
				if wanted(rel) {
					rels = append(rels, rel)
				}
				continue
			}
			err = filepath.WalkDir(abs, func(walkPath string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				rel := relToRoot(root, walkPath)
				if d.IsDir() {
					if rel != "." && (skipDirs[rel] || matcher.Match(rel) || strings.HasPrefix(d.Name(), ".")) {
						return filepath.SkipDir
					}
					return nil
				}
				if wanted(rel) {
					rels = append(rels, rel)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("walking %s: %w", p, err)
			}
		}
	}

	sort.Strings(rels)
	sources := make([]correlate.SourceFile, 0, len(rels))
	seen := make(map[string]bool, len(rels))
	for _, rel := range rels {
		if seen[rel] {
			continue
		}
		seen[rel] = true
		src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			// report entries for deleted files are expected
			continue
		}
		sources = append(sources, correlate.SourceFile{Path: rel, Source: src})
	}
	return sources, nil
}

// sortedReportPaths returns the report's file paths in stable order.
func sortedReportPaths(report *coverage.CoverageReport) []string {
	if report == nil {
		return nil
	}
	paths := make([]string, 0, len(report.Files))
	for p := range report.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// relToRoot converts a path to the root-relative forward-slash form the
// normalized report uses.
func relToRoot(root, path string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// openBaselineStore opens the baseline database. With create set, the
// .covgap directory is created when missing; otherwise a missing
// directory means no store and a nil result.
func openBaselineStore(create bool) (*store.Store, error) {
	if baselineDB != "" {
		return store.OpenPath(baselineDB)
	}
	configDir, err := config.FindConfigDir(".")
	if errors.Is(err, config.ErrConfigNotFound) {
		if !create {
			return nil, nil
		}
		configDir, err = config.EnsureConfigDir(".")
	}
	if err != nil {
		return nil, err
	}
	return store.Open(configDir)
}

// loadBaseline fetches the stored baseline report for the project, or
// nil when none was ever recorded.
func loadBaseline(root string) (*coverage.CoverageReport, error) {
	db, err := openBaselineStore(false)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, nil
	}
	defer db.Close()

	rec, err := db.Latest(projectName(root))
	if errors.Is(err, store.ErrNoBaseline) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Report, nil
}

// render writes v to the command's stdout in the selected output format.
func render(cmd *cobra.Command, v interface{}) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	r, err := output.NewRenderer(format)
	if err != nil {
		return err
	}
	return r.Render(cmd.OutOrStdout(), v)
}

// reportDiagnostics prints the detection and any parse warnings to
// stderr when --verbose is set. Warnings never go to stdout; stdout is
// reserved for the rendered result.
func reportDiagnostics(det *coverage.Detection, res *coverage.Result) {
	if !verbose {
		return
	}
	if det != nil {
		fmt.Fprintf(os.Stderr, "covgap: using %s report at %s\n", det.Format, det.Path)
	}
	for _, w := range res.Warnings {
		if w.Path != "" && w.Line > 0 {
			fmt.Fprintf(os.Stderr, "covgap: warning: %s:%d: %s\n", w.Path, w.Line, w.Detail)
		} else if w.Path != "" {
			fmt.Fprintf(os.Stderr, "covgap: warning: %s: %s\n", w.Path, w.Detail)
		} else {
			fmt.Fprintf(os.Stderr, "covgap: warning: %s\n", w.Detail)
		}
	}
}
