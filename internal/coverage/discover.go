package coverage

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// discoverySearchDirs are the subdirectories tried in addition to the
// project root when looking for reports at conventional locations.
var discoverySearchDirs = []string{".", "coverage", "target", "build"}

// maxGlobWalkDepth bounds the recursive search for glob locations such
// as TestResults/**/coverage.cobertura.xml.
const maxGlobWalkDepth = 8

// DiscoverReports collects coverage report candidates under root by
// checking every conventional location. Unreadable files are skipped;
// discovery only fails when root itself is unusable. The returned
// candidates carry root-relative forward-slash paths, ready for Sniff.
func DiscoverReports(root string) ([]Candidate, error) {
	if root == "" {
		root = "."
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}

	seen := map[string]bool{}
	var candidates []Candidate
	add := func(rel string) {
		rel = filepath.ToSlash(rel)
		if seen[rel] {
			return
		}
		seen[rel] = true
		full := filepath.Join(root, filepath.FromSlash(rel))
		fi, err := os.Stat(full)
		if err != nil || fi.IsDir() {
			return
		}
		data, err := ReadReportFile(full)
		if err != nil {
			return
		}
		candidates = append(candidates, Candidate{Path: rel, Data: data})
	}

	for _, dir := range discoverySearchDirs {
		for _, loc := range conventionalLocations {
			if strings.Contains(loc, "**") {
				continue
			}
			rel := loc
			if dir != "." {
				rel = path.Join(dir, loc)
			}
			add(rel)
		}
	}
	walkGlobLocations(root, add)

	return candidates, nil
}

// walkGlobLocations expands the ** locations by walking their fixed
// prefix directory, bounded in depth so pathological trees cannot stall
// discovery.
func walkGlobLocations(root string, add func(string)) {
	for _, loc := range conventionalLocations {
		star := strings.Index(loc, "**")
		if star < 0 {
			continue
		}
		prefix := strings.TrimSuffix(loc[:star], "/")
		base := path.Base(loc)
		top := filepath.Join(root, filepath.FromSlash(prefix))

		_ = filepath.WalkDir(top, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				rel, err := filepath.Rel(top, p)
				if err == nil && strings.Count(filepath.ToSlash(rel), "/") >= maxGlobWalkDepth {
					return fs.SkipDir
				}
				return nil
			}
			if d.Name() == base {
				if rel, err := filepath.Rel(root, p); err == nil {
					add(rel)
				}
			}
			return nil
		})
	}
}

// FindReport discovers candidates under root and sniffs them, returning
// the winning detection together with its bytes. Returns ErrNoReport
// when nothing under root probes as a coverage report.
func FindReport(root string) (*Detection, []byte, error) {
	candidates, err := DiscoverReports(root)
	if err != nil {
		return nil, nil, err
	}
	det, err := Sniff(candidates)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range candidates {
		if c.Path == det.Path {
			return det, c.Data, nil
		}
	}
	return nil, nil, ErrNoReport
}
