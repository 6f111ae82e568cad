package exclude

import (
	"os"
	"path/filepath"
	"strings"
)

// DependencyDirs lists directories that hold third-party or generated
// code rather than project sources, with the reason each was excluded.
type DependencyDirs struct {
	// Directories to exclude, relative to the project root.
	Directories []string
	// Reasons maps each directory to why it was excluded.
	Reasons map[string]string
}

// DetectDependencyDirs scans the project root for dependency and build
// directories that should never enter correlation. Detection relies
// only on marker files, and nested projects are found at any depth.
func DetectDependencyDirs(projectRoot string) *DependencyDirs {
	result := &DependencyDirs{
		Directories: []string{},
		Reasons:     make(map[string]string),
	}

	_ = filepath.WalkDir(projectRoot, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if p == projectRoot {
			return nil
		}
		relPath, err := filepath.Rel(projectRoot, p)
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if contains(result.Directories, relPath) {
				return filepath.SkipDir
			}
			for _, excluded := range result.Directories {
				if strings.HasPrefix(relPath, excluded+string(filepath.Separator)) {
					return filepath.SkipDir
				}
			}
			// never descend into dependency trees, detected or not
			switch d.Name() {
			case "node_modules", "vendor", "target", ".git":
				return filepath.SkipDir
			}
			return nil
		}

		relDir, err := filepath.Rel(projectRoot, filepath.Dir(p))
		if err != nil {
			return nil
		}

		switch d.Name() {
		case "package.json":
			markSibling(projectRoot, relDir, "node_modules", "", result,
				"Node.js dependencies (package.json detected)")

		case "go.mod":
			markSibling(projectRoot, relDir, "vendor", "modules.txt", result,
				"Go vendored dependencies (vendor/modules.txt detected)")

		case "pom.xml":
			markSibling(projectRoot, relDir, "target", "", result,
				"Maven build output (pom.xml detected)")

		case "Cargo.toml":
			markSibling(projectRoot, relDir, "target", "", result,
				"Cargo build output (Cargo.toml detected)")

		case "build.gradle", "build.gradle.kts":
			markSibling(projectRoot, relDir, "build", "", result,
				"Gradle build output (build script detected)")

		case "pyvenv.cfg":
			if !contains(result.Directories, relDir) {
				result.Directories = append(result.Directories, relDir)
				result.Reasons[relDir] = "Python virtual environment (pyvenv.cfg detected)"
			}
		}
		return nil
	})

	return result
}

// markSibling excludes relDir/name when it exists; when markerFile is
// non-empty, the directory must also contain that file.
func markSibling(projectRoot, relDir, name, markerFile string, result *DependencyDirs, reason string) {
	dir := filepath.Join(relDir, name)
	if relDir == "." {
		dir = name
	}
	abs := filepath.Join(projectRoot, dir)
	if markerFile != "" {
		if !fileExists(filepath.Join(abs, markerFile)) {
			return
		}
	} else if !dirExists(abs) {
		return
	}
	if !contains(result.Directories, dir) {
		result.Directories = append(result.Directories, dir)
		result.Reasons[dir] = reason
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
