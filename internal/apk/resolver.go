package apk

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	unstrippedDir = "lib.unstripped"

	// secondaryABIGlob matches output directories of an additional target
	// ABI built alongside the primary one.
	secondaryABIGlob = "android_clang_*"
)

// Resolver maps library names to unstripped binaries under a build dir.
type Resolver struct {
	BuildDir string
}

// NewResolver creates a Resolver rooted at buildDir.
func NewResolver(buildDir string) *Resolver {
	return &Resolver{BuildDir: buildDir}
}

// SecondaryABIDir returns the single secondary ABI output directory, or ""
// when there is none. Only directories count; a plain file matching the
// pattern is ignored. More than one is a configuration error.
func (r *Resolver) SecondaryABIDir() (string, error) {
	matches, err := filepath.Glob(filepath.Join(r.BuildDir, secondaryABIGlob))
	if err != nil {
		return "", fmt.Errorf("failed to search for secondary ABI dirs: %w", err)
	}

	var dirs []string
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			dirs = append(dirs, m)
		}
	}

	switch len(dirs) {
	case 0:
		return "", nil
	case 1:
		return dirs[0], nil
	default:
		sort.Strings(dirs)
		return "", NewConfigError("build-dir", fmt.Sprintf("found %d secondary ABI directories, expected at most one: %v", len(dirs), dirs))
	}
}

// Resolve returns the deduplicated, sorted set of on-disk paths for names.
// Each name yields its primary path (lib.unstripped, falling back to the
// build dir root) and, when a secondary ABI dir exists and contains it, the
// secondary unstripped path.
func (r *Resolver) Resolve(names []string) ([]string, error) {
	secondary, err := r.SecondaryABIDir()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, name := range names {
		primary, ok := r.primaryPath(name)
		if !ok {
			return nil, NewResolutionError(name, r.BuildDir)
		}
		add(primary)

		if secondary != "" {
			candidate := filepath.Join(secondary, unstrippedDir, name)
			if exists(candidate) {
				add(candidate)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func (r *Resolver) primaryPath(name string) (string, bool) {
	candidates := []string{
		filepath.Join(r.BuildDir, unstrippedDir, name),
		filepath.Join(r.BuildDir, name),
	}
	for _, c := range candidates {
		if exists(c) {
			return c, true
		}
	}
	return "", false
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
