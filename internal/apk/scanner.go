// Package apk discovers the native libraries shipped inside an Android
// package and maps them to their unstripped counterparts in a build
// output directory.
package apk

import (
	"archive/zip"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// PackageKind identifies the archive layout.
type PackageKind int

const (
	// KindAPK is a classic application package (.apk).
	KindAPK PackageKind = iota
	// KindAAB is an app bundle (.aab).
	KindAAB
)

// String returns the file extension for the kind.
func (k PackageKind) String() string {
	switch k {
	case KindAPK:
		return "apk"
	case KindAAB:
		return "aab"
	default:
		return "unknown"
	}
}

// crazyPrefix is prepended to library names packaged for the crazy linker.
const crazyPrefix = "crazy."

// DefaultIgnoredLibs lists libraries found in packages that are not built
// from this source tree.
var DefaultIgnoredLibs = []string{
	"libarcore_sdk_c.so", // AR support library from the Android SDK
}

var (
	apkLibPattern = regexp.MustCompile(`^lib/[^/]*/\S*[.]so`)
	aabLibPattern = regexp.MustCompile(`^base/lib/[^/]*/\S*[.]so`)
)

// KindFromPath derives the package kind from the file extension.
func KindFromPath(packagePath string) (PackageKind, error) {
	switch filepath.Ext(packagePath) {
	case ".apk":
		return KindAPK, nil
	case ".aab":
		return KindAAB, nil
	default:
		return 0, NewConfigError("package-path", fmt.Sprintf("input file is not apk or aab: %s", packagePath))
	}
}

func libPattern(kind PackageKind) *regexp.Regexp {
	if kind == KindAAB {
		return aabLibPattern
	}
	return apkLibPattern
}

// LibraryNames filters archive entry names down to the set of unique
// library file names. Names in ignored are dropped. The result is sorted.
func LibraryNames(entries []string, kind PackageKind, ignored []string) []string {
	pattern := libPattern(kind)

	skip := make(map[string]bool, len(ignored))
	for _, name := range ignored {
		skip[name] = true
	}

	seen := make(map[string]bool)
	for _, entry := range entries {
		if !pattern.MatchString(entry) {
			continue
		}
		name := strings.ReplaceAll(path.Base(entry), crazyPrefix, "")
		if skip[name] {
			continue
		}
		seen[name] = true
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadEntries returns the names of all entries in a zip archive.
func ReadEntries(archivePath string) ([]string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open package %s: %w", archivePath, err)
	}
	defer zr.Close()

	entries := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		entries = append(entries, f.Name)
	}
	return entries, nil
}

// ScanPackage opens the package at packagePath and returns the native
// library names it ships.
func ScanPackage(packagePath string, ignored []string) ([]string, error) {
	kind, err := KindFromPath(packagePath)
	if err != nil {
		return nil, err
	}

	entries, err := ReadEntries(packagePath)
	if err != nil {
		return nil, err
	}

	return LibraryNames(entries, kind, ignored), nil
}
