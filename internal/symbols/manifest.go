package symbols

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/pipetools/internal/filelock"
)

// manifestSuffix is appended to the symbols dir path to name its manifest.
// The manifest sits beside the dir, like its lock file, so the dir holds
// nothing but symbol trees.
const manifestSuffix = ".manifest.json"

// ManifestPathFor returns the manifest path for symbolsDir.
func ManifestPathFor(symbolsDir string) string {
	return filepath.Clean(strings.TrimRight(symbolsDir, `/\`)) + manifestSuffix
}

// Manifest records which binaries a run processed. It carries the
// aggregate verdict only, never per-binary outcomes.
type Manifest struct {
	RunID      string    `json:"run_id"`
	Package    string    `json:"package"`
	BuildDir   string    `json:"build_dir"`
	Libraries  []string  `json:"libraries"`
	Jobs       int       `json:"jobs"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Failed     bool      `json:"failed"`
}

// WriteManifest stores m atomically at ManifestPathFor(symbolsDir).
func WriteManifest(symbolsDir string, m Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	p := ManifestPathFor(symbolsDir)
	if err := filelock.AtomicWrite(p, append(data, '\n')); err != nil {
		return "", err
	}
	return p, nil
}
