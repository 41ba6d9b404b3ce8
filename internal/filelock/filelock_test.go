package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestLockPathFor(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"/out/symbols", "/out/symbols.lock"},
		{"/out/symbols/", "/out/symbols.lock"},
		{"symbols", "symbols.lock"},
	}

	for _, tt := range tests {
		if got := LockPathFor(tt.dir); got != tt.want {
			t.Errorf("LockPathFor(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestDirLockTryLock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "symbols")

	lock1 := NewDirLock(dir)
	lock2 := NewDirLock(dir)

	if err := lock1.TryLock(); err != nil {
		t.Fatalf("First TryLock failed: %v", err)
	}

	// Second holder must be rejected while the first one is held
	err := lock2.TryLock()
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("Expected ErrLocked, got %v", err)
	}

	if err := lock1.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	if err := lock2.TryLock(); err != nil {
		t.Errorf("TryLock should succeed after unlock: %v", err)
	}
	lock2.Unlock()
}

func TestDirLockSurvivesDirRemoval(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "symbols")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	lock := NewDirLock(dir)
	if err := lock.TryLock(); err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	defer lock.Unlock()

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(lock.Path()); err != nil {
		t.Errorf("Lock file should survive removal of the guarded dir: %v", err)
	}
}

func TestAtomicWrite(t *testing.T) {
	targetPath := filepath.Join(t.TempDir(), "nested", "manifest.json")

	content := []byte(`{"failed":false}`)
	if err := AtomicWrite(targetPath, content); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	readContent, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(readContent) != string(content) {
		t.Errorf("Expected content %q, got %q", string(content), string(readContent))
	}

	info, err := os.Stat(targetPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected permissions 0644, got %v", info.Mode().Perm())
	}
}

func TestAtomicWriteNoTempFileLeftBehind(t *testing.T) {
	tmpDir := t.TempDir()
	targetPath := filepath.Join(tmpDir, "manifest.json")

	if err := os.WriteFile(targetPath, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWrite(targetPath, []byte("new")); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read directory: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "manifest.json" {
		var files []string
		for _, entry := range entries {
			files = append(files, entry.Name())
		}
		t.Errorf("Expected only manifest.json, found %v", files)
	}
}

func TestConcurrentAtomicWrites(t *testing.T) {
	targetPath := filepath.Join(t.TempDir(), "manifest.json")

	const goroutines = 10
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			if err := AtomicWrite(targetPath, []byte(string(rune('A'+id)))); err != nil {
				t.Errorf("AtomicWrite failed for goroutine %d: %v", id, err)
			}
		}(i)
	}

	wg.Wait()

	content, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if len(content) != 1 {
		t.Errorf("Expected 1 byte, got %d bytes: %q", len(content), string(content))
	}
}
