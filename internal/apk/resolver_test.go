package apk

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, parts ...string) string {
	t.Helper()
	p := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte("ELF"), 0644))
	return p
}

func TestResolver_PrefersUnstrippedDir(t *testing.T) {
	build := t.TempDir()
	unstripped := touch(t, build, "lib.unstripped", "libchrome.so")
	touch(t, build, "libchrome.so")

	paths, err := NewResolver(build).Resolve([]string{"libchrome.so"})

	require.NoError(t, err)
	assert.Equal(t, []string{unstripped}, paths)
}

func TestResolver_FallsBackToBuildRoot(t *testing.T) {
	build := t.TempDir()
	root := touch(t, build, "libchrome.so")

	paths, err := NewResolver(build).Resolve([]string{"libchrome.so"})

	require.NoError(t, err)
	assert.Equal(t, []string{root}, paths)
}

func TestResolver_MissingLibraryIsResolutionError(t *testing.T) {
	build := t.TempDir()
	touch(t, build, "lib.unstripped", "libchrome.so")

	_, err := NewResolver(build).Resolve([]string{"libchrome.so", "libmissing.so"})

	var resErr *ResolutionError
	require.Error(t, err)
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, "libmissing.so", resErr.Library)
}

func TestResolver_SecondaryABI(t *testing.T) {
	build := t.TempDir()
	primary := touch(t, build, "lib.unstripped", "libchrome.so")
	secondary := touch(t, build, "android_clang_arm", "lib.unstripped", "libchrome.so")
	onlyPrimary := touch(t, build, "lib.unstripped", "libonly64.so")

	paths, err := NewResolver(build).Resolve([]string{"libchrome.so", "libonly64.so"})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{primary, secondary, onlyPrimary}, paths)
}

func TestResolver_AmbiguousSecondaryABI(t *testing.T) {
	build := t.TempDir()
	touch(t, build, "lib.unstripped", "libchrome.so")
	require.NoError(t, os.MkdirAll(filepath.Join(build, "android_clang_arm"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(build, "android_clang_x86"), 0755))

	_, err := NewResolver(build).Resolve([]string{"libchrome.so"})

	var cfgErr *ConfigError
	require.Error(t, err)
	assert.True(t, errors.As(err, &cfgErr))
}

func TestResolver_IgnoresSecondaryABIFiles(t *testing.T) {
	build := t.TempDir()
	touch(t, build, "lib.unstripped", "libchrome.so")
	touch(t, build, "android_clang_arm.ninja")
	touch(t, build, "android_clang_x86")
	require.NoError(t, os.MkdirAll(filepath.Join(build, "android_clang_arm"), 0755))

	dir, err := NewResolver(build).SecondaryABIDir()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(build, "android_clang_arm"), dir)
}

func TestResolver_NoNames(t *testing.T) {
	paths, err := NewResolver(t.TempDir()).Resolve(nil)

	require.NoError(t, err)
	assert.Empty(t, paths)
}
