package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/25smoking/parascope/internal/core"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func TestDefaultSourceExtensions(t *testing.T) {
	c, err := New(core.ModeC, nil)
	require.NoError(t, err)
	cxx, err := New(core.ModeCXX, nil)
	require.NoError(t, err)

	tests := []struct {
		path   string
		wantC  bool
		wantCX bool
	}{
		{"src/main.c", true, false},
		{"src/main.h", true, true},
		{"src/main.cpp", false, true},
		{"src/main.cc", false, true},
		{"src/main.C", false, true},
		{"src/main.hpp", false, true},
		{"src/main.hxx", false, true},
		{"src/main.go", false, false},
		{"src/c", false, false},
		{"README", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.wantC, c.IsCandidate(tt.path))
			assert.Equal(t, tt.wantCX, cxx.IsCandidate(tt.path))
		})
	}
}

func TestExplicitPatternsReplaceDefaults(t *testing.T) {
	f, err := New(core.ModeC, []string{`\.inc$`, `^vendor/`})
	require.NoError(t, err)

	assert.True(t, f.IsCandidate("lib/x.inc"))
	assert.True(t, f.IsCandidate("vendor/y.txt"))
	assert.False(t, f.IsCandidate("lib/x.c"))
}

func TestInvalidPattern(t *testing.T) {
	_, err := New(core.ModeC, []string{`([`})
	assert.Error(t, err)
}

func TestBinaryModeAcceptsAll(t *testing.T) {
	dir := t.TempDir()
	f, err := New(core.ModeBinary, nil)
	require.NoError(t, err)

	assert.True(t, f.IsCandidate(touch(t, dir, "firmware.bin")))
	assert.True(t, f.IsCandidate(touch(t, dir, "libfoo.so")))
}

func TestBinaryModeDatabaseSibling(t *testing.T) {
	dir := t.TempDir()
	bin := touch(t, dir, "foo.bin")
	db := touch(t, dir, "foo.bin.i64")

	f, err := New(core.ModeBinary, nil)
	require.NoError(t, err)

	assert.False(t, f.IsCandidate(bin))
	assert.True(t, f.IsCandidate(db))

	// 重复调用结果不变
	for i := 0; i < 3; i++ {
		assert.False(t, f.IsCandidate(bin))
		assert.True(t, f.IsCandidate(db))
	}
}

func TestBinaryModeStemSibling(t *testing.T) {
	dir := t.TempDir()
	bin := touch(t, dir, "tool.exe")
	touch(t, dir, "tool.i64")

	f, err := New(core.ModeBinary, nil)
	require.NoError(t, err)
	assert.False(t, f.IsCandidate(bin))
}

func TestBinaryModePatternsStillApplySiblingRule(t *testing.T) {
	dir := t.TempDir()
	bin := touch(t, dir, "foo.bin")
	touch(t, dir, "foo.bin.i64")

	f, err := New(core.ModeBinary, []string{`foo`})
	require.NoError(t, err)
	assert.False(t, f.IsCandidate(bin))
	assert.True(t, f.IsCandidate(bin+".i64"))
}

func TestDatabaseSiblings(t *testing.T) {
	assert.Equal(t, []string{"a/foo.bin.i64", "a/foo.i64"}, DatabaseSiblings("a/foo.bin"))
	assert.Equal(t, []string{"a/foo.i64"}, DatabaseSiblings("a/foo"))
}
