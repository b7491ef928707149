package staticfs

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T) *Tree {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/course", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/course/view.php", []byte("<?php"), 0o644))
	require.NoError(t, fs.MkdirAll("/theme", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/theme/styles.css", []byte("body{}"), 0o644))
	return New(fs)
}

func TestExists(t *testing.T) {
	tr := newTree(t)

	assert.True(t, tr.Exists("/course"))
	assert.True(t, tr.Exists("/course/"))
	assert.True(t, tr.Exists("/course/view.php"))
	assert.False(t, tr.Exists("/course/shortname"))
	assert.False(t, tr.Exists(""))
}

func TestIsDirIsFile(t *testing.T) {
	tr := newTree(t)

	assert.True(t, tr.IsDir("/course"))
	assert.False(t, tr.IsFile("/course"))
	assert.True(t, tr.IsFile("/theme/styles.css"))
	assert.False(t, tr.IsDir("/theme/styles.css"))
}

func TestDotDotStaysInside(t *testing.T) {
	tr := newTree(t)
	assert.True(t, tr.Exists("/../course/view.php"))
	assert.False(t, tr.Exists("/../../etc/passwd"))
}

func TestNilTree(t *testing.T) {
	var tr *Tree
	assert.False(t, tr.Exists("/course"))
}
