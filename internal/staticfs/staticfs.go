// internal/staticfs/staticfs.go
//
// Static content tree.
//
// Context
// -------
// Two places ask "is this path a real file or directory under dirroot?":
//
//   • the cleaner's collision guard, which refuses a pretty path that would
//     shadow real content, and
//   • the front controller, which serves real content directly and sends
//     everything else through the uncleaner.
//
// The tree is an afero.Fs so tests run against MemMapFs and production wraps
// the OS filesystem read-only at dirroot.
//
// Notes
// -----
// • Lookups are by URL path (slash separated, already decoded).
// • ".." can not escape the root; BasePathFs enforces it.
package staticfs

import (
	"net/http"
	"os"
	"path"

	"github.com/spf13/afero"
)

// Tree answers existence questions about the static content tree.
type Tree struct {
	fs afero.Fs
}

// New wraps fs.  fs is expected to be rooted at the site directory.
func New(fs afero.Fs) *Tree { return &Tree{fs: fs} }

// NewOS returns a read-only Tree rooted at dirroot on the OS filesystem.
func NewOS(dirroot string) *Tree {
	return New(afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), dirroot)))
}

// Exists reports whether p names a file or a directory.
func (t *Tree) Exists(p string) bool {
	_, ok := t.stat(p)
	return ok
}

// IsDir reports whether p names a directory.
func (t *Tree) IsDir(p string) bool {
	fi, ok := t.stat(p)
	return ok && fi.IsDir()
}

// IsFile reports whether p names a regular file.
func (t *Tree) IsFile(p string) bool {
	fi, ok := t.stat(p)
	return ok && fi.Mode().IsRegular()
}

// FileSystem exposes the tree to http.FileServer.
func (t *Tree) FileSystem() http.FileSystem {
	return afero.NewHttpFs(t.fs)
}

func (t *Tree) stat(p string) (os.FileInfo, bool) {
	if t == nil || t.fs == nil || p == "" {
		return nil, false
	}
	fi, err := t.fs.Stat(path.Clean("/" + p))
	if err != nil {
		return nil, false
	}
	return fi, true
}
