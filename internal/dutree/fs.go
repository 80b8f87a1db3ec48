package dutree

import (
	"io/fs"
	"os"
)

// FS is the filesystem access a scan needs.
type FS interface {
	// ReadDir lists the immediate entries of a directory, sorted by name.
	ReadDir(name string) ([]fs.DirEntry, error)
	// Stat returns file info, following symbolic links.
	Stat(name string) (fs.FileInfo, error)
	// Lstat returns file info without following symbolic links.
	Lstat(name string) (fs.FileInfo, error)
}

// OS is the host filesystem.
//
//nolint:gochecknoglobals // Stateless adapter
var OS FS = osFS{}

type osFS struct{}

func (osFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

func (osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

func (osFS) Lstat(name string) (fs.FileInfo, error) { return os.Lstat(name) }

// isDir reports whether the entry is a directory. Symlinks are never directories here.
func isDir(d fs.DirEntry) bool {
	return d.Type()&fs.ModeType == fs.ModeDir
}

// isRegular reports whether the entry is a regular file. Symlinks are never regular here.
func isRegular(d fs.DirEntry) bool {
	return d.Type().IsRegular()
}
