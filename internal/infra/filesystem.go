// Package infra implements infrastructure concerns (process, filesystem, storage).
package infra

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// homePrefix is the home-directory shorthand accepted on input paths.
const homePrefix = "~/"

// FileSystemManagerImpl implements domain.FileSystemManager on top of afero.
type FileSystemManagerImpl struct {
	fs      afero.Fs
	homeDir string
}

// NewFileSystemManager creates a filesystem manager on the real filesystem.
// An unresolvable home directory leaves "~/" paths unexpanded.
func NewFileSystemManager() *FileSystemManagerImpl {
	home, _ := os.UserHomeDir()
	return &FileSystemManagerImpl{fs: afero.NewOsFs(), homeDir: home}
}

// NewFileSystemManagerWithHome creates a filesystem manager with custom home (for testing).
func NewFileSystemManagerWithHome(home string) *FileSystemManagerImpl {
	return &FileSystemManagerImpl{fs: afero.NewOsFs(), homeDir: home}
}

// NewFileSystemManagerWithFs creates a filesystem manager over any afero.Fs (for testing).
func NewFileSystemManagerWithFs(fs afero.Fs, home string) *FileSystemManagerImpl {
	return &FileSystemManagerImpl{fs: fs, homeDir: home}
}

// Fs returns the underlying filesystem.
func (fm *FileSystemManagerImpl) Fs() afero.Fs {
	return fm.fs
}

// Exists checks if a path exists.
func (fm *FileSystemManagerImpl) Exists(path string) bool {
	ok, err := afero.Exists(fm.fs, path)
	return err == nil && ok
}

// IsDir checks if a path exists and is a directory.
func (fm *FileSystemManagerImpl) IsDir(path string) bool {
	ok, err := afero.IsDir(fm.fs, path)
	return err == nil && ok
}

// ExpandHome expands a leading "~/" to the user's home directory.
// Never touches the filesystem and never fails: without a known home
// directory the path is returned as given.
func (fm *FileSystemManagerImpl) ExpandHome(path string) string {
	if !strings.HasPrefix(path, homePrefix) {
		return path
	}
	if fm.homeDir == "" {
		return path
	}
	return filepath.Join(fm.homeDir, path[len(homePrefix):])
}

// Ensure FileSystemManagerImpl implements domain.FileSystemManager.
var _ domain.FileSystemManager = (*FileSystemManagerImpl)(nil)
