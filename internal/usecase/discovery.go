package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// MaxScanDepth is how many directory levels below the root FindExecutables descends.
const MaxScanDepth = 5

// ExecutableExt is matched case-sensitively.
const ExecutableExt = ".exe"

// DiscoveryImpl implements domain.Discovery on an afero filesystem.
type DiscoveryImpl struct {
	fs        afero.Fs
	fsManager domain.FileSystemManager
	logger    *zap.Logger
}

// NewDiscovery creates a discovery service. fsManager expands "~/" in inputs.
func NewDiscovery(fs afero.Fs, fsManager domain.FileSystemManager, logger *zap.Logger) domain.Discovery {
	return &DiscoveryImpl{
		fs:        fs,
		fsManager: fsManager,
		logger:    logger,
	}
}

// ListContainers returns the names of the directories directly under root.
func (d *DiscoveryImpl) ListContainers(root string) ([]string, error) {
	root = d.fsManager.ExpandHome(root)

	exists, err := afero.Exists(d.fs, root)
	if err != nil || !exists {
		return nil, &domain.PathNotFoundError{Kind: domain.PathKindContainerRoot, Path: root}
	}

	entries, err := afero.ReadDir(d.fs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if d.isDirEntry(root, entry) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// isDirEntry reports whether entry is a directory or a symlink to one.
// ReadDir reports links without resolving them.
func (d *DiscoveryImpl) isDirEntry(dir string, entry os.FileInfo) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Mode()&os.ModeSymlink == 0 {
		return false
	}
	info, err := d.fs.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.IsDir()
}

// isExecutableName rejects a bare ".exe", which has no stem.
func isExecutableName(name string) bool {
	return len(name) > len(ExecutableExt) && filepath.Ext(name) == ExecutableExt
}

// FindExecutables returns .exe files under root, depth first.
// Files directly in root are at depth 0; nothing below MaxScanDepth is visited.
// Unreadable directories are skipped along with their subtree. Symlinks
// below root are not followed, so a link cycle cannot recurse.
func (d *DiscoveryImpl) FindExecutables(root string) []string {
	var found []string
	d.walk(d.fsManager.ExpandHome(root), 0, &found)
	return found
}

func (d *DiscoveryImpl) walk(dir string, depth int, found *[]string) {
	if depth > MaxScanDepth {
		return
	}

	entries, err := afero.ReadDir(d.fs, dir)
	if err != nil {
		if !os.IsNotExist(err) {
			d.logger.Debug("skipping unreadable directory",
				zap.String("path", dir),
				zap.Error(err))
		}
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			d.walk(path, depth+1, found)
			continue
		}
		if isExecutableName(entry.Name()) {
			*found = append(*found, path)
		}
	}
}

// ScanGameDirectories runs FindExecutables on each directory under root
// and keeps the ones that contain at least one executable.
func (d *DiscoveryImpl) ScanGameDirectories(root string) ([]domain.GameDirectoryInfo, error) {
	root = d.fsManager.ExpandHome(root)

	isDir, err := afero.IsDir(d.fs, root)
	if err != nil || !isDir {
		return nil, fmt.Errorf("%w: %q", domain.ErrScanRootInvalid, root)
	}

	entries, err := afero.ReadDir(d.fs, root)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", domain.ErrScanRootInvalid, root, err)
	}

	results := make([]domain.GameDirectoryInfo, 0)
	for _, entry := range entries {
		if !d.isDirEntry(root, entry) {
			continue
		}

		exes := d.FindExecutables(filepath.Join(root, entry.Name()))
		if len(exes) == 0 {
			continue
		}
		results = append(results, domain.GameDirectoryInfo{
			DirectoryName: entry.Name(),
			Executables:   exes,
		})
	}

	d.logger.Debug("scanned game directories",
		zap.String("root", root),
		zap.Int("games", len(results)))
	return results, nil
}

// ExtractKeywords returns the name of the executable's directory plus the
// stems of the .exe files directly inside it, sorted and deduplicated.
func (d *DiscoveryImpl) ExtractKeywords(executablePath string) []string {
	path := d.fsManager.ExpandHome(executablePath)

	parent := filepath.Dir(path)
	if parent == path || parent == "." {
		return []string{}
	}

	if ok, err := afero.DirExists(d.fs, parent); err != nil || !ok {
		return []string{}
	}

	keywords := make([]string, 0, 4)
	if name := filepath.Base(parent); name != string(filepath.Separator) {
		keywords = append(keywords, name)
	}

	entries, err := afero.ReadDir(d.fs, parent)
	if err != nil {
		d.logger.Debug("cannot list executable directory",
			zap.String("path", parent),
			zap.Error(err))
	}
	for _, entry := range entries {
		if entry.IsDir() || !isExecutableName(entry.Name()) {
			continue
		}
		keywords = append(keywords, strings.TrimSuffix(entry.Name(), ExecutableExt))
	}

	slices.Sort(keywords)
	return slices.Compact(keywords)
}

// Ensure DiscoveryImpl implements domain.Discovery.
var _ domain.Discovery = (*DiscoveryImpl)(nil)
