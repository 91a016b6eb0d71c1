package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

const (
	instancesFileName = "instances.json"

	// emptyInstanceList is returned when nothing has been saved yet.
	emptyInstanceList = "[]"
)

// FileInstanceStore implements domain.InstanceStore with a JSON file in the data dir.
// The payload is opaque: it is written and read back verbatim.
type FileInstanceStore struct {
	path string
}

// NewFileInstanceStore creates a store at <dataDir>/instances.json.
func NewFileInstanceStore(dataDir string) *FileInstanceStore {
	return &FileInstanceStore{path: filepath.Join(dataDir, instancesFileName)}
}

// Path returns the backing file path.
func (s *FileInstanceStore) Path() string {
	return s.path
}

// Save replaces the stored blob atomically.
func (s *FileInstanceStore) Save(data string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Serialize concurrent writers (CLI and a running launch in parallel)
	lockFile, err := os.OpenFile(s.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() { _ = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN) }()

	return s.atomicWrite([]byte(data))
}

// Load returns the stored blob, or "[]" if the file does not exist.
func (s *FileInstanceStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyInstanceList, nil
		}
		return "", fmt.Errorf("failed to read instances: %w", err)
	}
	return string(data), nil
}

// atomicWrite writes to a temp file and renames it over the target.
func (s *FileInstanceStore) atomicWrite(data []byte) error {
	// Unique per process to avoid racing another writer's temp file
	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write instances: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write instances: %w", err)
	}
	return nil
}

// Ensure FileInstanceStore implements domain.InstanceStore.
var _ domain.InstanceStore = (*FileInstanceStore)(nil)
