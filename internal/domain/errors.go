package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPathNotFound is matched by every PathNotFoundError.
	ErrPathNotFound = errors.New("path not found")

	// ErrInvalidContainerName means the container path has no final segment.
	ErrInvalidContainerName = errors.New("cannot derive container name from path")

	// ErrSpawnFailed is matched by every SpawnError.
	ErrSpawnFailed = errors.New("failed to start process")

	// ErrScanRootInvalid means a discovery root is missing or not a directory.
	ErrScanRootInvalid = errors.New("scan root is not a directory")

	// ErrWaitFailed is logged when waiting on a child fails. It never reaches a caller.
	ErrWaitFailed = errors.New("failed to wait for process")

	// ErrInstanceNotRunning is returned by Stop for unknown instances.
	ErrInstanceNotRunning = errors.New("instance is not running")
)

// PathKind identifies which input a PathNotFoundError refers to.
type PathKind string

const (
	PathKindExecutable    PathKind = "executable"
	PathKindRuntime       PathKind = "runtime"
	PathKindContainer     PathKind = "container"
	PathKindContainerRoot PathKind = "container root"
)

// PathNotFoundError reports a missing file or directory with the attempted path.
type PathNotFoundError struct {
	Kind PathKind
	Path string
}

func (e *PathNotFoundError) Error() string {
	switch e.Kind {
	case PathKindExecutable:
		return fmt.Sprintf("executable not found, it may live on an external drive that is not connected: %q", e.Path)
	case PathKindRuntime:
		return fmt.Sprintf("CrossOver runtime binary not found, check the runtime app path: %q", e.Path)
	default:
		return fmt.Sprintf("%s not found: %q", e.Kind, e.Path)
	}
}

// Is makes errors.Is(err, ErrPathNotFound) work.
func (e *PathNotFoundError) Is(target error) bool {
	return target == ErrPathNotFound
}

// SpawnError wraps an OS-level rejection of a spawn (permissions, bad binary).
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawnFailed
}
