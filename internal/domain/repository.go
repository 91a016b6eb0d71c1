package domain

import (
	"context"
	"time"
)

// ProcessManager handles OS process operations by PID.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// IsRunning reports whether pid is alive. Zombies count as exited.
	IsRunning(pid int) bool

	// Terminate kills the process and all its descendants, children first.
	Terminate(pid int) error
}

// FileSystemManager handles path resolution and existence checks.
type FileSystemManager interface {
	// Exists checks if a path exists.
	Exists(path string) bool

	// IsDir checks if a path exists and is a directory.
	IsDir(path string) bool

	// ExpandHome expands a leading "~/" to the user's home directory.
	ExpandHome(path string) string
}

// ProcessHandle is the native handle of a spawned child.
// Exactly one supervisor goroutine calls Wait on it.
type ProcessHandle interface {
	Pid() int
	Wait() error
}

// Spawner starts child processes.
type Spawner interface {
	Spawn(spec SpawnSpec) (ProcessHandle, error)
}

// EventPublisher accepts completion events from any number of goroutines.
type EventPublisher interface {
	Publish(event CompletionEvent) error
}

// Launcher validates a launch request, spawns the game and hands it to the supervisor.
type Launcher interface {
	// Launch returns the PID once the process is spawned and supervised.
	Launch(ctx context.Context, req LaunchRequest) (int, error)

	// Stop terminates a running instance.
	Stop(instanceID string) error

	// Running returns the games currently being supervised.
	Running() []RunningProcess
}

// Discovery scans the filesystem for bottles and games.
type Discovery interface {
	// ListContainers returns the names of the directories directly under root.
	ListContainers(root string) ([]string, error)

	// FindExecutables returns .exe files under root, at most five directory levels down.
	FindExecutables(root string) []string

	// ScanGameDirectories runs FindExecutables on every directory under root.
	ScanGameDirectories(root string) ([]GameDirectoryInfo, error)

	// ExtractKeywords returns search keywords for the game owning executablePath.
	ExtractKeywords(executablePath string) []string
}

// InstanceStore persists the instance list as an opaque blob.
type InstanceStore interface {
	// Save replaces the stored blob.
	Save(data string) error

	// Load returns the stored blob, or "[]" when nothing was saved yet.
	Load() (string, error)

	// Path returns the backing file path.
	Path() string
}

// PlaytimeStore records finished play sessions.
type PlaytimeStore interface {
	// Record stores one completion event.
	Record(event CompletionEvent) error

	// Total returns the summed play time of an instance.
	Total(instanceID string) (time.Duration, error)

	// Sessions returns recorded sessions of an instance, newest first.
	Sessions(instanceID string) ([]PlaySession, error)

	// Close releases the database connection.
	Close() error
}
