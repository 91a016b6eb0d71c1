// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// GameFinishedEvent is the event name delivered to the presentation layer
// when a launched game exits.
const GameFinishedEvent = "game-finished"

// LaunchRequest is what the caller hands to the launcher.
// Paths may use the "~/" home shorthand.
type LaunchRequest struct {
	InstanceID         string
	GameExecutablePath string
	ContainerPath      string // Bottle directory (Wine prefix)
	RuntimeAppPath     string // e.g. /Applications/CrossOver.app
}

// LaunchContext is a LaunchRequest after path expansion and existence checks.
// It is only ever built when the executable, runtime binary and container exist.
type LaunchContext struct {
	InstanceID    string
	Executable    string
	RuntimeBinary string
	ContainerName string
	ContainerPath string
}

// SpawnSpec describes a child process to start.
type SpawnSpec struct {
	Path string
	Args []string
	Env  []string
}

// RunningProcess is the process table's view of a launched game.
// The native handle is not part of it: only the supervisor goroutine holds that.
type RunningProcess struct {
	InstanceID string
	PID        int
	StartedAt  time.Time
}

// CompletionEvent is emitted exactly once when a supervised game exits.
type CompletionEvent struct {
	InstanceID  string `json:"instance_id"`
	DurationSec uint64 `json:"duration_sec"`
}

// GameDirectoryInfo lists the executables found under one game directory.
type GameDirectoryInfo struct {
	DirectoryName string   `json:"directory_name"`
	Executables   []string `json:"executables"`
}

// PlaySession is one finished run recorded in the playtime ledger.
type PlaySession struct {
	InstanceID  string
	DurationSec uint64
	FinishedAt  time.Time
}
