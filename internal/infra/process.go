package infra

import (
	"errors"
	"slices"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// IsRunning reports whether pid is alive. An exited child that has not
// been reaped yet counts as gone.
func (pm *ProcessManagerImpl) IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	exists, err := process.PidExists(int32(pid))
	if err != nil || !exists {
		return false
	}

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	status, err := proc.Status()
	if err != nil {
		return true
	}
	return !slices.Contains(status, process.Zombie)
}

// Terminate kills pid and its descendants. Wine forks wineserver and
// friends, so children go first to avoid orphans.
func (pm *ProcessManagerImpl) Terminate(pid int) error {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		return err
	}

	var errs []error
	for _, child := range descendants(root) {
		if err := child.Kill(); err != nil && !errors.Is(err, process.ErrorProcessNotRunning) {
			errs = append(errs, err)
		}
	}
	if err := root.Kill(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// descendants returns all descendants of proc, deepest first.
func descendants(proc *process.Process) []*process.Process {
	children, err := proc.Children()
	if err != nil {
		return nil
	}

	var result []*process.Process
	for _, child := range children {
		result = append(result, descendants(child)...)
		result = append(result, child)
	}
	return result
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
