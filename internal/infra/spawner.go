package infra

import (
	"errors"
	"os/exec"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// ExecSpawner implements domain.Spawner with os/exec.
type ExecSpawner struct{}

// NewExecSpawner creates a spawner for real child processes.
func NewExecSpawner() *ExecSpawner {
	return &ExecSpawner{}
}

// Spawn starts spec.Path with spec.Args and exactly spec.Env.
// The child gets its own process group so a Ctrl-C in the terminal that
// started us does not reach the game.
func (s *ExecSpawner) Spawn(spec domain.SpawnSpec) (domain.ProcessHandle, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Env = spec.Env
	cmd.SysProcAttr = detachedProcAttr()

	// No stdin/stdout/stderr - wine output is noise for us
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return nil, &domain.SpawnError{Path: spec.Path, Err: err}
	}
	return &cmdHandle{cmd: cmd}, nil
}

// cmdHandle adapts *exec.Cmd to domain.ProcessHandle.
type cmdHandle struct {
	cmd *exec.Cmd
}

func (h *cmdHandle) Pid() int {
	return h.cmd.Process.Pid
}

// Wait blocks until the child exits. A non-zero exit status is a normal
// exit for our purposes; only failures of the wait itself are errors.
func (h *cmdHandle) Wait() error {
	err := h.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// Ensure ExecSpawner implements domain.Spawner.
var _ domain.Spawner = (*ExecSpawner)(nil)
