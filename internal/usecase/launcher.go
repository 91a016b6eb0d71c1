package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
	"github.com/eliteGoblin/focusd/cxlaunch/internal/runtime"
)

// LauncherImpl implements domain.Launcher.
type LauncherImpl struct {
	fsManager      domain.FileSystemManager
	runtime        runtime.Runtime
	spawner        domain.Spawner
	supervisor     *Supervisor
	processManager domain.ProcessManager
	clock          clockwork.Clock
	environ        func() []string
	logger         *zap.Logger
}

// NewLauncher creates a launcher that hands every spawned game to supervisor.
func NewLauncher(
	fs domain.FileSystemManager,
	rt runtime.Runtime,
	spawner domain.Spawner,
	supervisor *Supervisor,
	pm domain.ProcessManager,
	clock clockwork.Clock,
	logger *zap.Logger,
) domain.Launcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LauncherImpl{
		fsManager:      fs,
		runtime:        rt,
		spawner:        spawner,
		supervisor:     supervisor,
		processManager: pm,
		clock:          clock,
		environ:        os.Environ,
		logger:         logger,
	}
}

// Launch validates req, starts the game under the runtime and returns its PID.
// The process is registered with the supervisor before Launch returns.
func (l *LauncherImpl) Launch(ctx context.Context, req domain.LaunchRequest) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	lc, err := l.Resolve(req)
	if err != nil {
		return 0, err
	}

	spec := domain.SpawnSpec{
		Path: lc.RuntimeBinary,
		Args: []string{lc.Executable},
		Env:  runtime.BuildEnv(l.environ(), l.runtime.Environment(lc)),
	}

	handle, err := l.spawner.Spawn(spec)
	if err != nil {
		l.logger.Warn("failed to start game",
			zap.String("instance_id", lc.InstanceID),
			zap.String("runtime", lc.RuntimeBinary),
			zap.Error(err))
		return 0, err
	}

	proc := domain.RunningProcess{
		InstanceID: lc.InstanceID,
		PID:        handle.Pid(),
		StartedAt:  l.clock.Now(),
	}
	l.supervisor.Watch(proc, handle)

	l.logger.Info("launched game",
		zap.String("instance_id", lc.InstanceID),
		zap.Int("pid", proc.PID),
		zap.String("bottle", lc.ContainerName),
		zap.String("executable", lc.Executable))

	return proc.PID, nil
}

// Resolve expands the request's paths and checks that everything exists.
// The returned context is only valid when err is nil.
func (l *LauncherImpl) Resolve(req domain.LaunchRequest) (domain.LaunchContext, error) {
	executable := l.fsManager.ExpandHome(req.GameExecutablePath)
	runtimeApp := l.fsManager.ExpandHome(req.RuntimeAppPath)
	containerPath := l.fsManager.ExpandHome(req.ContainerPath)

	if !l.fsManager.Exists(executable) {
		return domain.LaunchContext{}, &domain.PathNotFoundError{Kind: domain.PathKindExecutable, Path: executable}
	}

	binary := l.runtime.BinaryPath(runtimeApp)
	if !l.fsManager.Exists(binary) {
		return domain.LaunchContext{}, &domain.PathNotFoundError{Kind: domain.PathKindRuntime, Path: binary}
	}

	name, err := ContainerName(containerPath)
	if err != nil {
		return domain.LaunchContext{}, err
	}
	if !l.fsManager.IsDir(containerPath) {
		return domain.LaunchContext{}, &domain.PathNotFoundError{Kind: domain.PathKindContainer, Path: containerPath}
	}

	return domain.LaunchContext{
		InstanceID:    req.InstanceID,
		Executable:    executable,
		RuntimeBinary: binary,
		ContainerName: name,
		ContainerPath: containerPath,
	}, nil
}

// Stop terminates a running instance and its child processes.
// The monitor still reports the completion once the process is gone.
// A game that already exited but is not yet reaped is reported as not running.
func (l *LauncherImpl) Stop(instanceID string) error {
	proc, ok := l.supervisor.Table().Get(instanceID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrInstanceNotRunning, instanceID)
	}
	if !l.processManager.IsRunning(proc.PID) {
		return fmt.Errorf("%w: %s (pid %d exited)", domain.ErrInstanceNotRunning, instanceID, proc.PID)
	}

	if err := l.processManager.Terminate(proc.PID); err != nil {
		return fmt.Errorf("failed to stop instance %s (pid %d): %w", instanceID, proc.PID, err)
	}

	l.logger.Info("stopped game",
		zap.String("instance_id", instanceID),
		zap.Int("pid", proc.PID))
	return nil
}

// Running returns the supervised games.
func (l *LauncherImpl) Running() []domain.RunningProcess {
	return l.supervisor.Table().List()
}

// ContainerName returns the bottle name, the last segment of path.
func ContainerName(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", domain.ErrInvalidContainerName)
	}

	name := filepath.Base(filepath.Clean(path))
	switch name {
	case string(filepath.Separator), ".", "..":
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidContainerName, path)
	}
	return name, nil
}

// Ensure LauncherImpl implements domain.Launcher.
var _ domain.Launcher = (*LauncherImpl)(nil)
