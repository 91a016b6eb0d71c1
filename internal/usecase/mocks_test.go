package usecase

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// mockFileSystemManager implements domain.FileSystemManager for testing
type mockFileSystemManager struct {
	home  string
	files map[string]bool
	dirs  map[string]bool
}

func newMockFS(home string) *mockFileSystemManager {
	return &mockFileSystemManager{
		home:  home,
		files: make(map[string]bool),
		dirs:  make(map[string]bool),
	}
}

func (m *mockFileSystemManager) Exists(path string) bool {
	return m.files[path] || m.dirs[path]
}

func (m *mockFileSystemManager) IsDir(path string) bool {
	return m.dirs[path]
}

func (m *mockFileSystemManager) ExpandHome(path string) string {
	if m.home != "" && strings.HasPrefix(path, "~/") {
		return filepath.Join(m.home, path[2:])
	}
	return path
}

// mockProcessManager implements domain.ProcessManager for testing
type mockProcessManager struct {
	mu         sync.Mutex
	terminated []int
	exited     map[int]bool
	err        error
	onTerm     func(pid int)
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.exited[pid]
}

func (m *mockProcessManager) Terminate(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.terminated = append(m.terminated, pid)
	if m.onTerm != nil {
		m.onTerm(pid)
	}
	return nil
}

// fakeHandle blocks in Wait until exit is called.
type fakeHandle struct {
	pid  int
	done chan struct{}
	once sync.Once
	err  error
}

func newFakeHandle(pid int) *fakeHandle {
	return &fakeHandle{pid: pid, done: make(chan struct{})}
}

func (h *fakeHandle) Pid() int {
	return h.pid
}

func (h *fakeHandle) Wait() error {
	<-h.done
	return h.err
}

func (h *fakeHandle) exit(err error) {
	h.once.Do(func() {
		h.err = err
		close(h.done)
	})
}

// fakeSpawner records spawn specs and hands out fake handles.
type fakeSpawner struct {
	mu      sync.Mutex
	specs   []domain.SpawnSpec
	handles []*fakeHandle
	nextPID int
	err     error
}

func (s *fakeSpawner) Spawn(spec domain.SpawnSpec) (domain.ProcessHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, &domain.SpawnError{Path: spec.Path, Err: s.err}
	}

	s.specs = append(s.specs, spec)
	s.nextPID++
	h := newFakeHandle(1000 + s.nextPID)
	s.handles = append(s.handles, h)
	return h, nil
}

func (s *fakeSpawner) spawned() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.specs)
}

func (s *fakeSpawner) handle(i int) *fakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[i]
}

// recordingPublisher implements domain.EventPublisher for testing
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.CompletionEvent
	err    error
}

func (p *recordingPublisher) Publish(event domain.CompletionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) all() []domain.CompletionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.CompletionEvent(nil), p.events...)
}
