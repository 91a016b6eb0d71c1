// Package usecase contains application business logic.
package usecase

import (
	"sort"
	"sync"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// ProcessTable tracks supervised games by instance ID.
// It holds metadata only; native handles stay with their monitor goroutine.
type ProcessTable struct {
	mu      sync.RWMutex
	entries map[string]domain.RunningProcess
}

// NewProcessTable creates an empty table.
func NewProcessTable() *ProcessTable {
	return &ProcessTable{
		entries: make(map[string]domain.RunningProcess),
	}
}

// Add registers a process, replacing any entry with the same instance ID.
func (t *ProcessTable) Add(proc domain.RunningProcess) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[proc.InstanceID] = proc
}

// Remove deletes the entry for instanceID if it still belongs to pid.
// A relaunch of the same instance keeps its newer entry.
func (t *ProcessTable) Remove(instanceID string, pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	proc, ok := t.entries[instanceID]
	if !ok || proc.PID != pid {
		return false
	}
	delete(t.entries, instanceID)
	return true
}

// Get returns the entry for instanceID.
func (t *ProcessTable) Get(instanceID string) (domain.RunningProcess, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	proc, ok := t.entries[instanceID]
	return proc, ok
}

// List returns a snapshot ordered by start time, then instance ID.
func (t *ProcessTable) List() []domain.RunningProcess {
	t.mu.RLock()
	procs := make([]domain.RunningProcess, 0, len(t.entries))
	for _, proc := range t.entries {
		procs = append(procs, proc)
	}
	t.mu.RUnlock()

	sort.Slice(procs, func(i, j int) bool {
		if procs[i].StartedAt.Equal(procs[j].StartedAt) {
			return procs[i].InstanceID < procs[j].InstanceID
		}
		return procs[i].StartedAt.Before(procs[j].StartedAt)
	})
	return procs
}

// Len returns the number of supervised processes.
func (t *ProcessTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
