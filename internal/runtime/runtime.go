// Package runtime implements the Strategy pattern for Wine-based runtimes.
// Each runtime knows where its wine binary lives inside the app bundle and
// which environment variables a launched game needs.
package runtime

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eliteGoblin/focusd/cxlaunch/internal/domain"
)

// DefaultID is the runtime used when none is requested.
const DefaultID = "crossover"

// EnvVar is one variable set on the child process.
type EnvVar struct {
	Key   string
	Value string
}

// Runtime defines the strategy interface for a compatibility runtime.
type Runtime interface {
	// ID returns unique identifier (e.g., "crossover").
	ID() string

	// Name returns human-readable name for display.
	Name() string

	// BinaryPath returns the wine binary inside the runtime app bundle.
	BinaryPath(appPath string) string

	// Environment returns the variables the runtime requires, in a fixed order.
	Environment(lc domain.LaunchContext) []EnvVar
}

// BuildEnv returns parent with every key in vars removed, followed by vars.
// Each required key therefore appears exactly once.
func BuildEnv(parent []string, vars []EnvVar) []string {
	owned := make(map[string]struct{}, len(vars))
	for _, v := range vars {
		owned[v.Key] = struct{}{}
	}

	env := make([]string, 0, len(parent)+len(vars))
	for _, kv := range parent {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := owned[key]; ok {
			continue
		}
		env = append(env, kv)
	}
	for _, v := range vars {
		env = append(env, v.Key+"="+v.Value)
	}
	return env
}

// Registry holds the known runtimes.
type Registry struct {
	runtimes map[string]Runtime
}

// NewRegistry creates a registry with all default runtimes.
func NewRegistry() *Registry {
	r := &Registry{
		runtimes: make(map[string]Runtime),
	}
	r.Register(NewCrossOver())
	return r
}

// Register adds a runtime to the registry.
func (r *Registry) Register(rt Runtime) {
	r.runtimes[rt.ID()] = rt
}

// Get returns a runtime by ID.
func (r *Registry) Get(id string) (Runtime, error) {
	rt, ok := r.runtimes[id]
	if !ok {
		return nil, fmt.Errorf("unknown runtime: %s", id)
	}
	return rt, nil
}

// List returns all runtime IDs, sorted.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.runtimes))
	for id := range r.runtimes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
