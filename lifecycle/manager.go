package lifecycle

import (
	"strings"

	"github.com/ZacxDev/eagerstart/logging"
)

// Options configures a Manager.
type Options struct {
	// StrictUnknownNodes makes ComputeDependencies fail with an
	// *UnknownDependencyError when the closure of the queried component
	// references names that were never declared. When false, such names are
	// treated as leaves that are already satisfied.
	StrictUnknownNodes bool
}

// Manager answers startup ordering queries over a dependency graph it owns.
// It is not safe for concurrent use.
type Manager struct {
	graph *Graph
	opts  Options
}

func NewManager(opts Options) *Manager {
	return &Manager{
		graph: NewGraph(),
		opts:  opts,
	}
}

// AddDependencies declares name and appends deps to its dependency list.
func (m *Manager) AddDependencies(name string, deps []string) {
	m.graph.AddDependencies(name, deps)
}

// ComputeDependencies returns the transitive dependencies of name in the
// order they must be started. name itself is not part of the result.
func (m *Manager) ComputeDependencies(name string) ([]string, error) {
	c := closureOf(m.graph, name)

	if m.opts.StrictUnknownNodes {
		var unknown []string
		for _, dep := range c.order {
			if !m.graph.Declared(dep) {
				unknown = append(unknown, dep)
			}
		}
		if len(unknown) > 0 {
			return nil, &UnknownDependencyError{Root: name, Unknown: unknown}
		}
	}

	order, err := schedule(m.graph, c)
	if err != nil {
		return nil, err
	}

	logging.Debug("Lifecycle", "dependencies of %s: [%s]", name, strings.Join(order, ", "))
	return order, nil
}

// ShutdownOrder returns name followed by its dependencies in reverse startup
// order, which is the order they can be stopped in.
func (m *Manager) ShutdownOrder(name string) ([]string, error) {
	order, err := m.ComputeDependencies(name)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(order)+1)
	out = append(out, name)
	for i := len(order) - 1; i >= 0; i-- {
		out = append(out, order[i])
	}
	return out, nil
}

// Graph exposes the underlying graph for read-only inspection.
func (m *Manager) Graph() *Graph {
	return m.graph
}

func (m *Manager) Options() Options {
	return m.opts
}
