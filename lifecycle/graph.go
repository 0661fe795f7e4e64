package lifecycle

// Graph holds the declared "depends on" relationships between components.
//
// forward maps a component to its direct dependencies in the order they were
// first registered. reverse maps a component to the components that declared a
// dependency on it, in global registration order. reverse is only ever
// appended to from AddDependencies; the scheduler relies on that order to
// break ties between dependents that become ready at the same step.
//
// Graph is not safe for concurrent use.
type Graph struct {
	forward  map[string][]string
	reverse  map[string][]string
	edges    map[string]map[string]struct{}
	declared map[string]struct{}
	names    []string
}

func NewGraph() *Graph {
	return &Graph{
		forward:  make(map[string][]string),
		reverse:  make(map[string][]string),
		edges:    make(map[string]map[string]struct{}),
		declared: make(map[string]struct{}),
	}
}

// AddDependencies records that name depends on each of deps. Dependencies
// already recorded for name are skipped, so repeated calls extend the
// dependency list without reordering it. An empty deps still declares name.
func (g *Graph) AddDependencies(name string, deps []string) {
	if _, ok := g.declared[name]; !ok {
		g.declared[name] = struct{}{}
		g.names = append(g.names, name)
	}

	seen, ok := g.edges[name]
	if !ok {
		seen = make(map[string]struct{}, len(deps))
		g.edges[name] = seen
		g.forward[name] = make([]string, 0, len(deps))
	}

	for _, dep := range deps {
		if _, dup := seen[dep]; dup {
			continue
		}
		seen[dep] = struct{}{}
		g.forward[name] = append(g.forward[name], dep)
		g.reverse[dep] = append(g.reverse[dep], name)
	}
}

// Dependencies returns a copy of the direct dependencies of name.
func (g *Graph) Dependencies(name string) []string {
	deps := g.forward[name]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// Dependents returns a copy of the components that directly depend on name,
// in registration order.
func (g *Graph) Dependents(name string) []string {
	deps := g.reverse[name]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// Declared reports whether name was ever the subject of AddDependencies.
func (g *Graph) Declared(name string) bool {
	_, ok := g.declared[name]
	return ok
}

// HasEdge reports whether from directly depends on to.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.edges[from][to]
	return ok
}

// Names returns the declared components in first-registration order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Len returns the number of declared components.
func (g *Graph) Len() int {
	return len(g.names)
}
