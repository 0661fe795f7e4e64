package lifecycle

const (
	maxReportedCycles   = 4
	maxCycleSearchSteps = 10000
)

// describeCycle builds the error for a query whose working set could not be
// drained. unresolved is in discovery order; the first of its nodes that lies
// on a cycle becomes the representative, and up to maxReportedCycles simple
// cycles through it are collected.
func describeCycle(g *Graph, root string, unresolved []string) *CyclicDependencyError {
	pending := make(map[string]struct{}, len(unresolved))
	for _, name := range unresolved {
		pending[name] = struct{}{}
	}

	component := cyclicComponents(g, unresolved, pending)
	for _, start := range unresolved {
		id, ok := component[start]
		if !ok {
			continue
		}

		members := make(map[string]struct{})
		for name, other := range component {
			if other == id {
				members[name] = struct{}{}
			}
		}

		budget := maxCycleSearchSteps
		cycles := cyclesThrough(g, start, members, &budget)
		if len(cycles) == 0 {
			cycles = [][]string{shortestCycle(g, start, members)}
		}
		return &CyclicDependencyError{
			Root:           root,
			Representative: start,
			Cycles:         cycles,
			Unresolved:     unresolved,
		}
	}

	return &CyclicDependencyError{Root: root, Unresolved: unresolved}
}

// cyclicComponents runs Tarjan's algorithm over the pending nodes and maps
// every node that lies on a cycle to the id of its strongly connected
// component. Nodes on no cycle are absent.
func cyclicComponents(g *Graph, nodes []string, pending map[string]struct{}) map[string]int {
	index := make(map[string]int, len(nodes))
	lowlink := make(map[string]int, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	var stack []string
	next := 0

	result := make(map[string]int)
	id := 0

	var connect func(name string)
	connect = func(name string) {
		index[name] = next
		lowlink[name] = next
		next++
		stack = append(stack, name)
		onStack[name] = true

		for _, dep := range g.forward[name] {
			if _, ok := pending[dep]; !ok {
				continue
			}
			if _, seen := index[dep]; !seen {
				connect(dep)
				lowlink[name] = min(lowlink[name], lowlink[dep])
			} else if onStack[dep] {
				lowlink[name] = min(lowlink[name], index[dep])
			}
		}

		if lowlink[name] != index[name] {
			return
		}

		var members []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			members = append(members, top)
			if top == name {
				break
			}
		}
		if len(members) > 1 || g.HasEdge(name, name) {
			for _, member := range members {
				result[member] = id
			}
			id++
		}
	}

	for _, name := range nodes {
		if _, seen := index[name]; !seen {
			connect(name)
		}
	}
	return result
}

// cyclesThrough enumerates simple cycles that leave start and return to it,
// following forward edges between pending nodes only. Every edge expansion
// spends one unit of budget.
func cyclesThrough(g *Graph, start string, pending map[string]struct{}, budget *int) [][]string {
	var cycles [][]string
	path := []string{start}
	onPath := map[string]bool{start: true}

	var walk func(name string)
	walk = func(name string) {
		for _, dep := range g.forward[name] {
			if len(cycles) >= maxReportedCycles || *budget <= 0 {
				return
			}
			if _, ok := pending[dep]; !ok {
				continue
			}
			*budget--

			if dep == start {
				cycle := make([]string, 0, len(path)+1)
				cycle = append(cycle, path...)
				cycles = append(cycles, append(cycle, start))
				continue
			}
			if onPath[dep] {
				continue
			}

			onPath[dep] = true
			path = append(path, dep)
			walk(dep)
			path = path[:len(path)-1]
			delete(onPath, dep)
		}
	}
	walk(start)

	return cycles
}

// shortestCycle returns a shortest cycle through start using breadth-first
// search over members. start must lie on a cycle within members.
func shortestCycle(g *Graph, start string, members map[string]struct{}) []string {
	parent := map[string]string{}
	queue := []string{start}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		for _, dep := range g.forward[name] {
			if _, ok := members[dep]; !ok {
				continue
			}
			if dep == start {
				var reversed []string
				for at := name; at != start; at = parent[at] {
					reversed = append(reversed, at)
				}
				cycle := []string{start}
				for i := len(reversed) - 1; i >= 0; i-- {
					cycle = append(cycle, reversed[i])
				}
				return append(cycle, start)
			}
			if _, seen := parent[dep]; seen {
				continue
			}
			parent[dep] = name
			queue = append(queue, dep)
		}
	}
	return []string{start, start}
}
