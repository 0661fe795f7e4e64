package lifecycle

// schedule orders the closure with Kahn's algorithm.
//
// Each node starts with a residual in-degree equal to the number of its direct
// dependencies inside the working set. Zero in-degree nodes are queued in
// discovery order; when a node is resolved its dependents are visited in the
// graph's reverse (registration) order, which decides ties between nodes that
// become ready on the same step.
//
// The working set is the closure, plus the root when the root can reach itself.
// The root then never drains and the cycle through it is reported.
func schedule(g *Graph, c *closure) ([]string, error) {
	nodes := c.order
	if c.rootReachable {
		nodes = make([]string, 0, c.size()+1)
		nodes = append(nodes, c.root)
		nodes = append(nodes, c.order...)
	}

	inSet := func(name string) bool {
		if name == c.root {
			return c.rootReachable
		}
		return c.contains(name)
	}

	indegree := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))
	for _, name := range nodes {
		count := 0
		for _, dep := range g.forward[name] {
			if inSet(dep) {
				count++
			}
		}
		indegree[name] = count
		if count == 0 {
			queue = append(queue, name)
		}
	}

	order := make([]string, 0, c.size())
	resolved := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		resolved++
		if name != c.root {
			order = append(order, name)
		}

		for _, dependent := range g.reverse[name] {
			if !inSet(dependent) {
				continue
			}
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if resolved == len(nodes) {
		return order, nil
	}

	unresolved := make([]string, 0, len(nodes)-resolved)
	for _, name := range nodes {
		if indegree[name] > 0 {
			unresolved = append(unresolved, name)
		}
	}
	return nil, describeCycle(g, c.root, unresolved)
}
