package lifecycle

// closure is the set of components reachable from a root, excluding the root.
type closure struct {
	root string
	// order lists members in the order the walk first reached them.
	order   []string
	members map[string]struct{}
	// rootReachable is set when the root can reach itself through one of its
	// dependencies.
	rootReachable bool
}

func (c *closure) contains(name string) bool {
	_, ok := c.members[name]
	return ok
}

func (c *closure) size() int {
	return len(c.order)
}

// closureOf walks forward edges depth-first from root. Undeclared names are
// leaves. The visited set keeps the walk finite on cyclic graphs.
func closureOf(g *Graph, root string) *closure {
	c := &closure{
		root:    root,
		members: make(map[string]struct{}),
	}

	var visit func(name string)
	visit = func(name string) {
		for _, dep := range g.forward[name] {
			if dep == root {
				c.rootReachable = true
				continue
			}
			if c.contains(dep) {
				continue
			}
			c.members[dep] = struct{}{}
			c.order = append(c.order, dep)
			visit(dep)
		}
	}
	visit(root)

	return c
}
