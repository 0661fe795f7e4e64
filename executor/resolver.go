// executor/resolver.go

package executor

import "github.com/ZacxDev/eagerstart/lifecycle"

// Resolver orders the dependencies of one component. The order excludes the
// component itself.
type Resolver interface {
	AddDependencies(name string, dependencies []string)
	ComputeDependencies(name string) ([]string, error)
}

var _ Resolver = (*lifecycle.Manager)(nil)
