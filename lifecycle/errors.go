package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCyclicDependency is matched by every *CyclicDependencyError.
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrUnknownDependency is matched by every *UnknownDependencyError.
	ErrUnknownDependency = errors.New("unknown dependency")
)

// CyclicDependencyError reports that the dependencies of Root cannot be
// ordered because some of them depend on each other.
type CyclicDependencyError struct {
	Root string
	// Representative is the node every entry of Cycles starts and ends at.
	// Empty when the bounded search found no cycle to cite.
	Representative string
	Cycles         [][]string
	// Unresolved holds every node the scheduler could not order.
	Unresolved []string
}

// Message describes the offending cycles, e.g. "A => B => A; A => C => A".
func (e *CyclicDependencyError) Message() string {
	if e == nil {
		return ""
	}
	if len(e.Cycles) == 0 {
		return fmt.Sprintf("unresolved components: %s", strings.Join(e.Unresolved, ", "))
	}

	chains := make([]string, len(e.Cycles))
	for i, cycle := range e.Cycles {
		chains[i] = strings.Join(cycle, " => ")
	}
	return strings.Join(chains, "; ")
}

func (e *CyclicDependencyError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: cannot order dependencies of %q: %s", ErrCyclicDependency.Error(), e.Root, e.Message())
}

func (e *CyclicDependencyError) Unwrap() error { return ErrCyclicDependency }

// UnknownDependencyError is returned in strict mode when the dependencies of
// Root reference components that were never declared.
type UnknownDependencyError struct {
	Root    string
	Unknown []string
}

func (e *UnknownDependencyError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %q transitively depends on undeclared %s",
		ErrUnknownDependency.Error(), e.Root, strings.Join(quoteAll(e.Unknown), ", "))
}

func (e *UnknownDependencyError) Unwrap() error { return ErrUnknownDependency }

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}
