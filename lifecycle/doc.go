// Package lifecycle computes the order in which the dependencies of an
// eagerly-initialized component have to be started.
//
// Components and their "depends on" declarations are registered through
// Manager.AddDependencies, typically while descriptors are being loaded.
// Manager.ComputeDependencies then answers, for a single component, which of
// its transitive dependencies must be started first and in what order:
//
//	m := lifecycle.NewManager(lifecycle.Options{})
//	m.AddDependencies("A", []string{"B", "C", "D"})
//	m.AddDependencies("B", []string{"F"})
//	m.AddDependencies("C", []string{"E"})
//	m.AddDependencies("D", []string{"B"})
//	m.AddDependencies("E", []string{"B"})
//
//	order, err := m.ComputeDependencies("A")
//	// order == [F B D E C]
//
// # Ordering
//
// The result is a topological order of the component's closure produced with
// Kahn's algorithm. It never contains the queried component, contains every
// transitive dependency exactly once and places each component after all of
// its own dependencies.
//
// Ties are broken by registration order: when resolving a component frees
// several dependents at once, they are queued in the order their dependency
// on it was registered across the whole graph. Running the same query twice
// without registering anything in between yields the same order.
//
// # Cycles
//
// When the closure contains a cycle the query fails with a
// *CyclicDependencyError. Its message cites one or more chains through a
// representative component, for example:
//
//	U => O => R => J => U
//
// Names that are referenced as dependencies but never declared are treated as
// already satisfied, unless Options.StrictUnknownNodes is set.
//
// # Thread Safety
//
// Manager and Graph do no locking. Callers that register and query from
// several goroutines must serialize access themselves.
package lifecycle
