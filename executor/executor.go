package executor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ZacxDev/eagerstart/component"
	"github.com/ZacxDev/eagerstart/logging"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

const DefaultShell = "sh"

// Executor starts singleton components in dependency order and stops them in
// reverse initialization order.
type Executor struct {
	resolver    Resolver
	statusMgr   StatusManager
	cmdExecutor CommandExecutor
	journalMgr  JournalManager

	shell  string
	output io.Writer

	components   map[string]*component.Singleton
	registration []string
	initialized  []string
	started      map[string]bool
	warned       map[string]bool

	mu sync.Mutex
}

func NewExecutor(resolver Resolver, cmdExecutor CommandExecutor, journalMgr JournalManager) *Executor {
	return &Executor{
		resolver:    resolver,
		statusMgr:   NewStatusManager(),
		cmdExecutor: cmdExecutor,
		journalMgr:  journalMgr,
		shell:       DefaultShell,
		output:      os.Stdout,
		components:  make(map[string]*component.Singleton),
		started:     make(map[string]bool),
		warned:      make(map[string]bool),
	}
}

func (e *Executor) SetShell(shell string) {
	if shell != "" {
		e.shell = shell
	}
}

// SetOutput redirects command output. Lines are prefixed with the component name.
func (e *Executor) SetOutput(w io.Writer) {
	e.output = w
}

func (e *Executor) StatusManager() StatusManager {
	return e.statusMgr
}

func (e *Executor) AddComponent(c *component.Singleton) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.components[c.Name]; !exists {
		e.registration = append(e.registration, c.Name)
	}
	e.components[c.Name] = c
	e.resolver.AddDependencies(c.Name, c.DependsOn)
	e.statusMgr.SetStatus(c.Name, StatusQueued)
}

// Components returns the registered components in registration order.
func (e *Executor) Components() []*component.Singleton {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := make([]*component.Singleton, 0, len(e.registration))
	for _, name := range e.registration {
		result = append(result, e.components[name])
	}
	return result
}

// Initialized returns the names started so far, in initialization order.
func (e *Executor) Initialized() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.initialized)
}

// Order returns the startup order of name's dependencies, excluding name.
func (e *Executor) Order(name string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolver.ComputeDependencies(name)
}

// Plan returns every declared component Startup would start for roots, in
// start order. Without roots, every eager component is a root.
func (e *Executor) Plan(roots ...string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plan(roots)
}

func (e *Executor) plan(roots []string) ([]string, error) {
	if len(roots) == 0 {
		roots = e.eagerRoots()
	}

	var plan []string
	planned := make(map[string]bool)

	for _, root := range roots {
		if _, ok := e.components[root]; !ok {
			return nil, errors.Errorf("unknown component %q", root)
		}

		order, err := e.resolver.ComputeDependencies(root)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to order dependencies of %s", root)
		}

		for _, name := range append(order, root) {
			if planned[name] {
				continue
			}
			if _, ok := e.components[name]; !ok {
				if !e.warned[name] {
					e.warned[name] = true
					logging.Warn("Executor", "Skipping %s: required by %s but not a declared component", name, root)
				}
				continue
			}
			planned[name] = true
			plan = append(plan, name)
		}
	}

	return plan, nil
}

func (e *Executor) eagerRoots() []string {
	var roots []string
	for _, name := range e.registration {
		if e.components[name].Eager {
			roots = append(roots, name)
		}
	}
	return roots
}

// Startup starts roots and their dependencies. A failure stops everything
// already started, in reverse order, before the error is returned.
func (e *Executor) Startup(ctx context.Context, roots ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	plan, err := e.plan(roots)
	if err != nil {
		return err
	}

	logging.Info("Executor", "Starting %d component(s)", len(plan))

	for i, name := range plan {
		if e.started[name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			e.skip(plan[i:])
			return e.abort(ctx, errors.Wrap(err, "startup cancelled"))
		}
		if err := e.startComponent(ctx, e.components[name]); err != nil {
			e.skip(plan[i+1:])
			return e.abort(ctx, err)
		}
	}

	if err := e.journalMgr.Save(e.initialized); err != nil {
		return errors.Wrap(err, "failed to save journal")
	}

	logging.Info("Executor", "Startup complete: %s", strings.Join(e.initialized, ", "))
	return nil
}

func (e *Executor) startComponent(ctx context.Context, c *component.Singleton) error {
	e.statusMgr.UpdateStatus(c.Name, StatusRunning, time.Now(), time.Time{})

	if c.Start != "" {
		output, err := e.cmdExecutor.Execute(ctx, e.shell, "-c", c.Start)
		e.logOutput(c.Name, output)
		if err != nil {
			e.statusMgr.UpdateStatus(c.Name, StatusFailed, time.Time{}, time.Now())
			e.statusMgr.MarkAsFailed(c.Name)
			return errors.Wrapf(err, "failed to start %s", c.Name)
		}
	}

	e.statusMgr.UpdateStatus(c.Name, StatusCompleted, time.Time{}, time.Now())
	e.started[c.Name] = true
	e.initialized = append(e.initialized, c.Name)
	logging.Info("Executor", "Started %s", c.Name)
	return nil
}

// skip marks the planned components that will not be started after a failure.
func (e *Executor) skip(names []string) {
	for _, name := range names {
		if !e.started[name] {
			e.statusMgr.SetStatus(name, StatusSkipped)
			logging.Info("Executor", "Skipped %s", name)
		}
	}
}

func (e *Executor) abort(ctx context.Context, cause error) error {
	logging.Error("Executor", cause, "Startup aborted, stopping %d started component(s)", len(e.initialized))

	// Stop commands must still run when the startup context was cancelled.
	if failed := e.stopAll(context.WithoutCancel(ctx)); len(failed) > 0 {
		logging.Warn("Executor", "Components failed to stop during abort: %s", strings.Join(failed, ", "))
	}
	if err := e.journalMgr.Clear(); err != nil {
		logging.Error("Executor", err, "Failed to clear journal")
	}
	return cause
}

// Shutdown stops every started component in reverse initialization order.
// Stop failures do not interrupt the sweep.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown(ctx)
}

// ShutdownFromJournal stops the components recorded by an earlier run.
func (e *Executor) ShutdownFromJournal(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	journal, err := e.journalMgr.Load()
	if err != nil {
		return err
	}
	if journal.Empty() {
		logging.Info("Executor", "Nothing to stop: %s records no started components", e.journalMgr.Path())
		return nil
	}

	logging.Info("Executor", "Stopping run %s started at %s", journal.RunID, journal.StartedAt.Format(time.RFC3339))
	e.initialized = slices.Clone(journal.Initialized)
	for _, name := range e.initialized {
		e.started[name] = true
	}
	return e.shutdown(ctx)
}

func (e *Executor) shutdown(ctx context.Context) error {
	failed := e.stopAll(ctx)
	if err := e.journalMgr.Clear(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return errors.Errorf("shutdown failed for %d component(s): %s", len(failed), strings.Join(failed, ", "))
	}
	logging.Info("Executor", "Shutdown complete")
	return nil
}

func (e *Executor) stopAll(ctx context.Context) []string {
	order := slices.Clone(e.initialized)
	slices.Reverse(order)

	var failed []string
	for _, name := range order {
		if err := e.stopComponent(ctx, name); err != nil {
			logging.Error("Executor", err, "Failed to stop %s", name)
			failed = append(failed, name)
		}
	}

	e.initialized = nil
	e.started = make(map[string]bool)
	return failed
}

func (e *Executor) stopComponent(ctx context.Context, name string) error {
	c, ok := e.components[name]
	if !ok {
		logging.Warn("Executor", "Skipping stop of %s: no longer declared", name)
		return nil
	}

	e.statusMgr.UpdateStatus(name, StatusStopping, time.Now(), time.Time{})

	if c.Stop != "" {
		output, err := e.cmdExecutor.Execute(ctx, e.shell, "-c", c.Stop)
		e.logOutput(name, output)
		if err != nil {
			e.statusMgr.UpdateStatus(name, StatusFailed, time.Time{}, time.Now())
			e.statusMgr.MarkAsFailed(name)
			return errors.Wrapf(err, "failed to stop %s", name)
		}
	}

	e.statusMgr.UpdateStatus(name, StatusStopped, time.Time{}, time.Now())
	logging.Info("Executor", "Stopped %s", name)
	return nil
}

func (e *Executor) logOutput(name string, output []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		e.statusMgr.AppendLog(name, line)
		if e.output != nil {
			fmt.Fprintf(e.output, "[%s] %s\n", name, line)
		}
	}
}
