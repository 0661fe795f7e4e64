package executor

import (
	"context"
)

type mockResolver struct {
	addDependenciesFunc     func(string, []string)
	computeDependenciesFunc func(string) ([]string, error)
}

func (m *mockResolver) AddDependencies(name string, dependencies []string) {
	if m.addDependenciesFunc != nil {
		m.addDependenciesFunc(name, dependencies)
	}
}

func (m *mockResolver) ComputeDependencies(name string) ([]string, error) {
	if m.computeDependenciesFunc != nil {
		return m.computeDependenciesFunc(name)
	}
	return nil, nil
}

// MockCommandExecutor implements the CommandExecutor interface for testing
type MockCommandExecutor struct {
	ExecuteFunc func(context.Context, string, ...string) ([]byte, error)
	Commands    []string
}

func (m *MockCommandExecutor) Execute(ctx context.Context, name string, arg ...string) ([]byte, error) {
	if len(arg) > 0 {
		m.Commands = append(m.Commands, arg[len(arg)-1])
	}
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, name, arg...)
	}
	return nil, nil
}

type MockJournalManager struct {
	LoadFunc  func() (Journal, error)
	SaveFunc  func([]string) error
	ClearFunc func() error
	PathFunc  func() string
}

func (m *MockJournalManager) Load() (Journal, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return Journal{}, nil
}

func (m *MockJournalManager) Save(initialized []string) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(initialized)
	}
	return nil
}

func (m *MockJournalManager) Clear() error {
	if m.ClearFunc != nil {
		return m.ClearFunc()
	}
	return nil
}

func (m *MockJournalManager) Path() string {
	if m.PathFunc != nil {
		return m.PathFunc()
	}
	return "eagerstart.lock"
}
