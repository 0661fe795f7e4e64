package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ZacxDev/eagerstart/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tea "github.com/charmbracelet/bubbletea"
)

type fakeSource map[string]executor.ExecutionStatus

func (f fakeSource) Snapshot() map[string]executor.ExecutionStatus { return f }

func (f fakeSource) FailedCount() int {
	count := 0
	for _, status := range f {
		if status.Status == executor.StatusFailed {
			count++
		}
	}
	return count
}

func newTestModel() *Model {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	source := fakeSource{
		"Config": {Status: executor.StatusCompleted, StartTime: start, EndTime: start.Add(1500 * time.Millisecond), LogLines: []string{"config ready"}},
		"Db":     {Status: executor.StatusRunning, StartTime: start},
	}
	m := NewModel("Startup", []string{"Config", "Db", "Web"}, source)
	m.now = func() time.Time { return start.Add(2 * time.Second) }
	return m
}

func TestModel_StatusViewFollowsGivenOrder(t *testing.T) {
	m := newTestModel()

	view := m.statusView()
	config := strings.Index(view, "Config")
	db := strings.Index(view, "Db")
	web := strings.Index(view, "Web")

	require.True(t, config >= 0 && db >= 0 && web >= 0, view)
	assert.Less(t, config, db)
	assert.Less(t, db, web)
	assert.Contains(t, view, "Completed")
	assert.Contains(t, view, "1.5s")
	assert.Contains(t, view, "2s")
	assert.Contains(t, view, "Queued")
	assert.Contains(t, view, "> 1")
	assert.Contains(t, view, "Startup (1/3 done)")
	assert.NotContains(t, view, "failed")
}

func TestModel_StatusViewCountsFailures(t *testing.T) {
	source := fakeSource{
		"Config": {Status: executor.StatusStopped},
		"Db":     {Status: executor.StatusFailed},
		"Web":    {Status: executor.StatusSkipped},
	}
	m := NewModel("Startup", []string{"Config", "Db", "Web"}, source)

	view := m.statusView()
	assert.Contains(t, view, "Startup (3/3 done)")
	assert.Contains(t, view, "1 failed")
	assert.Contains(t, view, "Skipped")
}

func TestModel_Navigation(t *testing.T) {
	m := newTestModel()

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 2, m.selectedIdx)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, m.selectedIdx)
}

func TestModel_ToggleOutput(t *testing.T) {
	m := newTestModel()

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.showingLogs)
	assert.Contains(t, m.View(), "config ready")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showingLogs)
	assert.NotContains(t, m.View(), "Output:")
}

func TestModel_QuitAndDone(t *testing.T) {
	m := newTestModel()
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.True(t, m.done)
	require.NotNil(t, cmd)

	m = newTestModel()
	_, cmd = m.Update(DoneMsg{Err: errors.New("failed to start Db")})
	require.NotNil(t, cmd)
	assert.EqualError(t, m.Err(), "failed to start Db")
	assert.Contains(t, m.View(), "Error: failed to start Db")
}

func TestModel_EmptyNames(t *testing.T) {
	m := NewModel("Startup", nil, fakeSource{})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.selectedIdx)
	assert.Contains(t, m.View(), "Startup")
}
