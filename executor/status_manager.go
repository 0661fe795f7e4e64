// executor/status_manager.go

package executor

import (
	"sync"
	"time"
)

type Status string

const (
	StatusQueued    Status = "Queued"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
	StatusStopping  Status = "Stopping"
	StatusStopped   Status = "Stopped"
	StatusSkipped   Status = "Skipped"
)

// Done reports whether no further transition is expected in the current phase.
func (s Status) Done() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusStopped, StatusSkipped:
		return true
	}
	return false
}

type ExecutionStatus struct {
	Status    Status
	StartTime time.Time
	EndTime   time.Time
	LogLines  []string
}

// Duration is the elapsed time of the last transition, up to now while it runs.
func (es ExecutionStatus) Duration(now time.Time) time.Duration {
	if es.StartTime.IsZero() {
		return 0
	}
	if es.EndTime.IsZero() || es.EndTime.Before(es.StartTime) {
		return now.Sub(es.StartTime)
	}
	return es.EndTime.Sub(es.StartTime)
}

type StatusManager interface {
	SetStatus(name string, status Status)
	UpdateStatus(name string, status Status, startTime, endTime time.Time)
	AppendLog(name, line string)
	MarkAsFailed(name string)
	FailedCount() int
	Get(name string) (ExecutionStatus, bool)
	Snapshot() map[string]ExecutionStatus
}

type statusManager struct {
	statusMap        map[string]*ExecutionStatus
	failedComponents []string
	mu               sync.Mutex
}

func NewStatusManager() StatusManager {
	return &statusManager{
		statusMap: make(map[string]*ExecutionStatus),
	}
}

func (sm *statusManager) SetStatus(name string, status Status) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.statusMap[name] = &ExecutionStatus{Status: status}
}

func (sm *statusManager) UpdateStatus(name string, status Status, startTime, endTime time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	entry := sm.entry(name)
	entry.Status = status
	if !startTime.IsZero() {
		entry.StartTime = startTime
	}
	if !endTime.IsZero() {
		entry.EndTime = endTime
	}
}

func (sm *statusManager) AppendLog(name, line string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	entry := sm.entry(name)
	entry.LogLines = append(entry.LogLines, line)
}

func (sm *statusManager) MarkAsFailed(name string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.failedComponents = append(sm.failedComponents, name)
	sm.entry(name).Status = StatusFailed
}

func (sm *statusManager) FailedCount() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.failedComponents)
}

func (sm *statusManager) Get(name string) (ExecutionStatus, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	entry, ok := sm.statusMap[name]
	if !ok {
		return ExecutionStatus{}, false
	}
	return copyStatus(entry), true
}

// Snapshot returns a deep copy safe to read while components keep changing.
func (sm *statusManager) Snapshot() map[string]ExecutionStatus {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	snapshot := make(map[string]ExecutionStatus, len(sm.statusMap))
	for name, entry := range sm.statusMap {
		snapshot[name] = copyStatus(entry)
	}
	return snapshot
}

func (sm *statusManager) entry(name string) *ExecutionStatus {
	if _, exists := sm.statusMap[name]; !exists {
		sm.statusMap[name] = &ExecutionStatus{}
	}
	return sm.statusMap[name]
}

func copyStatus(es *ExecutionStatus) ExecutionStatus {
	c := *es
	c.LogLines = append([]string(nil), es.LogLines...)
	return c
}
