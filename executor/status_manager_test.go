package executor

import (
	"testing"
	"time"
)

func TestStatusManager_Transitions(t *testing.T) {
	sm := NewStatusManager()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	sm.SetStatus("A", StatusQueued)
	sm.UpdateStatus("A", StatusRunning, start, time.Time{})
	sm.UpdateStatus("A", StatusCompleted, time.Time{}, start.Add(2*time.Second))

	status, ok := sm.Get("A")
	if !ok {
		t.Fatal("status for A missing")
	}
	if status.Status != StatusCompleted {
		t.Errorf("expected Completed, got %s", status.Status)
	}
	if !status.StartTime.Equal(start) {
		t.Errorf("start time overwritten: %v", status.StartTime)
	}
	if d := status.Duration(time.Now()); d != 2*time.Second {
		t.Errorf("expected 2s, got %v", d)
	}
	if !status.Status.Done() {
		t.Error("Completed should be done")
	}

	if _, ok := sm.Get("missing"); ok {
		t.Error("unexpected status for unknown component")
	}
}

func TestStatusManager_MarkAsFailed(t *testing.T) {
	sm := NewStatusManager()
	sm.SetStatus("A", StatusRunning)
	sm.MarkAsFailed("A")
	sm.MarkAsFailed("B")

	if sm.FailedCount() != 2 {
		t.Errorf("expected 2 failures, got %d", sm.FailedCount())
	}
	if status, _ := sm.Get("B"); status.Status != StatusFailed {
		t.Errorf("expected B failed, got %s", status.Status)
	}
}

func TestStatusManager_SnapshotIsACopy(t *testing.T) {
	sm := NewStatusManager()
	sm.AppendLog("A", "first")

	snapshot := sm.Snapshot()
	entry := snapshot["A"]
	entry.LogLines[0] = "changed"
	sm.AppendLog("A", "second")

	current, _ := sm.Get("A")
	if current.LogLines[0] != "first" || len(current.LogLines) != 2 {
		t.Errorf("snapshot aliases internal state: %v", current.LogLines)
	}
	if len(snapshot["A"].LogLines) != 1 {
		t.Errorf("snapshot changed after AppendLog: %v", snapshot["A"].LogLines)
	}
}

func TestExecutionStatus_DurationWhileRunning(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	es := ExecutionStatus{Status: StatusRunning, StartTime: start}

	if d := es.Duration(start.Add(time.Second)); d != time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
	if (ExecutionStatus{}).Duration(start) != 0 {
		t.Error("unstarted status should have zero duration")
	}
	if StatusRunning.Done() {
		t.Error("Running should not be done")
	}
}
