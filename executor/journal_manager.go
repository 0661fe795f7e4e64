package executor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZacxDev/eagerstart/fs"
	"github.com/ZacxDev/eagerstart/logging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Journal records which components a run started, in initialization order,
// so that a later process can stop them.
type Journal struct {
	RunID       string    `json:"runId"`
	StartedAt   time.Time `json:"startedAt"`
	Initialized []string  `json:"initialized"`
}

func (j Journal) Empty() bool {
	return len(j.Initialized) == 0
}

type JournalManager interface {
	Load() (Journal, error)
	Save(initialized []string) error
	Clear() error
	Path() string
}

type journalManager struct {
	path      string
	fs        fs.FileSystem
	runID     string
	startedAt time.Time
	mu        sync.Mutex
}

func NewJournalManager(filesystem fs.FileSystem, path string) JournalManager {
	return &journalManager{
		path:      path,
		fs:        filesystem,
		runID:     uuid.NewString(),
		startedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func (jm *journalManager) Path() string {
	return jm.path
}

// Load reads the journal. A missing file yields an empty journal.
func (jm *journalManager) Load() (Journal, error) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	data, err := jm.fs.ReadFile(jm.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Journal{}, nil
		}
		return Journal{}, errors.Wrapf(err, "failed to read journal %s", jm.path)
	}

	var journal Journal
	if err := json.Unmarshal(data, &journal); err != nil {
		return Journal{}, errors.Wrapf(err, "failed to parse journal %s", jm.path)
	}
	return journal, nil
}

// Save writes the journal through a temporary file and a rename, so readers
// never observe a partial write.
func (jm *journalManager) Save(initialized []string) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	journal := Journal{
		RunID:       jm.runID,
		StartedAt:   jm.startedAt,
		Initialized: append([]string{}, initialized...),
	}
	data, err := json.MarshalIndent(journal, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode journal")
	}

	if dir := filepath.Dir(jm.path); dir != "." {
		if err := jm.fs.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create journal directory %s", dir)
		}
	}

	tmp := jm.path + ".tmp"
	if err := jm.fs.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write journal %s", tmp)
	}
	if err := jm.fs.Rename(tmp, jm.path); err != nil {
		if removeErr := jm.fs.Remove(tmp); removeErr != nil {
			logging.Warn("Journal", "Could not remove %s: %v", tmp, removeErr)
		}
		return errors.Wrapf(err, "failed to replace journal %s", jm.path)
	}

	logging.Debug("Journal", "Saved run %s with %d component(s) to %s", jm.runID, len(initialized), jm.path)
	return nil
}

// Clear removes the journal. A missing file is not an error.
func (jm *journalManager) Clear() error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if err := jm.fs.Remove(jm.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "failed to remove journal %s", jm.path)
	}
	return nil
}
