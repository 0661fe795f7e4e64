package cmd

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/ZacxDev/eagerstart/config"
	"github.com/ZacxDev/eagerstart/fs"
	"github.com/ZacxDev/eagerstart/logging"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

const defaultDebounce = 200 * time.Millisecond

// watchPaths returns the directories holding descriptors or the settings
// file, plus the static prefix of every descriptor glob so new files are seen.
func watchPaths(filesystem fs.FileSystem, settings config.Settings) ([]string, error) {
	seen := map[string]bool{".": true}

	for _, pattern := range settings.Descriptors {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		seen[filepath.Clean(base)] = true

		matches, err := filesystem.DoublestarGlob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "error expanding glob pattern %s", pattern)
		}
		for _, match := range matches {
			seen[filepath.Dir(match)] = true
		}
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	switch filepath.Ext(event.Name) {
	case ".star", ".yaml", ".yml":
		return true
	}
	return false
}

// watchDescriptors calls onChange once per burst of relevant events in dirs
// until ctx is done. onChange never runs concurrently with itself.
func watchDescriptors(ctx context.Context, dirs []string, debounce time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	trigger := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			logging.Debug("Watch", "Descriptor changed: %s", event.Name)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Watch", err, "fsnotify error")

		case <-trigger:
			onChange()
		}
	}
}
