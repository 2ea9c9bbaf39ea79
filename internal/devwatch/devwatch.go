// Package devwatch re-runs a filter's verification suite whenever its
// definition file or test fixtures change on disk, powering `tokf verify
// --watch`.
package devwatch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a set of directories and invokes OnChange whenever a
// filter or test-fixture file (.toml) is created, written, or renamed.
type Watcher struct {
	dirs     []string
	onChange func(path string)
}

// New builds a Watcher over dirs, calling onChange with the changed file's
// path whenever a relevant event fires.
func New(dirs []string, onChange func(path string)) *Watcher {
	return &Watcher{dirs: dirs, onChange: onChange}
}

// Start begins watching until ctx is cancelled. It blocks until the
// underlying fsnotify watcher is set up, then returns; events are handled
// on a background goroutine. Each existing directory is watched together
// with every subdirectory it holds when Start runs (nested filters and
// their "_test" suites); directories created later are not added.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	watched := 0
	for _, dir := range w.dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(p)
			}
			return nil
		})
		if err != nil {
			watcher.Close()
			return err
		}
		watched++
	}
	if watched == 0 {
		log.Printf("devwatch: no existing directory to watch among %v", w.dirs)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && isRelevant(evt.Name) {
					w.onChange(evt.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("devwatch: watcher error: %v", err)
			}
		}
	}()
	return nil
}

func isRelevant(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
