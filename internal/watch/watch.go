// Package watch reports changes to the store's JSONL files made by other
// processes, such as a git checkout or a second CLI.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mesh-intelligence/timeline/pkg/types"
)

// tableFiles maps JSONL file names to the table they back.
var tableFiles = map[string]string{
	"clips.jsonl": types.TableClips,
	"refs.jsonl":  types.TableRefs,
}

// Change is one filesystem event on a table file.
type Change struct {
	Table string
	Path  string
	Op    fsnotify.Op
}

// String renders the change for display.
func (c Change) String() string {
	return fmt.Sprintf("%s %s", c.Table, c.Op)
}

// Watcher watches a data directory.
type Watcher struct {
	watcher *fsnotify.Watcher
	changes chan Change
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

// New starts watching dataDir. Call Close to stop.
func New(dataDir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dataDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dataDir, err)
	}

	w := &Watcher{
		watcher: fw,
		changes: make(chan Change, 100),
		done:    make(chan struct{}),
		logger:  slog.Default().With(slog.String("component", "watch")),
	}
	go w.processEvents()
	return w, nil
}

func (w *Watcher) processEvents() {
	defer close(w.changes)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			table, ok := tableFiles[filepath.Base(event.Name)]
			if !ok || event.Op == fsnotify.Chmod {
				continue
			}
			select {
			case w.changes <- Change{Table: table, Path: event.Name, Op: event.Op}:
			case <-w.done:
				return
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.Any("error", err))

		case <-w.done:
			return
		}
	}
}

// Changes delivers table file changes. It is closed after Close.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}
