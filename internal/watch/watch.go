// Package watch is the optional live-reindex enrichment described by
// SPEC_FULL.md §5: it watches the project root with fsnotify and, after a
// quiet period, triggers an incremental pipeline run so an editor session
// doesn't need to invoke index_codebase by hand. It is never required for
// correctness — C10's own change detection already finds what moved on the
// next run — this only shortens the gap between an edit and a fresh index.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/jardhel/seu-claude/internal/corelog"
	"github.com/jardhel/seu-claude/internal/pipeline"
)

// defaultDebounceDelay is the quiet period after the last detected change
// before a reindex fires, matching the teacher file watcher's own default.
const defaultDebounceDelay = 500 * time.Millisecond

// skippedDirNames are never descended into regardless of IgnorePatterns,
// since they're either VCS internals or the engine's own data directory.
var skippedDirNames = map[string]bool{".git": true}

// Deps wires a Watcher to the tree it watches and the pipeline it triggers.
type Deps struct {
	RootDir        string
	DataDir        string   // engine data directory, excluded from watching
	Extensions     []string // dotless extensions to watch, e.g. "go", "py"; empty means all
	IgnorePatterns []string // POSIX globs, matched the same way as C1's crawler
	DebounceDelay  time.Duration

	Pipeline *pipeline.Pipeline
}

// Watcher debounces filesystem events under RootDir into incremental
// pipeline runs.
type Watcher struct {
	deps Deps
	log  *corelog.Logger

	fsWatcher *fsnotify.Watcher
	ignore    []glob.Glob
	extSet    map[string]bool

	ctx    context.Context
	cancel context.CancelFunc

	accumulated   map[string]bool
	accumulatedMu sync.Mutex
	debounceTimer *time.Timer
	timerMu       sync.Mutex

	stopOnce sync.Once
	doneCh   chan struct{}
}

// New builds a Watcher and starts tracking RootDir's directory tree. The
// returned Watcher does not watch for events until Start is called.
func New(deps Deps) (*Watcher, error) {
	if deps.DebounceDelay <= 0 {
		deps.DebounceDelay = defaultDebounceDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	extSet := make(map[string]bool, len(deps.Extensions))
	for _, e := range deps.Extensions {
		extSet["."+e] = true
	}

	w := &Watcher{
		deps:        deps,
		log:         corelog.New("watch"),
		fsWatcher:   fsw,
		extSet:      extSet,
		accumulated: make(map[string]bool),
		doneCh:      make(chan struct{}),
	}

	for _, pattern := range deps.IgnorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			continue
		}
		w.ignore = append(w.ignore, g)
	}

	if err := w.addDirRecursive(deps.RootDir); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// Start begins the event loop. It returns immediately; the loop runs until
// ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	go w.run()
}

// Stop cancels the event loop and releases the underlying fsnotify watcher.
// It is idempotent and safe to call even if Start was never called.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	reindex := make(chan struct{}, 1)

	for {
		select {
		case <-w.ctx.Done():
			w.stopDebounceTimer()
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirRecursive(event.Name); err != nil {
						w.log.Printf("failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}
			if w.shouldTrack(event) {
				w.accumulatedMu.Lock()
				w.accumulated[event.Name] = true
				w.accumulatedMu.Unlock()
				w.resetDebounceTimer(reindex)
			}

		case <-reindex:
			w.fireReindex()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Printf("watcher error: %v", err)
		}
	}
}

// shouldTrack reports whether event should count toward the debounced
// change set: a write/create/remove/rename under a non-ignored path whose
// extension (when Extensions is non-empty) is one we index.
func (w *Watcher) shouldTrack(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	rel, err := filepath.Rel(w.deps.RootDir, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if w.isIgnored(rel) {
		return false
	}
	if len(w.extSet) == 0 {
		return true
	}
	return w.extSet[filepath.Ext(event.Name)]
}

func (w *Watcher) isIgnored(relPath string) bool {
	for _, g := range w.ignore {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}

func (w *Watcher) resetDebounceTimer(reindex chan struct{}) {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		if !w.debounceTimer.Stop() {
			select {
			case <-w.debounceTimer.C:
			default:
			}
		}
	}
	w.debounceTimer = time.AfterFunc(w.deps.DebounceDelay, func() {
		select {
		case reindex <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopDebounceTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}

// fireReindex runs after the debounce period elapses with at least one
// pending change. It clears the pending set before running so changes that
// land mid-run are picked up by the next debounce cycle rather than lost.
func (w *Watcher) fireReindex() {
	w.accumulatedMu.Lock()
	n := len(w.accumulated)
	w.accumulated = make(map[string]bool)
	w.accumulatedMu.Unlock()

	if n == 0 {
		return
	}

	w.log.Printf("reindexing after %d changed path(s)", n)
	result, err := w.deps.Pipeline.Run(w.ctx, false)
	if err != nil {
		w.log.Printf("incremental reindex failed: %v", err)
		return
	}
	w.log.Printf("reindex complete: %d file(s) processed, %d chunk(s) created, %d deleted",
		result.FilesProcessed, result.ChunksCreated, result.FilesDeleted)
}

// addDirRecursive registers dir and every non-ignored subdirectory with the
// fsnotify watcher.
func (w *Watcher) addDirRecursive(dir string) error {
	rel, err := filepath.Rel(w.deps.RootDir, dir)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)
	if rel != "." {
		if skippedDirNames[filepath.Base(dir)] || w.isIgnored(rel) {
			return nil
		}
	}
	if w.deps.DataDir != "" {
		if sameOrUnder(dir, w.deps.DataDir) {
			return nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if skippedDirNames[entry.Name()] {
			continue
		}
		sub := filepath.Join(dir, entry.Name())
		if err := w.addDirRecursive(sub); err != nil {
			w.log.Printf("skipping %s: %v", sub, err)
		}
	}
	return nil
}

func sameOrUnder(dir, base string) bool {
	absDir, err1 := filepath.Abs(dir)
	absBase, err2 := filepath.Abs(base)
	if err1 != nil || err2 != nil {
		return false
	}
	rel, err := filepath.Rel(absBase, absDir)
	if err != nil || rel == ".." {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
