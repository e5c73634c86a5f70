package watcher

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/hptrace/asset/compiler"
	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/achilleasa/hptrace/log"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

const defaultDebounce = 250 * time.Millisecond

var ErrClosed = errors.New("watcher: already closed")

// An immutable compiled scene published by the watcher. Each successful
// rebuild produces a new snapshot with a fresh ID; snapshots are never
// modified after being published.
type Snapshot struct {
	ID       uuid.UUID
	Compiled *compiler.Compiled
	Built    time.Time
}

// The Watcher rebuilds a scene from scratch whenever its source files change
// and atomically swaps in the result. Readers that grabbed a snapshot before
// the swap keep using it undisturbed.
type Watcher struct {
	logger log.Logger

	sceneFile string
	opts      index.Options
	debounce  time.Duration

	current atomic.Pointer[Snapshot]

	fsWatch *fsnotify.Watcher
	updates chan *Snapshot
	errors  chan error

	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// Create a watcher for sceneFile and compile the initial snapshot. A
// non-positive debounce selects the default delay between the last file
// event and the rebuild.
func New(sceneFile string, opts index.Options, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		logger:    log.New("scene watcher"),
		sceneFile: filepath.Clean(sceneFile),
		opts:      opts,
		debounce:  debounce,
		updates:   make(chan *Snapshot, 1),
		errors:    make(chan error, 1),
		done:      make(chan struct{}),
	}

	if _, err := w.Reload(); err != nil {
		return nil, err
	}

	return w, nil
}

// Get the most recently published snapshot.
func (w *Watcher) Current() *Snapshot {
	return w.current.Load()
}

// A channel that receives each newly published snapshot. Only the latest
// unread snapshot is retained.
func (w *Watcher) Updates() <-chan *Snapshot {
	return w.updates
}

// A channel that receives rebuild errors. Only the latest unread error is
// retained.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Rebuild the scene and publish the result. On failure the previous snapshot
// stays current.
func (w *Watcher) Reload() (*Snapshot, error) {
	start := time.Now()
	compiled, err := compiler.CompileFile(w.sceneFile, w.opts)
	if err != nil {
		w.logger.Errorf("rebuilding %q failed: %v", w.sceneFile, err)
		return nil, err
	}

	snapshot := &Snapshot{
		ID:       uuid.New(),
		Compiled: compiled,
		Built:    time.Now(),
	}
	w.current.Store(snapshot)
	w.logger.Noticef("published snapshot %s in %d ms", snapshot.ID, time.Since(start).Nanoseconds()/1e6)
	return snapshot, nil
}

// Start watching the directory containing the scene file. Changes to any
// .obj or .mtl file in that directory trigger a rebuild.
func (w *Watcher) Start() error {
	select {
	case <-w.done:
		return ErrClosed
	default:
	}

	var err error
	w.startOnce.Do(func() {
		w.fsWatch, err = fsnotify.NewWatcher()
		if err != nil {
			return
		}

		dir := filepath.Dir(w.sceneFile)
		if err = w.fsWatch.Add(dir); err != nil {
			w.fsWatch.Close()
			return
		}

		w.logger.Infof("watching %q for changes", dir)
		w.wg.Add(1)
		go w.loop(w.fsWatch)
	})
	return err
}

// Stop watching for changes.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
		if w.fsWatch != nil {
			w.fsWatch.Close()
		}
	})
}

func (w *Watcher) loop(fsWatch *fsnotify.Watcher) {
	defer w.wg.Done()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)

	for {
		select {
		case ev, ok := <-fsWatch.Events:
			if !ok {
				return
			}
			if !isSceneAsset(ev) {
				continue
			}

			w.logger.Debugf("%s: %s", ev.Op, ev.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.rebuild()
		case err, ok := <-fsWatch.Errors:
			if !ok {
				return
			}
			w.logger.Warningf("watch error: %v", err)
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) rebuild() {
	snapshot, err := w.Reload()
	if err != nil {
		w.logger.Warningf("keeping snapshot %s", w.Current().ID)
		publish(w.errors, err)
		return
	}
	publish(w.updates, snapshot)
}

// Send v to a channel with a single slot, replacing any unread value.
func publish[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}

		select {
		case <-ch:
		default:
		}
	}
}

func isSceneAsset(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}

	switch strings.ToLower(filepath.Ext(ev.Name)) {
	case ".obj", ".mtl":
		return true
	}
	return false
}
