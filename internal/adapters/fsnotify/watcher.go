// Package fsnotify watches a definitions root for changes to release files
// so a running daemon can flag its loaded tables as stale.
package fsnotify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceWindow = 50 * time.Millisecond

// Watcher wraps fsnotify with recursive directory registration and
// debouncing, and implements ports.Watcher.
type Watcher struct {
	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher. The caller must call Stop when done.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:  fsw,
		done: make(chan struct{}),
	}, nil
}

// Watch registers dir and all its subdirectories, then invokes onChange with
// the affected path for each relevant filesystem event. Bursts of events
// within the debounce window collapse into one callback per path.
func (w *Watcher) Watch(dir string, onChange func(path string)) error {
	if err := w.addRecursive(dir); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.loop(onChange)
	return nil
}

// Stop terminates the event loop. Idempotent.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.fsw.Close()
		w.wg.Wait()
	})
}

func (w *Watcher) loop(onChange func(path string)) {
	defer w.wg.Done()

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	flush := func() {
		for path := range pending {
			onChange(path)
			delete(pending, path)
		}
		timerCh = nil
	}

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ignored(event.Name) {
				continue
			}
			// New directories need registering so nested release
			// files keep getting reported.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addRecursive(event.Name)
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				timer.Reset(debounceWindow)
			}
			timerCh = timer.C

		case <-timerCh:
			flush()

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if ignored(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// ignored filters out the daemon's own state directory and editor noise.
func ignored(path string) bool {
	base := filepath.Base(path)
	if base == ".snomap" {
		return true
	}
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return true
	}
	return false
}
