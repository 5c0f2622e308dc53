package apps

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to desktop files in the application directories.
// onChange runs on the watcher goroutine after events settle for debounce.
type Watcher struct {
	watcher  *fsnotify.Watcher
	roots    []string
	debounce time.Duration
	onChange func()
	mu       sync.Mutex
	timer    *time.Timer
	done     chan struct{}
	closed   bool
}

// NewWatcher starts watching dirs and their subdirectories. For a directory
// that does not exist yet its nearest existing parent is watched instead, and
// the directory is picked up once it is created.
func NewWatcher(dirs []string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	for _, dir := range dirs {
		w.roots = append(w.roots, filepath.Clean(dir))
	}

	watched := 0
	for _, root := range w.roots {
		if isDir(root) {
			watched += w.addTree(root)
		} else {
			w.watchParent(root)
		}
	}
	log.Printf("[APPS-WATCH] Watching %d directories", watched)

	go w.run()
	return w, nil
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) int {
	added := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			log.Printf("[APPS-WATCH] Failed to watch %s: %v", path, err)
			return nil
		}
		added++
		return nil
	})
	return added
}

func (w *Watcher) watchParent(root string) {
	for dir := filepath.Dir(root); ; dir = filepath.Dir(dir) {
		if isDir(dir) {
			if err := w.watcher.Add(dir); err != nil {
				log.Printf("[APPS-WATCH] Failed to watch %s for %s: %v", dir, root, err)
				return
			}
			log.Printf("[APPS-WATCH] %s does not exist, waiting for it in %s", root, dir)
			return
		}
		if dir == filepath.Dir(dir) {
			log.Printf("[APPS-WATCH] %s does not exist, skipping", root)
			return
		}
	}
}

// inRoot reports whether path is an application directory or inside one.
func (w *Watcher) inRoot(path string) bool {
	for _, root := range w.roots {
		if within(root, path) {
			return true
		}
	}
	return false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, "../")
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[APPS-WATCH] Watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) && isDir(event.Name) {
		w.handleDirCreated(filepath.Clean(event.Name))
		return
	}
	if !strings.HasSuffix(event.Name, ".desktop") || !w.inRoot(event.Name) {
		return
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		log.Printf("[APPS-WATCH] %s", event)
		w.schedule()
	}
}

// handleDirCreated watches a new directory below an application directory,
// or moves a pending watch one step closer to a missing application
// directory. Files may already be in place, so a reload is scheduled.
func (w *Watcher) handleDirCreated(dir string) {
	if w.inRoot(dir) {
		w.addTree(dir)
		w.schedule()
		return
	}
	for _, root := range w.roots {
		if !within(dir, root) {
			continue
		}
		if !isDir(root) {
			w.watchParent(root)
		}
		// Checked again in case root appeared before the parent watch.
		if isDir(root) {
			log.Printf("[APPS-WATCH] %s appeared", root)
			w.addTree(root)
			w.schedule()
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

// Close stops watching. Pending notifications are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
