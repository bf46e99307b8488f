package documents

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// minPollInterval bounds how often pending files are checked
const minPollInterval = time.Millisecond

// Watcher reports supported files that were created or modified under a
// directory, once they have been quiet for the settle period
type Watcher struct {
	watcher   *fsnotify.Watcher
	supported func(name string) bool
	settle    time.Duration
	logger    *zap.Logger
}

// NewWatcher creates a new file watcher
func NewWatcher(supported func(name string) bool, settle time.Duration, logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if settle <= 0 {
		settle = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		watcher:   w,
		supported: supported,
		settle:    settle,
		logger:    logger,
	}, nil
}

// Watch starts monitoring dir and its subfolders. The returned channel is
// closed when ctx ends or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.addTree(dir, nil); err != nil {
		return nil, err
	}

	ready := make(chan string, 100)

	go func() {
		defer close(ready)
		defer w.watcher.Close()

		pending := make(map[string]time.Time)
		ticker := time.NewTicker(max(w.settle/4, minPollInterval))
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handle(event, pending)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("File watcher error", zap.Error(err))
			case now := <-ticker.C:
				for path, last := range pending {
					if now.Sub(last) < w.settle {
						continue
					}
					delete(pending, path)
					select {
					case ready <- path:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ready, nil
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handle(event fsnotify.Event, pending map[string]time.Time) {
	switch {
	case event.Has(fsnotify.Create):
		if stat, err := os.Stat(event.Name); err == nil && stat.IsDir() {
			// Files may land in a new folder before it is watched
			if err := w.addTree(event.Name, pending); err != nil {
				w.logger.Warn("Failed to watch folder", zap.String("path", event.Name), zap.Error(err))
			}
			return
		}
	case event.Has(fsnotify.Write):
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(pending, event.Name)
		return
	default:
		return
	}

	if !w.supported(filepath.Base(event.Name)) {
		return
	}
	pending[event.Name] = time.Now()
}

func (w *Watcher) addTree(root string, pending map[string]time.Time) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		if pending != nil && d.Type().IsRegular() && w.supported(d.Name()) {
			pending[path] = time.Now()
		}
		return nil
	})
}
