// Package watch emits debounced change notifications for the compose
// manifest, driving ticks in watch mode.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tsm-sh/tsm/internal/errors"
	"github.com/tsm-sh/tsm/internal/logging"
)

// DefaultDebounce is the quiet window collapsing an edit burst into
// one notification. Editors and format-on-save hooks produce several
// events per logical save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches the manifest's directory and reports changes to the
// manifest file itself, debounced. Watching the directory rather than
// the file survives atomic saves that replace the inode.
type Watcher struct {
	path     string
	base     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	changes  chan string
	logger   *logging.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a watcher for the manifest at path. A debounce of 0
// means DefaultDebounce; a nil logger disables logging.
func New(path string, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve manifest path %s", path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, errors.Wrapf(err, "watch manifest directory %s", filepath.Dir(abs))
	}

	return &Watcher{
		path:     abs,
		base:     filepath.Base(abs),
		debounce: debounce,
		watcher:  fsw,
		changes:  make(chan string, 1),
		logger:   logger.WithComponent("watch"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Changes is the notification stream: one manifest path per quiet
// window. The channel holds at most one pending notification; bursts
// arriving while one is pending collapse into it.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Start begins watching.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop stops watching and releases the underlying watcher. Safe to
// call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Base(event.Name) != w.base {
				continue
			}
			w.logger.Debug("manifest changed", "op", event.Op.String(), "path", event.Name)
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			select {
			case w.changes <- w.path:
			default:
				// A notification is already pending; collapse.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}
