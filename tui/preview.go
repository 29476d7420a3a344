package tui

import (
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// previewWatcher watches the directory holding the live-preview JPEG and
// posts a previewMsg each time the side-process rewrites it. Watching the
// directory instead of the file survives ffmpeg's replace-by-rename writes.
type previewWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func watchPreview(previewPath string, events chan<- tea.Msg) (*previewWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(previewPath)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	pw := &previewWatcher{watcher: w, done: make(chan struct{})}
	target := filepath.Clean(previewPath)

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				var size int64
				if info, err := os.Stat(target); err == nil {
					size = info.Size()
				}
				select {
				case events <- previewMsg{At: time.Now(), Size: size}:
				case <-pw.done:
					return
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			case <-pw.done:
				return
			}
		}
	}()

	return pw, nil
}

func (pw *previewWatcher) Close() {
	close(pw.done)
	pw.watcher.Close()
}
