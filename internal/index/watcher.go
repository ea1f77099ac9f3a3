package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/labelvault/internal/checksum"
	"github.com/starford/labelvault/internal/labelstore"
)

// Watcher event kinds.
const (
	EventModified = "modified"
	EventRemoved  = "removed"
)

// EventCallback is called when the label file changed on disk behind the
// running process. kind is EventModified or EventRemoved.
type EventCallback func(kind string, path string)

// Watch observes the data directory until ctx is cancelled and reports
// changes to the label file made by someone else. current returns the
// checksum of the content this process last loaded or saved ("" for none);
// changes that end at that content are our own saves and are not reported.
//
// Watch only reports. The running store keeps its in-memory labels, and the
// next save overwrites whatever was written externally.
func Watch(ctx context.Context, dir string, current func() string, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	path := filepath.Join(dir, labelstore.FileName)
	logger.Info("watcher: started", slog.String("path", path))

	// last is the most recent content state, reported or ours.
	last := current()

	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
		} else {
			timer.Reset(debounce)
		}
		timerCh = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timerCh:
			timerCh = nil
			sum, err := checksum.File(path)
			if err != nil {
				logger.Warn("watcher: checksum failed", slog.String("path", path), slog.String("error", err.Error()))
				continue
			}
			if sum == last {
				continue
			}
			last = sum
			if sum == current() {
				continue
			}
			kind := EventModified
			if sum == "" {
				kind = EventRemoved
			}
			logger.Warn("watcher: label file changed outside this process",
				slog.String("path", path),
				slog.String("kind", kind))
			if cb != nil {
				cb(kind, path)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if labelstore.IsTempName(name) {
				if ev.Op&fsnotify.Create != 0 {
					logger.Debug("watcher: temp file created", slog.String("name", name))
				}
				continue
			}
			if name != labelstore.FileName {
				continue
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
