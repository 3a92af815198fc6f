package pricing

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called after the watched table was swapped in.
type ReloadCallback func(path string)

const reloadDebounce = 200 * time.Millisecond

// Watch reloads the YAML price list at path into r whenever the file
// changes, until ctx is cancelled. The parent directory is watched so
// editors that replace the file via rename are picked up. A file that
// fails to parse leaves the previous table in place.
func Watch(ctx context.Context, path string, r *Reloading, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("pricing watcher: started", slog.String("file", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("pricing watcher: stopped")
			return nil

		case <-timerCh:
			tb, loadErr := LoadTable(abs)
			if loadErr != nil {
				logger.Warn("pricing watcher: reload failed, keeping previous table",
					slog.String("file", abs),
					slog.String("error", loadErr.Error()))
				continue
			}
			r.Swap(tb)
			logger.Info("pricing watcher: table reloaded", slog.String("file", abs))
			if cb != nil {
				cb(abs)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("pricing watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
