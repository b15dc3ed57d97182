package scheduler

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pixel-beads/api/assets"
	"github.com/pixel-beads/api/colormatch"
)

// Reloader keeps a matcher's reference table in sync with a file on disk.
// When the file does not exist the embedded default table is served.
type Reloader struct {
	Matcher  *colormatch.Matcher
	Path     string
	Interval time.Duration
	Log      logrus.FieldLogger

	mu       sync.Mutex
	modTime  time.Time
	size     int64
	ticker   *time.Ticker
	done     chan bool
	stopOnce sync.Once
}

func NewReloader(matcher *colormatch.Matcher, path string, interval time.Duration, log logrus.FieldLogger) *Reloader {
	return &Reloader{
		Matcher:  matcher,
		Path:     path,
		Interval: interval,
		Log:      log.WithField("component", "colors-reloader"),
		done:     make(chan bool),
	}
}

// Start polls the table file every Interval. A zero interval disables polling.
func (r *Reloader) Start() {
	if r.Interval <= 0 {
		r.Log.Info("Reference table polling disabled")
		return
	}

	r.Log.WithFields(logrus.Fields{"path": r.Path, "interval": r.Interval}).Info("Reloader started")

	r.ticker = time.NewTicker(r.Interval)
	go func() {
		for {
			select {
			case <-r.ticker.C:
				r.check()
			case <-r.done:
				return
			}
		}
	}()
}

// Stop stops the reloader
func (r *Reloader) Stop() {
	r.stopOnce.Do(func() {
		if r.ticker != nil {
			r.ticker.Stop()
		}
		close(r.done)
		r.Log.Info("Reloader stopped")
	})
}

// check reloads the table when the file's modification time or size changed.
func (r *Reloader) check() {
	info, err := os.Stat(r.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.Log.WithError(err).Warn("Could not stat reference table")
		}
		return
	}

	r.mu.Lock()
	changed := !info.ModTime().Equal(r.modTime) || info.Size() != r.size
	r.mu.Unlock()

	if !changed {
		return
	}

	if _, err := r.ReloadNow(); err != nil {
		r.Log.WithError(err).Error("Reference table reload failed, keeping current table")
	}
}

// ReloadNow parses the table file and swaps it into the matcher, returning
// the number of entries loaded. On error the current table stays live.
func (r *Reloader) ReloadNow() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.Path)
	switch {
	case os.IsNotExist(err):
		table, err := colormatch.ParseTableBytes(assets.Colors())
		if err != nil {
			return 0, fmt.Errorf("embedded reference table: %w", err)
		}
		r.Matcher.Replace(table)
		r.modTime, r.size = time.Time{}, 0
		r.Log.WithField("entries", table.Len()).Info("Loaded embedded reference table")
		return table.Len(), nil
	case err != nil:
		return 0, err
	}

	table, err := colormatch.LoadFile(r.Path)
	if err != nil {
		// remember the broken file so it is not re-parsed every tick
		r.modTime, r.size = info.ModTime(), info.Size()
		return 0, err
	}

	r.Matcher.Replace(table)
	r.modTime, r.size = info.ModTime(), info.Size()
	r.Log.WithFields(logrus.Fields{"path": r.Path, "entries": table.Len()}).Info("Loaded reference table")
	return table.Len(), nil
}
