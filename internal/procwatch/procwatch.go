// Package procwatch detects whether a target game process is running,
// caching process table scans so a high frequency poll loop does not
// hammer the OS.
package procwatch

import (
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/go-ps"
	"github.com/sirupsen/logrus"
)

const defaultCheckInterval = time.Second

type Logger interface {
	logrus.FieldLogger
}

// Watcher reports whether a process whose executable name contains the
// target string (case insensitive) is currently running. Scans are cached
// for checkInterval, so IsRunning is cheap to call on every poll tick.
type Watcher struct {
	target        string
	checkInterval time.Duration
	logger        Logger

	mutex       sync.Mutex
	lastCheck   time.Time
	lastRunning bool
}

func NewWatcher(target string, logger Logger) *Watcher {
	return &Watcher{
		target:        strings.ToLower(target),
		checkInterval: defaultCheckInterval,
		logger:        logger,
	}
}

func (w *Watcher) IsRunning() bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	now := time.Now()

	if !w.lastCheck.IsZero() && now.Sub(w.lastCheck) < w.checkInterval {
		return w.lastRunning
	}

	w.lastCheck = now

	running, err := w.scan()

	if err != nil {
		w.logger.WithError(err).Error("Could not scan the process table")

		return w.lastRunning
	}

	if running != w.lastRunning {
		if running {
			w.logger.Infof("Process matching %q detected", w.target)
		} else {
			w.logger.Infof("Process matching %q has exited", w.target)
		}
	}

	w.lastRunning = running

	return running
}

func (w *Watcher) scan() (bool, error) {
	processes, err := ps.Processes()

	if err != nil {
		return false, err
	}

	for _, process := range processes {
		if strings.Contains(strings.ToLower(process.Executable()), w.target) {
			return true, nil
		}
	}

	return false, nil
}
