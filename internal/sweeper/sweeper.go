// Package sweeper reclaims storage for aged uploads and job artifacts on a
// fixed interval. Sources backing in-flight jobs are left alone; job records
// outlive their swept artifacts so status queries keep working.
package sweeper

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"videoforge/internal/registry"
)

// Sweeper periodically scans the registry for stale entries.
type Sweeper struct {
	registry *registry.Registry
	interval time.Duration
	window   time.Duration
	logger   *logrus.Logger
	stop     chan struct{}
	done     chan struct{}
}

// New creates a sweeper that runs every interval and reclaims anything
// older than window.
func New(reg *registry.Registry, interval, window time.Duration, logger *logrus.Logger) *Sweeper {
	return &Sweeper{
		registry: reg,
		interval: interval,
		window:   window,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop on its own goroutine.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(time.Now())
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for any in-progress sweep to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// RunOnce performs a single sweep against the registry as of now. Deletion
// failures are logged and swallowed; the registry entry is cleared either
// way so a wedged file cannot pin its record forever.
func (s *Sweeper) RunOnce(now time.Time) {
	removedSources := 0
	for _, source := range s.registry.StaleSources(now, s.window) {
		if err := os.Remove(source.Path); err != nil && !os.IsNotExist(err) {
			s.logger.WithFields(logrus.Fields{
				"file_id": source.ID,
				"path":    source.Path,
				"error":   err.Error(),
			}).Warn("Failed to delete stale upload")
		}
		s.registry.DeleteSource(source.ID)
		removedSources++
	}

	clearedOutputs := 0
	for _, job := range s.registry.StaleJobOutputs(now, s.window) {
		if err := os.Remove(job.OutputPath); err != nil && !os.IsNotExist(err) {
			s.logger.WithFields(logrus.Fields{
				"job_id": job.ID,
				"path":   job.OutputPath,
				"error":  err.Error(),
			}).Warn("Failed to delete stale output")
		}
		s.registry.ClearJobOutput(job.ID)
		clearedOutputs++
	}

	if removedSources > 0 || clearedOutputs > 0 {
		s.logger.WithFields(logrus.Fields{
			"sources": removedSources,
			"outputs": clearedOutputs,
		}).Info("Retention sweep completed")
	}
}
