// Package executor drives processing jobs through their state machine:
// pending -> processing -> completed | failed. Each dispatched job runs on
// its own goroutine and communicates only by committing transitions into
// the registry and pushing events to the broadcaster. A failed job is
// terminal; resubmission means a brand-new job.
package executor

import (
	"context"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"videoforge/internal/pipeline"
	"videoforge/internal/registry"
	"videoforge/models"
)

// Engine is the transcoding boundary the executor drives. The real
// implementation shells out to ffmpeg; tests substitute fakes.
type Engine interface {
	Transcode(ctx context.Context, inputPath, outputPath string, spec pipeline.Spec, expectedSeconds float64, onProgress func(percent int)) error
}

// Broadcaster receives job events as they are committed. Progress events
// per job arrive in non-decreasing order and the terminal complete/error
// event is always last.
type Broadcaster interface {
	NotifyProgress(jobID string, progress int, status models.JobStatus)
	NotifyComplete(jobID, outputURL string)
	NotifyError(jobID, message string)
}

// Executor runs jobs against the engine and owns their status transitions.
type Executor struct {
	registry  *registry.Registry
	engine    Engine
	notifier  Broadcaster
	outputDir string
	logger    *logrus.Logger
}

// New creates an executor writing artifacts into outputDir.
func New(reg *registry.Registry, engine Engine, notifier Broadcaster, outputDir string, logger *logrus.Logger) *Executor {
	return &Executor{
		registry:  reg,
		engine:    engine,
		notifier:  notifier,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Dispatch starts executing a job and returns immediately; the caller sees
// the job in pending state until the goroutine picks it up.
func (e *Executor) Dispatch(jobID string) {
	go e.run(jobID)
}

// run performs one complete execution of a job.
func (e *Executor) run(jobID string) {
	started := false
	job, err := e.registry.UpdateJob(jobID, func(j *models.ProcessingJob) {
		if j.Status == models.JobStatusPending {
			j.Status = models.JobStatusProcessing
			started = true
		}
	})
	if err != nil {
		e.logger.WithField("job_id", jobID).Warn("Dispatched job no longer exists")
		return
	}
	if !started {
		// Already picked up or terminal; a job executes at most once.
		e.logger.WithField("job_id", jobID).Warn("Job dispatched twice, ignoring")
		return
	}
	e.notifier.NotifyProgress(jobID, job.Progress, job.Status)

	source, ok := e.registry.GetSource(job.FileID)
	if !ok {
		e.fail(jobID, "source file not found")
		return
	}

	spec := pipeline.Compile(job.Operations, source.Width, source.Height)
	outputPath := filepath.Join(e.outputDir, jobID+outputExtension(job.Operations.Format))

	// The engine serializes its own progress callbacks, so updates for
	// one job never race each other; monotonicity is still re-checked at
	// the commit point since that is where ordering is promised.
	onProgress := func(percent int) {
		updated, err := e.registry.UpdateJob(jobID, func(j *models.ProcessingJob) {
			if percent > j.Progress {
				j.Progress = percent
			}
		})
		if err != nil {
			return
		}
		e.notifier.NotifyProgress(jobID, updated.Progress, updated.Status)
	}

	expected := expectedDuration(source, job.Operations)
	if err := e.engine.Transcode(context.Background(), source.Path, outputPath, spec, expected, onProgress); err != nil {
		e.fail(jobID, err.Error())
		return
	}

	outputURL := "/api/download/" + jobID
	if _, err := e.registry.UpdateJob(jobID, func(j *models.ProcessingJob) {
		j.Status = models.JobStatusCompleted
		j.Progress = 100
		j.OutputPath = outputPath
		j.OutputURL = outputURL
		j.Error = ""
	}); err != nil {
		return
	}

	e.logger.WithFields(logrus.Fields{"job_id": jobID, "output": outputPath}).Info("Job completed")
	e.notifier.NotifyComplete(jobID, outputURL)
}

// fail commits the terminal failed state. Errors here never propagate to a
// caller; they live on the job record and go out through the broadcaster.
func (e *Executor) fail(jobID, message string) {
	if _, err := e.registry.UpdateJob(jobID, func(j *models.ProcessingJob) {
		j.Status = models.JobStatusFailed
		j.Error = message
	}); err != nil {
		return
	}

	e.logger.WithFields(logrus.Fields{"job_id": jobID, "error": message}).Error("Job failed")
	e.notifier.NotifyError(jobID, message)
}

// outputExtension picks the artifact extension for the requested format,
// defaulting to mp4.
func outputExtension(format string) string {
	switch format {
	case models.FormatWebM:
		return ".webm"
	case models.FormatGIF:
		return ".gif"
	default:
		return ".mp4"
	}
}

// expectedDuration predicts the output duration so engine timestamps can be
// turned into percentages: the trim window (or full source) stretched by
// the inverse of the speed factor.
func expectedDuration(source models.SourceFile, ops models.Operations) float64 {
	duration := source.Duration
	if ops.Trim != nil && ops.Trim.Duration < duration {
		duration = ops.Trim.Duration
	}
	if ops.Speed != 0 && ops.Speed != 1 {
		duration /= ops.Speed
	}
	return duration
}
