package executor

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoforge/internal/pipeline"
	"videoforge/internal/registry"
	"videoforge/models"
)

type fakeEngine struct {
	transcode func(ctx context.Context, input, output string, spec pipeline.Spec, expected float64, onProgress func(int)) error
}

func (f *fakeEngine) Transcode(ctx context.Context, input, output string, spec pipeline.Spec, expected float64, onProgress func(int)) error {
	return f.transcode(ctx, input, output, spec, expected, onProgress)
}

// recordedEvent flattens broadcaster calls for assertions.
type recordedEvent struct {
	kind     string // "progress", "complete", "error"
	progress int
	status   models.JobStatus
	payload  string // output url or error message
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingBroadcaster) NotifyProgress(jobID string, progress int, status models.JobStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: "progress", progress: progress, status: status})
}

func (r *recordingBroadcaster) NotifyComplete(jobID, outputURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: "complete", payload: outputURL})
}

func (r *recordingBroadcaster) NotifyError(jobID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: "error", payload: message})
}

func (r *recordingBroadcaster) snapshot() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestSetup(t *testing.T, engine Engine) (*registry.Registry, *recordingBroadcaster, *Executor, string) {
	t.Helper()
	reg := registry.New()
	notifier := &recordingBroadcaster{}
	exec := New(reg, engine, notifier, t.TempDir(), quietLogger())

	reg.RegisterSource(models.SourceFile{
		ID:       "src-1",
		Path:     "/tmp/src-1.mp4",
		Width:    1920,
		Height:   1080,
		Duration: 60,
	})
	job, err := reg.CreateJob("src-1", models.Operations{})
	require.NoError(t, err)
	return reg, notifier, exec, job.ID
}

func waitForTerminal(t *testing.T, reg *registry.Registry, jobID string) models.ProcessingJob {
	t.Helper()
	var job models.ProcessingJob
	require.Eventually(t, func() bool {
		j, ok := reg.GetJob(jobID)
		if !ok {
			return false
		}
		job = j
		return j.Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestRunDrivesJobToCompletion(t *testing.T) {
	engine := &fakeEngine{
		transcode: func(_ context.Context, _, _ string, _ pipeline.Spec, _ float64, onProgress func(int)) error {
			for _, p := range []int{10, 50, 90} {
				onProgress(p)
			}
			return nil
		},
	}
	reg, notifier, exec, jobID := newTestSetup(t, engine)

	exec.Dispatch(jobID)
	job := waitForTerminal(t, reg, jobID)

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "/api/download/"+jobID, job.OutputURL)
	assert.NotEmpty(t, job.OutputPath)
	assert.Empty(t, job.Error)

	events := notifier.snapshot()
	require.NotEmpty(t, events)

	// Terminal event last, progress non-decreasing before it.
	assert.Equal(t, "complete", events[len(events)-1].kind)
	last := -1
	for _, e := range events[:len(events)-1] {
		require.Equal(t, "progress", e.kind)
		assert.GreaterOrEqual(t, e.progress, last)
		last = e.progress
	}
}

func TestRunOutOfOrderProgressStaysMonotonic(t *testing.T) {
	engine := &fakeEngine{
		transcode: func(_ context.Context, _, _ string, _ pipeline.Spec, _ float64, onProgress func(int)) error {
			for _, p := range []int{30, 20, 60, 10} {
				onProgress(p)
			}
			return nil
		},
	}
	reg, notifier, exec, jobID := newTestSetup(t, engine)

	exec.Dispatch(jobID)
	waitForTerminal(t, reg, jobID)

	last := -1
	for _, e := range notifier.snapshot() {
		if e.kind != "progress" {
			continue
		}
		assert.GreaterOrEqual(t, e.progress, last)
		last = e.progress
	}
}

func TestRunCommitsEngineFailure(t *testing.T) {
	engine := &fakeEngine{
		transcode: func(_ context.Context, _, _ string, _ pipeline.Spec, _ float64, _ func(int)) error {
			return errors.New("ffmpeg exploded")
		},
	}
	reg, notifier, exec, jobID := newTestSetup(t, engine)

	exec.Dispatch(jobID)
	job := waitForTerminal(t, reg, jobID)

	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "ffmpeg exploded", job.Error)
	assert.Empty(t, job.OutputURL)
	assert.Empty(t, job.OutputPath)

	events := notifier.snapshot()
	require.NotEmpty(t, events)
	assert.Equal(t, "error", events[len(events)-1].kind)
	assert.Equal(t, "ffmpeg exploded", events[len(events)-1].payload)
}

func TestRunFailsWhenSourceIsGone(t *testing.T) {
	var invoked bool
	engine := &fakeEngine{
		transcode: func(_ context.Context, _, _ string, _ pipeline.Spec, _ float64, _ func(int)) error {
			invoked = true
			return nil
		},
	}
	reg, _, exec, jobID := newTestSetup(t, engine)
	reg.DeleteSource("src-1")

	exec.Dispatch(jobID)
	job := waitForTerminal(t, reg, jobID)

	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "source file not found", job.Error)
	assert.False(t, invoked, "engine must not be invoked without a source")
}

func TestRunExecutesAtMostOnce(t *testing.T) {
	var calls int
	var mu sync.Mutex
	engine := &fakeEngine{
		transcode: func(_ context.Context, _, _ string, _ pipeline.Spec, _ float64, _ func(int)) error {
			mu.Lock()
			calls++
			mu.Unlock()
			return nil
		},
	}
	reg, _, exec, jobID := newTestSetup(t, engine)

	exec.run(jobID)
	exec.run(jobID)
	waitForTerminal(t, reg, jobID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestTerminalStatusIsIdempotentUnderPolling(t *testing.T) {
	engine := &fakeEngine{
		transcode: func(_ context.Context, _, _ string, _ pipeline.Spec, _ float64, _ func(int)) error {
			return nil
		},
	}
	reg, _, exec, jobID := newTestSetup(t, engine)

	exec.Dispatch(jobID)
	first := waitForTerminal(t, reg, jobID)

	for i := 0; i < 5; i++ {
		again, ok := reg.GetJob(jobID)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestExpectedDuration(t *testing.T) {
	source := models.SourceFile{Duration: 60}

	assert.Equal(t, 60.0, expectedDuration(source, models.Operations{}))
	assert.Equal(t, 10.0, expectedDuration(source, models.Operations{Trim: &models.Trim{Duration: 10}}))
	assert.Equal(t, 30.0, expectedDuration(source, models.Operations{Speed: 2}))
	assert.Equal(t, 5.0, expectedDuration(source, models.Operations{
		Trim:  &models.Trim{Duration: 10},
		Speed: 2,
	}))
	// A trim longer than the source cannot stretch the prediction.
	assert.Equal(t, 60.0, expectedDuration(source, models.Operations{Trim: &models.Trim{Duration: 500}}))
}

func TestOutputExtension(t *testing.T) {
	assert.Equal(t, ".mp4", outputExtension(""))
	assert.Equal(t, ".mp4", outputExtension(models.FormatMP4))
	assert.Equal(t, ".webm", outputExtension(models.FormatWebM))
	assert.Equal(t, ".gif", outputExtension(models.FormatGIF))
}
