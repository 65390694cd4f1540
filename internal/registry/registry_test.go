package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoforge/models"
)

func testSource(id string, uploadedAt time.Time) models.SourceFile {
	return models.SourceFile{
		ID:         id,
		Path:       "/tmp/" + id + ".mp4",
		Width:      1920,
		Height:     1080,
		Duration:   60,
		UploadedAt: uploadedAt,
	}
}

func TestCreateJobUnknownSource(t *testing.T) {
	reg := New()
	_, err := reg.CreateJob("missing", models.Operations{})
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestCreateAndGetJob(t *testing.T) {
	reg := New()
	reg.RegisterSource(testSource("src-1", time.Now()))

	job, err := reg.CreateJob("src-1", models.Operations{Format: models.FormatGIF})
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Zero(t, job.Progress)

	got, ok := reg.GetJob(job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, models.FormatGIF, got.Operations.Format)
}

func TestUpdateJobBumpsUpdatedAt(t *testing.T) {
	reg := New()
	reg.RegisterSource(testSource("src-1", time.Now()))
	job, err := reg.CreateJob("src-1", models.Operations{})
	require.NoError(t, err)

	before := job.UpdatedAt
	time.Sleep(time.Millisecond)

	updated, err := reg.UpdateJob(job.ID, func(j *models.ProcessingJob) {
		j.Status = models.JobStatusProcessing
		j.Progress = 40
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, updated.Status)
	assert.Equal(t, 40, updated.Progress)
	assert.True(t, updated.UpdatedAt.After(before))

	_, err = reg.UpdateJob("missing", func(j *models.ProcessingJob) {})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestUpdateJobIsAtomic(t *testing.T) {
	reg := New()
	reg.RegisterSource(testSource("src-1", time.Now()))
	job, err := reg.CreateJob("src-1", models.Operations{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.UpdateJob(job.ID, func(j *models.ProcessingJob) {
				j.Progress++
			})
		}()
	}
	wg.Wait()

	got, ok := reg.GetJob(job.ID)
	require.True(t, ok)
	assert.Equal(t, 100, got.Progress)
}

func TestStaleSourcesSkipsInFlightJobs(t *testing.T) {
	reg := New()
	now := time.Now()
	old := now.Add(-time.Hour)

	reg.RegisterSource(testSource("idle", old))
	reg.RegisterSource(testSource("busy", old))
	reg.RegisterSource(testSource("done", old))
	reg.RegisterSource(testSource("fresh", now))

	busyJob, err := reg.CreateJob("busy", models.Operations{})
	require.NoError(t, err)
	_, err = reg.UpdateJob(busyJob.ID, func(j *models.ProcessingJob) {
		j.Status = models.JobStatusProcessing
	})
	require.NoError(t, err)

	doneJob, err := reg.CreateJob("done", models.Operations{})
	require.NoError(t, err)
	_, err = reg.UpdateJob(doneJob.ID, func(j *models.ProcessingJob) {
		j.Status = models.JobStatusCompleted
	})
	require.NoError(t, err)

	stale := reg.StaleSources(now, 30*time.Minute)
	ids := make([]string, 0, len(stale))
	for _, s := range stale {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"idle", "done"}, ids)
}

func TestStaleJobOutputs(t *testing.T) {
	reg := New()
	reg.RegisterSource(testSource("src-1", time.Now()))

	job, err := reg.CreateJob("src-1", models.Operations{})
	require.NoError(t, err)
	_, err = reg.UpdateJob(job.ID, func(j *models.ProcessingJob) {
		j.Status = models.JobStatusCompleted
		j.OutputPath = "/tmp/out.mp4"
		j.OutputURL = "/api/download/" + j.ID
	})
	require.NoError(t, err)

	assert.Empty(t, reg.StaleJobOutputs(time.Now(), 30*time.Minute))

	later := time.Now().Add(time.Hour)
	stale := reg.StaleJobOutputs(later, 30*time.Minute)
	require.Len(t, stale, 1)
	assert.Equal(t, job.ID, stale[0].ID)
}

func TestClearJobOutputKeepsRecord(t *testing.T) {
	reg := New()
	reg.RegisterSource(testSource("src-1", time.Now()))

	job, err := reg.CreateJob("src-1", models.Operations{})
	require.NoError(t, err)
	_, err = reg.UpdateJob(job.ID, func(j *models.ProcessingJob) {
		j.Status = models.JobStatusCompleted
		j.OutputPath = "/tmp/out.mp4"
		j.OutputURL = "/api/download/" + j.ID
	})
	require.NoError(t, err)

	reg.ClearJobOutput(job.ID)

	got, ok := reg.GetJob(job.ID)
	require.True(t, ok)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Empty(t, got.OutputPath)
	assert.Empty(t, got.OutputURL)
}

func TestDeleteSource(t *testing.T) {
	reg := New()
	reg.RegisterSource(testSource("src-1", time.Now()))
	reg.DeleteSource("src-1")

	_, ok := reg.GetSource("src-1")
	assert.False(t, ok)
}
