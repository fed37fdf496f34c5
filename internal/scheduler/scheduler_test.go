package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	schedule Schedule
	err      error
	calls    int
	ctx      context.Context
}

func (j *fakeJob) Name() string       { return "fake" }
func (j *fakeJob) Schedule() Schedule { return j.schedule }

func (j *fakeJob) Execute(ctx context.Context) error {
	j.calls++
	j.ctx = ctx
	return j.err
}

func TestAddJob(t *testing.T) {
	s := New()

	require.NoError(t, s.AddJob(&fakeJob{schedule: Hourly}))
	require.NoError(t, s.AddJob(&fakeJob{schedule: Daily}))
	assert.Equal(t, 2, s.JobCount())

	err := s.AddJob(&fakeJob{schedule: Schedule(42)})
	assert.Error(t, err)
	assert.Equal(t, 2, s.JobCount())
}

func TestRun_PassesSchedulerContext(t *testing.T) {
	s := New()
	job := &fakeJob{err: errors.New("boom")}

	s.run(job)

	assert.Equal(t, 1, job.calls)
	require.NotNil(t, job.ctx)
	assert.NoError(t, job.ctx.Err())
}

func TestStartStop(t *testing.T) {
	s := New()

	s.Start()
	assert.False(t, s.started, "nothing to run without jobs")

	require.NoError(t, s.AddJob(&fakeJob{schedule: Daily}))
	s.Start()
	assert.True(t, s.started)

	s.Stop()
	assert.False(t, s.started)
	assert.Error(t, s.ctx.Err())
}
