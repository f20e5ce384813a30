package cron

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/suuq-marketplace/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	err      error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	ok := &testJob{name: "ok"}
	failing := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	service, err := NewService(ServiceParams{
		Logger:   newTestLogger(&buf),
		Registry: NewRegistry(ok, failing),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	require.NoError(t, service.RunOnce(context.Background()))
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, failing.runs)
	assert.False(t, lock.acquired, "lock should be released after the cycle")
	assert.Contains(t, buf.String(), "cron.job_failed")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	seen := map[string]int{}
	for _, mf := range mfs {
		seen[mf.GetName()] = len(mf.GetMetric())
	}
	assert.Equal(t, 1, seen["cron_job_success_total"])
	assert.Equal(t, 1, seen["cron_job_failure_total"])
	assert.Equal(t, 2, seen["cron_job_duration_seconds"])
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	var buf bytes.Buffer
	job := &testJob{name: "ok"}
	service, err := NewService(ServiceParams{
		Logger:   newTestLogger(&buf),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{acquired: true},
	})
	require.NoError(t, err)

	require.NoError(t, service.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
	assert.Contains(t, buf.String(), "cron.cycle_skipped_locked")
}

func TestRunOnceReportsLockErrors(t *testing.T) {
	var buf bytes.Buffer
	service, err := NewService(ServiceParams{
		Logger: newTestLogger(&buf),
		Lock:   &fakeLock{err: errors.New("redis down")},
	})
	require.NoError(t, err)
	assert.ErrorContains(t, service.RunOnce(context.Background()), "redis down")
}

func TestRunStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	job := &testJob{name: "ok"}
	service, err := NewService(ServiceParams{
		Logger:   newTestLogger(&buf),
		Registry: NewRegistry(job),
		Lock:     &LocalLock{},
		Interval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, service.Run(ctx), context.Canceled)
	assert.Equal(t, 1, job.runs)
}

func TestNewServiceRequiresLoggerAndLock(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewService(ServiceParams{Lock: &LocalLock{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: newTestLogger(&buf)})
	assert.Error(t, err)
}
