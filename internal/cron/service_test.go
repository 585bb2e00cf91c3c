package cron

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
)

type fakeLock struct {
	mu       sync.Mutex
	held     bool
	acquires int
	releases int
}

func (l *fakeLock) Acquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	l.releases++
	return nil
}

type recordingJob struct {
	name string
	runs int
	err  error
}

func (j *recordingJob) Name() string { return j.name }

func (j *recordingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestServiceRunsAllJobsInOrder(t *testing.T) {
	lock := &fakeLock{}
	first := &recordingJob{name: "first"}
	second := &recordingJob{name: "second"}

	svc, err := NewService(ServiceParams{
		Logger: testLogger(),
		Jobs:   []Job{first, second},
		Lock:   lock,
	})
	require.NoError(t, err)

	require.NoError(t, svc.runCycle(context.Background()))

	assert.Equal(t, 1, first.runs)
	assert.Equal(t, 1, second.runs)
	assert.Equal(t, 1, lock.acquires)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)
}

func TestServiceSkipsCycleWhenLockHeld(t *testing.T) {
	lock := &fakeLock{held: true}
	job := &recordingJob{name: "sweep"}

	svc, err := NewService(ServiceParams{
		Logger: testLogger(),
		Jobs:   []Job{job},
		Lock:   lock,
	})
	require.NoError(t, err)

	require.NoError(t, svc.runCycle(context.Background()))

	assert.Equal(t, 0, job.runs)
	assert.Equal(t, 0, lock.releases)
}

func TestServiceContinuesPastFailingJob(t *testing.T) {
	lock := &fakeLock{}
	broken := &recordingJob{name: "broken", err: errors.New("boom")}
	healthy := &recordingJob{name: "healthy"}

	svc, err := NewService(ServiceParams{
		Logger: testLogger(),
		Jobs:   []Job{broken, healthy},
		Lock:   lock,
	})
	require.NoError(t, err)

	require.NoError(t, svc.runCycle(context.Background()))

	assert.Equal(t, 1, broken.runs)
	assert.Equal(t, 1, healthy.runs)
}

func TestServiceRunStopsOnContextCancel(t *testing.T) {
	lock := &fakeLock{}
	job := &recordingJob{name: "sweep"}

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Jobs:     []Job{job},
		Lock:     lock,
		Interval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop after cancel")
	}

	// The initial cycle ran before the ticker was armed.
	assert.Equal(t, 1, job.runs)
}

func TestNewServiceRejectsMissingDeps(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Logger: testLogger()})
	assert.Error(t, err)
}
