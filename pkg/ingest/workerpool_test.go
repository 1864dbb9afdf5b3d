package ingest

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsJobs(t *testing.T) {
	p := NewWorkerPool(4, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	var ran int32
	const jobs = 100
	for i := 0; i < jobs; i++ {
		require.NoError(t, p.Submit(func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}))
	}
	p.Close()

	assert.EqualValues(t, jobs, atomic.LoadInt32(&ran))
}

func TestSubmitAfterClose(t *testing.T) {
	p := NewWorkerPool(1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	p.Close()
	cancel()

	err := p.Submit(func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	p := NewWorkerPool(2, 2)
	p.Start(context.Background())
	p.Close()
	p.Close()
}

func TestSubmitRecoversFromCloseRace(t *testing.T) {
	p := NewWorkerPool(1, 1)
	// No workers: the second Submit blocks on the full queue.
	require.NoError(t, p.Submit(func(ctx context.Context) error { return nil }))

	done := make(chan error, 1)
	go func() {
		done <- p.Submit(func(ctx context.Context) error { return nil })
	}()

	time.Sleep(10 * time.Millisecond)
	p.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked Submit did not return after Close")
	}
}

func TestSubmitCtxCanceled(t *testing.T) {
	p := NewWorkerPool(1, 1)
	defer p.Close()
	require.NoError(t, p.Submit(func(ctx context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.SubmitCtx(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestContextCancellationStopsWorkers(t *testing.T) {
	p := NewWorkerPool(2, 16)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	cancel()
	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Close blocked after context cancellation")
	}
}
