package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessorQueue_RunsInOrder(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	q := NewProcessorQueue(HandlerFunc(func(_ context.Context, j Job) error {
		mu.Lock()
		got = append(got, j.Path)
		mu.Unlock()
		return nil
	}), nil)

	ctx := context.Background()
	for _, p := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		require.NoError(t, q.Enqueue(ctx, Job{Path: p}))
	}
	q.Shutdown(ctx)

	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, got)
	assert.ErrorIs(t, q.Enqueue(ctx, Job{Path: "late.pdf"}), ErrQueueClosed)
	q.Shutdown(ctx) // idempotent
}

func TestProcessorQueue_ErrorHookAndTimeout(t *testing.T) {
	var failed []string
	q := NewProcessorQueue(HandlerFunc(func(ctx context.Context, j Job) error {
		if j.Path == "slow.pdf" {
			<-ctx.Done()
			return ctx.Err()
		}
		return errors.New("boom")
	}), nil,
		WithProcessTimeout(10*time.Millisecond),
		WithErrorHook(func(j Job, err error) { failed = append(failed, j.Path) }),
	)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{Path: "slow.pdf"}))
	require.NoError(t, q.Enqueue(ctx, Job{Path: "bad.pdf"}))
	q.Shutdown(ctx)

	assert.Equal(t, []string{"slow.pdf", "bad.pdf"}, failed)
}

func TestProcessorQueue_EnqueueRespectsContextWhenFull(t *testing.T) {
	release := make(chan struct{})
	q := NewProcessorQueue(HandlerFunc(func(context.Context, Job) error {
		<-release
		return nil
	}), nil, WithQueueSize(1))

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{Path: "1"})) // picked up by the worker
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(ctx, Job{Path: "2"})) // fills the buffer

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(short, Job{Path: "3"}), context.DeadlineExceeded)

	close(release)
	q.Shutdown(ctx)
}
