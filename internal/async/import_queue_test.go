package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	mu      sync.Mutex
	paths   []string
	traces  []string
	release chan struct{}
	fail    map[string]bool
}

func (r *recorder) ProcessFile(ctx context.Context, path string) error {
	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	r.traces = append(r.traces, common.RequestIDFromContext(ctx))
	if r.fail[path] {
		return errors.New("boom")
	}
	return nil
}

func TestImportQueue_ProcessesAndDrains(t *testing.T) {
	rec := &recorder{fail: map[string]bool{"/inbox/b.png": true}}
	q := NewImportQueue(rec, quiet, WithWorkers(3), WithQueueSize(8))

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{Path: "/inbox/a.png", TraceID: "trace-a"}))
	require.NoError(t, q.Enqueue(ctx, Job{Path: "/inbox/b.png"}))
	require.NoError(t, q.Enqueue(ctx, Job{Path: "/inbox/c.pdf"}))

	q.Shutdown(ctx)
	assert.ElementsMatch(t, []string{"/inbox/a.png", "/inbox/b.png", "/inbox/c.pdf"}, rec.paths)
	assert.Contains(t, rec.traces, "trace-a")
	for _, tr := range rec.traces {
		assert.NotEmpty(t, tr)
	}

	assert.ErrorIs(t, q.Enqueue(ctx, Job{Path: "/inbox/d.png"}), ErrQueueClosed)
	q.Shutdown(ctx)
}

func TestImportQueue_BackpressureHonorsContext(t *testing.T) {
	rec := &recorder{release: make(chan struct{})}
	q := NewImportQueue(rec, quiet, WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "first"}))
	// wait until the worker holds "first" so the buffer slot is free again
	require.Eventually(t, func() bool { return len(q.ch) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "second"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(ctx, Job{Path: "third"}), context.DeadlineExceeded)

	close(rec.release)
	q.Shutdown(context.Background())
	assert.Equal(t, []string{"first", "second"}, rec.paths)
}

func TestImportQueue_JobTimeout(t *testing.T) {
	rec := &recorder{release: make(chan struct{})}
	q := NewImportQueue(rec, quiet, WithWorkers(1), WithProcessTimeout(10*time.Millisecond))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "slow"}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	q.Shutdown(ctx)
	require.NoError(t, ctx.Err(), "the job timeout frees the worker")
	assert.Empty(t, rec.paths)
}
