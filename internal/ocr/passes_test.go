package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shifts-tracker/internal/preprocess"
)

// fakeRecognizer answers by raster width so each variant can be told apart.
type fakeRecognizer struct {
	mu       sync.Mutex
	byWidth  map[int]Result
	fail     map[int]bool
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeRecognizer) Recognize(ctx context.Context, data []byte) (Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[cfg.Width] {
		return Result{}, errors.New("engine crashed")
	}
	return f.byWidth[cfg.Width], nil
}

func variant(name string, w, h int, scale, offX, offY float64) preprocess.Variant {
	return preprocess.Variant{
		Name:    name,
		Image:   image.NewNRGBA(image.Rect(0, 0, w, h)),
		Scale:   scale,
		OffsetX: offX,
		OffsetY: offY,
	}
}

func TestRunPasses_MapsAndFilters(t *testing.T) {
	rec := &fakeRecognizer{byWidth: map[int]Result{
		200: {Text: "1 07:00", Words: []Word{
			{Text: "1", X: 20, Y: 40, Width: 10, Height: 20, Confidence: 90},
			{Text: "~", X: 60, Y: 40, Width: 10, Height: 20, Confidence: 12},
		}},
		100: {Text: "15:00", Words: []Word{
			{Text: "15:00", X: 10, Y: 10, Width: 40, Height: 12, Confidence: 70},
		}},
	}}

	passes := RunPasses(context.Background(), rec, []preprocess.Variant{
		variant("original", 200, 100, 2, 0, 0),
		variant("slice-2", 100, 50, 2, 0, 30),
	}, 2)
	require.Len(t, passes, 2)

	assert.Equal(t, "original", passes[0].Variant)
	assert.Equal(t, "1 07:00", passes[0].Text)
	require.Len(t, passes[0].Blocks, 1)
	b := passes[0].Blocks[0]
	assert.Equal(t, "1", b.Text)
	assert.InDelta(t, 10, b.X, 1e-9)
	assert.InDelta(t, 20, b.Y, 1e-9)
	assert.InDelta(t, 5, b.Width, 1e-9)
	assert.InDelta(t, 10, b.Height, 1e-9)
	assert.Equal(t, "original", b.Source)

	require.Len(t, passes[1].Blocks, 1)
	assert.InDelta(t, 5, passes[1].Blocks[0].X, 1e-9)
	assert.InDelta(t, 35, passes[1].Blocks[0].Y, 1e-9)

	assert.Len(t, Blocks(passes), 2)
}

func TestRunPasses_FailuresBecomeEmptyPasses(t *testing.T) {
	rec := &fakeRecognizer{
		byWidth: map[int]Result{10: {Words: []Word{{Text: "5", Confidence: 80}}}},
		fail:    map[int]bool{20: true},
	}
	passes := RunPasses(context.Background(), rec, []preprocess.Variant{
		variant("a", 10, 10, 1, 0, 0),
		variant("b", 20, 10, 1, 0, 0),
	}, 1)
	require.Len(t, passes, 2)
	assert.Len(t, passes[0].Blocks, 1)
	assert.NoError(t, passes[0].Err)
	assert.Empty(t, passes[1].Blocks)
	assert.Error(t, passes[1].Err)
	assert.Equal(t, "b", passes[1].Variant)
}

func TestRunPasses_BoundedConcurrency(t *testing.T) {
	rec := &fakeRecognizer{byWidth: map[int]Result{}, delay: 20 * time.Millisecond}
	var vs []preprocess.Variant
	for i := 0; i < 8; i++ {
		vs = append(vs, variant("v", 10+i, 10, 1, 0, 0))
	}
	passes := RunPasses(context.Background(), rec, vs, 3)
	assert.Len(t, passes, 8)
	assert.LessOrEqual(t, rec.peak.Load(), int32(3))
	assert.GreaterOrEqual(t, rec.peak.Load(), int32(1))
}

func TestRunPasses_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &fakeRecognizer{byWidth: map[int]Result{10: {Words: []Word{{Text: "5", Confidence: 80}}}}}
	passes := RunPasses(ctx, rec, []preprocess.Variant{variant("a", 10, 10, 1, 0, 0)}, 2)
	require.Len(t, passes, 1)
	assert.Empty(t, passes[0].Blocks)
	assert.ErrorIs(t, passes[0].Err, context.Canceled)
}
