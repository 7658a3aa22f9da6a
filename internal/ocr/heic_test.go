package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
)

func writingRunner(payload []byte) *fakeRunner {
	return &fakeRunner{fn: func(name string, args []string) ([]byte, []byte, error) {
		out := args[len(args)-1]
		return nil, nil, os.WriteFile(out, payload, 0o644)
	}}
}

func TestHEICConverter_Converters(t *testing.T) {
	for _, tc := range []struct {
		converter string
		wantArgs  int
	}{
		{"heif-convert", 2},
		{"magick", 2},
		{"sips", 6},
	} {
		t.Run(tc.converter, func(t *testing.T) {
			r := writingRunner([]byte("PNG"))
			h := HEICConverter{Runner: r, Converter: tc.converter}
			png, err := h.Convert(context.Background(), []byte("heic"))
			require.NoError(t, err)
			assert.Equal(t, []byte("PNG"), png)
			require.Len(t, r.calls, 1)
			assert.Equal(t, tc.converter, r.calls[0].name)
			assert.Len(t, r.calls[0].args, tc.wantArgs)
		})
	}
}

func TestHEICConverter_Unsupported(t *testing.T) {
	h := HEICConverter{Runner: &fakeRunner{}, Converter: "gimp"}
	_, err := h.Convert(context.Background(), []byte("heic"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))
}

func TestHEICConverter_Cache(t *testing.T) {
	cache := t.TempDir()
	r := writingRunner([]byte("PNG"))
	h := HEICConverter{Runner: r, Converter: "magick", CacheDir: cache}
	ctx := common.WithContentHash(context.Background(), "abc123")

	_, err := h.Convert(ctx, []byte("heic"))
	require.NoError(t, err)
	_, err = h.Convert(ctx, []byte("heic"))
	require.NoError(t, err)

	assert.Len(t, r.calls, 1)
	assert.FileExists(t, filepath.Join(cache, "abc123.png"))
}

func TestHEICConverter_NoOutput(t *testing.T) {
	h := HEICConverter{Runner: &fakeRunner{}, Converter: "magick"}
	_, err := h.Convert(context.Background(), []byte("heic"))
	require.Error(t, err)
}
