package preprocess

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
)

func TestDecode_RoundTrip(t *testing.T) {
	data, err := EncodePNG(solid(30, 20, color.NRGBA{R: 1, G: 2, B: 3, A: 255}))
	require.NoError(t, err)

	img, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, img.NRGBAAt(4, 4))
}

func TestDecode_Invalid(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("definitely not an image")} {
		_, err := Decode(data)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrDecode))
	}
}
