package preprocess

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
)

// Decode reads any supported raster (png, jpeg, gif, bmp, tiff, webp), applies
// the EXIF orientation and returns it with its origin at (0,0).
func Decode(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, common.NewAppError("DECODE_ERROR", "empty image", common.ErrDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, common.NewAppError("DECODE_ERROR", fmt.Sprintf("decode image: %v", err), common.ErrDecode)
	}
	return imaging.Clone(img), nil
}

// EncodePNG encodes a raster for the OCR engines.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
