// Package preprocess builds the raster variants that are recognized
// independently during one import. Every transform is a pure function of its
// input image.
package preprocess

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
)

// Variant names.
const (
	VariantOriginal  = "original"
	VariantContrast  = "contrast"
	VariantColorLift = "color-lift"
	VariantInverted  = "inverted"
	VariantFocus     = "focus"
)

// Variant is one raster handed to OCR, with the mapping back to the source.
type Variant struct {
	Name    string
	Image   image.Image
	Scale   float64 // variant pixels per source pixel
	OffsetX float64 // source pixels
	OffsetY float64
}

// ToSource maps a point of the variant raster into source raster coordinates.
func (v Variant) ToSource(x, y float64) (float64, float64) {
	return v.OffsetX + x/v.Scale, v.OffsetY + y/v.Scale
}

// Encode returns the variant as PNG bytes.
func (v Variant) Encode() ([]byte, error) {
	return EncodePNG(v.Image)
}

// Options tunes the bank. Zero values are replaced by DefaultOptions.
type Options struct {
	Upscale       float64
	ContrastGain  float64
	Bands         int
	BandOverlap   float64 // fraction of source height
	FocusFraction float64 // fraction of source height kept around the middle
	FocusedCell   float64 // fraction of cell height, from the top
	ExtendedCell  float64
	MinCropWidth  int // per-cell crops are upscaled to at least this width
	MaxCropScale  float64
}

func DefaultOptions() Options {
	return Options{
		Upscale:       2,
		ContrastGain:  2.0,
		Bands:         6,
		BandOverlap:   0.03,
		FocusFraction: 0.78,
		FocusedCell:   0.48,
		ExtendedCell:  0.62,
		MinCropWidth:  240,
		MaxCropScale:  4,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Upscale <= 0 {
		o.Upscale = d.Upscale
	}
	if o.ContrastGain <= 0 {
		o.ContrastGain = d.ContrastGain
	}
	if o.Bands <= 0 {
		o.Bands = d.Bands
	}
	if o.BandOverlap <= 0 {
		o.BandOverlap = d.BandOverlap
	}
	if o.FocusFraction <= 0 || o.FocusFraction > 1 {
		o.FocusFraction = d.FocusFraction
	}
	if o.FocusedCell <= 0 || o.FocusedCell > 1 {
		o.FocusedCell = d.FocusedCell
	}
	if o.ExtendedCell <= 0 || o.ExtendedCell > 1 {
		o.ExtendedCell = d.ExtendedCell
	}
	if o.MinCropWidth <= 0 {
		o.MinCropWidth = d.MinCropWidth
	}
	if o.MaxCropScale <= 0 {
		o.MaxCropScale = d.MaxCropScale
	}
	return o
}

// FullFrame returns the whole-image variants: original, contrast, color-lift
// and inverted, all upscaled.
func FullFrame(src image.Image, opts Options) []Variant {
	opts = opts.withDefaults()
	up := upscale(src, opts.Upscale)
	return []Variant{
		{Name: VariantOriginal, Image: up, Scale: opts.Upscale},
		{Name: VariantContrast, Image: Contrast(up, opts.ContrastGain), Scale: opts.Upscale},
		{Name: VariantColorLift, Image: ColorLift(up), Scale: opts.Upscale},
		{Name: VariantInverted, Image: imaging.Invert(up), Scale: opts.Upscale},
	}
}

// Regional returns overlapping horizontal bands plus the calendar focus crop.
func Regional(src image.Image, opts Options) []Variant {
	opts = opts.withDefaults()
	b := src.Bounds()
	h := float64(b.Dy())
	band := h / float64(opts.Bands)
	overlap := opts.BandOverlap * h

	out := make([]Variant, 0, opts.Bands+1)
	for i := 0; i < opts.Bands; i++ {
		y0 := int(math.Max(0, float64(i)*band-overlap))
		y1 := int(math.Min(h, float64(i+1)*band+overlap))
		out = append(out, crop(src, fmt.Sprintf("slice-%d", i+1), image.Rect(0, y0, b.Dx(), y1), opts.Upscale))
	}
	margin := (1 - opts.FocusFraction) / 2 * h
	out = append(out, crop(src, VariantFocus, image.Rect(0, int(margin), b.Dx(), int(h-margin)), opts.Upscale))
	return out
}

// Bank returns every variant that does not depend on a grid.
func Bank(src image.Image, opts Options) []Variant {
	return append(FullFrame(src, opts), Regional(src, opts)...)
}

// CellCrops cuts the focused and extended crops of one day cell.
func CellCrops(src image.Image, cell calendar.CalendarCell, opts Options) []Variant {
	opts = opts.withDefaults()
	w := cell.Width()
	if w <= 0 || cell.Height() <= 0 {
		return nil
	}
	scale := math.Min(opts.MaxCropScale, math.Max(opts.Upscale, float64(opts.MinCropWidth)/w))

	var out []Variant
	for _, part := range []struct {
		name string
		frac float64
	}{
		{"focused", opts.FocusedCell},
		{"extended", opts.ExtendedCell},
	} {
		bottom := cell.Top + part.frac*cell.Height()
		r := image.Rect(int(cell.Left), int(cell.Top), int(math.Round(cell.Right)), int(math.Round(bottom)))
		v := crop(src, fmt.Sprintf("cell-%d-%s", cell.Day, part.name), r, scale)
		if v.Image.Bounds().Empty() {
			continue
		}
		out = append(out, v)
	}
	return out
}

func crop(src image.Image, name string, r image.Rectangle, scale float64) Variant {
	r = r.Intersect(src.Bounds())
	cut := imaging.Crop(src, r)
	return Variant{
		Name:    name,
		Image:   upscale(cut, scale),
		Scale:   scale,
		OffsetX: float64(r.Min.X),
		OffsetY: float64(r.Min.Y),
	}
}

func upscale(img image.Image, scale float64) *image.NRGBA {
	b := img.Bounds()
	if b.Empty() {
		return imaging.Clone(img)
	}
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

// Contrast stretches luminance around 128 and drops color, leaving a
// near-binary image where dark text on light paper stands out.
func Contrast(img image.Image, gain float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		v := clamp8((luminance(c)-128)*gain + 128)
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}

// ColorLift pushes saturated pixels further away from their gray level so
// text printed inside colored boxes keeps its edge.
func ColorLift(img image.Image) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		hi := math.Max(r, math.Max(g, b))
		lo := math.Min(r, math.Min(g, b))
		sat := 0.0
		if hi > 0 {
			sat = (hi - lo) / hi
		}
		mean := (r + g + b) / 3
		base := (mean-128)*1.3 + 128
		gain := 1 + 2*sat
		return color.NRGBA{
			R: clamp8(base + (r-mean)*gain),
			G: clamp8(base + (g-mean)*gain),
			B: clamp8(base + (b-mean)*gain),
			A: c.A,
		}
	})
}

func luminance(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
