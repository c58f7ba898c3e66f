// Package preprocess prepares rendered page images for OCR: grayscale,
// local contrast enhancement, denoising, deskew and multi-scale
// variants. Box coordinates coming back from an engine run on a variant
// are mapped back to original page pixels with MapBoxToOriginal.
package preprocess

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Variant is one preprocessed rendition of the page.
type Variant struct {
	Image    *image.Gray
	Scale    float64
	Rotation float64 // degrees, applied after scaling
}

type Options struct {
	Scales        []float64
	ClipLimit     float64
	TileSize      int
	DenoiseRadius int
	MaxSkew       float64 // degrees
	SkewStep      float64 // degrees
}

func DefaultOptions() Options {
	return Options{
		Scales:        []float64{1.0, 1.5},
		ClipLimit:     2.0,
		TileSize:      64,
		DenoiseRadius: 1,
		MaxSkew:       15.0,
		SkewStep:      0.5,
	}
}

// BuildVariants runs the full pipeline: grayscale, CLAHE, median
// denoise, deskew, then one variant per scale. Every variant carries
// the scale and rotation needed to invert its coordinates.
func BuildVariants(src image.Image, opts Options) []Variant {
	if len(opts.Scales) == 0 {
		opts.Scales = []float64{1.0}
	}
	gray := Grayscale(src)
	gray = CLAHE(gray, opts.ClipLimit, opts.TileSize)
	gray = MedianDenoise(gray, opts.DenoiseRadius)

	angle := EstimateSkew(gray, opts.MaxSkew, opts.SkewStep)
	if angle != 0 {
		gray = Rotate(gray, angle)
	}

	out := make([]Variant, 0, len(opts.Scales))
	for _, s := range opts.Scales {
		if s <= 0 {
			continue
		}
		img := gray
		if s != 1.0 {
			img = ScaleGray(gray, s)
		}
		out = append(out, Variant{Image: img, Scale: s, Rotation: angle})
	}
	if len(out) == 0 {
		out = append(out, Variant{Image: gray, Scale: 1.0, Rotation: angle})
	}
	return out
}

func Grayscale(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), src, b.Min, xdraw.Src)
	return out
}

// MedianDenoise applies a (2r+1)x(2r+1) median filter.
func MedianDenoise(src *image.Gray, radius int) *image.Gray {
	if radius <= 0 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	side := 2*radius + 1
	window := make([]uint8, 0, side*side)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -radius; dy <= radius; dy++ {
				yy := clampInt(y+dy, 0, h-1)
				for dx := -radius; dx <= radius; dx++ {
					xx := clampInt(x+dx, 0, w-1)
					window = append(window, src.GrayAt(b.Min.X+xx, b.Min.Y+yy).Y)
				}
			}
			out.SetGray(x, y, color.Gray{Y: medianU8(window)})
		}
	}
	return out
}

// ScaleGray resizes by factor with Catmull-Rom resampling.
func ScaleGray(src *image.Gray, factor float64) *image.Gray {
	b := src.Bounds()
	w := int(math.Round(float64(b.Dx()) * factor))
	h := int(math.Round(float64(b.Dy()) * factor))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), src, b, xdraw.Src, nil)
	return out
}

// Rotate rotates by angle degrees around the image center with bilinear
// sampling; uncovered corners fill white.
func Rotate(src *image.Gray, angleDeg float64) *image.Gray {
	if angleDeg == 0 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))

	theta := angleDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	cx, cy := float64(w)/2, float64(h)/2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Inverse mapping: where did this output pixel come from.
			dx := float64(x) - cx
			dy := float64(y) - cy
			sx := cos*dx + sin*dy + cx
			sy := -sin*dx + cos*dy + cy
			out.SetGray(x, y, color.Gray{Y: bilinear(src, sx, sy)})
		}
	}
	return out
}

// MapBoxToOriginal inverts a variant's scale and rotation, returning the
// box in original page pixel coordinates. Rotation is inverted around
// the unscaled image center; the result is the axis-aligned hull of the
// rotated corners, clamped to the page.
func MapBoxToOriginal(x, y, bw, bh float64, scale, rotationDeg float64, pageW, pageH int) (float64, float64, float64, float64) {
	if scale > 0 && scale != 1.0 {
		x /= scale
		y /= scale
		bw /= scale
		bh /= scale
	}
	if rotationDeg != 0 {
		theta := rotationDeg * math.Pi / 180
		sin, cos := math.Sin(theta), math.Cos(theta)
		cx, cy := float64(pageW)/2, float64(pageH)/2

		corners := [4][2]float64{
			{x, y},
			{x + bw, y},
			{x, y + bh},
			{x + bw, y + bh},
		}
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, c := range corners {
			dx := c[0] - cx
			dy := c[1] - cy
			// The variant was rotated by +theta; invert with -theta.
			rx := cos*dx + sin*dy + cx
			ry := -sin*dx + cos*dy + cy
			minX = math.Min(minX, rx)
			minY = math.Min(minY, ry)
			maxX = math.Max(maxX, rx)
			maxY = math.Max(maxY, ry)
		}
		x, y = minX, minY
		bw, bh = maxX-minX, maxY-minY
	}

	x = clampFloat(x, 0, float64(pageW))
	y = clampFloat(y, 0, float64(pageH))
	if x+bw > float64(pageW) {
		bw = float64(pageW) - x
	}
	if y+bh > float64(pageH) {
		bh = float64(pageH) - y
	}
	if bw < 0 {
		bw = 0
	}
	if bh < 0 {
		bh = 0
	}
	return x, y, bw, bh
}

func bilinear(src *image.Gray, x, y float64) uint8 {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if x < 0 || y < 0 || x > float64(w-1) || y > float64(h-1) {
		return 255
	}
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := clampInt(x0+1, 0, w-1)
	y1 := clampInt(y0+1, 0, h-1)
	fx := x - float64(x0)
	fy := y - float64(y0)

	p00 := float64(src.GrayAt(b.Min.X+x0, b.Min.Y+y0).Y)
	p10 := float64(src.GrayAt(b.Min.X+x1, b.Min.Y+y0).Y)
	p01 := float64(src.GrayAt(b.Min.X+x0, b.Min.Y+y1).Y)
	p11 := float64(src.GrayAt(b.Min.X+x1, b.Min.Y+y1).Y)

	top := p00*(1-fx) + p10*fx
	bot := p01*(1-fx) + p11*fx
	return uint8(math.Round(top*(1-fy) + bot*fy))
}

func medianU8(vals []uint8) uint8 {
	var hist [256]int
	for _, v := range vals {
		hist[v]++
	}
	mid := len(vals) / 2
	acc := 0
	for i := 0; i < 256; i++ {
		acc += hist[i]
		if acc > mid {
			return uint8(i)
		}
	}
	return 255
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
