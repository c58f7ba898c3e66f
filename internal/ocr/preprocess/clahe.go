package preprocess

import (
	"image"
	"image/color"
	"math"
)

// CLAHE performs contrast limited adaptive histogram equalization.
// Per-tile histograms are clipped at clipLimit times the uniform bin
// height, the excess redistributed, and each pixel is remapped by
// bilinear interpolation between the four surrounding tile mappings.
func CLAHE(src *image.Gray, clipLimit float64, tileSize int) *image.Gray {
	if clipLimit <= 0 || tileSize <= 1 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}

	tilesX := (w + tileSize - 1) / tileSize
	tilesY := (h + tileSize - 1) / tileSize

	// One equalization LUT per tile.
	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0 := tx * tileSize
			y0 := ty * tileSize
			x1 := minInt(x0+tileSize, w)
			y1 := minInt(y0+tileSize, h)
			luts[ty*tilesX+tx] = tileLUT(src, b, x0, y0, x1, y1, clipLimit)
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		// Tile-center coordinates for interpolation.
		fy := (float64(y) - float64(tileSize)/2) / float64(tileSize)
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty1 := clampInt(ty0+1, 0, tilesY-1)
		ty0 = clampInt(ty0, 0, tilesY-1)

		for x := 0; x < w; x++ {
			fx := (float64(x) - float64(tileSize)/2) / float64(tileSize)
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx1 := clampInt(tx0+1, 0, tilesX-1)
			tx0c := clampInt(tx0, 0, tilesX-1)

			v := src.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			p00 := float64(luts[ty0*tilesX+tx0c][v])
			p10 := float64(luts[ty0*tilesX+tx1][v])
			p01 := float64(luts[ty1*tilesX+tx0c][v])
			p11 := float64(luts[ty1*tilesX+tx1][v])

			top := p00*(1-wx) + p10*wx
			bot := p01*(1-wx) + p11*wx
			out.SetGray(x, y, color.Gray{Y: uint8(math.Round(top*(1-wy) + bot*wy))})
		}
	}
	return out
}

func tileLUT(src *image.Gray, b image.Rectangle, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	n := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[src.GrayAt(b.Min.X+x, b.Min.Y+y).Y]++
			n++
		}
	}
	var lut [256]uint8
	if n == 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	// Clip and redistribute.
	limit := int(clipLimit * float64(n) / 256.0)
	if limit < 1 {
		limit = 1
	}
	excess := 0
	for i := 0; i < 256; i++ {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	share := excess / 256
	rem := excess % 256
	for i := 0; i < 256; i++ {
		hist[i] += share
		if i < rem {
			hist[i]++
		}
	}

	acc := 0
	for i := 0; i < 256; i++ {
		acc += hist[i]
		lut[i] = uint8(math.Round(255.0 * float64(acc) / float64(n)))
	}
	return lut
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
