package preprocess

import (
	"image"
	"math"
)

// EstimateSkew finds the rotation (degrees, within ±maxDeg at step
// granularity) that maximizes the variance of the horizontal projection
// profile of dark pixels. Text lines produce sharply peaked profiles
// when upright, so the best-scoring angle is the page's skew corrected.
// Returns 0 when no candidate beats the unrotated profile meaningfully.
func EstimateSkew(src *image.Gray, maxDeg, step float64) float64 {
	if maxDeg <= 0 || step <= 0 {
		return 0
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 8 || h < 8 {
		return 0
	}

	// Threshold at the mean: scanned text is dark on light.
	var sum uint64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += uint64(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
		}
	}
	threshold := uint8(sum / uint64(w*h))

	// Collect dark pixel coordinates once; subsample large pages.
	stride := 1
	for (w/stride)*(h/stride) > 500_000 {
		stride++
	}
	type pt struct{ x, y float64 }
	var dark []pt
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y += stride {
		for x := 0; x < w; x += stride {
			if src.GrayAt(b.Min.X+x, b.Min.Y+y).Y < threshold {
				dark = append(dark, pt{float64(x) - cx, float64(y) - cy})
			}
		}
	}
	if len(dark) < 64 {
		return 0
	}

	best := 0.0
	bestScore := -1.0
	baseScore := 0.0
	bins := make([]int, h+1)

	for angle := -maxDeg; angle <= maxDeg+1e-9; angle += step {
		theta := angle * math.Pi / 180
		sin, cos := math.Sin(theta), math.Cos(theta)

		for i := range bins {
			bins[i] = 0
		}
		// Project each dark pixel onto the row axis after rotating by
		// -angle (the correction we would apply).
		for _, p := range dark {
			ry := -sin*p.x + cos*p.y + cy
			idx := int(ry)
			if idx >= 0 && idx < len(bins) {
				bins[idx]++
			}
		}
		score := profileVariance(bins)
		if angle == 0 {
			baseScore = score
		}
		if score > bestScore {
			bestScore = score
			best = angle
		}
	}

	// Require a real improvement over the upright profile.
	if baseScore > 0 && bestScore < baseScore*1.05 {
		return 0
	}
	return best
}

func profileVariance(bins []int) float64 {
	n := float64(len(bins))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range bins {
		sum += float64(v)
	}
	mean := sum / n
	var acc float64
	for _, v := range bins {
		d := float64(v) - mean
		acc += d * d
	}
	return acc / n
}
