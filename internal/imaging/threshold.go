package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/disintegration/imaging"
)

// InkLevel separates ink from paper in a binarized page: pixels strictly
// below it are ink.
const InkLevel = 128

// DefaultBinarizeLevel is the fixed threshold used for aligned sheets. Pixels
// brighter than it become paper.
const DefaultBinarizeLevel = 200

// Binarize thresholds img at level: pixels brighter than level become 255
// (paper), all others become 0 (ink).
func Binarize(img image.Image, level uint8) *image.Gray {
	gray := ToGray(img)
	out := image.NewGray(gray.Bounds())
	for i, v := range gray.Pix {
		if v > level {
			out.Pix[i] = 255
		}
	}
	return out
}

// AdaptiveBinarize thresholds img against a Gaussian-weighted local mean.
//
// The image is first smoothed with a 5x5 Gaussian. A pixel becomes paper
// (255) when it is brighter than the Gaussian mean of its blockSize
// neighbourhood minus c, and ink (0) otherwise. This copes with uneven
// lighting better than Binarize at the cost of hollowing large filled areas.
func AdaptiveBinarize(img image.Image, blockSize int, c float64) *image.Gray {
	if blockSize < 3 {
		blockSize = 3
	}
	gray := ToGray(img)
	smoothed := nrgbaToGray(imaging.Blur(gray, gaussianSigma(5)))
	mean := nrgbaToGray(imaging.Blur(smoothed, gaussianSigma(blockSize)))

	out := image.NewGray(smoothed.Bounds())
	for i, v := range smoothed.Pix {
		if float64(v) > float64(mean.Pix[i])-c {
			out.Pix[i] = 255
		}
	}
	return out
}

// OtsuLevel returns the threshold that best separates the two intensity
// classes of img by maximizing between-class variance.
func OtsuLevel(img image.Image) uint8 {
	gray := ToGray(img)
	bins := histogram.NewRGBAHistogram(gray).R.Bins
	total := 0
	sum := 0.0
	for i, n := range bins {
		total += n
		sum += float64(i * n)
	}
	if total == 0 {
		return 0
	}

	var (
		sumBackground float64
		weightBack    int
		bestVariance  = -1.0
		best          int
	)
	for t, n := range bins {
		weightBack += n
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}
		sumBackground += float64(t * n)
		meanBack := sumBackground / float64(weightBack)
		meanFore := (sum - sumBackground) / float64(weightFore)
		diff := meanBack - meanFore
		variance := float64(weightBack) * float64(weightFore) * diff * diff
		if variance > bestVariance {
			bestVariance = variance
			best = t
		}
	}
	return uint8(best)
}

// InkMask binarizes img with Otsu's threshold and inverts the result so that
// ink is 255 and paper is 0.
func InkMask(img image.Image) *image.Gray {
	gray := ToGray(img)
	level := OtsuLevel(gray)
	out := image.NewGray(gray.Bounds())
	for i, v := range gray.Pix {
		if v <= level {
			out.Pix[i] = 255
		}
	}
	return out
}

// Equalize spreads the intensity histogram of img across the full 0-255 range.
func Equalize(img image.Image) *image.Gray {
	gray := ToGray(img)
	bins := histogram.NewRGBAHistogram(gray).R.Bins
	out := image.NewGray(gray.Bounds())

	first := 0
	for first < len(bins) && bins[first] == 0 {
		first++
	}
	total := len(gray.Pix)
	if first == len(bins) {
		return out
	}
	if bins[first] == total {
		for i := range out.Pix {
			out.Pix[i] = uint8(first)
		}
		return out
	}

	var lut [256]uint8
	scale := 255.0 / float64(total-bins[first])
	cumulative := 0
	for i := first + 1; i < len(bins); i++ {
		cumulative += bins[i]
		lut[i] = uint8(math.Min(255, math.Round(float64(cumulative)*scale)))
	}
	for i, v := range gray.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

// gaussianSigma returns the standard deviation of a Gaussian kernel of the
// given odd size, matching the usual automatic choice for that kernel size.
func gaussianSigma(size int) float64 {
	return 0.3*(float64(size-1)*0.5-1) + 0.8
}
