package imaging

import (
	"errors"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned by operations that cannot work on a zero-sized image.
var ErrEmptyImage = errors.New("empty image")

const (
	// backgroundRadius is the reach of the paper-brightness estimate in
	// full-resolution pixels. Marks narrower than twice this are treated as
	// foreground rather than shadow.
	backgroundRadius = 30.0

	// backgroundScale downsamples the capture before estimating the
	// background so the max filter stays cheap on large photos.
	backgroundScale = 4
)

// NormalizeIllumination removes soft shadows and uneven lighting from a
// capture and returns a grayscale image with paper near 255 and ink near 0.
//
// # Algorithm
//
//  1. Grayscale and 5x5 Gaussian smoothing
//  2. Background estimate: downsample, dilate (local maximum) with a reach of
//     about 30 pixels, upsample back. This approximates the brightness the
//     paper would have at every pixel without marks on it.
//  3. Divide the smoothed image by the background and rescale to 0-255
//  4. Histogram equalization
//
// The result feeds Binarize or AdaptiveBinarize. An empty image returns
// ErrEmptyImage.
func NormalizeIllumination(img image.Image) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	gray := ToGray(img)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	blurred := nrgbaToGray(imaging.Blur(gray, gaussianSigma(5)))

	sw := max(1, w/backgroundScale)
	sh := max(1, h/backgroundScale)
	small := imaging.Resize(blurred, sw, sh, imaging.Box)
	background := Dilate(small, backgroundRadius/backgroundScale)
	fullBackground := nrgbaToGray(imaging.Resize(background, w, h, imaging.Linear))

	divided := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range blurred.Pix {
		d := fullBackground.Pix[i]
		if d == 0 {
			continue
		}
		divided.Pix[i] = uint8(math.Min(255, math.Round(float64(v)*255/float64(d))))
	}

	return Equalize(divided), nil
}
