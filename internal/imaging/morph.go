package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
)

// Dilate grows bright regions of img by radius pixels.
func Dilate(img image.Image, radius float64) *image.Gray {
	return rgbaToGray(effect.Dilate(ToGray(img), radius))
}

// Erode shrinks bright regions of img by radius pixels.
func Erode(img image.Image, radius float64) *image.Gray {
	return rgbaToGray(effect.Erode(ToGray(img), radius))
}

// Close dilates then erodes img with a (2*radius+1) square window, filling
// gaps and pinholes narrower than about 2*radius in bright regions. Applied
// to an InkMask it merges blobs that blur split apart.
//
// Close runs on full-resolution captures, so it uses separable row and column
// passes instead of Dilate and Erode. Pixels outside the image are ignored.
func Close(img image.Image, radius int) *image.Gray {
	gray := ToGray(img)
	if radius <= 0 {
		out := image.NewGray(gray.Rect)
		copy(out.Pix, gray.Pix)
		return out
	}
	dilated := windowPass(windowPass(gray, radius, true, true), radius, false, true)
	return windowPass(windowPass(dilated, radius, true, false), radius, false, false)
}

// windowPass replaces every pixel with the maximum (or minimum) of the
// 2*radius+1 pixels centered on it along one axis. src must be zero-origin
// and tightly packed.
func windowPass(src *image.Gray, radius int, horizontal, takeMax bool) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := image.NewGray(src.Rect)

	n, lines, step, lineStep := w, h, 1, w
	if !horizontal {
		n, lines, step, lineStep = h, w, w, 1
	}
	for line := 0; line < lines; line++ {
		base := line * lineStep
		for i := 0; i < n; i++ {
			lo := max(0, i-radius)
			hi := min(n-1, i+radius)
			v := src.Pix[base+lo*step]
			for j := lo + 1; j <= hi; j++ {
				p := src.Pix[base+j*step]
				if (takeMax && p > v) || (!takeMax && p < v) {
					v = p
				}
			}
			out.Pix[base+i*step] = v
		}
	}
	return out
}
