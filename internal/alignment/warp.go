package alignment

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/answer-sheet-omr/internal/layout"
)

// fillValue is written for output pixels that sample outside the source.
const fillValue = 255

// Warp resamples img into a width x height canvas using h, which maps source
// coordinates to output coordinates. Each output pixel (x, y) is filled with
// the bilinear interpolation of the source at h⁻¹(x, y); source pixels outside
// img read as opaque white.
func Warp(img image.Image, h *Homography, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", width, height)
	}
	inv, err := h.Inverse()
	if err != nil {
		return nil, err
	}

	// Clone rebases the source to the origin; h works in img's coordinates.
	origin := img.Bounds().Min
	src := imaging.Clone(img)
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < width; x++ {
			out := row[x*4 : x*4+4]
			sx, sy, ok := inv.project(float64(x), float64(y))
			sx -= float64(origin.X)
			sy -= float64(origin.Y)
			if !ok || sx <= -1 || sy <= -1 || sx >= float64(sw) || sy >= float64(sh) {
				out[0], out[1], out[2], out[3] = fillValue, fillValue, fillValue, 255
				continue
			}
			sampleBilinear(src, sx, sy, out)
		}
	}
	return dst, nil
}

// sampleBilinear writes the RGBA value of src at (sx, sy) into out, treating
// pixels outside src as white.
func sampleBilinear(src *image.NRGBA, sx, sy float64, out []uint8) {
	x0, y0 := int(math.Floor(sx)), int(math.Floor(sy))
	fx, fy := sx-float64(x0), sy-float64(y0)
	weights := [4]float64{(1 - fx) * (1 - fy), fx * (1 - fy), (1 - fx) * fy, fx * fy}
	offsets := [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

	var acc [4]float64
	for i, o := range offsets {
		w := weights[i]
		if w == 0 {
			continue
		}
		px, py := x0+o[0], y0+o[1]
		if px < 0 || py < 0 || px >= src.Rect.Dx() || py >= src.Rect.Dy() {
			acc[0] += w * fillValue
			acc[1] += w * fillValue
			acc[2] += w * fillValue
			acc[3] += w * 255
			continue
		}
		p := src.Pix[py*src.Stride+px*4:]
		acc[0] += w * float64(p[0])
		acc[1] += w * float64(p[1])
		acc[2] += w * float64(p[2])
		acc[3] += w * float64(p[3])
	}
	for c := range acc {
		out[c] = uint8(math.Min(255, math.Round(acc[c])))
	}
}

// MapCorners returns the corners c mapped through h.
func MapCorners(h *Homography, c layout.Corners) layout.Corners {
	var out layout.Corners
	for i, p := range c {
		out[i] = h.Apply(p)
	}
	return out
}
