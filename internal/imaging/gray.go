package imaging

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// ToGray converts img to an 8-bit grayscale image with its origin at (0,0),
// using ITU-R BT.601 luminance weights (0.299*R + 0.587*G + 0.114*B).
//
// A zero-origin, tightly packed *image.Gray is returned unchanged.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) && g.Stride == g.Rect.Dx() {
		return g
	}

	n := imaging.Grayscale(img)
	return nrgbaToGray(n)
}

// nrgbaToGray copies the red channel of an already-gray NRGBA image.
func nrgbaToGray(n *image.NRGBA) *image.Gray {
	b := n.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := n.Pix[y*n.Stride : y*n.Stride+4*b.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[4*x]
		}
	}
	return out
}

// rgbaToGray copies the red channel of an RGBA image produced from a gray source.
func rgbaToGray(r *image.RGBA) *image.Gray {
	b := r.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := r.Pix[r.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[4*x]
		}
	}
	return out
}

// ToRGBA returns a zero-origin RGBA copy of img, suitable for drawing on.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
