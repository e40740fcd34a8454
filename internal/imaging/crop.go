package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropResult is a cropped region encoded as base64 PNG.
type CropResult struct {
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts r from img, optionally scaled, and encodes it as PNG.
//
// r is clipped to the image; a region with nothing left after clipping is an
// error. Scale values <= 0 are treated as 1. Upscaling uses nearest-neighbour
// so that binarized cells stay crisp.
func Crop(img image.Image, r image.Rectangle, scale float64) (*CropResult, error) {
	clipped := r.Canon().Intersect(img.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, img.Bounds())
	}

	cropped := imaging.Crop(img, clipped)
	if scale > 0 && scale != 1.0 {
		w := max(1, int(float64(cropped.Bounds().Dx())*scale))
		h := max(1, int(float64(cropped.Bounds().Dy())*scale))
		filter := imaging.Lanczos
		if scale > 1 {
			filter = imaging.NearestNeighbor
		}
		cropped = imaging.Resize(cropped, w, h, filter)
	}

	encoded, err := EncodePNGBase64(cropped)
	if err != nil {
		return nil, err
	}
	return &CropResult{
		X:           clipped.Min.X,
		Y:           clipped.Min.Y,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}
