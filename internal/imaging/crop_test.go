package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

// createPatternImage creates an image with a different gray level in each quadrant.
func createPatternImage(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var v uint8
			switch {
			case x < width/2 && y < height/2:
				v = 0
			case y < height/2:
				v = 80
			case x < width/2:
				v = 160
			default:
				v = 255
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func decodeCrop(t *testing.T, r *CropResult) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	img, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	return img
}

func TestCrop(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := Crop(img, image.Rect(0, 0, 50, 50), 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if result.Width != 50 || result.Height != 50 || result.X != 0 || result.Y != 0 {
		t.Errorf("got %dx%d at (%d,%d), want 50x50 at origin", result.Width, result.Height, result.X, result.Y)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	r, _, _, _ := decodeCrop(t, result).At(25, 25).RGBA()
	if r>>8 != 0 {
		t.Errorf("top-left quadrant should be black, got %d", r>>8)
	}
}

func TestCrop_Scale(t *testing.T) {
	img := createPatternImage(100, 100)

	tests := []struct {
		name         string
		scale        float64
		wantW, wantH int
	}{
		{"up", 2.0, 100, 60},
		{"down", 0.5, 25, 15},
		{"zero means one", 0, 50, 30},
		{"negative means one", -3, 50, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Crop(img, image.Rect(50, 0, 100, 30), tt.scale)
			if err != nil {
				t.Fatalf("Crop failed: %v", err)
			}
			if result.Width != tt.wantW || result.Height != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", result.Width, result.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCrop_UpscaleKeepsLevels(t *testing.T) {
	img := createPatternImage(100, 100)
	result, err := Crop(img, image.Rect(40, 40, 60, 60), 3.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	out := decodeCrop(t, result)
	seen := map[uint32]bool{}
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := out.At(x, y).RGBA()
			seen[r>>8] = true
		}
	}
	for v := range seen {
		if v != 0 && v != 80 && v != 160 && v != 255 {
			t.Errorf("upscaling introduced intermediate level %d", v)
		}
	}
}

func TestCrop_Clipping(t *testing.T) {
	img := createPatternImage(100, 100)

	result, err := Crop(img, image.Rect(80, 90, 140, 130), 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if result.X != 80 || result.Y != 90 || result.Width != 20 || result.Height != 10 {
		t.Errorf("clipped crop: got %dx%d at (%d,%d), want 20x10 at (80,90)", result.Width, result.Height, result.X, result.Y)
	}

	// Reversed corners are canonicalized.
	result, err = Crop(img, image.Rect(50, 50, 10, 10), 1.0)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if result.Width != 40 || result.Height != 40 {
		t.Errorf("reversed region: got %dx%d, want 40x40", result.Width, result.Height)
	}
}

func TestCrop_OutOfBounds(t *testing.T) {
	img := createPatternImage(100, 100)
	tests := []image.Rectangle{
		image.Rect(100, 0, 150, 50),
		image.Rect(-50, -50, 0, 0),
		image.Rect(10, 10, 10, 50),
	}
	for _, r := range tests {
		if _, err := Crop(img, r, 1.0); err == nil {
			t.Errorf("Crop(%v) should fail", r)
		}
	}
}
