//go:build gocv

package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	omrimaging "github.com/ironsheep/answer-sheet-omr/internal/imaging"
)

// Default returns the marker detector compiled into this binary. Builds with
// the gocv tag use OpenCV contours.
func Default() Finder {
	return OpenCVFinder{}
}

// OpenCVFinder detects marker candidates with OpenCV external contours.
// It applies the same shape filter as ContourFinder; areas are contour
// polygon areas rather than pixel counts.
type OpenCVFinder struct{}

// Name implements Finder.
func (OpenCVFinder) Name() string { return "opencv" }

// Version implements Finder.
func (OpenCVFinder) Version() string { return gocv.Version() }

// FindMarkers implements Finder. A minArea of 0 uses DefaultMinMarkerArea.
func (OpenCVFinder) FindMarkers(img image.Image, minArea int) (*MarkersResult, error) {
	if minArea <= 0 {
		minArea = DefaultMinMarkerArea
	}
	gray := omrimaging.ToGray(img)
	origin := img.Bounds().Min

	mat, err := gocv.NewMatFromBytes(gray.Rect.Dy(), gray.Rect.Dx(), gocv.MatTypeCV8UC1, gray.Pix)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to Mat: %w", err)
	}
	defer mat.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(mat, &binary, 0, 255, gocv.ThresholdBinaryInv+gocv.ThresholdOtsu)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{5, 5})
	defer kernel.Close()
	gocv.MorphologyEx(binary, &binary, gocv.MorphClose, kernel)

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	markers := make([]Marker, 0, 4)
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		rect := gocv.BoundingRect(contour)

		solidity, ok := Accept(area, rect.Dx(), rect.Dy(), minArea)
		if !ok {
			continue
		}
		b := Bounds{
			X1: rect.Min.X + origin.X,
			Y1: rect.Min.Y + origin.Y,
			X2: rect.Max.X + origin.X,
			Y2: rect.Max.Y + origin.Y,
		}
		markers = append(markers, newMarker(b, int(area), solidity))
	}

	sortMarkers(markers)
	return &MarkersResult{Markers: markers, Count: len(markers)}, nil
}
