package alignment

import (
	"fmt"
	"image"

	"github.com/ironsheep/answer-sheet-omr/internal/layout"
)

// Result is the outcome of aligning one capture.
type Result struct {
	// Image is the capture resampled into canonical sheet coordinates.
	Image *image.NRGBA

	// Transform maps capture coordinates to canonical coordinates.
	Transform *Homography

	// Source holds the capture points used for each corner.
	Source layout.Corners

	// Destination holds the canonical marker centers.
	Destination layout.Corners
}

// Align maps the assigned capture points onto dest's marker centers and
// resamples img into a canvas of dest's sheet size.
//
// The transform is exact for the four correspondences. A degenerate
// assignment (collinear points) returns ErrDegenerateTransform.
func Align(img image.Image, assignment *Assignment, dest *layout.Layout) (*Result, error) {
	if assignment == nil {
		return nil, fmt.Errorf("%w: no corner assignment", ErrInsufficientMarkers)
	}
	h, err := ComputeHomography(assignment.Points, dest.Corners)
	if err != nil {
		return nil, err
	}
	canvas, err := Warp(img, h, dest.Spec.SheetWidth, dest.Spec.SheetHeight)
	if err != nil {
		return nil, err
	}
	return &Result{
		Image:       canvas,
		Transform:   h,
		Source:      assignment.Points,
		Destination: dest.Corners,
	}, nil
}

// ExpectedCaptureCorners returns where dest's markers would sit in an
// unrotated capture of the given size, keeping dest's margin and marker size.
// Correspondence compares candidates against these points.
func ExpectedCaptureCorners(bounds image.Rectangle, dest *layout.Layout) layout.Corners {
	c := layout.ExpectedCorners(bounds.Dx(), bounds.Dy(), dest.Spec.Margin, dest.Spec.MarkerSize)
	for i := range c {
		c[i].X += float64(bounds.Min.X)
		c[i].Y += float64(bounds.Min.Y)
	}
	return c
}
