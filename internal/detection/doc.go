// Package detection finds corner-marker candidates in a photographed answer
// sheet.
//
// A candidate is a filled, roughly square blob of ink. The detector reports
// every blob that passes the shape filter, so a capture may yield more or
// fewer than four candidates; the alignment package decides which candidates
// are the sheet's markers.
//
// # Backends
//
// Two implementations of Finder exist:
//
//   - ContourFinder: pure Go, always available
//   - OpenCVFinder: OpenCV external contours, compiled with -tags gocv
//
// Default returns whichever backend the binary was built with.
//
// # Shape Filter
//
// A blob is a candidate when its enclosed area A and bounding box (w, h)
// satisfy, for a nominal marker area minArea (default 2000):
//
//	A >= max(800, 0.2*minArea)
//	0.5 <= w/h <= 2.0
//	A/(w*h) > 0.4
//	A > 0.1*minArea
//
// The candidate point is the bounding-box center (x + w/2, y + h/2) using
// integer halving.
//
// # Coordinate System
//
// Candidate points and bounds are in the capture's own pixel coordinates,
// origin at top-left with Y increasing downward. Bounds use inclusive
// top-left and exclusive bottom-right.
//
// # Limitations
//
// Only outermost boundaries are reported: a blob lying inside another blob's
// hole (the inner squares of a nested finder pattern, or a mark inside the
// table grid) is never a candidate. Markers touching the image border, or
// merged with other ink by heavy blur, may be missed.
package detection
