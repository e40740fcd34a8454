// Package alignment maps a photographed answer sheet back into the canonical
// coordinate space of its layout.
//
// Alignment runs in two steps:
//
//  1. Correspondence: Resolve (or ResolveWith) assigns one detected marker
//     candidate to each expected corner. The Greedy strategy visits corners
//     in a fixed order and takes the nearest unused candidate; Optimal
//     minimizes the total squared distance instead.
//  2. Perspective correction: Align computes the exact Homography taking the
//     four assigned points onto the layout's marker centers and resamples the
//     capture into a canvas of the sheet's size with bilinear interpolation.
//
// # Errors
//
// Fewer than four candidates yields ErrInsufficientMarkers. Four points that
// do not determine a projective map (three collinear, or coincident points)
// yield ErrDegenerateTransform. Both are wrapped with context; test with
// errors.Is.
//
// # Known Limitation
//
// Greedy correspondence is not globally optimal: two corners can compete for
// the same nearby candidate, and the corner visited first wins. Use Optimal
// when captures contain false-positive candidates near the markers.
package alignment
