// Package imaging provides the raster operations the answer-sheet reader needs
// around its geometric core: loading captures, grayscale conversion,
// illumination normalization, binarization, binary morphology and cropping
// aligned regions for review.
//
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner, X increases rightward, and Y
// increases downward. Every function returns a new image; inputs are never
// modified.
//
// # Binary Images
//
// Binarized images are *image.Gray holding only 0 and 255. Which value means
// "ink" depends on the function:
//
//   - Binarize and AdaptiveBinarize follow the printed page: ink is 0 (black),
//     paper is 255 (white). The mark classifier counts pixels below InkLevel.
//   - InkMask inverts that: ink is 255 so that morphology and component
//     labelling treat marks as foreground.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and may be called concurrently on different images.
//
// # Error Handling
//
// Loading failures wrap ErrImageLoad. Pixel operations cannot fail, with the
// exception of NormalizeIllumination, which reports degenerate input (an
// empty image) as an error so callers can fall back to the raw capture.
package imaging
