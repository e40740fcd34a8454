//go:build !gocv

package detection

// Default returns the marker detector compiled into this binary. Builds
// without the gocv tag use the pure-Go ContourFinder.
func Default() Finder {
	return ContourFinder{}
}
