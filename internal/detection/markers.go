package detection

import (
	"image"
	"math"
	"sort"

	omrimaging "github.com/ironsheep/answer-sheet-omr/internal/imaging"
	"github.com/ironsheep/answer-sheet-omr/internal/layout"
)

// DefaultMinMarkerArea is the nominal marker area used when callers pass 0.
const DefaultMinMarkerArea = 2000

const (
	// absoluteMinArea rejects blobs smaller than this regardless of minArea.
	absoluteMinArea = 800
	minAspect       = 0.5
	maxAspect       = 2.0
	minSolidity     = 0.4

	// closeRadius merges blobs split by blur or print gaps before labelling.
	closeRadius = 2
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns X2 - X1.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Marker is a filled, roughly square blob that may be a corner marker.
type Marker struct {
	// Center is the bounding-box center in the capture's coordinates.
	Center layout.Point `json:"center"`

	// Bounds is the bounding box of the blob's outer boundary.
	Bounds Bounds `json:"bounds"`

	// Area is the number of pixels enclosed by the blob's outer boundary,
	// holes included.
	Area int `json:"area"`

	// Solidity is Area divided by the bounding-box area.
	Solidity float64 `json:"solidity"`
}

// MarkersResult contains every marker candidate found in a capture.
type MarkersResult struct {
	// Markers are sorted top-to-bottom, then left-to-right.
	Markers []Marker `json:"markers"`

	// Count is the number of candidates.
	Count int `json:"count"`
}

// Points returns the candidate centers in result order.
func (r *MarkersResult) Points() []layout.Point {
	pts := make([]layout.Point, len(r.Markers))
	for i, m := range r.Markers {
		pts[i] = m.Center
	}
	return pts
}

// Finder locates corner-marker candidates in a capture.
//
// A Finder is not required to find exactly four candidates: it may over- or
// under-detect, and callers resolve which candidates are markers.
type Finder interface {
	FindMarkers(img image.Image, minArea int) (*MarkersResult, error)

	// Name identifies the backend, e.g. "contour".
	Name() string

	// Version describes the backend's underlying library.
	Version() string
}

// Accept applies the marker shape filter to a blob with the given enclosed
// area and bounding-box size. It returns the blob's solidity and whether the
// blob qualifies as a marker candidate.
//
// A blob qualifies when:
//   - area >= max(800, 0.2*minArea) and area > 0.1*minArea
//   - width/height is within [0.5, 2.0]
//   - solidity (area / bounding-box area) exceeds 0.4
func Accept(area float64, width, height, minArea int) (float64, bool) {
	if area < math.Max(absoluteMinArea, 0.2*float64(minArea)) {
		return 0, false
	}
	if width <= 0 || height <= 0 {
		return 0, false
	}
	aspect := float64(width) / float64(height)
	if aspect < minAspect || aspect > maxAspect {
		return 0, false
	}
	solidity := area / float64(width*height)
	if solidity <= minSolidity {
		return 0, false
	}
	if area <= 0.1*float64(minArea) {
		return 0, false
	}
	return solidity, true
}

// newMarker builds a candidate from an accepted blob. The center uses
// integer halving of the box size so it lands on the pixel the marker was
// drawn around.
func newMarker(b Bounds, area int, solidity float64) Marker {
	return Marker{
		Center: layout.Point{
			X: float64(b.X1 + b.Width()/2),
			Y: float64(b.Y1 + b.Height()/2),
		},
		Bounds:   b,
		Area:     area,
		Solidity: solidity,
	}
}

func sortMarkers(markers []Marker) {
	sort.Slice(markers, func(i, j int) bool {
		if markers[i].Center.Y != markers[j].Center.Y {
			return markers[i].Center.Y < markers[j].Center.Y
		}
		return markers[i].Center.X < markers[j].Center.X
	})
}

// ContourFinder is the pure-Go marker detector.
//
// # Algorithm
//
//  1. Ink mask: grayscale, Otsu threshold, inverted so ink is foreground
//  2. Morphological closing with a 5x5 square to merge blobs split by blur
//  3. Connected components with 8-connectivity
//  4. Outer boundary of each component: holes are filled, and components
//     lying inside another component's hole are discarded, so nested
//     finder-pattern rings report only their outermost square
//  5. Shape filter (see Accept); the candidate point is the bounding-box center
type ContourFinder struct{}

// Name implements Finder.
func (ContourFinder) Name() string { return "contour" }

// Version implements Finder.
func (ContourFinder) Version() string { return "pure-go" }

// FindMarkers implements Finder. A minArea of 0 uses DefaultMinMarkerArea.
func (ContourFinder) FindMarkers(img image.Image, minArea int) (*MarkersResult, error) {
	if minArea <= 0 {
		minArea = DefaultMinMarkerArea
	}
	mask := omrimaging.Close(omrimaging.InkMask(img), closeRadius)
	origin := img.Bounds().Min

	comps, labels := labelComponents(mask)
	width := mask.Rect.Dx()

	// No component whose bounding box is smaller than the area floor can be a
	// candidate, nor can it enclose one.
	floor := int(math.Max(absoluteMinArea, 0.2*float64(minArea)))

	nested := make([]bool, len(comps)+1)
	areas := make([]int, len(comps)+1)
	for i := range comps {
		c := &comps[i]
		if c.bounds.Width()*c.bounds.Height() < floor {
			continue
		}
		areas[c.label] = enclosedArea(c, labels, width, nested)
	}

	markers := make([]Marker, 0, 4)
	for i := range comps {
		c := &comps[i]
		if nested[c.label] || areas[c.label] == 0 {
			continue
		}
		solidity, ok := Accept(float64(areas[c.label]), c.bounds.Width(), c.bounds.Height(), minArea)
		if !ok {
			continue
		}
		b := c.bounds
		b.X1 += origin.X
		b.X2 += origin.X
		b.Y1 += origin.Y
		b.Y2 += origin.Y
		markers = append(markers, newMarker(b, areas[c.label], solidity))
	}

	sortMarkers(markers)
	return &MarkersResult{Markers: markers, Count: len(markers)}, nil
}

// FindMarkers runs the default backend.
func FindMarkers(img image.Image, minArea int) (*MarkersResult, error) {
	return Default().FindMarkers(img, minArea)
}

// component is one 8-connected blob of ink in a mask.
type component struct {
	label  int32
	bounds Bounds
	pixels int
}

// labelComponents assigns a label (1..n) to every foreground pixel of mask
// using an iterative 8-connected flood fill, and returns the components in
// raster order of their first pixel.
func labelComponents(mask *image.Gray) ([]component, []int32) {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	labels := make([]int32, w*h)
	comps := make([]component, 0)
	stack := make([]int, 0, 1024)

	for start := 0; start < w*h; start++ {
		if mask.Pix[start] == 0 || labels[start] != 0 {
			continue
		}
		label := int32(len(comps) + 1)
		c := component{
			label:  label,
			bounds: Bounds{X1: w, Y1: h, X2: 0, Y2: 0},
		}

		stack = append(stack[:0], start)
		labels[start] = label
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := p%w, p/w
			c.pixels++
			c.bounds.X1 = min(c.bounds.X1, x)
			c.bounds.Y1 = min(c.bounds.Y1, y)
			c.bounds.X2 = max(c.bounds.X2, x+1)
			c.bounds.Y2 = max(c.bounds.Y2, y+1)

			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if (dx == 0 && dy == 0) || nx < 0 || nx >= w {
						continue
					}
					q := ny*w + nx
					if mask.Pix[q] != 0 && labels[q] == 0 {
						labels[q] = label
						stack = append(stack, q)
					}
				}
			}
		}
		comps = append(comps, c)
	}
	return comps, labels
}

// enclosedArea returns the number of pixels inside c's outer boundary (its
// own pixels plus its holes). Any other component found inside one of the
// holes is flagged in nested.
func enclosedArea(c *component, labels []int32, width int, nested []bool) int {
	b := c.bounds
	lw, lh := b.Width()+2, b.Height()+2
	// own marks c's pixels; outside marks pixels reachable from the frame.
	own := make([]bool, lw*lh)
	outside := make([]bool, lw*lh)
	for y := b.Y1; y < b.Y2; y++ {
		row := labels[y*width:]
		for x := b.X1; x < b.X2; x++ {
			if row[x] == c.label {
				own[(y-b.Y1+1)*lw+(x-b.X1+1)] = true
			}
		}
	}

	// Background is 4-connected when foreground is 8-connected.
	stack := []int{0}
	outside[0] = true
	reached := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++
		x, y := p%lw, p/lw
		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nx, ny := x+d[0], y+d[1]
			if nx < 0 || ny < 0 || nx >= lw || ny >= lh {
				continue
			}
			q := ny*lw + nx
			if !own[q] && !outside[q] {
				outside[q] = true
				stack = append(stack, q)
			}
		}
	}

	for ly := 1; ly < lh-1; ly++ {
		for lx := 1; lx < lw-1; lx++ {
			q := ly*lw + lx
			if own[q] || outside[q] {
				continue
			}
			if other := labels[(ly-1+b.Y1)*width+(lx-1+b.X1)]; other != 0 {
				nested[other] = true
			}
		}
	}

	return lw*lh - reached
}
