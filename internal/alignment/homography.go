package alignment

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/answer-sheet-omr/internal/layout"
)

// ErrDegenerateTransform is returned when four point pairs do not determine
// a projective map, e.g. when three of the points are collinear.
var ErrDegenerateTransform = errors.New("degenerate transform")

// collinearEpsilon is the smallest triangle area, in square pixels, treated
// as non-degenerate.
const collinearEpsilon = 1e-6

// Homography is a 3x3 projective transform stored row-major with the
// bottom-right element normalized to 1.
type Homography struct {
	m [9]float64
}

// ComputeHomography returns the exact projective transform mapping each src
// corner onto the matching dst corner. There is no least-squares fallback:
// if either quadrilateral has three collinear points, or the linear system is
// singular, it returns ErrDegenerateTransform.
func ComputeHomography(src, dst layout.Corners) (*Homography, error) {
	if err := checkQuad(src); err != nil {
		return nil, fmt.Errorf("%w: source %v", ErrDegenerateTransform, err)
	}
	if err := checkQuad(dst); err != nil {
		return nil, fmt.Errorf("%w: destination %v", ErrDegenerateTransform, err)
	}

	// Solve in scaled coordinates to keep the system well conditioned.
	ss, ds := quadScale(src), quadScale(dst)

	// For each pair: x' = (h0 x + h1 y + h2) / (h6 x + h7 y + 1)
	//                y' = (h3 x + h4 y + h5) / (h6 x + h7 y + 1)
	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X*ss, src[i].Y*ss
		xp, yp := dst[i].X*ds, dst[i].Y*ds

		A.SetRow(i*2, []float64{x, y, 1, 0, 0, 0, -x * xp, -y * xp})
		B.SetVec(i*2, xp)

		A.SetRow(i*2+1, []float64{0, 0, 0, x, y, 1, -x * yp, -y * yp})
		B.SetVec(i*2+1, yp)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateTransform, err)
	}

	// Undo the scaling: H = diag(1/ds, 1/ds, 1) * Hs * diag(ss, ss, 1).
	rowScale := [3]float64{1 / ds, 1 / ds, 1}
	colScale := [3]float64{ss, ss, 1}
	h := &Homography{}
	for i := 0; i < 9; i++ {
		v := 1.0
		if i < 8 {
			v = params.AtVec(i)
		}
		h.m[i] = rowScale[i/3] * v * colScale[i%3]
	}
	if !h.finite() {
		return nil, fmt.Errorf("%w: non-finite solution", ErrDegenerateTransform)
	}
	return h, nil
}

// checkQuad rejects quadrilaterals with any three collinear (or coincident)
// points.
func checkQuad(q layout.Corners) error {
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				if math.Abs(cross(q[i], q[j], q[k])) < collinearEpsilon {
					return fmt.Errorf("points %v, %v, %v are collinear",
						layout.Corner(i), layout.Corner(j), layout.Corner(k))
				}
			}
		}
	}
	return nil
}

// quadScale returns a factor that brings the largest coordinate of q to 1.
func quadScale(q layout.Corners) float64 {
	m := 0.0
	for _, p := range q {
		m = math.Max(m, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	if m == 0 {
		return 1
	}
	return 1 / m
}

// cross returns twice the signed area of triangle abc.
func cross(a, b, c layout.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func (h *Homography) finite() bool {
	for _, v := range h.m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// project maps (x, y) and reports false when the point maps to infinity.
func (h *Homography) project(x, y float64) (float64, float64, bool) {
	w := h.m[6]*x + h.m[7]*y + h.m[8]
	if math.Abs(w) < 1e-12 {
		return 0, 0, false
	}
	return (h.m[0]*x + h.m[1]*y + h.m[2]) / w,
		(h.m[3]*x + h.m[4]*y + h.m[5]) / w,
		true
}

// Apply maps p through the transform. Points on the transform's line at
// infinity map to NaN.
func (h *Homography) Apply(p layout.Point) layout.Point {
	x, y, ok := h.project(p.X, p.Y)
	if !ok {
		return layout.Point{X: math.NaN(), Y: math.NaN()}
	}
	return layout.Point{X: x, Y: y}
}

// Inverse returns the transform mapping destination coordinates back to
// source coordinates.
func (h *Homography) Inverse() (*Homography, error) {
	data := h.m
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, data[:])); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateTransform, err)
	}
	scale := inv.At(2, 2)
	if math.Abs(scale) < 1e-12 {
		scale = 1
	}
	out := &Homography{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.m[r*3+c] = inv.At(r, c) / scale
		}
	}
	if !out.finite() {
		return nil, fmt.Errorf("%w: non-finite inverse", ErrDegenerateTransform)
	}
	return out, nil
}

// Matrix returns the transform as a row-major 3x3 matrix.
func (h *Homography) Matrix() [3][3]float64 {
	return [3][3]float64{
		{h.m[0], h.m[1], h.m[2]},
		{h.m[3], h.m[4], h.m[5]},
		{h.m[6], h.m[7], h.m[8]},
	}
}
