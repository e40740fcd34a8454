package alignment

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ironsheep/answer-sheet-omr/internal/layout"
)

// ErrInsufficientMarkers is returned when fewer than four marker candidates
// are available for correspondence.
var ErrInsufficientMarkers = errors.New("insufficient markers")

// Strategy selects how candidates are assigned to corners.
type Strategy int

const (
	// Greedy visits corners in the order top-left, top-right, bottom-left,
	// bottom-right and gives each the nearest unused candidate. Earlier
	// corners win ties and contested candidates.
	Greedy Strategy = iota

	// Optimal chooses the assignment with the smallest total squared
	// distance over all corners.
	Optimal
)

// String returns the strategy's configuration name.
func (s Strategy) String() string {
	switch s {
	case Greedy:
		return "greedy"
	case Optimal:
		return "optimal"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy converts a configuration name to a Strategy. An empty name
// selects Greedy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "greedy":
		return Greedy, nil
	case "optimal":
		return Optimal, nil
	default:
		return Greedy, fmt.Errorf("unknown correspondence strategy %q", name)
	}
}

// Assignment pairs one candidate with each corner.
type Assignment struct {
	// Points holds the assigned candidate for each corner, indexed by
	// layout.Corner.
	Points layout.Corners `json:"points"`

	// Indices holds the candidate index used for each corner.
	Indices [4]int `json:"indices"`

	// Cost is the total squared distance between assigned candidates and
	// their expected corners.
	Cost float64 `json:"cost"`
}

// Resolve assigns candidates to the expected corners with the Greedy
// strategy.
func Resolve(candidates []layout.Point, expected layout.Corners) (*Assignment, error) {
	return ResolveWith(Greedy, candidates, expected)
}

// ResolveWith assigns candidates to the expected corners. Every corner
// receives exactly one candidate and no candidate is used twice. Fewer than
// four candidates returns ErrInsufficientMarkers.
func ResolveWith(strategy Strategy, candidates []layout.Point, expected layout.Corners) (*Assignment, error) {
	if len(candidates) < 4 {
		return nil, fmt.Errorf("%w: found %d, need 4", ErrInsufficientMarkers, len(candidates))
	}
	switch strategy {
	case Greedy:
		return resolveGreedy(candidates, expected), nil
	case Optimal:
		return resolveOptimal(candidates, expected), nil
	default:
		return nil, fmt.Errorf("unknown correspondence strategy %v", strategy)
	}
}

func squaredDistance(a, b layout.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

func resolveGreedy(candidates []layout.Point, expected layout.Corners) *Assignment {
	used := make([]bool, len(candidates))
	a := &Assignment{}
	for corner, want := range expected {
		best := -1
		bestDist := math.Inf(1)
		for i, p := range candidates {
			if used[i] {
				continue
			}
			// Strict comparison keeps the lowest index on ties.
			if d := squaredDistance(p, want); d < bestDist {
				best, bestDist = i, d
			}
		}
		used[best] = true
		a.Points[corner] = candidates[best]
		a.Indices[corner] = best
		a.Cost += bestDist
	}
	return a
}

// resolveOptimal runs a subset DP over candidates: state (i, mask) is the
// cheapest way to fill the corners in mask using candidates [0, i).
func resolveOptimal(candidates []layout.Point, expected layout.Corners) *Assignment {
	const full = 1<<4 - 1
	n := len(candidates)

	cost := make([][full + 1]float64, n+1)
	// choice[i][mask] is the corner candidate i-1 filled to reach mask, or -1
	// if it was skipped.
	choice := make([][full + 1]int, n+1)
	for mask := 1; mask <= full; mask++ {
		cost[0][mask] = math.Inf(1)
	}

	for i := 1; i <= n; i++ {
		p := candidates[i-1]
		for mask := 0; mask <= full; mask++ {
			cost[i][mask] = cost[i-1][mask]
			choice[i][mask] = -1
			for corner := range expected {
				bit := 1 << corner
				if mask&bit == 0 {
					continue
				}
				c := cost[i-1][mask&^bit] + squaredDistance(p, expected[corner])
				if c < cost[i][mask] {
					cost[i][mask] = c
					choice[i][mask] = corner
				}
			}
		}
	}

	a := &Assignment{Cost: cost[n][full]}
	mask := full
	for i := n; i > 0 && mask != 0; i-- {
		corner := choice[i][mask]
		if corner < 0 {
			continue
		}
		a.Points[corner] = candidates[i-1]
		a.Indices[corner] = i - 1
		mask &^= 1 << corner
	}
	return a
}
