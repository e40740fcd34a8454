package pipeline

import (
	"runtime"
	"sync"

	"github.com/ironsheep/answer-sheet-omr/internal/alignment"
	"github.com/ironsheep/answer-sheet-omr/internal/detection"
	"github.com/ironsheep/answer-sheet-omr/internal/marks"
	"github.com/ironsheep/answer-sheet-omr/internal/sheet"
)

// CapabilitySet describes what this build can do.
type CapabilitySet struct {
	MarkerBackend        string   `json:"marker_backend"`
	MarkerBackendVersion string   `json:"marker_backend_version"`
	Strategies           []string `json:"correspondence_strategies"`
	Binarization         []string `json:"binarization"`
	Locales              []string `json:"locales"`
	DefaultFillRatio     float64  `json:"default_fill_ratio"`
	GoVersion            string   `json:"go_version"`
	MaxWorkers           int      `json:"max_workers"`
}

var (
	capsOnce sync.Once
	caps     CapabilitySet
)

// Capabilities reports the compiled-in marker backend and supported options.
// The result is computed once.
func Capabilities() CapabilitySet {
	capsOnce.Do(func() {
		finder := detection.Default()
		caps = CapabilitySet{
			MarkerBackend:        finder.Name(),
			MarkerBackendVersion: finder.Version(),
			Strategies:           []string{alignment.Greedy.String(), alignment.Optimal.String()},
			Binarization:         []string{"fixed", "adaptive"},
			Locales:              sheet.LocaleCodes(),
			DefaultFillRatio:     marks.DefaultFillRatio,
			GoVersion:            runtime.Version(),
			MaxWorkers:           runtime.GOMAXPROCS(0),
		}
	})
	return caps
}
