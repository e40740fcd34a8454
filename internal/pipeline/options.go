package pipeline

import (
	"fmt"
	"image"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/answer-sheet-omr/internal/alignment"
	"github.com/ironsheep/answer-sheet-omr/internal/detection"
	omrimaging "github.com/ironsheep/answer-sheet-omr/internal/imaging"
	"github.com/ironsheep/answer-sheet-omr/internal/layout"
	"github.com/ironsheep/answer-sheet-omr/internal/marks"
)

// Normalizer removes uneven lighting from a capture.
type Normalizer func(image.Image) (*image.Gray, error)

// Options configures a Processor. Every setting is explicit; the zero value
// of a field selects its default as described.
type Options struct {
	// Spec is the exam layout the captures were printed from.
	Spec layout.Spec

	// FillRatioThreshold is the ink fraction at which a cell counts as
	// marked. Zero uses marks.DefaultFillRatio.
	FillRatioThreshold float64

	// ApplyIllumination runs the Normalizer before marker detection. A
	// failing Normalizer is logged and the raw capture is used instead.
	ApplyIllumination bool

	// Normalizer overrides imaging.NormalizeIllumination.
	Normalizer Normalizer

	// Adaptive selects Gaussian adaptive thresholding of the aligned sheet
	// instead of the fixed level. Large solid marks come out hollow under
	// adaptive thresholding, so lower FillRatioThreshold accordingly.
	Adaptive bool

	// BinarizeLevel is the fixed threshold. Zero uses
	// imaging.DefaultBinarizeLevel.
	BinarizeLevel uint8

	// Correspondence selects how marker candidates are matched to corners.
	Correspondence alignment.Strategy

	// MinMarkerArea is the nominal marker area in capture pixels. Zero uses
	// detection.DefaultMinMarkerArea.
	MinMarkerArea int

	// Finder overrides the compiled-in marker detector.
	Finder detection.Finder

	// Overlay renders an audit overlay into Result.OverlayImage.
	Overlay bool

	// Logger receives per-stage logs. Nil discards them.
	Logger logrus.FieldLogger
}

// DefaultOptions returns options for the default sheet with illumination
// normalization enabled and greedy correspondence.
func DefaultOptions() Options {
	return Options{
		Spec:               layout.DefaultSpec(),
		FillRatioThreshold: marks.DefaultFillRatio,
		ApplyIllumination:  true,
		BinarizeLevel:      omrimaging.DefaultBinarizeLevel,
		Correspondence:     alignment.Greedy,
		MinMarkerArea:      detection.DefaultMinMarkerArea,
	}
}

// withDefaults fills zero-valued fields and rejects out-of-range settings.
func (o Options) withDefaults() (Options, error) {
	if o.FillRatioThreshold == 0 {
		o.FillRatioThreshold = marks.DefaultFillRatio
	}
	if o.FillRatioThreshold < 0 || o.FillRatioThreshold > 1 {
		return o, fmt.Errorf("fill ratio threshold %v outside (0, 1]", o.FillRatioThreshold)
	}
	if o.BinarizeLevel == 0 {
		o.BinarizeLevel = omrimaging.DefaultBinarizeLevel
	}
	if o.MinMarkerArea < 0 {
		return o, fmt.Errorf("negative minimum marker area %d", o.MinMarkerArea)
	}
	if o.MinMarkerArea == 0 {
		o.MinMarkerArea = detection.DefaultMinMarkerArea
	}
	if o.Normalizer == nil {
		o.Normalizer = omrimaging.NormalizeIllumination
	}
	if o.Finder == nil {
		o.Finder = detection.Default()
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
	return o, nil
}
