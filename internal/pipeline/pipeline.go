package pipeline

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/answer-sheet-omr/internal/alignment"
	omrimaging "github.com/ironsheep/answer-sheet-omr/internal/imaging"
	"github.com/ironsheep/answer-sheet-omr/internal/layout"
	"github.com/ironsheep/answer-sheet-omr/internal/marks"
	"github.com/ironsheep/answer-sheet-omr/internal/sheet"
)

// ErrAlignmentFailure wraps every marker, correspondence and transform
// failure. The underlying cause is also wrapped, so errors.Is matches both.
var ErrAlignmentFailure = errors.New("alignment failure")

// Stage names a pipeline step.
type Stage string

const (
	StageLoad           Stage = "load"
	StageIllumination   Stage = "illumination"
	StageDetection      Stage = "detection"
	StageCorrespondence Stage = "correspondence"
	StageAlignment      Stage = "alignment"
	StageBinarization   Stage = "binarization"
	StageClassification Stage = "classification"
	StageOverlay        Stage = "overlay"
)

// Illumination outcomes reported in Result.Illumination.
const (
	IlluminationSkipped = "skipped"
	IlluminationApplied = "applied"
	IlluminationFailed  = "failed"
)

// layouts memoizes layout computation across processors. Tool calls may send
// arbitrary specs, so only the most recent ones are kept.
var layouts = layout.NewCache(layout.DefaultCacheSize)

// Result is the outcome of processing one capture.
//
// On success Answers has one entry per question and CanonicalImage holds the
// aligned sheet. On failure Answers is nil, Error describes the cause and
// Stage names the step that failed; no partial answers are reported.
type Result struct {
	SheetID string `json:"sheet_id"`
	Source  string `json:"source,omitempty"`
	Success bool   `json:"success"`

	Answers   []marks.Answer   `json:"answers"`
	Questions []marks.Question `json:"questions,omitempty"`

	Error string `json:"error,omitempty"`
	Stage Stage  `json:"stage,omitempty"`

	// Illumination is "skipped", "applied" or "failed".
	Illumination string `json:"illumination"`

	// Candidates are the marker candidates found in the capture.
	Candidates []layout.Point `json:"candidates,omitempty"`

	// Assignment is the candidate chosen for each corner.
	Assignment *alignment.Assignment `json:"assignment,omitempty"`

	Elapsed time.Duration `json:"elapsed_ns"`

	// Err is the wrapped failure for errors.Is; nil on success.
	Err error `json:"-"`

	CanonicalImage  *image.NRGBA `json:"-"`
	NormalizedImage *image.Gray  `json:"-"`
	OverlayImage    *image.NRGBA `json:"-"`
}

// Processor runs the alignment and mark-validation pipeline for one exam
// layout. A Processor holds no mutable state and is safe for concurrent use.
type Processor struct {
	opts   Options
	layout *layout.Layout
}

// NewProcessor validates opts and computes the exam layout. An invalid
// layout fails immediately with layout.ErrInvalidLayout.
func NewProcessor(opts Options) (*Processor, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	l, err := layouts.Get(opts.Spec)
	if err != nil {
		return nil, err
	}
	return &Processor{opts: opts, layout: l}, nil
}

// Layout returns the processor's exam layout.
func (p *Processor) Layout() *layout.Layout {
	return p.layout
}

// ProcessFile loads and processes the capture at path. A decode failure is
// reported as a failed Result at StageLoad.
func (p *Processor) ProcessFile(path string) *Result {
	start := time.Now()
	img, err := omrimaging.LoadFile(path)
	if err != nil {
		r := &Result{SheetID: uuid.NewString(), Illumination: IlluminationSkipped}
		r.fail(StageLoad, err)
		r.Source = path
		r.Elapsed = time.Since(start)
		p.opts.Logger.WithFields(logrus.Fields{
			"sheet_id": r.SheetID,
			"source":   path,
			"stage":    StageLoad,
		}).WithError(err).Warn("Failed to load capture")
		return r
	}
	r := p.Process(img)
	r.Source = path
	r.Elapsed = time.Since(start)
	return r
}

// Process runs every stage on img:
//
//  1. optional illumination normalization (failure falls back to img)
//  2. marker candidate detection
//  3. corner correspondence against the capture's expected corners
//  4. perspective alignment into canonical coordinates
//  5. binarization
//  6. classification of every question
//
// Failures in steps 2 to 4 abort the sheet with ErrAlignmentFailure.
// Ambiguous questions are not failures: they yield marks.NoAnswer.
func (p *Processor) Process(img image.Image) *Result {
	start := time.Now()
	r := &Result{SheetID: uuid.NewString(), Illumination: IlluminationSkipped}
	log := p.opts.Logger.WithField("sheet_id", r.SheetID)
	defer func() { r.Elapsed = time.Since(start) }()

	if img == nil || img.Bounds().Empty() {
		r.fail(StageLoad, fmt.Errorf("%w: empty image", omrimaging.ErrImageLoad))
		log.WithField("stage", StageLoad).Warn("Empty capture")
		return r
	}

	working := img
	if p.opts.ApplyIllumination {
		norm, err := p.normalize(img)
		if err != nil {
			r.Illumination = IlluminationFailed
			log.WithField("stage", StageIllumination).WithError(err).Warn("Illumination normalization failed, using raw capture")
		} else {
			r.Illumination = IlluminationApplied
			r.NormalizedImage = norm
			working = norm
		}
	}

	found, err := p.opts.Finder.FindMarkers(working, p.opts.MinMarkerArea)
	if err != nil {
		r.fail(StageDetection, fmt.Errorf("%w: %w", ErrAlignmentFailure, err))
		log.WithField("stage", StageDetection).WithError(err).Warn("Marker detection failed")
		return r
	}
	r.Candidates = found.Points()
	log.WithFields(logrus.Fields{"stage": StageDetection, "candidates": found.Count}).Debug("Marker candidates found")

	expected := alignment.ExpectedCaptureCorners(working.Bounds(), p.layout)
	assignment, err := alignment.ResolveWith(p.opts.Correspondence, r.Candidates, expected)
	if err != nil {
		r.fail(StageCorrespondence, fmt.Errorf("%w: %w", ErrAlignmentFailure, err))
		log.WithFields(logrus.Fields{"stage": StageCorrespondence, "candidates": found.Count}).WithError(err).Warn("Corner correspondence failed")
		return r
	}
	r.Assignment = assignment

	aligned, err := alignment.Align(working, assignment, p.layout)
	if err != nil {
		r.fail(StageAlignment, fmt.Errorf("%w: %w", ErrAlignmentFailure, err))
		log.WithField("stage", StageAlignment).WithError(err).Warn("Perspective alignment failed")
		return r
	}
	r.CanonicalImage = aligned.Image

	var bin *image.Gray
	if p.opts.Adaptive {
		bin = omrimaging.AdaptiveBinarize(aligned.Image, adaptiveBlockSize, adaptiveC)
	} else {
		bin = omrimaging.Binarize(aligned.Image, p.opts.BinarizeLevel)
	}

	result := marks.Analyze(bin, p.layout.Cells, p.opts.FillRatioThreshold)
	r.Success = true
	r.Answers = result.Answers
	r.Questions = result.Questions

	if p.opts.Overlay {
		overlay, err := sheet.Overlay(aligned.Image, p.layout, result, sheet.DefaultPalette())
		if err != nil {
			log.WithField("stage", StageOverlay).WithError(err).Warn("Audit overlay failed")
		} else {
			r.OverlayImage = overlay
		}
	}

	log.WithFields(logrus.Fields{
		"stage":    StageClassification,
		"answered": answeredCount(r.Answers),
		"elapsed":  time.Since(start).String(),
	}).Info("Sheet processed")
	return r
}

const (
	adaptiveBlockSize = 11
	adaptiveC         = 2
)

// normalize runs the configured Normalizer, converting a panic into an error.
func (p *Processor) normalize(img image.Image) (out *image.Gray, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("normalizer panicked: %v", rec)
		}
	}()
	out, err = p.opts.Normalizer(img)
	if err == nil && out == nil {
		err = errors.New("normalizer returned no image")
	}
	return out, err
}

func (r *Result) fail(stage Stage, err error) {
	r.Success = false
	r.Answers = nil
	r.Questions = nil
	r.Stage = stage
	r.Err = err
	r.Error = err.Error()
}

func answeredCount(answers []marks.Answer) int {
	n := 0
	for _, a := range answers {
		if a.Answered() {
			n++
		}
	}
	return n
}
