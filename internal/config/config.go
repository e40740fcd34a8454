// Package config loads exam definitions from YAML files and OMR_* environment
// variables and turns them into pipeline options.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/answer-sheet-omr/internal/alignment"
	"github.com/ironsheep/answer-sheet-omr/internal/detection"
	"github.com/ironsheep/answer-sheet-omr/internal/layout"
	"github.com/ironsheep/answer-sheet-omr/internal/marks"
	"github.com/ironsheep/answer-sheet-omr/internal/pipeline"
	"github.com/ironsheep/answer-sheet-omr/internal/sheet"
)

// ErrInvalidConfig is returned when an exam definition fails validation.
var ErrInvalidConfig = errors.New("invalid exam configuration")

// Exam is an exam definition: the printed layout plus the settings used to
// read captures of it.
type Exam struct {
	Title  string `json:"title" yaml:"title" validate:"max=80"`
	Locale string `json:"locale" yaml:"locale" validate:"omitempty,locale"`

	QuestionCount      int `json:"question_count" yaml:"question_count" validate:"gte=1,lte=500"`
	ChoicesPerQuestion int `json:"choices_per_question" yaml:"choices_per_question" validate:"gte=1,lte=52"`
	SheetWidth         int `json:"sheet_width" yaml:"sheet_width" validate:"gt=0"`
	SheetHeight        int `json:"sheet_height" yaml:"sheet_height" validate:"gt=0"`
	Margin             int `json:"margin" yaml:"margin" validate:"gte=0"`
	MarkerSize         int `json:"marker_size" yaml:"marker_size" validate:"gt=0"`

	FillRatioThreshold float64 `json:"fill_ratio_threshold" yaml:"fill_ratio_threshold" validate:"gt=0,lte=1"`
	ApplyIllumination  bool    `json:"apply_illumination_normalization" yaml:"apply_illumination_normalization"`
	AdaptiveThreshold  bool    `json:"adaptive_threshold" yaml:"adaptive_threshold"`
	Correspondence     string  `json:"correspondence" yaml:"correspondence" validate:"omitempty,oneof=greedy optimal"`
	MinMarkerArea      int     `json:"min_marker_area" yaml:"min_marker_area" validate:"gte=0"`

	// Workers bounds batch parallelism; 0 uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers" validate:"gte=0,lte=256"`
}

// Default returns the 10 question, 4 choice exam on an 800x1000 sheet.
func Default() Exam {
	spec := layout.DefaultSpec()
	return Exam{
		Title:              sheet.English.DefaultTitle,
		Locale:             sheet.English.Code,
		QuestionCount:      spec.QuestionCount,
		ChoicesPerQuestion: spec.ChoicesPerQuestion,
		SheetWidth:         spec.SheetWidth,
		SheetHeight:        spec.SheetHeight,
		Margin:             spec.Margin,
		MarkerSize:         spec.MarkerSize,
		FillRatioThreshold: marks.DefaultFillRatio,
		ApplyIllumination:  true,
		Correspondence:     alignment.Greedy.String(),
		MinMarkerArea:      detection.DefaultMinMarkerArea,
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("locale", func(fl validator.FieldLevel) bool {
			_, err := sheet.LookupLocale(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// Validate checks every field against its constraints and reports all
// violations at once.
func (e Exam) Validate() error {
	err := getValidator().Struct(e)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Parse decodes a YAML exam definition. Fields absent from data keep their
// Default values; unknown fields are rejected.
func Parse(data []byte) (Exam, error) {
	exam := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return exam, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&exam); err != nil {
		return Exam{}, fmt.Errorf("%w: decode: %v", ErrInvalidConfig, err)
	}
	if err := exam.Validate(); err != nil {
		return Exam{}, err
	}
	return exam, nil
}

// Load reads and validates the exam definition at path.
func Load(path string) (Exam, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Exam{}, fmt.Errorf("read exam definition %s: %w", path, err)
	}
	exam, err := Parse(data)
	if err != nil {
		return Exam{}, fmt.Errorf("%s: %w", path, err)
	}
	return exam, nil
}

// Spec returns the exam's layout spec.
func (e Exam) Spec() layout.Spec {
	return layout.Spec{
		QuestionCount:      e.QuestionCount,
		ChoicesPerQuestion: e.ChoicesPerQuestion,
		SheetWidth:         e.SheetWidth,
		SheetHeight:        e.SheetHeight,
		Margin:             e.Margin,
		MarkerSize:         e.MarkerSize,
	}
}

// SheetOptions returns the rendering options for the exam.
func (e Exam) SheetOptions() (sheet.Options, error) {
	loc, err := sheet.LookupLocale(e.Locale)
	if err != nil {
		return sheet.Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return sheet.Options{Title: e.Title, Locale: loc}, nil
}

// PipelineOptions converts the exam into pipeline options logging to logger.
func (e Exam) PipelineOptions(logger logrus.FieldLogger) (pipeline.Options, error) {
	if err := e.Validate(); err != nil {
		return pipeline.Options{}, err
	}
	strategy, err := alignment.ParseStrategy(e.Correspondence)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	opts := pipeline.DefaultOptions()
	opts.Spec = e.Spec()
	opts.FillRatioThreshold = e.FillRatioThreshold
	opts.ApplyIllumination = e.ApplyIllumination
	opts.Adaptive = e.AdaptiveThreshold
	opts.Correspondence = strategy
	opts.MinMarkerArea = e.MinMarkerArea
	opts.Logger = logger
	return opts, nil
}
