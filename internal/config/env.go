package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables read by FromEnv.
const (
	EnvTitle          = "OMR_TITLE"
	EnvLocale         = "OMR_LOCALE"
	EnvQuestions      = "OMR_QUESTION_COUNT"
	EnvChoices        = "OMR_CHOICES_PER_QUESTION"
	EnvFillRatio      = "OMR_FILL_RATIO_THRESHOLD"
	EnvIllumination   = "OMR_ILLUMINATION"
	EnvAdaptive       = "OMR_ADAPTIVE_THRESHOLD"
	EnvCorrespondence = "OMR_CORRESPONDENCE"
	EnvMinMarkerArea  = "OMR_MIN_MARKER_AREA"
	EnvWorkers        = "OMR_WORKERS"
	EnvExamFile       = "OMR_EXAM_FILE"
)

// FromEnv applies OMR_* overrides to base and validates the result. Unset or
// empty variables leave the field unchanged.
func FromEnv(base Exam) (Exam, error) {
	e := base
	var errs []string

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s=%q is not a boolean", key, v))
				return
			}
			*dst = b
		}
	}

	str(EnvTitle, &e.Title)
	str(EnvLocale, &e.Locale)
	str(EnvCorrespondence, &e.Correspondence)
	num(EnvQuestions, &e.QuestionCount)
	num(EnvChoices, &e.ChoicesPerQuestion)
	num(EnvMinMarkerArea, &e.MinMarkerArea)
	num(EnvWorkers, &e.Workers)
	flag(EnvIllumination, &e.ApplyIllumination)
	flag(EnvAdaptive, &e.AdaptiveThreshold)
	if v, ok := lookup(EnvFillRatio); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q is not a number", EnvFillRatio, v))
		} else {
			e.FillRatioThreshold = f
		}
	}

	if len(errs) > 0 {
		return Exam{}, fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	if err := e.Validate(); err != nil {
		return Exam{}, err
	}
	return e, nil
}

// LoadDefault returns the exam named by OMR_EXAM_FILE, or Default when it is
// unset, with environment overrides applied.
func LoadDefault() (Exam, error) {
	base := Default()
	if path, ok := lookup(EnvExamFile); ok {
		exam, err := Load(path)
		if err != nil {
			return Exam{}, err
		}
		base = exam
	}
	return FromEnv(base)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
