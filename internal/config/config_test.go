package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/answer-sheet-omr/internal/alignment"
	"github.com/ironsheep/answer-sheet-omr/internal/layout"
)

func TestDefault(t *testing.T) {
	e := Default()
	if err := e.Validate(); err != nil {
		t.Fatalf("default exam invalid: %v", err)
	}
	if e.Spec() != layout.DefaultSpec() {
		t.Errorf("default spec: got %+v, want %+v", e.Spec(), layout.DefaultSpec())
	}
	if !e.ApplyIllumination || e.FillRatioThreshold != 0.15 || e.MinMarkerArea != 2000 {
		t.Errorf("unexpected defaults: %+v", e)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
title: Quiz 3
locale: es
question_count: 20
choices_per_question: 5
fill_ratio_threshold: 0.2
apply_illumination_normalization: false
correspondence: optimal
`)
	e, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if e.Title != "Quiz 3" || e.Locale != "es" || e.QuestionCount != 20 || e.ChoicesPerQuestion != 5 {
		t.Errorf("fields not decoded: %+v", e)
	}
	if e.ApplyIllumination {
		t.Error("apply_illumination_normalization: false was ignored")
	}
	if e.SheetWidth != 800 || e.MarkerSize != 40 {
		t.Errorf("absent fields should keep defaults: %+v", e)
	}

	opts, err := e.PipelineOptions(nil)
	if err != nil {
		t.Fatalf("PipelineOptions failed: %v", err)
	}
	if opts.Correspondence != alignment.Optimal || opts.FillRatioThreshold != 0.2 || opts.Spec.QuestionCount != 20 {
		t.Errorf("unexpected pipeline options: %+v", opts)
	}

	so, err := e.SheetOptions()
	if err != nil || so.Locale.Code != "es" {
		t.Errorf("SheetOptions: got %+v, %v", so, err)
	}
}

func TestParse_Empty(t *testing.T) {
	e, err := Parse([]byte("  \n"))
	if err != nil || e != Default() {
		t.Errorf("empty document: got %+v, %v; want defaults", e, err)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", "questions: 5", "questions"},
		{"zero width", "sheet_width: 0", "sheet_width"},
		{"threshold above one", "fill_ratio_threshold: 1.5", "fill_ratio_threshold"},
		{"bad strategy", "correspondence: random", "correspondence"},
		{"unknown locale", "locale: fr", "locale"},
		{"negative area", "min_marker_area: -5", "min_marker_area"},
		{"malformed", "question_count: [1", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("got %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exam.yaml")
	if err := os.WriteFile(path, []byte("question_count: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if e.QuestionCount != 5 {
		t.Errorf("question_count: got %d, want 5", e.QuestionCount)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvQuestions, "12")
	t.Setenv(EnvFillRatio, "0.3")
	t.Setenv(EnvIllumination, "false")
	t.Setenv(EnvCorrespondence, "optimal")
	t.Setenv(EnvLocale, " ")

	e, err := FromEnv(Default())
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if e.QuestionCount != 12 || e.FillRatioThreshold != 0.3 || e.ApplyIllumination || e.Correspondence != "optimal" {
		t.Errorf("overrides not applied: %+v", e)
	}
	if e.Locale != "en" {
		t.Errorf("blank variable should be ignored, locale = %q", e.Locale)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		EnvQuestions:     "twelve",
		EnvAdaptive:      "maybe",
		EnvFillRatio:     "high",
		EnvMinMarkerArea: "-1",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := FromEnv(Default()); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("%s=%s: got %v, want ErrInvalidConfig", key, value, err)
			}
		})
	}
}

func TestLoadDefault_ExamFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exam.yml")
	if err := os.WriteFile(path, []byte("question_count: 7\nchoices_per_question: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvExamFile, path)
	t.Setenv(EnvChoices, "6")

	e, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault failed: %v", err)
	}
	if e.QuestionCount != 7 || e.ChoicesPerQuestion != 6 {
		t.Errorf("got %d questions, %d choices; want 7 and 6", e.QuestionCount, e.ChoicesPerQuestion)
	}
}
