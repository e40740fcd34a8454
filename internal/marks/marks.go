package marks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"strconv"

	omrimaging "github.com/ironsheep/answer-sheet-omr/internal/imaging"
	"github.com/ironsheep/answer-sheet-omr/internal/layout"
)

// DefaultFillRatio is the fraction of ink pixels at which a cell counts as
// marked.
const DefaultFillRatio = 0.15

// Answer is the choice index selected for a question, or NoAnswer.
type Answer int

// NoAnswer marks a question with no valid answer: either no cell or more than
// one cell was filled.
const NoAnswer Answer = -1

// Answered reports whether a is a choice index.
func (a Answer) Answered() bool { return a >= 0 }

func (a Answer) String() string {
	if !a.Answered() {
		return "none"
	}
	return strconv.Itoa(int(a))
}

// MarshalJSON encodes NoAnswer as null and choices as integers.
func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.Answered() {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(a))), nil
}

// UnmarshalJSON accepts null or a non-negative integer.
func (a *Answer) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = NoAnswer
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid answer %s: %w", data, err)
	}
	if n < 0 {
		return fmt.Errorf("invalid answer %d: choice index must be non-negative", n)
	}
	*a = Answer(n)
	return nil
}

// Status explains a question's outcome.
type Status int

const (
	Answered Status = iota
	Blank
	Overmarked
)

func (s Status) String() string {
	switch s {
	case Answered:
		return "answered"
	case Blank:
		return "blank"
	case Overmarked:
		return "overmarked"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for _, v := range []Status{Answered, Blank, Overmarked} {
		if string(text) == v.String() {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// FillRatio returns the fraction of ink pixels (below imaging.InkLevel) in
// rect. The rectangle is clipped to the image first and the ratio is taken
// over the clipped area; an empty clip yields 0.
func FillRatio(bin *image.Gray, rect image.Rectangle) float64 {
	r := rect.Intersect(bin.Rect)
	if r.Empty() {
		return 0
	}
	ink := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := bin.PixOffset(r.Min.X, y)
		for _, v := range bin.Pix[i : i+r.Dx()] {
			if v < omrimaging.InkLevel {
				ink++
			}
		}
	}
	return float64(ink) / float64(r.Dx()*r.Dy())
}

// IsFilled reports whether rect's fill ratio reaches threshold. A rectangle
// lying entirely outside the image is never filled.
func IsFilled(bin *image.Gray, rect image.Rectangle, threshold float64) bool {
	if rect.Intersect(bin.Rect).Empty() {
		return false
	}
	return FillRatio(bin, rect) >= threshold
}

// ClassifyQuestion returns the index of the only true flag, or NoAnswer when
// zero or several flags are set.
func ClassifyQuestion(flags []bool) Answer {
	answer := NoAnswer
	for i, filled := range flags {
		if !filled {
			continue
		}
		if answer != NoAnswer {
			return NoAnswer
		}
		answer = Answer(i)
	}
	return answer
}

// Question holds the classification details for one question.
type Question struct {
	Index      int       `json:"question"`
	Answer     Answer    `json:"answer"`
	Status     Status    `json:"status"`
	Marked     []int     `json:"marked"`
	FillRatios []float64 `json:"fill_ratios"`
}

// Sheet is the classification of every question on a sheet.
type Sheet struct {
	// Answers has one entry per question in question order.
	Answers []Answer `json:"answers"`

	// Questions carries per-question diagnostics in the same order.
	Questions []Question `json:"questions"`
}

// ClassifySheet classifies every question of a binarized canonical image.
// cells is indexed [question][choice]; questions are independent.
func ClassifySheet(bin image.Image, cells [][]layout.CellRect, threshold float64) []Answer {
	return Analyze(bin, cells, threshold).Answers
}

// Analyze is ClassifySheet with per-question diagnostics.
func Analyze(bin image.Image, cells [][]layout.CellRect, threshold float64) *Sheet {
	gray := omrimaging.ToGray(bin)
	sheet := &Sheet{
		Answers:   make([]Answer, len(cells)),
		Questions: make([]Question, len(cells)),
	}
	for q, choices := range cells {
		flags := make([]bool, len(choices))
		ratios := make([]float64, len(choices))
		marked := []int{}
		for c, cell := range choices {
			r := cell.Rect()
			if !r.Intersect(gray.Rect).Empty() {
				ratios[c] = FillRatio(gray, r)
				flags[c] = ratios[c] >= threshold
			}
			if flags[c] {
				marked = append(marked, c)
			}
		}

		answer := ClassifyQuestion(flags)
		status := Answered
		switch {
		case len(marked) == 0:
			status = Blank
		case len(marked) > 1:
			status = Overmarked
		}

		sheet.Answers[q] = answer
		sheet.Questions[q] = Question{
			Index:      q,
			Answer:     answer,
			Status:     status,
			Marked:     marked,
			FillRatios: ratios,
		}
	}
	return sheet
}
