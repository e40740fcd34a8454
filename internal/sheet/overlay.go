package sheet

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/answer-sheet-omr/internal/layout"
	"github.com/ironsheep/answer-sheet-omr/internal/marks"
)

// Palette holds the audit overlay colors as "#RRGGBB" strings.
type Palette struct {
	Answered   string  `json:"answered"`
	Overmarked string  `json:"overmarked"`
	Blank      string  `json:"blank"`
	Marker     string  `json:"marker"`
	Opacity    float64 `json:"opacity"`
}

// DefaultPalette returns green for accepted marks, red for over-marked
// questions, orange for blank questions and blue for marker crosshairs.
func DefaultPalette() Palette {
	return Palette{
		Answered:   "#2ca02c",
		Overmarked: "#d62728",
		Blank:      "#ff7f0e",
		Marker:     "#1f77b4",
		Opacity:    0.45,
	}
}

// parseColor parses a hex color, falling back to def on error.
func parseColor(hex, def string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(def)
	}
	return c
}

// Overlay draws the classification of a sheet over its canonical image for
// review: filled cells of answered questions are tinted with Answered, every
// filled cell of an over-marked question with Overmarked, and the cells of
// blank questions are outlined with Blank. Marker centers get a crosshair and
// each filled cell is labelled with its fill percentage.
func Overlay(canonical image.Image, l *layout.Layout, result *marks.Sheet, p Palette) (*image.NRGBA, error) {
	if result == nil {
		return nil, fmt.Errorf("no classification to draw")
	}
	if len(result.Questions) != len(l.Cells) {
		return nil, fmt.Errorf("classification has %d questions, layout has %d", len(result.Questions), len(l.Cells))
	}
	def := DefaultPalette()
	if p.Opacity <= 0 || p.Opacity > 1 {
		p.Opacity = def.Opacity
	}
	answered := parseColor(p.Answered, def.Answered)
	overmarked := parseColor(p.Overmarked, def.Overmarked)
	blank := parseColor(p.Blank, def.Blank)
	marker := parseColor(p.Marker, def.Marker)

	out := imaging.Clone(canonical)

	for q, detail := range result.Questions {
		cells := l.Cells[q]
		switch detail.Status {
		case marks.Blank:
			for _, cell := range cells {
				outline(out, cell.Rect(), blank)
			}
		case marks.Answered, marks.Overmarked:
			tint := answered
			if detail.Status == marks.Overmarked {
				tint = overmarked
			}
			for _, c := range detail.Marked {
				if c < 0 || c >= len(cells) {
					continue
				}
				r := cells[c].Rect()
				blend(out, r, tint, p.Opacity)
				outline(out, r, tint)
				pct := fmt.Sprintf("%.0f%%", detail.FillRatios[c]*100)
				drawTextColor(out, r.Min.X+2, r.Max.Y-3, pct, toNRGBA(tint))
			}
		}
	}

	for _, pt := range l.Corners {
		crosshair(out, int(pt.X), int(pt.Y), 8, marker)
	}
	return out, nil
}

// blend mixes every pixel of r toward c by t in RGB space.
func blend(img *image.NRGBA, r image.Rectangle, c colorful.Color, t float64) {
	r = r.Intersect(img.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			orig, ok := colorful.MakeColor(img.NRGBAAt(x, y))
			if !ok {
				orig = colorful.Color{R: 1, G: 1, B: 1}
			}
			img.Set(x, y, orig.BlendRgb(c, t).Clamped())
		}
	}
}

func outline(img *image.NRGBA, r image.Rectangle, c colorful.Color) {
	col := toNRGBA(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(img, edge.Intersect(img.Rect), &image.Uniform{col}, image.Point{}, draw.Src)
	}
}

func crosshair(img *image.NRGBA, x, y, arm int, c colorful.Color) {
	col := toNRGBA(c)
	h := image.Rect(x-arm, y, x+arm+1, y+1).Intersect(img.Rect)
	v := image.Rect(x, y-arm, x+1, y+arm+1).Intersect(img.Rect)
	draw.Draw(img, h, &image.Uniform{col}, image.Point{}, draw.Src)
	draw.Draw(img, v, &image.Uniform{col}, image.Point{}, draw.Src)
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
