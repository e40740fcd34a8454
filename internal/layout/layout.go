package layout

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidLayout is returned when a Spec has a non-positive dimension or
// produces a table that does not fit on the sheet.
var ErrInvalidLayout = errors.New("invalid layout")

// Fixed layout metrics shared by the sheet renderer and the reader.
const (
	// TitleTextHeight is the pixel height reserved for the title text line.
	// It matches the Hershey simplex metric at scale 1.2, thickness 2 used by
	// previously printed sheets.
	TitleTextHeight = 26

	// IDBoxHeight is the height of the name/code identification boxes.
	IDBoxHeight = 50

	// CellPadding is the inward padding applied to every answer cell.
	CellPadding = 3

	titleGap        = 15
	idBoxGap        = 20
	contentInset    = 15
	bottomGap       = 20
	minHeaderHeight = 18
	minRowHeight    = 15
	minLabelWidth   = 30
)

// Spec describes an exam sheet. It is an immutable value: copy it freely.
type Spec struct {
	QuestionCount      int `json:"question_count" yaml:"question_count"`
	ChoicesPerQuestion int `json:"choices_per_question" yaml:"choices_per_question"`
	SheetWidth         int `json:"sheet_width" yaml:"sheet_width"`
	SheetHeight        int `json:"sheet_height" yaml:"sheet_height"`
	Margin             int `json:"margin" yaml:"margin"`
	MarkerSize         int `json:"marker_size" yaml:"marker_size"`
}

// DefaultSpec returns the 10 question, 4 choice, 800x1000 sheet.
func DefaultSpec() Spec {
	return Spec{
		QuestionCount:      10,
		ChoicesPerQuestion: 4,
		SheetWidth:         800,
		SheetHeight:        1000,
		Margin:             40,
		MarkerSize:         40,
	}
}

// Questions returns the question count clamped to at least 1.
func (s Spec) Questions() int {
	return max(1, s.QuestionCount)
}

// Choices returns the choice count clamped to at least 1.
func (s Spec) Choices() int {
	return max(1, s.ChoicesPerQuestion)
}

// Validate reports whether the sheet dimensions can hold a layout at all.
func (s Spec) Validate() error {
	switch {
	case s.SheetWidth <= 0 || s.SheetHeight <= 0:
		return fmt.Errorf("%w: sheet size %dx%d must be positive", ErrInvalidLayout, s.SheetWidth, s.SheetHeight)
	case s.Margin < 0:
		return fmt.Errorf("%w: margin %d is negative", ErrInvalidLayout, s.Margin)
	case s.MarkerSize < 0:
		return fmt.Errorf("%w: marker size %d is negative", ErrInvalidLayout, s.MarkerSize)
	}
	return nil
}

// CellRect is one answer cell, already shrunk by CellPadding.
type CellRect struct {
	Question int `json:"question"`
	Choice   int `json:"choice"`
	X        int `json:"x"`
	Y        int `json:"y"`
	Width    int `json:"width"`
	Height   int `json:"height"`
}

// Rect returns the cell as an image.Rectangle (max exclusive).
func (c CellRect) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

// Point is a floating-point position in some image's coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Corner names one of the four registration markers.
type Corner int

// Corners are listed in assignment order.
const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	}
	return fmt.Sprintf("corner(%d)", int(c))
}

// Corners holds one point per Corner, indexed by Corner.
type Corners [4]Point

// ExpectedCorners returns the marker centers for a sheet of the given size.
// The result does not depend on the table layout.
func ExpectedCorners(width, height, margin, markerSize int) Corners {
	half := float64(markerSize) / 2.0
	m := float64(margin)
	w, h := float64(width), float64(height)
	return Corners{
		TopLeft:     {X: m + half, Y: m + half},
		TopRight:    {X: w - m - half, Y: m + half},
		BottomLeft:  {X: m + half, Y: h - m - half},
		BottomRight: {X: w - m - half, Y: h - m - half},
	}
}

// Geometry holds the intermediate table metrics. The sheet renderer draws
// from these so it never recomputes them.
type Geometry struct {
	TitleBottom  int     `json:"title_bottom"`
	BoxTop       int     `json:"box_top"`
	ContentLeft  int     `json:"content_left"`
	ContentRight int     `json:"content_right"`
	TableLeft    int     `json:"table_left"`
	TableTop     int     `json:"table_top"`
	TableWidth   int     `json:"table_width"`
	TableHeight  int     `json:"table_height"`
	HeaderHeight int     `json:"header_height"`
	RowHeight    int     `json:"row_height"`
	LabelWidth   int     `json:"label_width"`
	CellWidth    float64 `json:"cell_width"`
	Columns      int     `json:"columns"`
	Rows         int     `json:"rows"`
}

// ColumnEdge returns the x coordinate of the left edge of question column
// col. ColumnEdge(Columns) is the right edge of the table.
func (g Geometry) ColumnEdge(col int) int {
	return int(float64(g.TableLeft+g.LabelWidth) + float64(col)*g.CellWidth)
}

// RowEdge returns the y coordinate of the top edge of choice row row.
// RowEdge(Rows) is the bottom edge of the table.
func (g Geometry) RowEdge(row int) int {
	return g.TableTop + g.HeaderHeight + row*g.RowHeight
}

// Layout is the full result of Compute. Treat it as read-only: a Cache
// hands the same Layout to every caller.
type Layout struct {
	Spec     Spec         `json:"spec"`
	Geometry Geometry     `json:"geometry"`
	Cells    [][]CellRect `json:"cells"`
	Corners  Corners      `json:"corners"`
}

// Compute maps a Spec to its cell rectangles and marker corners.
//
// Cells is indexed [question][choice]. Question and choice counts below 1 are
// clamped to 1. Any other non-positive dimension, or a table that would not
// fit on the sheet, fails with ErrInvalidLayout.
func Compute(spec Spec) (*Layout, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	g := computeGeometry(spec)
	if g.ContentRight <= g.ContentLeft {
		return nil, fmt.Errorf("%w: no horizontal room between markers (content %d..%d)",
			ErrInvalidLayout, g.ContentLeft, g.ContentRight)
	}
	if g.TableHeight <= g.HeaderHeight {
		return nil, fmt.Errorf("%w: no vertical room for answer rows (table height %d)",
			ErrInvalidLayout, g.TableHeight)
	}

	cells := make([][]CellRect, g.Columns)
	for col := 0; col < g.Columns; col++ {
		x1 := g.ColumnEdge(col)
		x2 := g.ColumnEdge(col + 1)
		cells[col] = make([]CellRect, g.Rows)
		for row := 0; row < g.Rows; row++ {
			y1 := g.RowEdge(row)
			y2 := g.RowEdge(row + 1)
			c := CellRect{
				Question: col,
				Choice:   row,
				X:        x1 + CellPadding,
				Y:        y1 + CellPadding,
				Width:    (x2 - x1) - 2*CellPadding,
				Height:   (y2 - y1) - 2*CellPadding,
			}
			if c.Width <= 0 || c.Height <= 0 {
				return nil, fmt.Errorf("%w: cell q%d/c%d is %dx%d", ErrInvalidLayout, col, row, c.Width, c.Height)
			}
			if c.X+c.Width > spec.SheetWidth || c.Y+c.Height > spec.SheetHeight {
				return nil, fmt.Errorf("%w: cell q%d/c%d falls outside the %dx%d sheet",
					ErrInvalidLayout, col, row, spec.SheetWidth, spec.SheetHeight)
			}
			cells[col][row] = c
		}
	}

	return &Layout{
		Spec:     spec,
		Geometry: g,
		Cells:    cells,
		Corners:  ExpectedCorners(spec.SheetWidth, spec.SheetHeight, spec.Margin, spec.MarkerSize),
	}, nil
}

func computeGeometry(spec Spec) Geometry {
	var g Geometry
	g.Columns = spec.Questions()
	g.Rows = spec.Choices()

	g.TitleBottom = spec.Margin + TitleTextHeight
	g.BoxTop = g.TitleBottom + titleGap
	g.TableTop = g.BoxTop + IDBoxHeight + idBoxGap

	g.ContentLeft = spec.Margin + spec.MarkerSize + contentInset
	g.ContentRight = spec.SheetWidth - spec.Margin - spec.MarkerSize - contentInset
	contentWidth := g.ContentRight - g.ContentLeft
	g.TableWidth = int(float64(contentWidth) * 0.95)
	g.TableLeft = g.ContentLeft + floorDiv(contentWidth-g.TableWidth, 2)

	available := spec.SheetHeight - g.TableTop - spec.Margin - spec.MarkerSize - bottomGap
	tableHeight := int(float64(available) * 0.85)

	g.HeaderHeight = max(minHeaderHeight, int(float64(tableHeight)*0.10))
	remaining := tableHeight - g.HeaderHeight
	g.RowHeight = max(minRowHeight, int(float64(remaining)/float64(g.Rows)))
	// Rows are whole pixels, so the table shrinks to header + rows.
	g.TableHeight = g.HeaderHeight + g.RowHeight*g.Rows
	if remaining <= 0 {
		g.TableHeight = tableHeight
	}

	g.LabelWidth = max(minLabelWidth, int(float64(g.TableWidth)*0.08))
	g.CellWidth = float64(g.TableWidth-g.LabelWidth) / float64(g.Columns)
	return g
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
