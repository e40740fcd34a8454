package sheet

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"unicode"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ironsheep/answer-sheet-omr/internal/layout"
)

const (
	// titleScale enlarges the 7x13 face so the title fills the band reserved
	// by layout.TitleTextHeight.
	titleScale = 2

	nameShare  = 0.7
	idBoxGap   = 8
	labelInset = 8

	// Finder pattern insets as fractions of the marker size.
	finderRing = 0.18
	finderCore = 0.36
)

var (
	ink   = color.NRGBA{0, 0, 0, 255}
	paper = color.NRGBA{255, 255, 255, 255}
	face  = basicfont.Face7x13
)

// Options controls sheet rendering.
type Options struct {
	// Title is printed centered at the top. Empty uses the locale's default.
	Title string

	// Locale supplies printed labels. The zero value uses English.
	Locale Locale
}

// Render draws the printable sheet for l: title, name and code boxes, four
// nested corner markers and the answer table with question numbers and
// choice labels. Every coordinate comes from l, so a sheet rendered here is
// read back with the same cells.
func Render(l *layout.Layout, opts Options) *image.NRGBA {
	loc := opts.Locale
	if loc.Code == "" {
		loc = English
	}
	title := opts.Title
	if title == "" {
		title = loc.DefaultTitle
	}

	spec := l.Spec
	g := l.Geometry
	img := image.NewNRGBA(image.Rect(0, 0, spec.SheetWidth, spec.SheetHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{paper}, image.Point{}, draw.Src)

	drawTitle(img, title, g)

	s := spec.MarkerSize
	drawFinder(img, spec.Margin, spec.Margin, s)
	drawFinder(img, spec.SheetWidth-spec.Margin-s, spec.Margin, s)
	drawFinder(img, spec.Margin, spec.SheetHeight-spec.Margin-s, s)
	drawFinder(img, spec.SheetWidth-spec.Margin-s, spec.SheetHeight-spec.Margin-s, s)

	drawIDBoxes(img, g, loc)
	drawTable(img, g)
	return img
}

// drawFinder draws a QR-style finder pattern with its outer square spanning
// x..x+size inclusive.
func drawFinder(img *image.NRGBA, x, y, size int) {
	fillRect(img, x, y, x+size, y+size, ink)
	r := int(float64(size) * finderRing)
	fillRect(img, x+r, y+r, x+size-r, y+size-r, paper)
	c := int(float64(size) * finderCore)
	fillRect(img, x+c, y+c, x+size-c, y+size-c, ink)
}

func drawTitle(img *image.NRGBA, title string, g layout.Geometry) {
	title = printable(title)
	w := font.MeasureString(face, title).Ceil()
	if w == 0 {
		return
	}
	m := face.Metrics()
	h := (m.Ascent + m.Descent).Ceil()

	text := image.NewNRGBA(image.Rect(0, 0, w, h))
	drawText(text, 0, m.Ascent.Ceil(), title)
	scaled := imaging.Resize(text, w*titleScale, h*titleScale, imaging.NearestNeighbor)

	// Baseline sits on the title band's bottom edge, centered on the sheet
	// and clipped to the band between the markers.
	sw := scaled.Bounds().Dx()
	x := (img.Rect.Dx() - sw) / 2
	y := g.TitleBottom - m.Ascent.Ceil()*titleScale
	dst := image.Rect(x, y, x+sw, y+scaled.Bounds().Dy())
	band := image.Rect(g.ContentLeft, 0, g.ContentRight, g.BoxTop)
	clip := dst.Intersect(band)
	draw.Draw(img, clip, scaled, clip.Min.Sub(dst.Min), draw.Over)
}

func drawIDBoxes(img *image.NRGBA, g layout.Geometry, loc Locale) {
	total := g.ContentRight - g.ContentLeft
	nameW := int(float64(total) * nameShare)
	codeW := total - nameW - idBoxGap

	top := g.BoxTop
	bottom := top + layout.IDBoxHeight
	nameLeft := g.ContentLeft
	nameRight := nameLeft + nameW
	codeLeft := nameRight + idBoxGap
	codeRight := codeLeft + codeW

	strokeRect(img, nameLeft, top, nameRight, bottom, 2)
	drawText(img, nameLeft+labelInset, top+28, loc.NameLabel)

	strokeRect(img, codeLeft, top, codeRight, bottom, 2)
	drawText(img, codeLeft+labelInset, top+28, loc.CodeLabel)
}

func drawTable(img *image.NRGBA, g layout.Geometry) {
	headerTop := g.TableTop
	headerBottom := g.TableTop + g.HeaderHeight
	labelLeft := g.TableLeft
	labelRight := g.TableLeft + g.LabelWidth
	ascent := face.Metrics().Ascent.Ceil()

	strokeRect(img, labelLeft, headerTop, labelRight, headerBottom, 1)

	for col := 0; col < g.Columns; col++ {
		x1 := g.ColumnEdge(col)
		x2 := g.ColumnEdge(col + 1)
		strokeRect(img, x1, headerTop, x2, headerBottom, 1)

		num := strconv.Itoa(col + 1)
		nw := font.MeasureString(face, num).Ceil()
		drawText(img, x1+(x2-x1-nw)/2, headerTop+(g.HeaderHeight+ascent)/2, num)

		for row := 0; row < g.Rows; row++ {
			strokeRect(img, x1, g.RowEdge(row), x2, g.RowEdge(row+1), 1)
		}
	}

	for row := 0; row < g.Rows; row++ {
		y1 := g.RowEdge(row)
		y2 := g.RowEdge(row + 1)
		strokeRect(img, labelLeft, y1, labelRight, y2, 1)
		cy := (y1 + y2) / 2
		drawText(img, labelLeft+labelInset, cy+int(float64(g.RowHeight)*0.15), ChoiceLabel(row))
	}
}

// drawText draws text in black with its baseline at y.
func drawText(img draw.Image, x, y int, text string) {
	drawTextColor(img, x, y, text, ink)
}

func drawTextColor(img draw.Image, x, y int, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(printable(text))
}

// printable strips diacritics so text fits the ASCII-only face:
// "Código" prints as "Codigo".
func printable(s string) string {
	ascii := true
	for _, r := range s {
		if r > unicode.MaxASCII {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// fillRect fills the rectangle with corners (x1, y1) and (x2, y2), both
// inclusive.
func fillRect(img *image.NRGBA, x1, y1, x2, y2 int, c color.NRGBA) {
	r := image.Rect(x1, y1, x2+1, y2+1).Intersect(img.Rect)
	draw.Draw(img, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

// strokeRect outlines the rectangle with corners (x1, y1) and (x2, y2), both
// inclusive, growing inward for thickness above 1.
func strokeRect(img *image.NRGBA, x1, y1, x2, y2, thickness int) {
	for t := 0; t < thickness; t++ {
		l, tp, r, b := x1+t, y1+t, x2-t, y2-t
		if l > r || tp > b {
			return
		}
		fillRect(img, l, tp, r, tp, ink)
		fillRect(img, l, b, r, b, ink)
		fillRect(img, l, tp, l, b, ink)
		fillRect(img, r, tp, r, b, ink)
	}
}
