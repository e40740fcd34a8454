package layout

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

func fiveQuestionSpec() Spec {
	return Spec{
		QuestionCount:      5,
		ChoicesPerQuestion: 4,
		SheetWidth:         800,
		SheetHeight:        1000,
		Margin:             40,
		MarkerSize:         40,
	}
}

func TestCompute_KnownGeometry(t *testing.T) {
	l, err := Compute(fiveQuestionSpec())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	g := l.Geometry
	checks := []struct {
		name string
		got  int
		want int
	}{
		{"TitleBottom", g.TitleBottom, 66},
		{"BoxTop", g.BoxTop, 81},
		{"TableTop", g.TableTop, 151},
		{"ContentLeft", g.ContentLeft, 95},
		{"ContentRight", g.ContentRight, 705},
		{"TableWidth", g.TableWidth, 579},
		{"TableLeft", g.TableLeft, 110},
		{"HeaderHeight", g.HeaderHeight, 63},
		{"RowHeight", g.RowHeight, 143},
		{"TableHeight", g.TableHeight, 635},
		{"LabelWidth", g.LabelWidth, 46},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, c.got, c.want)
		}
	}
	if g.CellWidth != 533.0/5.0 {
		t.Errorf("CellWidth: got %v, want %v", g.CellWidth, 533.0/5.0)
	}
}

func TestCompute_KnownCells(t *testing.T) {
	l, err := Compute(fiveQuestionSpec())
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	tests := []struct {
		q, c int
		want CellRect
	}{
		{0, 0, CellRect{Question: 0, Choice: 0, X: 159, Y: 217, Width: 100, Height: 137}},
		{0, 3, CellRect{Question: 0, Choice: 3, X: 159, Y: 646, Width: 100, Height: 137}},
		{1, 0, CellRect{Question: 1, Choice: 0, X: 265, Y: 217, Width: 101, Height: 137}},
	}
	for _, tt := range tests {
		if got := l.Cells[tt.q][tt.c]; got != tt.want {
			t.Errorf("cell[%d][%d]: got %+v, want %+v", tt.q, tt.c, got, tt.want)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	specs := []Spec{
		DefaultSpec(),
		fiveQuestionSpec(),
		{QuestionCount: 37, ChoicesPerQuestion: 5, SheetWidth: 1240, SheetHeight: 1754, Margin: 60, MarkerSize: 50},
	}
	for _, spec := range specs {
		a, err := Compute(spec)
		if err != nil {
			t.Fatalf("Compute(%+v) failed: %v", spec, err)
		}
		b, err := Compute(spec)
		if err != nil {
			t.Fatalf("Compute(%+v) failed: %v", spec, err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Compute(%+v) is not deterministic", spec)
		}
	}
}

func TestCompute_CellCountInvariant(t *testing.T) {
	for q := 1; q <= 60; q += 7 {
		for c := 1; c <= 8; c++ {
			spec := Spec{
				QuestionCount:      q,
				ChoicesPerQuestion: c,
				SheetWidth:         800,
				SheetHeight:        1000,
				Margin:             40,
				MarkerSize:         40,
			}
			l, err := Compute(spec)
			if err != nil {
				t.Fatalf("Compute(q=%d, c=%d) failed: %v", q, c, err)
			}
			if len(l.Cells) != q {
				t.Fatalf("q=%d c=%d: got %d question groups", q, c, len(l.Cells))
			}
			for qi, group := range l.Cells {
				if len(group) != c {
					t.Fatalf("q=%d c=%d: question %d has %d cells", q, c, qi, len(group))
				}
				for ci, cell := range group {
					if cell.Width <= 0 || cell.Height <= 0 {
						t.Errorf("q=%d c=%d: cell[%d][%d] has size %dx%d", q, c, qi, ci, cell.Width, cell.Height)
					}
					if cell.X < 0 || cell.Y < 0 || cell.X+cell.Width > spec.SheetWidth || cell.Y+cell.Height > spec.SheetHeight {
						t.Errorf("q=%d c=%d: cell[%d][%d] %+v outside sheet", q, c, qi, ci, cell)
					}
					if cell.Question != qi || cell.Choice != ci {
						t.Errorf("cell[%d][%d] labelled q%d/c%d", qi, ci, cell.Question, cell.Choice)
					}
				}
			}
		}
	}
}

func TestCompute_ColumnsDoNotOverlap(t *testing.T) {
	spec := fiveQuestionSpec()
	spec.QuestionCount = 23
	l, err := Compute(spec)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	for q := 1; q < len(l.Cells); q++ {
		prev := l.Cells[q-1][0]
		cur := l.Cells[q][0]
		if prev.X+prev.Width+2*CellPadding > cur.X {
			t.Errorf("column %d (%+v) overlaps column %d (%+v)", q-1, prev, q, cur)
		}
	}
	last := l.Cells[len(l.Cells)-1][0]
	right := l.Geometry.ColumnEdge(l.Geometry.Columns)
	if last.X+last.Width+CellPadding != right {
		t.Errorf("last column ends at %d, table edge at %d", last.X+last.Width+CellPadding, right)
	}
}

func TestCompute_ClampsZeroCounts(t *testing.T) {
	spec := fiveQuestionSpec()
	spec.QuestionCount = 0
	spec.ChoicesPerQuestion = 0

	l, err := Compute(spec)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(l.Cells) != 1 || len(l.Cells[0]) != 1 {
		t.Fatalf("got %dx%d cells, want 1x1", len(l.Cells), len(l.Cells[0]))
	}
}

func TestCompute_InvalidDimensions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"zero width", func(s *Spec) { s.SheetWidth = 0 }},
		{"negative height", func(s *Spec) { s.SheetHeight = -10 }},
		{"negative margin", func(s *Spec) { s.Margin = -1 }},
		{"negative marker", func(s *Spec) { s.MarkerSize = -5 }},
		{"markers swallow width", func(s *Spec) { s.SheetWidth = 200 }},
		{"no room for rows", func(s *Spec) { s.SheetHeight = 260 }},
		{"too many choices", func(s *Spec) { s.ChoicesPerQuestion = 60 }},
		{"too many questions", func(s *Spec) { s.QuestionCount = 400 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := fiveQuestionSpec()
			tt.mutate(&spec)
			_, err := Compute(spec)
			if !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("got %v, want ErrInvalidLayout", err)
			}
		})
	}
}

func TestExpectedCorners(t *testing.T) {
	c := ExpectedCorners(800, 1000, 40, 40)
	want := Corners{
		TopLeft:     {X: 60, Y: 60},
		TopRight:    {X: 740, Y: 60},
		BottomLeft:  {X: 60, Y: 940},
		BottomRight: {X: 740, Y: 940},
	}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}

	odd := ExpectedCorners(801, 1001, 40, 41)
	if odd[TopLeft] != (Point{X: 60.5, Y: 60.5}) {
		t.Errorf("odd marker size: got %+v", odd[TopLeft])
	}
}

func TestCompute_CornersIndependentOfTable(t *testing.T) {
	a := fiveQuestionSpec()
	b := a
	b.QuestionCount = 30
	b.ChoicesPerQuestion = 6

	la, err := Compute(a)
	if err != nil {
		t.Fatal(err)
	}
	lb, err := Compute(b)
	if err != nil {
		t.Fatal(err)
	}
	if la.Corners != lb.Corners {
		t.Errorf("corners changed with table shape: %+v vs %+v", la.Corners, lb.Corners)
	}
}

func TestCornerString(t *testing.T) {
	names := map[Corner]string{
		TopLeft:     "top-left",
		TopRight:    "top-right",
		BottomLeft:  "bottom-left",
		BottomRight: "bottom-right",
		Corner(9):   "corner(9)",
	}
	for c, want := range names {
		if got := c.String(); got != want {
			t.Errorf("Corner(%d).String() = %q, want %q", int(c), got, want)
		}
	}
}

func TestCache_ConcurrentGet(t *testing.T) {
	cache := NewCache(0)
	spec := fiveQuestionSpec()

	var wg sync.WaitGroup
	results := make([]*Layout, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l, err := cache.Get(spec)
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			results[i] = l
		}(i)
	}
	wg.Wait()

	for i, l := range results {
		if l != results[0] {
			t.Fatalf("result %d is a different *Layout", i)
		}
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestCache_CachesErrors(t *testing.T) {
	var cache Cache
	spec := fiveQuestionSpec()
	spec.SheetWidth = -1

	if _, err := cache.Get(spec); !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("got %v, want ErrInvalidLayout", err)
	}
	if _, err := cache.Get(spec); !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("second Get: got %v, want ErrInvalidLayout", err)
	}
}

func TestCache_EvictsOldest(t *testing.T) {
	cache := NewCache(3)
	first, err := cache.Get(fiveQuestionSpec())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	for n := 6; n <= 10; n++ {
		spec := fiveQuestionSpec()
		spec.QuestionCount = n
		if _, err := cache.Get(spec); err != nil {
			t.Fatalf("Get(%d questions) failed: %v", n, err)
		}
		if cache.Len() > 3 {
			t.Fatalf("Len: got %d after %d questions, want at most 3", cache.Len(), n)
		}
	}
	if cache.Len() != 3 {
		t.Errorf("Len: got %d, want 3", cache.Len())
	}

	again, err := cache.Get(fiveQuestionSpec())
	if err != nil {
		t.Fatalf("Get after eviction failed: %v", err)
	}
	if again == first {
		t.Error("evicted spec returned the old *Layout")
	}
	if !reflect.DeepEqual(again, first) {
		t.Error("recomputed layout differs from the evicted one")
	}
}

func TestCache_ZeroValueIsBounded(t *testing.T) {
	var cache Cache
	for n := 1; n <= DefaultCacheSize+10; n++ {
		spec := fiveQuestionSpec()
		spec.QuestionCount = n
		cache.Get(spec)
	}
	if cache.Len() != DefaultCacheSize {
		t.Errorf("Len: got %d, want %d", cache.Len(), DefaultCacheSize)
	}
}
