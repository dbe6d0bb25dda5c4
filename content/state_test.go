package content

import (
	"testing"

	pdf "github.com/pdfray/pdfray"
)

func TestResourceStackLookupNearestWins(t *testing.T) {
	rs := resourceStack{
		pdf.Dict{"Font": pdf.Dict{"F1": pdf.Name("Ancestor")}},
		pdf.Dict{"Font": pdf.Dict{"F1": pdf.Name("Nearest")}},
	}
	v, ok := rs.lookup("Font", "F1")
	if !ok || v != pdf.Name("Nearest") {
		t.Errorf("lookup(Font, F1) = %v, %v, want Nearest, true", v, ok)
	}
}

func TestResourceStackLookupFallsThrough(t *testing.T) {
	rs := resourceStack{
		pdf.Dict{"Font": pdf.Dict{"F1": pdf.Name("Ancestor")}},
		pdf.Dict{"Font": pdf.Dict{"F2": pdf.Name("Nearest")}},
	}
	v, ok := rs.lookup("Font", "F1")
	if !ok || v != pdf.Name("Ancestor") {
		t.Errorf("lookup(Font, F1) = %v, %v, want Ancestor, true (falls back to farther scope)", v, ok)
	}
}

func TestResourceStackLookupMissing(t *testing.T) {
	rs := resourceStack{pdf.Dict{"Font": pdf.Dict{}}}
	if _, ok := rs.lookup("Font", "Nope"); ok {
		t.Errorf("lookup(Font, Nope) should not be found")
	}
	if _, ok := rs.lookup("XObject", "F1"); ok {
		t.Errorf("lookup on missing category should not be found")
	}
}

func TestResourceStackLookupSkipsNilDicts(t *testing.T) {
	rs := resourceStack{nil, pdf.Dict{"Font": pdf.Dict{"F1": pdf.Name("X")}}}
	v, ok := rs.lookup("Font", "F1")
	if !ok || v != pdf.Name("X") {
		t.Errorf("lookup should skip nil dicts in the stack: got %v, %v", v, ok)
	}
}

func TestPathBuildsSubpaths(t *testing.T) {
	var p path
	if !p.empty() {
		t.Fatal("new path should be empty")
	}
	p.moveTo(0, 0)
	p.lineTo(1, 0)
	p.lineTo(1, 1)
	p.closeSubpath()
	p.moveTo(5, 5)

	if len(p.subpaths) != 2 {
		t.Fatalf("len(subpaths) = %d, want 2", len(p.subpaths))
	}
	if !p.subpaths[0].closed {
		t.Error("first subpath should be closed")
	}
	if p.subpaths[1].closed {
		t.Error("second subpath should not be closed")
	}
	cur, ok := p.currentPoint()
	if !ok || cur != (point{5, 5}) {
		t.Errorf("currentPoint() = %v, %v, want {5 5}, true", cur, ok)
	}
}

func TestPathLineToWithoutMoveToStartsSubpath(t *testing.T) {
	var p path
	p.lineTo(3, 4)
	if len(p.subpaths) != 1 || len(p.subpaths[0].points) != 1 {
		t.Errorf("lineTo on an empty path should behave like moveTo")
	}
}

func TestGraphicsStateCloneIsIndependent(t *testing.T) {
	g := defaultGraphicsState()
	g.DashArray = []float64{1, 2, 3}
	c := g.clone()
	c.DashArray[0] = 99
	if g.DashArray[0] != 1 {
		t.Errorf("clone() must deep-copy DashArray, mutation leaked into original: %v", g.DashArray)
	}
	if c.LineWidth != g.LineWidth {
		t.Errorf("clone() changed scalar field LineWidth")
	}
}

func TestDefaultGraphicsStateDefaults(t *testing.T) {
	g := defaultGraphicsState()
	if g.FillAlpha != 1 || g.StrokeAlpha != 1 {
		t.Errorf("default alpha should be 1/1, got %v/%v", g.FillAlpha, g.StrokeAlpha)
	}
	if g.LineWidth != 1 {
		t.Errorf("default LineWidth should be 1, got %v", g.LineWidth)
	}
	if g.LineJoin != 1 {
		t.Errorf("default LineJoin should be 1 (round), got %v", g.LineJoin)
	}
	if g.text.HorizScale != 100 {
		t.Errorf("default text HorizScale should be 100, got %v", g.text.HorizScale)
	}
}
