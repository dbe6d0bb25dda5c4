package content

import (
	pdf "github.com/pdfray/pdfray"
	"seehuhn.de/go/geom/matrix"
)

// resourceStack is the chain of /Resources dictionaries in effect,
// outermost first: the page's (and its inherited) resources, followed by
// any Form XObject resources the interpreter has recursed into, with the
// innermost scope last.
type resourceStack []pdf.Dict

// lookup searches a named subdictionary (e.g. "Font", "XObject",
// "ColorSpace") from the innermost resource dictionary outward.
func (rs resourceStack) lookup(category string, name pdf.Name) (pdf.Object, bool) {
	for i := len(rs) - 1; i >= 0; i-- {
		dict := rs[i]
		if dict == nil {
			continue
		}
		sub, ok := dict[pdf.Name(category)].(pdf.Dict)
		if !ok {
			continue
		}
		if v, ok := sub[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// point is a location in the current coordinate system (user or device
// space, depending on context).
type point struct {
	X, Y float64
}

// subpath is a connected sequence of path segments, implicitly closed only
// when the interpreter records it (operators h, s, b, b*).
type subpath struct {
	points []point
	closed bool
}

// path is the current path under construction, in user space (not yet
// transformed by the CTM; the painter receives the CTM separately so it
// can decide its own rasterization precision).
type path struct {
	subpaths []subpath
}

func (p *path) moveTo(x, y float64) {
	p.subpaths = append(p.subpaths, subpath{points: []point{{x, y}}})
}

func (p *path) lineTo(x, y float64) {
	if len(p.subpaths) == 0 {
		p.moveTo(x, y)
		return
	}
	last := &p.subpaths[len(p.subpaths)-1]
	last.points = append(last.points, point{x, y})
}

func (p *path) closeSubpath() {
	if len(p.subpaths) == 0 {
		return
	}
	p.subpaths[len(p.subpaths)-1].closed = true
}

func (p *path) currentPoint() (point, bool) {
	if len(p.subpaths) == 0 {
		return point{}, false
	}
	last := p.subpaths[len(p.subpaths)-1]
	if len(last.points) == 0 {
		return point{}, false
	}
	return last.points[len(last.points)-1], true
}

func (p *path) empty() bool { return len(p.subpaths) == 0 }

// textState holds the text-specific portion of the graphics state,
// saved/restored by q/Q like everything else. BT does not reset it (BT
// resets only the interpreter's text and text-line matrices).
type textState struct {
	CharSpacing   float64
	WordSpacing   float64
	HorizScale    float64 // percent, default 100
	Leading       float64
	FontName      pdf.Name
	FontDict      pdf.Dict
	FontSize      float64
	RenderMode    int
	Rise          float64
}

func defaultTextState() textState {
	return textState{HorizScale: 100}
}

// graphicsState is the portion of the interpreter's state saved/restored
// by q/Q: CTM, paint colors and alpha, line parameters, clip bookkeeping,
// and text parameters.
type graphicsState struct {
	CTM matrix.Matrix

	FillColor   RGB
	StrokeColor RGB
	FillCS      *colorSpace
	StrokeCS    *colorSpace
	FillPattern pdf.Name
	FillAlpha   float64
	StrokeAlpha float64

	LineWidth  float64
	LineCap    int
	LineJoin   int
	MiterLimit float64
	DashArray  []float64
	DashPhase  float64

	clipLayers int // number of clip layers pushed at this q level

	text textState
}

func defaultGraphicsState() graphicsState {
	return graphicsState{
		CTM:         matrix.Identity,
		FillCS:      defaultColorSpace(),
		StrokeCS:    defaultColorSpace(),
		FillAlpha:   1,
		StrokeAlpha: 1,
		LineWidth:   1,
		LineJoin:    1, // round; deliberately not the PDF default (miter)
		MiterLimit:  10,
		text:        defaultTextState(),
	}
}

func (g graphicsState) clone() graphicsState {
	c := g
	if g.DashArray != nil {
		c.DashArray = append([]float64(nil), g.DashArray...)
	}
	return c
}
