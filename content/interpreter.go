// Package content implements the content-stream interpreter: the
// cooperative, single-threaded machine that turns a page's (or a Form
// XObject's, or a Type 3 glyph's) operator stream into calls against an
// abstract Painter.
package content

import (
	"bytes"
	"errors"
	"io"

	pdf "github.com/pdfray/pdfray"
	"github.com/pdfray/pdfray/function"
	"seehuhn.de/go/geom/matrix"
)

// Interpreter runs one content stream, sharing its iteration budget and
// event sink with any nested Form XObject / Type 3 glyph sub-interpreters
// it spawns.
type Interpreter struct {
	R         pdf.Getter
	Painter   Painter
	Sink      pdf.EventSink
	MaxIter   int
	MaxRecur  int

	resources resourceStack
	gsStack   []graphicsState
	gs        graphicsState

	cur           path
	pendingClip   bool
	pendingClipEO bool

	textMatrix     matrix.Matrix
	textLineMatrix matrix.Matrix

	depth int
	iters int
}

// NewInterpreter builds a top-level interpreter over the given page (or
// form) resource dictionaries, outermost scope first. A single dictionary
// is the common case; a caller with an inherited resource stack (page
// plus ancestor /Pages nodes) passes them in outer-to-inner order so
// nearer scopes shadow farther ones.
func NewInterpreter(r pdf.Getter, p Painter, opts *pdf.ReaderOptions, resources ...pdf.Dict) *Interpreter {
	it := &Interpreter{
		R:       r,
		Painter: p,
		gs:      defaultGraphicsState(),
	}
	for _, res := range resources {
		if res != nil {
			it.resources = append(it.resources, res)
		}
	}
	it.Sink = sinkOf(opts)
	it.MaxIter = maxIterOf(opts)
	it.MaxRecur = maxRecurOf(opts)
	return it
}

func sinkOf(opts *pdf.ReaderOptions) pdf.EventSink {
	if opts != nil && opts.Sink != nil {
		return opts.Sink
	}
	return pdf.NopSink{}
}

func maxIterOf(opts *pdf.ReaderOptions) int {
	if opts != nil && opts.MaxIterations > 0 {
		return opts.MaxIterations
	}
	return 0 // Run sizes the cap from the stream length
}

func maxRecurOf(opts *pdf.ReaderOptions) int {
	if opts != nil && opts.MaxRecursion > 0 {
		return opts.MaxRecursion
	}
	return 20
}

func (it *Interpreter) emit(kind pdf.EventKind, detail string) {
	if it.Sink != nil {
		it.Sink.Emit(pdf.Event{Kind: kind, Detail: detail})
	}
}

// Run executes a content stream's bytes against the interpreter's current
// state, starting a fresh operand stack.
func (it *Interpreter) Run(data []byte) error {
	if it.MaxIter <= 0 {
		n := 2 * len(data)
		if n < 200000 {
			n = 200000
		}
		it.MaxIter = n
	}

	sc := newScanner(bytes.NewReader(data))
	var stack []pdf.Object

	for {
		it.iters++
		if it.iters > it.MaxIter {
			it.emit(pdf.WarnIterationCap, "content stream iteration cap exceeded")
			return nil
		}

		obj, err := sc.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				it.unwindClips()
				return nil
			}
			return err
		}

		op, isOp := obj.(pdf.Operator)
		if !isOp {
			stack = append(stack, obj)
			continue
		}

		if err := it.exec(op, stack); err != nil {
			it.emit(pdf.WarnUnknownOperator, string(op)+": "+err.Error())
		}
		stack = stack[:0]
	}
}

// unwindClips pops any clip layers still outstanding on EOF: a content
// stream that ends with unbalanced q's (no matching Q) must not leave the
// Painter's clip stack unbalanced for whatever runs after it.
func (it *Interpreter) unwindClips() {
	for i := 0; i < it.gs.clipLayers; i++ {
		it.Painter.PopClipPath()
	}
	it.gs.clipLayers = 0
	for i := len(it.gsStack) - 1; i >= 0; i-- {
		for j := 0; j < it.gsStack[i].clipLayers; j++ {
			it.Painter.PopClipPath()
		}
	}
	it.gsStack = it.gsStack[:0]
}

func num(obj pdf.Object) float64 {
	switch x := obj.(type) {
	case pdf.Integer:
		return float64(x)
	case pdf.Real:
		return float64(x)
	case pdf.Number:
		return float64(x)
	}
	return 0
}

func nums(stack []pdf.Object) []float64 {
	out := make([]float64, len(stack))
	for i, o := range stack {
		out[i] = num(o)
	}
	return out
}

func (it *Interpreter) exec(op pdf.Operator, stack []pdf.Object) error {
	switch op {

	// --- path construction ---
	case "m":
		if len(stack) >= 2 {
			a := nums(stack)
			it.cur.moveTo(a[len(a)-2], a[len(a)-1])
		}
	case "l":
		if len(stack) >= 2 {
			a := nums(stack)
			it.cur.lineTo(a[len(a)-2], a[len(a)-1])
		}
	case "c":
		if len(stack) >= 6 {
			a := nums(stack)
			it.curveTo(a[0], a[1], a[2], a[3], a[4], a[5])
		}
	case "v":
		if len(stack) >= 4 {
			a := nums(stack)
			cp, _ := it.cur.currentPoint()
			it.curveTo(cp.X, cp.Y, a[0], a[1], a[2], a[3])
		}
	case "y":
		if len(stack) >= 4 {
			a := nums(stack)
			it.curveTo(a[0], a[1], a[2], a[3], a[2], a[3])
		}
	case "h":
		it.cur.closeSubpath()
	case "re":
		if len(stack) >= 4 {
			a := nums(stack)
			x, y, w, h := a[0], a[1], a[2], a[3]
			it.cur.moveTo(x, y)
			it.cur.lineTo(x+w, y)
			it.cur.lineTo(x+w, y+h)
			it.cur.lineTo(x, y+h)
			it.cur.closeSubpath()
		}

	// --- path painting ---
	case "S":
		it.strokeCurrent()
		it.endPath()
	case "s":
		it.cur.closeSubpath()
		it.strokeCurrent()
		it.endPath()
	case "f", "F":
		it.fillCurrent(false)
		it.endPath()
	case "f*":
		it.fillCurrent(true)
		it.endPath()
	case "B":
		it.fillCurrent(false)
		it.strokeCurrent()
		it.endPath()
	case "B*":
		it.fillCurrent(true)
		it.strokeCurrent()
		it.endPath()
	case "b":
		it.cur.closeSubpath()
		it.fillCurrent(false)
		it.strokeCurrent()
		it.endPath()
	case "b*":
		it.cur.closeSubpath()
		it.fillCurrent(true)
		it.strokeCurrent()
		it.endPath()
	case "n":
		it.endPath()

	// --- clipping ---
	case "W":
		it.pendingClip = true
		it.pendingClipEO = false
	case "W*":
		it.pendingClip = true
		it.pendingClipEO = true

	// --- graphics state ---
	case "q":
		it.gsStack = append(it.gsStack, it.gs.clone())
		it.gs.clipLayers = 0
	case "Q":
		if n := len(it.gsStack); n > 0 {
			for i := 0; i < it.gs.clipLayers; i++ {
				it.Painter.PopClipPath()
			}
			it.gs = it.gsStack[n-1]
			it.gsStack = it.gsStack[:n-1]
		}
	case "cm":
		if len(stack) >= 6 {
			a := nums(stack)
			m := matrix.Matrix{a[0], a[1], a[2], a[3], a[4], a[5]}
			it.gs.CTM = mulMatrix(m, it.gs.CTM)
		}
	case "w":
		if len(stack) >= 1 {
			it.gs.LineWidth = num(stack[len(stack)-1])
		}
	case "J":
		if len(stack) >= 1 {
			it.gs.LineCap = int(num(stack[len(stack)-1]))
		}
	case "j":
		if len(stack) >= 1 {
			it.gs.LineJoin = int(num(stack[len(stack)-1]))
		}
	case "M":
		if len(stack) >= 1 {
			it.gs.MiterLimit = num(stack[len(stack)-1])
		}
	case "d":
		if len(stack) >= 2 {
			if arr, ok := stack[len(stack)-2].(pdf.Array); ok {
				it.gs.DashArray = nums(arr)
			}
			it.gs.DashPhase = num(stack[len(stack)-1])
		}
	case "gs":
		if len(stack) >= 1 {
			if name, ok := stack[len(stack)-1].(pdf.Name); ok {
				it.applyExtGState(name)
			}
		}

	// --- color ---
	case "g":
		if len(stack) >= 1 {
			it.gs.FillCS = &colorSpace{kind: csDeviceGray, n: 1}
			it.gs.FillColor = grayToRGB(num(stack[len(stack)-1]))
			it.gs.FillPattern = ""
		}
	case "G":
		if len(stack) >= 1 {
			it.gs.StrokeCS = &colorSpace{kind: csDeviceGray, n: 1}
			it.gs.StrokeColor = grayToRGB(num(stack[len(stack)-1]))
		}
	case "rg":
		if len(stack) >= 3 {
			a := nums(stack)
			it.gs.FillCS = &colorSpace{kind: csDeviceRGB, n: 3}
			it.gs.FillColor = RGB{clamp01(a[0]), clamp01(a[1]), clamp01(a[2])}
			it.gs.FillPattern = ""
		}
	case "RG":
		if len(stack) >= 3 {
			a := nums(stack)
			it.gs.StrokeCS = &colorSpace{kind: csDeviceRGB, n: 3}
			it.gs.StrokeColor = RGB{clamp01(a[0]), clamp01(a[1]), clamp01(a[2])}
		}
	case "k":
		if len(stack) >= 4 {
			a := nums(stack)
			it.gs.FillCS = &colorSpace{kind: csDeviceCMYK, n: 4}
			it.gs.FillColor = cmykToRGB(a[0], a[1], a[2], a[3])
			it.gs.FillPattern = ""
		}
	case "K":
		if len(stack) >= 4 {
			a := nums(stack)
			it.gs.StrokeCS = &colorSpace{kind: csDeviceCMYK, n: 4}
			it.gs.StrokeColor = cmykToRGB(a[0], a[1], a[2], a[3])
		}
	case "cs":
		if len(stack) >= 1 {
			it.gs.FillCS = resolveColorSpace(it.R, stack[len(stack)-1], it.resources)
			it.gs.FillPattern = ""
		}
	case "CS":
		if len(stack) >= 1 {
			it.gs.StrokeCS = resolveColorSpace(it.R, stack[len(stack)-1], it.resources)
		}
	case "sc", "scn":
		it.setColor(stack, true)
	case "SC", "SCN":
		it.setColor(stack, false)

	// --- shading ---
	case "sh":
		if len(stack) >= 1 {
			if name, ok := stack[len(stack)-1].(pdf.Name); ok {
				it.doShading(name)
			}
		}

	// --- text ---
	case "BT":
		it.textMatrix = matrix.Identity
		it.textLineMatrix = matrix.Identity
		it.Painter.BeginTextBlock()
	case "ET":
		it.Painter.EndTextBlock()
	case "Tc":
		if len(stack) >= 1 {
			it.gs.text.CharSpacing = num(stack[len(stack)-1])
		}
	case "Tw":
		if len(stack) >= 1 {
			it.gs.text.WordSpacing = num(stack[len(stack)-1])
		}
	case "Tz":
		if len(stack) >= 1 {
			it.gs.text.HorizScale = num(stack[len(stack)-1])
		}
	case "TL":
		if len(stack) >= 1 {
			it.gs.text.Leading = num(stack[len(stack)-1])
		}
	case "Ts":
		if len(stack) >= 1 {
			it.gs.text.Rise = num(stack[len(stack)-1])
		}
	case "Tr":
		if len(stack) >= 1 {
			it.gs.text.RenderMode = int(num(stack[len(stack)-1]))
		}
	case "Tf":
		if len(stack) >= 2 {
			if name, ok := stack[len(stack)-2].(pdf.Name); ok {
				it.gs.text.FontName = name
				if fd, ok := it.resources.lookup("Font", name); ok {
					it.gs.text.FontDict, _ = pdf.GetDict(it.R, fd)
				}
			}
			it.gs.text.FontSize = num(stack[len(stack)-1])
		}
	case "Td":
		if len(stack) >= 2 {
			a := nums(stack)
			it.textLineMatrix = mulMatrix(translateMatrix(a[0], a[1]), it.textLineMatrix)
			it.textMatrix = it.textLineMatrix
		}
	case "TD":
		if len(stack) >= 2 {
			a := nums(stack)
			it.gs.text.Leading = -a[1]
			it.textLineMatrix = mulMatrix(translateMatrix(a[0], a[1]), it.textLineMatrix)
			it.textMatrix = it.textLineMatrix
		}
	case "Tm":
		if len(stack) >= 6 {
			a := nums(stack)
			it.textLineMatrix = matrix.Matrix{a[0], a[1], a[2], a[3], a[4], a[5]}
			it.textMatrix = it.textLineMatrix
		}
	case "T*":
		it.textLineMatrix = mulMatrix(translateMatrix(0, -it.gs.text.Leading), it.textLineMatrix)
		it.textMatrix = it.textLineMatrix
	case "Tj":
		if len(stack) >= 1 {
			if s, ok := stack[len(stack)-1].(pdf.String); ok {
				it.showText(s)
			}
		}
	case "'":
		it.textLineMatrix = mulMatrix(translateMatrix(0, -it.gs.text.Leading), it.textLineMatrix)
		it.textMatrix = it.textLineMatrix
		if len(stack) >= 1 {
			if s, ok := stack[len(stack)-1].(pdf.String); ok {
				it.showText(s)
			}
		}
	case "\"":
		if len(stack) >= 3 {
			it.gs.text.WordSpacing = num(stack[0])
			it.gs.text.CharSpacing = num(stack[1])
		}
		it.textLineMatrix = mulMatrix(translateMatrix(0, -it.gs.text.Leading), it.textLineMatrix)
		it.textMatrix = it.textLineMatrix
		if len(stack) >= 3 {
			if s, ok := stack[2].(pdf.String); ok {
				it.showText(s)
			}
		}
	case "TJ":
		if len(stack) >= 1 {
			if arr, ok := stack[len(stack)-1].(pdf.Array); ok {
				it.showTextArray(arr)
			}
		}

	// --- XObjects ---
	case "Do":
		if len(stack) >= 1 {
			if name, ok := stack[len(stack)-1].(pdf.Name); ok {
				return it.doXObject(name)
			}
		}

	// --- extension brackets, marked content, inline images ---
	case "BX", "EX", "MP", "DP", "BMC", "BDC", "EMC":
		// accepted and ignored: no marked-content/optional-content
		// consumer in this interpreter.
	case "BI":
		return it.skipInlineImage()

	default:
		it.emit(pdf.WarnUnknownOperator, string(op))
	}
	return nil
}

func (it *Interpreter) curveTo(x1, y1, x2, y2, x3, y3 float64) {
	cp, ok := it.cur.currentPoint()
	if !ok {
		it.cur.moveTo(x1, y1)
		cp = point{x1, y1}
	}
	const segments = 12
	p0 := cp
	for i := 1; i <= segments; i++ {
		t := float64(i) / segments
		x, y := bezier(p0.X, p0.Y, x1, y1, x2, y2, x3, y3, t)
		it.cur.lineTo(x, y)
	}
}

func bezier(x0, y0, x1, y1, x2, y2, x3, y3, t float64) (float64, float64) {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	x := a*x0 + b*x1 + c*x2 + d*x3
	y := a*y0 + b*y1 + c*y2 + d*y3
	return x, y
}

func (it *Interpreter) endPath() {
	if it.pendingClip {
		it.Painter.PushClipPath(&it.cur, it.gs.CTM, it.pendingClipEO)
		it.gs.clipLayers++
		it.pendingClip = false
	}
	it.cur = path{}
}

func (it *Interpreter) fillCurrent(evenOdd bool) {
	if it.cur.empty() || it.gs.FillAlpha <= 0.001 {
		return
	}
	if it.gs.FillPattern != "" {
		it.Painter.FillPathWithPattern(&it.cur, string(it.gs.FillPattern), it.gs.CTM, evenOdd)
		return
	}
	it.Painter.FillPath(&it.cur, it.gs.FillColor, it.gs.CTM, evenOdd, nil, matrix.Identity, false)
}

func (it *Interpreter) strokeCurrent() {
	if it.cur.empty() || it.gs.StrokeAlpha <= 0.001 {
		return
	}
	it.Painter.StrokePath(&it.cur, it.gs.StrokeColor, it.gs.LineWidth, it.gs.CTM, it.gs.LineCap, it.gs.LineJoin, it.gs.MiterLimit)
}

func (it *Interpreter) setColor(stack []pdf.Object, fill bool) {
	if len(stack) == 0 {
		return
	}
	cs := it.gs.FillCS
	if !fill {
		cs = it.gs.StrokeCS
	}
	if name, ok := stack[len(stack)-1].(pdf.Name); ok {
		if fill {
			it.gs.FillPattern = name
		}
		comp := nums(stack[:len(stack)-1])
		color := cs.toRGB(comp)
		if fill {
			it.gs.FillColor = color
		} else {
			it.gs.StrokeColor = color
		}
		return
	}
	comp := nums(stack)
	color := cs.toRGB(comp)
	if fill {
		it.gs.FillColor = color
		it.gs.FillPattern = ""
	} else {
		it.gs.StrokeColor = color
	}
}

func (it *Interpreter) applyExtGState(name pdf.Name) {
	obj, ok := it.resources.lookup("ExtGState", name)
	if !ok {
		return
	}
	dict, err := pdf.GetDict(it.R, obj)
	if err != nil || dict == nil {
		return
	}
	if v, err := pdf.GetNumber(it.R, dict["ca"]); err == nil {
		it.gs.FillAlpha = float64(v)
	}
	if v, err := pdf.GetNumber(it.R, dict["CA"]); err == nil {
		it.gs.StrokeAlpha = float64(v)
	}
	if v, err := pdf.GetNumber(it.R, dict["LW"]); err == nil {
		it.gs.LineWidth = float64(v)
	}
	if v, err := pdf.GetInt(it.R, dict["LC"]); err == nil {
		it.gs.LineCap = int(v)
	}
	if v, err := pdf.GetInt(it.R, dict["LJ"]); err == nil {
		it.gs.LineJoin = int(v)
	}
	if v, err := pdf.GetNumber(it.R, dict["ML"]); err == nil {
		it.gs.MiterLimit = float64(v)
	}
}

func (it *Interpreter) doShading(name pdf.Name) {
	obj, ok := it.resources.lookup("Shading", name)
	if !ok {
		it.emit(pdf.WarnUnsupportedFilter, "sh: shading "+string(name)+" not found")
		return
	}
	resolved, err := pdf.Resolve(it.R, obj)
	if err != nil {
		return
	}
	var dict pdf.Dict
	switch x := resolved.(type) {
	case pdf.Dict:
		dict = x
	case *pdf.Stream:
		dict = x.Dict
	default:
		return
	}

	st, _ := pdf.GetInt(it.R, dict["ShadingType"])
	coords, _ := pdf.GetFloatArray(it.R, dict["Coords"])
	cs := resolveColorSpace(it.R, dict["ColorSpace"], it.resources)
	fn, err := function.Read(it.R, dict["Function"])
	if err != nil {
		it.emit(pdf.WarnUnsupportedFilter, "sh: unreadable function")
		return
	}

	g := &gradient{Radial: st == 3, Coords: coords, Fn: fn, CS: cs}
	if ext, err := pdf.GetArray(it.R, dict["Extend"]); err == nil && len(ext) == 2 {
		b0, _ := pdf.GetBool(it.R, ext[0])
		b1, _ := pdf.GetBool(it.R, ext[1])
		g.Extend = [2]bool{bool(b0), bool(b1)}
	}

	it.Painter.FillPathWithGradient(nil, g, it.gs.CTM, matrix.Identity, false)
}

func (it *Interpreter) skipInlineImage() error {
	// Inline images are not drawn. BI itself does nothing; the scanner
	// has no special handling for BI/ID/EI, so the image's key/value
	// pairs become ordinary operands, ID and EI are reported as unknown
	// operators, and the bytes after ID are tokenized like any other
	// content (binary data there can yield a scanner error that ends Run).
	return nil
}
