package content

import "seehuhn.de/go/geom/matrix"

// Painter is the abstract rendering backend the interpreter drives. A
// caller supplies an implementation (a rasterizer, a text-extraction
// recorder, a bounding-box collector...); the interpreter never touches
// pixels itself.
type Painter interface {
	Clear(color RGB)

	FillPath(p *path, color RGB, ctm matrix.Matrix, evenOdd bool, clip *path, clipCTM matrix.Matrix, clipEvenOdd bool)
	StrokePath(p *path, color RGB, lineWidth float64, ctm matrix.Matrix, cap, join int, miterLimit float64)
	FillPathWithGradient(p *path, grad *gradient, pathCTM, gradCTM matrix.Matrix, evenOdd bool)
	FillPathWithPattern(p *path, patternName string, ctm matrix.Matrix, evenOdd bool)

	DrawImage(img *decodedImage, ctm matrix.Matrix)
	DrawImageClipped(img *decodedImage, ctm matrix.Matrix, clip *path, clipCTM matrix.Matrix, clipEvenOdd bool)

	// DrawText draws rawBytes (still in the font's raw code units) at
	// (x,y) in device space and returns the total advance, in page space,
	// along the text's baseline direction. Returning ok == false lets the
	// interpreter fall back to its own width-table-based advance.
	DrawText(x, y float64, rawBytes []byte, renderSize, advanceSize float64, color RGB, fontName string, charSpacing, wordSpacing, horizScale, angle float64) (advance float64, ok bool)

	PushClipPath(p *path, ctm matrix.Matrix, evenOdd bool)
	PopClipPath()

	BeginTextBlock()
	EndTextBlock()

	PushSoftMask()
	PopSoftMask()

	SetPageRotation(degrees int)
}

// gradient is a resolved shading usable as a fill source: an axial (Type
// 2) or radial (Type 3) color ramp.
type gradient struct {
	Radial bool
	Coords []float64 // [x0 y0 x1 y1] or [x0 y0 r0 x1 y1 r1]
	Fn     interfaceFn
	Extend [2]bool
	CS     *colorSpace
}

// interfaceFn is the minimal function-evaluation surface the gradient
// needs, satisfied by function.Function.
type interfaceFn interface {
	Eval(inputs []float64) ([]float64, error)
}

// decodedImage is a fully decoded raster image ready for the painter:
// width/height plus packed RGBA (or a single alpha/gray plane for
// stencil masks).
type decodedImage struct {
	Width, Height int
	RGBA          []byte // 4 bytes/pixel, nil for stencil masks
	Stencil       []byte // 1 byte/pixel alpha, used when RGBA is nil
	IsMask        bool
}
