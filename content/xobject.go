package content

import (
	"fmt"
	"io"

	pdf "github.com/pdfray/pdfray"
	"seehuhn.de/go/geom/matrix"
)

// doXObject handles the Do operator: resolves name through the resource
// stack and dispatches on the stream's /Subtype.
func (it *Interpreter) doXObject(name pdf.Name) error {
	obj, ok := it.resources.lookup("XObject", name)
	if !ok {
		it.emit(pdf.WarnUnsupportedFilter, "Do: XObject "+string(name)+" not found")
		return nil
	}
	strm, err := pdf.GetStream(it.R, obj)
	if err != nil || strm == nil {
		return err
	}
	subtype, _ := strm.Dict["Subtype"].(pdf.Name)
	switch subtype {
	case "Form":
		return it.runForm(strm)
	case "Image":
		return it.drawImage(strm)
	default:
		it.emit(pdf.WarnUnsupportedFilter, "Do: unsupported XObject subtype "+string(subtype))
		return nil
	}
}

func (it *Interpreter) runForm(strm *pdf.Stream) error {
	if it.depth >= it.MaxRecur {
		it.emit(pdf.WarnRecursionCap, "form XObject recursion cap exceeded")
		return nil
	}

	formMatrix := matrix.Identity
	if a, err := pdf.GetFloatArray(it.R, strm.Dict["Matrix"]); err == nil && len(a) == 6 {
		formMatrix = matrix.Matrix{a[0], a[1], a[2], a[3], a[4], a[5]}
	}

	rc, err := pdf.DecodeStream(it.R, strm, -1)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return err
	}

	sub := &Interpreter{
		R:        it.R,
		Painter:  it.Painter,
		Sink:     it.Sink,
		MaxIter:  it.MaxIter,
		MaxRecur: it.MaxRecur,
		gs:       it.gs.clone(),
		depth:    it.depth + 1,
		iters:    it.iters,
	}
	sub.gs.CTM = mulMatrix(formMatrix, it.gs.CTM)

	formRes, _ := pdf.GetDict(it.R, strm.Dict["Resources"])
	if formRes != nil {
		sub.resources = append(append(resourceStack{}, it.resources...), formRes)
	} else {
		sub.resources = it.resources
	}

	if bbox, err := pdf.GetFloatArray(it.R, strm.Dict["BBox"]); err == nil && len(bbox) == 4 {
		clip := &path{}
		x0, y0, x1, y1 := bbox[0], bbox[1], bbox[2], bbox[3]
		clip.moveTo(x0, y0)
		clip.lineTo(x1, y0)
		clip.lineTo(x1, y1)
		clip.lineTo(x0, y1)
		clip.closeSubpath()
		it.Painter.PushClipPath(clip, sub.gs.CTM, false)
		defer it.Painter.PopClipPath()
	}

	err = sub.Run(data)
	it.iters = sub.iters
	return err
}

func (it *Interpreter) drawImage(strm *pdf.Stream) error {
	img, err := decodeImage(it.R, strm, it.resources)
	if err != nil {
		it.emit(pdf.WarnUnsupportedFilter, fmt.Sprintf("Do: image decode failed: %v", err))
		return nil
	}
	// flip-Y: the image's unit square has its origin at the top-left in
	// PDF image space, but the interpreter's CTM assumes bottom-left.
	flip := matrix.Matrix{1, 0, 0, -1, 0, 1}
	ctm := mulMatrix(flip, it.gs.CTM)
	it.Painter.DrawImage(img, ctm)
	return nil
}
