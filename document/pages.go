package document

import (
	"bytes"
	"fmt"
	"io"

	pdf "github.com/pdfray/pdfray"
)

var defaultMediaBox = pdf.Rectangle{LLx: 0, LLy: 0, URx: 612, URy: 792}

// PageSize returns the page's MediaBox in default user space units,
// inherited from ancestor /Pages nodes, falling back to US Letter when
// absent.
func (d *Document) PageSize(index int) (pdf.Rectangle, error) {
	page, ancestry, err := d.GetPageDictionary(index)
	if err != nil {
		return pdf.Rectangle{}, err
	}
	return d.rawPageSize(page, ancestry), nil
}

// RawPageSize is PageSize without rotation applied: the MediaBox exactly
// as stored (or inherited), independent of /Rotate.
func (d *Document) RawPageSize(index int) (pdf.Rectangle, error) {
	return d.PageSize(index)
}

func (d *Document) rawPageSize(page pdf.Dict, ancestry []pdf.Dict) pdf.Rectangle {
	obj := inherited(page, ancestry, "MediaBox")
	rect, ok, err := pdf.GetRectangle(d.R, obj)
	if err != nil || !ok {
		return defaultMediaBox
	}
	return rect
}

// CropBox returns the page's CropBox, inherited, falling back to the
// MediaBox when absent.
func (d *Document) CropBox(index int) (pdf.Rectangle, error) {
	page, ancestry, err := d.GetPageDictionary(index)
	if err != nil {
		return pdf.Rectangle{}, err
	}
	obj := inherited(page, ancestry, "CropBox")
	rect, ok, err := pdf.GetRectangle(d.R, obj)
	if err == nil && ok {
		return rect, nil
	}
	return d.rawPageSize(page, ancestry), nil
}

// PageRotate returns the page's inherited /Rotate value, normalized to
// one of {0, 90, 180, 270}.
func (d *Document) PageRotate(index int) (int, error) {
	page, ancestry, err := d.GetPageDictionary(index)
	if err != nil {
		return 0, err
	}
	obj := inherited(page, ancestry, "Rotate")
	n, err := pdf.GetInt(d.R, obj)
	if err != nil {
		return 0, nil
	}
	rot := int(n) % 360
	if rot < 0 {
		rot += 360
	}
	rot -= rot % 90
	return rot, nil
}

// DisplayPageSize is PageSize with width and height swapped when the
// page's rotation is 90 or 270 degrees, matching how a viewer lays the
// page out on screen.
func (d *Document) DisplayPageSize(index int) (pdf.Rectangle, error) {
	rect, err := d.PageSize(index)
	if err != nil {
		return rect, err
	}
	rot, err := d.PageRotate(index)
	if err != nil {
		return rect, err
	}
	if rot == 90 || rot == 270 {
		w := rect.URy - rect.LLy
		h := rect.URx - rect.LLx
		return pdf.Rectangle{LLx: 0, LLy: 0, URx: w, URy: h}, nil
	}
	return rect, nil
}

// ContentBytes returns the page's content stream bytes, decoding and
// concatenating an array of streams with a newline separator between
// each, per how operators must never straddle a stream boundary.
func (d *Document) ContentBytes(index int) ([]byte, error) {
	page, _, err := d.GetPageDictionary(index)
	if err != nil {
		return nil, err
	}
	return d.contentBytesOf(page["Contents"])
}

func (d *Document) contentBytesOf(contents pdf.Object) ([]byte, error) {
	resolved, err := pdf.Resolve(d.R, contents)
	if err != nil {
		return nil, err
	}

	var streams []*pdf.Stream
	switch c := resolved.(type) {
	case *pdf.Stream:
		streams = []*pdf.Stream{c}
	case pdf.Array:
		for _, el := range c {
			s, err := pdf.GetStream(d.R, el)
			if err != nil {
				return nil, err
			}
			if s != nil {
				streams = append(streams, s)
			}
		}
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("document: /Contents has unexpected type %T", resolved)
	}

	var buf bytes.Buffer
	for i, s := range streams {
		rc, err := pdf.DecodeStream(d.R, s, -1)
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(&buf, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		if i != len(streams)-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// PageResources returns the resource-dictionary stack for a page,
// outermost ancestor first and the page's own /Resources last (so the
// page's own entries win a nearest-scope lookup), matching the order a
// content-stream interpreter's resource stack expects.
func (d *Document) PageResources(index int) ([]pdf.Dict, error) {
	page, ancestry, err := d.GetPageDictionary(index)
	if err != nil {
		return nil, err
	}
	var stack []pdf.Dict
	for _, anc := range ancestry {
		if res, _ := pdf.GetDict(d.R, anc["Resources"]); res != nil {
			stack = append(stack, res)
		}
	}
	if res, _ := pdf.GetDict(d.R, page["Resources"]); res != nil {
		stack = append(stack, res)
	}
	if len(stack) == 0 {
		return nil, nil
	}
	return stack, nil
}

// GetPageFonts returns every font dictionary reachable from the page's
// resource stack, keyed by resource name, nearest scope winning.
func (d *Document) GetPageFonts(index int) (map[pdf.Name]pdf.Dict, error) {
	stack, err := d.PageResources(index)
	if err != nil {
		return nil, err
	}
	out := map[pdf.Name]pdf.Dict{}
	for _, res := range stack {
		d.LoadFontsFromResourceDict(res, out)
	}
	return out, nil
}

// LoadFontsFromResourceDict merges the /Font entries of a single
// resource dictionary into out. It is exposed separately from
// GetPageFonts because Form XObjects carry their own /Resources and need
// the same per-dictionary logic.
func (d *Document) LoadFontsFromResourceDict(resources pdf.Dict, out map[pdf.Name]pdf.Dict) {
	if resources == nil {
		return
	}
	fontDict, _ := pdf.GetDict(d.R, resources["Font"])
	for name, obj := range fontDict {
		fd, err := pdf.GetDict(d.R, obj)
		if err == nil && fd != nil {
			out[name] = fd
		}
	}
}

// GetPageXObjects returns every XObject stream reachable from the page's
// resource stack, keyed by resource name, nearest scope winning.
func (d *Document) GetPageXObjects(index int) (map[pdf.Name]*pdf.Stream, error) {
	stack, err := d.PageResources(index)
	if err != nil {
		return nil, err
	}
	out := map[pdf.Name]*pdf.Stream{}
	for _, res := range stack {
		xobjDict, _ := pdf.GetDict(d.R, res["XObject"])
		for name, obj := range xobjDict {
			s, err := pdf.GetStream(d.R, obj)
			if err == nil && s != nil {
				out[name] = s
			}
		}
	}
	return out, nil
}
