package content

import (
	"math"

	pdf "github.com/pdfray/pdfray"
)

// showText draws a single string operand (Tj, ', ") and advances the text
// matrix per the ISO 32000-1 glyph positioning rule (§9.4.3).
func (it *Interpreter) showText(s pdf.String) {
	trm := mulMatrix(it.textMatrix, it.gs.CTM)
	x, y := transformPoint(trm, 0, it.gs.text.Rise)

	ys := yScale(trm)
	xs := xScale(trm)
	renderSize := it.gs.text.FontSize * ys
	advanceSize := it.gs.text.FontSize * xs
	angle := math.Atan2(trm[1], trm[0])

	hs := it.gs.text.HorizScale
	if hs == 0 {
		hs = 100
	}

	var advance float64
	var ok bool
	if it.Painter != nil {
		advance, ok = it.Painter.DrawText(x, y, []byte(s), renderSize, advanceSize,
			it.gs.FillColor, string(it.gs.text.FontName),
			it.gs.text.CharSpacing, it.gs.text.WordSpacing, hs, angle)
	}
	if !ok {
		advance = it.rawAdvance(s)
		advance *= it.gs.text.FontSize
		scaled := advance * (hs / 100)
		if xs != 0 {
			advance = scaled * xs
		} else {
			advance = scaled
		}
	}

	if xs == 0 {
		return
	}
	dTextSpace := advance / xs
	it.textMatrix = mulMatrix(translateMatrix(dTextSpace, 0), it.textMatrix)
}

func (it *Interpreter) showTextArray(arr pdf.Array) {
	for _, el := range arr {
		switch v := el.(type) {
		case pdf.String:
			it.showText(v)
		case pdf.Integer, pdf.Real, pdf.Number:
			n := num(v)
			hs := it.gs.text.HorizScale
			if hs == 0 {
				hs = 100
			}
			dx := -n / 1000 * it.gs.text.FontSize * hs / 100
			it.textMatrix = mulMatrix(translateMatrix(dx, 0), it.textMatrix)
		}
	}
}

// rawAdvance implements the raw-string advance fallback formula: iterate
// codes (two bytes, big-endian, for CID fonts; one byte for simple
// fonts), look up a width per code, and sum per-character advances,
// returned in units of (fontSize==1) text space before horizontal
// scaling, per glyph.
func (it *Interpreter) rawAdvance(s pdf.String) float64 {
	widths, isCID, defaultWidth := it.fontWidths()

	var total float64
	if isCID {
		for i := 0; i+1 < len(s); i += 2 {
			code := uint32(s[i])<<8 | uint32(s[i+1])
			w := widths[code]
			if w == 0 {
				w = defaultWidth
			}
			total += w / 1000
			total += it.gs.text.CharSpacing / it.gs.text.FontSize
		}
		if len(s)%2 != 0 {
			total += defaultWidth / 1000
		}
	} else {
		for _, b := range s {
			w := widths[uint32(b)]
			if w == 0 {
				w = defaultWidth
			}
			total += w / 1000
			cs := it.gs.text.CharSpacing
			if b == 32 {
				cs += it.gs.text.WordSpacing
			}
			if it.gs.text.FontSize != 0 {
				total += cs / it.gs.text.FontSize
			}
		}
	}
	return total
}

// fontWidths builds a sparse code->width table in 1/1000 text-space units
// (simple font: by character code using /Widths+/FirstChar; CID font: by
// CID using /W). The default width for codes with no entry is
// /MissingWidth or 500 for simple fonts, and /DW or 1000 for CID fonts.
func (it *Interpreter) fontWidths() (widths map[uint32]float64, isCID bool, defaultWidth float64) {
	defaultWidth = 500
	widths = map[uint32]float64{}

	fd := it.gs.text.FontDict
	if fd == nil {
		return widths, false, defaultWidth
	}

	subtype, _ := fd["Subtype"].(pdf.Name)
	if subtype == "Type0" {
		isCID = true
		descFonts, err := pdf.GetArray(it.R, fd["DescendantFonts"])
		if err == nil && len(descFonts) > 0 {
			cidFont, err := pdf.GetDict(it.R, descFonts[0])
			if err == nil && cidFont != nil {
				if dw, err := pdf.GetNumber(it.R, cidFont["DW"]); err == nil {
					defaultWidth = float64(dw)
				} else {
					defaultWidth = 1000
				}
				if wArr, err := pdf.GetArray(it.R, cidFont["W"]); err == nil {
					parseCIDWidths(it.R, wArr, widths)
				}
			}
		}
		return widths, true, defaultWidth
	}

	if desc, err := pdf.GetDict(it.R, fd["FontDescriptor"]); err == nil && desc != nil {
		if mw, err := pdf.GetNumber(it.R, desc["MissingWidth"]); err == nil {
			defaultWidth = float64(mw)
		}
	}
	first, _ := pdf.GetInt(it.R, fd["FirstChar"])
	wArr, err := pdf.GetArray(it.R, fd["Widths"])
	if err == nil {
		for i, w := range wArr {
			if n, err := pdf.GetNumber(it.R, w); err == nil {
				widths[uint32(int(first)+i)] = float64(n)
			}
		}
	}
	return widths, false, defaultWidth
}

// parseCIDWidths decodes a CIDFont /W array: runs of either
// "c [w0 w1 ...]" or "c1 c2 w".
func parseCIDWidths(r pdf.Getter, w pdf.Array, out map[uint32]float64) {
	i := 0
	for i < len(w) {
		c1, err := pdf.GetNumber(r, w[i])
		if err != nil || i+1 >= len(w) {
			break
		}
		next, err := pdf.Resolve(r, w[i+1])
		if err != nil {
			break
		}
		if arr, ok := next.(pdf.Array); ok {
			for j, wv := range arr {
				if n, err := pdf.GetNumber(r, wv); err == nil {
					out[uint32(c1)+uint32(j)] = float64(n)
				}
			}
			i += 2
			continue
		}
		if i+2 >= len(w) {
			break
		}
		c2, err1 := pdf.GetNumber(r, w[i+1])
		width, err2 := pdf.GetNumber(r, w[i+2])
		if err1 != nil || err2 != nil {
			break
		}
		for c := int(c1); c <= int(c2); c++ {
			out[uint32(c)] = float64(width)
		}
		i += 3
	}
}
