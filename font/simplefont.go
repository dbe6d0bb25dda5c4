// Package font resolves the information a content-stream interpreter needs
// to turn character codes into glyphs and advance widths: base encodings,
// /Differences overrides, and ToUnicode CMaps. A Type 3 font's /CharProcs
// glyph-procedure table is not read.
package font

import (
	"golang.org/x/text/encoding/charmap"

	"github.com/pdfray/pdfray/font/pdfenc"
	"seehuhn.de/go/postscript/type1/names"

	pdf "github.com/pdfray/pdfray"
)

// SimpleFont carries the per-code information for a simple (non-CID,
// one-byte-code) font: the PostScript glyph name assigned to each of the
// 256 possible codes, plus the Unicode text each code should produce when
// no ToUnicode CMap overrides it.
type SimpleFont struct {
	// CodeToGlyphName is the code->PostScript-glyph-name table, built from
	// a base encoding (Standard/WinAnsi/MacRoman/Symbol) with any
	// /Differences array layered on top. This is the bridge between
	// /Encoding and an embedded Type1/CFF font's own glyph lookup when no
	// CIDToGIDMap/ToUnicode is present.
	CodeToGlyphName [256]string

	// ToUnicode maps a code directly to display text, preferring an
	// embedded /ToUnicode CMap and falling back to the glyph name's
	// standard Unicode value.
	ToUnicode [256]string

	isDingbats bool
}

// baseEncodingTable resolves a /BaseEncoding name (or the symbolic default
// when empty) to one of the generated glyph-name tables.
func baseEncodingTable(name pdf.Name) *[256]string {
	switch name {
	case "WinAnsiEncoding":
		return &pdfenc.WinAnsiEncoding
	case "MacRomanEncoding":
		return &pdfenc.MacRomanEncoding
	case "StandardEncoding", "":
		return &pdfenc.StandardEncoding
	default:
		return &pdfenc.StandardEncoding
	}
}

// ResolveSimpleEncoding builds a SimpleFont's glyph-name and fallback-text
// tables from a font dictionary's /Encoding entry (a base-encoding name, or
// a dict with /BaseEncoding plus /Differences) and, if present, a decoded
// /ToUnicode CMap (code -> replacement text, already parsed by the caller).
func ResolveSimpleEncoding(r pdf.Getter, fontDict pdf.Dict, toUnicode map[uint32]string) *SimpleFont {
	sf := &SimpleFont{}

	baseName, _ := fontDict["BaseFont"].(pdf.Name)
	sf.isDingbats = baseName == "ZapfDingbats"

	base := pdfenc.StandardEncoding

	enc, _ := pdf.Resolve(r, fontDict["Encoding"])
	switch e := enc.(type) {
	case pdf.Name:
		base = *baseEncodingTable(e)
	case pdf.Dict:
		if baseEnc, ok := e["BaseEncoding"].(pdf.Name); ok {
			base = *baseEncodingTable(baseEnc)
		}
		sf.applyDifferences(r, e["Differences"], base)
	}
	if _, ok := enc.(pdf.Dict); !ok {
		sf.CodeToGlyphName = base
	}

	for code := 0; code < 256; code++ {
		if toUnicode != nil {
			if s, ok := toUnicode[uint32(code)]; ok {
				sf.ToUnicode[code] = s
				continue
			}
		}
		name := sf.CodeToGlyphName[code]
		if name == "" || name == ".notdef" {
			continue
		}
		if rr := names.ToUnicode(name, sf.isDingbats); len(rr) > 0 {
			sf.ToUnicode[code] = string(rr)
		}
	}

	return sf
}

// applyDifferences lays base down as the starting table, then overrides
// codes named in a /Differences array: alternating code, glyphName,
// glyphName, ... runs, where a new Integer resets the current code.
func (sf *SimpleFont) applyDifferences(r pdf.Getter, diffObj pdf.Object, base [256]string) {
	sf.CodeToGlyphName = base
	diffs, err := pdf.GetArray(r, diffObj)
	if err != nil {
		return
	}
	code := 0
	for _, el := range diffs {
		resolved, err := pdf.Resolve(r, el)
		if err != nil {
			continue
		}
		switch v := resolved.(type) {
		case pdf.Integer:
			code = int(v)
		case pdf.Real:
			code = int(v)
		case pdf.Name:
			if code >= 0 && code < 256 {
				sf.CodeToGlyphName[code] = string(v)
			}
			code++
		}
	}
}

// DecodeWinAnsi decodes a byte string in WinAnsiEncoding (Windows-1252)
// directly to UTF-8 text, for callers that only need approximate display
// text and not glyph names (e.g. a quick-look text extractor).
func DecodeWinAnsi(s []byte) (string, error) {
	out, err := charmap.Windows1252.NewDecoder().Bytes(s)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DecodeMacRoman decodes a byte string in MacRomanEncoding directly to
// UTF-8 text.
func DecodeMacRoman(s []byte) (string, error) {
	out, err := charmap.MacintoshRoman.NewDecoder().Bytes(s)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
