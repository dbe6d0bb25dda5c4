package font

import (
	"bytes"
	"io"

	"seehuhn.de/go/sfnt"

	pdf "github.com/pdfray/pdfray"
)

// Info is the resolved per-font data a caller needs to turn codes into
// glyphs and display text. Exactly one of Simple or CID is set, depending
// on whether the font dictionary addresses glyphs by PostScript
// name/code (Type1, TrueType, MMType1, Type3) or by CID (Type0).
type Info struct {
	Simple *SimpleFont
	CID    *CIDFont
}

// Resolve builds the per-font Info for a font resource dictionary: it
// parses /ToUnicode once, then dispatches to ResolveSimpleEncoding or
// ResolveCIDFont depending on IsCIDActive.
func Resolve(r pdf.Getter, fontDict pdf.Dict) (*Info, error) {
	toUnicode, err := ParseToUnicode(r, fontDict["ToUnicode"])
	if err != nil {
		toUnicode = nil
	}
	if IsCIDActive(fontDict) {
		return &Info{CID: ResolveCIDFont(r, fontDict, toUnicode)}, nil
	}
	return &Info{Simple: ResolveSimpleEncoding(r, fontDict, toUnicode)}, nil
}

// CIDFont carries the per-CID information for a Type 0 (composite) font: a
// CID-to-GID table (explicit, or identity for /Identity and for CFF-based
// CIDFonts which already address glyphs by CID), and the CID-to-Unicode
// text a /ToUnicode CMap provides. Under Identity-H/-V encoding the
// 16-bit character code equals the CID directly, so this table also
// answers code-to-text lookups for such fonts.
type CIDFont struct {
	// Identity is true when /Encoding is /Identity-H or /Identity-V: the
	// two-byte character code is the CID without any CMap indirection.
	Identity bool

	// cidToGID holds an explicit /CIDToGIDMap stream, decoded to one GID
	// per CID. Nil means CID == GID (the /Identity default, and the only
	// option for CFF-based CIDFonts).
	cidToGID []uint16

	// numGlyphs bounds GID lookups against the glyph count actually
	// present in an embedded TrueType/OpenType program, when one could be
	// parsed. Zero means no bound is known.
	numGlyphs int

	// ToUnicode maps a CID (or, under Identity encoding, the raw code) to
	// display text.
	ToUnicode map[uint32]string
}

// IsCIDActive reports whether a font dictionary addresses glyphs by CID:
// either its /Subtype is /Type0, or its /Encoding is one of the
// Identity-H/Identity-V predefined CMaps.
func IsCIDActive(fontDict pdf.Dict) bool {
	if subtype, _ := fontDict["Subtype"].(pdf.Name); subtype == "Type0" {
		return true
	}
	enc, _ := fontDict["Encoding"].(pdf.Name)
	return enc == "Identity-H" || enc == "Identity-V"
}

// ResolveCIDFont reads a Type 0 font dictionary's single entry in
// /DescendantFonts: its /CIDToGIDMap, and, when an embedded TrueType or
// OpenType program is present, the glyph count of that program (used to
// bound CID-to-GID lookups against the font actually embedded rather than
// trusting the PDF's own tables blindly). toUnicode is the already-parsed
// /ToUnicode CMap, if any.
func ResolveCIDFont(r pdf.Getter, fontDict pdf.Dict, toUnicode map[uint32]string) *CIDFont {
	cf := &CIDFont{ToUnicode: toUnicode}

	enc, _ := fontDict["Encoding"].(pdf.Name)
	cf.Identity = enc == "Identity-H" || enc == "Identity-V"

	descFonts, err := pdf.GetArray(r, fontDict["DescendantFonts"])
	if err != nil || len(descFonts) == 0 {
		return cf
	}
	cidFontDict, err := pdf.GetDict(r, descFonts[0])
	if err != nil || cidFontDict == nil {
		return cf
	}

	c2g, _ := pdf.Resolve(r, cidFontDict["CIDToGIDMap"])
	if strm, ok := c2g.(*pdf.Stream); ok {
		cf.cidToGID = decodeCIDToGIDMap(r, strm)
	}

	if desc, err := pdf.GetDict(r, cidFontDict["FontDescriptor"]); err == nil && desc != nil {
		cf.numGlyphs = embeddedProgramGlyphCount(r, desc)
	}

	return cf
}

func decodeCIDToGIDMap(r pdf.Getter, strm *pdf.Stream) []uint16 {
	rc, err := pdf.DecodeStream(r, strm, -1)
	if err != nil {
		return nil
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil || len(data)%2 != 0 {
		return nil
	}
	gids := make([]uint16, len(data)/2)
	for i := range gids {
		gids[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return gids
}

// embeddedProgramGlyphCount parses an embedded TrueType (/FontFile2) or
// OpenType (/FontFile3, /Subtype /OpenType) program just far enough to
// report its glyph count.
func embeddedProgramGlyphCount(r pdf.Getter, desc pdf.Dict) int {
	if strm, err := pdf.GetStream(r, desc["FontFile2"]); err == nil && strm != nil {
		if n, ok := glyphCountOf(r, strm); ok {
			return n
		}
	}
	if strm, err := pdf.GetStream(r, desc["FontFile3"]); err == nil && strm != nil {
		if subtype, _ := strm.Dict["Subtype"].(pdf.Name); subtype == "OpenType" {
			if n, ok := glyphCountOf(r, strm); ok {
				return n
			}
		}
	}
	return 0
}

func glyphCountOf(r pdf.Getter, strm *pdf.Stream) (int, bool) {
	rc, err := pdf.DecodeStream(r, strm, -1)
	if err != nil {
		return 0, false
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return 0, false
	}
	f, err := sfnt.Read(bytes.NewReader(data))
	if err != nil {
		return 0, false
	}
	defer f.Close()
	return f.NumGlyphs(), true
}

// GID resolves a CID to a glyph index: through an explicit /CIDToGIDMap
// when present (clamped to 0, "missing glyph", past its own length),
// otherwise through the embedded program's glyph count when known,
// otherwise identity.
func (cf *CIDFont) GID(cid uint32) uint32 {
	if cf == nil {
		return cid
	}
	if cf.cidToGID != nil {
		if int(cid) >= len(cf.cidToGID) {
			return 0
		}
		return uint32(cf.cidToGID[cid])
	}
	if cf.numGlyphs > 0 && int(cid) >= cf.numGlyphs {
		return 0
	}
	return cid
}

// Unicode returns the display text for a CID (or, for an Identity-encoded
// font, directly for the two-byte code), if a /ToUnicode CMap covers it.
func (cf *CIDFont) Unicode(cid uint32) (string, bool) {
	if cf == nil || cf.ToUnicode == nil {
		return "", false
	}
	s, ok := cf.ToUnicode[cid]
	return s, ok
}
