package document

import (
	"github.com/pdfray/pdfray/font"

	pdf "github.com/pdfray/pdfray"
)

// FontInfo resolves a page-resource font dictionary's per-code and
// per-CID tables. For a simple font (Type1/TrueType/MMType1/Type3), the
// result's Simple field carries a base encoding layered with
// /Differences and a /ToUnicode-or-glyph-name fallback text table. For a
// composite (Type0) font, or any font whose /Encoding is one of the
// Identity-H/Identity-V predefined CMaps, the result's CID field carries
// the /CIDToGIDMap table and the /ToUnicode CMap keyed by CID.
func (d *Document) FontInfo(fontDict pdf.Dict) (*font.Info, error) {
	return font.Resolve(d.R, fontDict)
}
