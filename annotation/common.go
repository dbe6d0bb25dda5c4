// Package annotation extracts the annotation dictionaries the document
// facade needs for page navigation: link annotations and the fields they
// share with every other annotation subtype.
package annotation

import pdf "github.com/pdfray/pdfray"

// Flags holds the /F entry of an annotation dictionary.
type Flags int

const (
	FlagInvisible Flags = 1 << iota
	FlagHidden
	FlagPrint
	FlagNoZoom
	FlagNoRotate
	FlagNoView
	FlagReadOnly
	FlagLocked
	FlagToggleNoView
	FlagLockedContents
)

// Common holds the fields shared by every annotation dictionary, regardless
// of /Subtype. Only the fields the document facade's link-resolution and
// page-rendering paths actually consume are kept.
type Common struct {
	// Rect is the annotation's position, in default user space.
	Rect pdf.Rectangle

	// Contents is the annotation's text, if any.
	Contents string

	// Name is the unique annotation identifier (/NM).
	Name string

	// Flags holds the /F bit field.
	Flags Flags

	// Color is the /C entry (background/border/title-bar color components).
	Color []float64
}

// extractCommon fills in the fields of Common from a parsed annotation
// dictionary. Unreadable or absent entries are left at their zero value;
// annotations never fail a page render over a malformed decoration field.
func extractCommon(r pdf.Getter, dict pdf.Dict, common *Common) error {
	if rect, ok, err := pdf.GetRectangle(r, dict["Rect"]); err == nil && ok {
		common.Rect = rect
	}

	if s, err := pdf.GetString(r, dict["Contents"]); err == nil && len(s) > 0 {
		common.Contents = string(s)
	}

	if s, err := pdf.GetString(r, dict["NM"]); err == nil && len(s) > 0 {
		common.Name = string(s)
	}

	if f, err := pdf.GetInt(r, dict["F"]); err == nil {
		common.Flags = Flags(f)
	}

	if c, err := pdf.GetArray(r, dict["C"]); err == nil && len(c) > 0 {
		colors := make([]float64, len(c))
		for i, v := range c {
			if num, err := pdf.GetNumber(r, v); err == nil {
				colors[i] = float64(num)
			}
		}
		common.Color = colors
	}

	return nil
}
