package annotation

import pdf "github.com/pdfray/pdfray"

// Link is a hypertext link annotation: a clickable region tied either to
// an action (/A, typically a URI or GoTo action) or directly to a
// destination (/Dest).
type Link struct {
	Common

	// Action is the /A entry: an action dictionary, most commonly
	// /S /URI or /S /GoTo. Mutually exclusive with Dest.
	Action pdf.Dict

	// Dest is the /Dest entry: either a destination array or a name/string
	// referring into the document's name tree. Nil if Action is set.
	Dest pdf.Object
}

// ExtractLink reads a /Subtype /Link annotation dictionary.
func ExtractLink(r pdf.Getter, obj pdf.Object) (*Link, error) {
	dict, err := pdf.GetDict(r, obj)
	if err != nil {
		return nil, err
	}

	link := &Link{}
	if err := extractCommon(r, dict, &link.Common); err != nil {
		return nil, err
	}

	if a, err := pdf.GetDict(r, dict["A"]); err == nil && a != nil {
		link.Action = a
	} else if dest := dict["Dest"]; dest != nil {
		link.Dest = dest
	}

	return link, nil
}

// ExtractLinks reads every /Subtype /Link annotation referenced by a page's
// /Annots array, skipping entries that fail to resolve or are not links.
func ExtractLinks(r pdf.Getter, annots pdf.Array) []*Link {
	var links []*Link
	for _, a := range annots {
		dict, err := pdf.GetDict(r, a)
		if err != nil || dict == nil {
			continue
		}
		subtype, _ := dict["Subtype"].(pdf.Name)
		if subtype != "Link" {
			continue
		}
		link, err := ExtractLink(r, a)
		if err != nil || link == nil {
			continue
		}
		links = append(links, link)
	}
	return links
}
