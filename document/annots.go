package document

import (
	"fmt"

	"github.com/pdfray/pdfray/annotation"
	"github.com/pdfray/pdfray/destination"
	"github.com/pdfray/pdfray/nametree"

	pdf "github.com/pdfray/pdfray"
)

// PageLinks returns the page's link annotations.
func (d *Document) PageLinks(index int) ([]*annotation.Link, error) {
	page, _, err := d.GetPageDictionary(index)
	if err != nil {
		return nil, err
	}
	annots, err := pdf.GetArray(d.R, page["Annots"])
	if err != nil {
		return nil, err
	}
	return annotation.ExtractLinks(d.R, annots), nil
}

// destsRoot returns the catalog's /Names/Dests name-tree root, or nil if
// absent.
func (d *Document) destsRoot() (pdf.Object, error) {
	names, err := pdf.GetDict(d.R, d.catalog["Names"])
	if err != nil || names == nil {
		return nil, nil
	}
	return names["Dests"], nil
}

// ResolveNamedDestination looks up name against the document's named
// destination table: first the modern /Names/Dests name tree, then the
// legacy /Dests dictionary.
func (d *Document) ResolveNamedDestination(name string) (destination.Destination, error) {
	destsObj, err := d.destsRoot()
	if err != nil {
		return nil, err
	}
	if destsObj != nil {
		tree, err := nametree.Extract(d.R, destsObj)
		if err == nil {
			if obj, err := tree.Lookup(pdf.Name(name)); err == nil {
				return destination.Decode(d.R, obj)
			}
		}
	}

	legacy, _ := pdf.GetDict(d.R, d.catalog["Dests"])
	if legacy != nil {
		if obj := legacy[pdf.Name(name)]; obj != nil {
			return destination.Decode(d.R, obj)
		}
	}

	return nil, fmt.Errorf("document: named destination %q not found", name)
}

// ResolvePageFromDestArray interprets a destination's Target (the first
// element of its defining array) and returns a 0-based page index. The
// target is either an indirect reference to a /Page object (resolved via
// a page-tree walk) or, for linearized/optimized files, an integer page
// number already expressed as an index.
func (d *Document) ResolvePageFromDestArray(target destination.Target) (int, error) {
	switch t := pdf.Object(target).(type) {
	case pdf.Integer:
		return int(t), nil
	case pdf.Reference:
		pages, err := d.collectPages()
		if err != nil {
			return 0, err
		}
		for i, p := range pages {
			if p.hasRef && p.ref == t {
				return i, nil
			}
		}
		return 0, fmt.Errorf("document: destination target %v not found in page tree", t)
	default:
		return 0, fmt.Errorf("document: unsupported destination target type %T", t)
	}
}
