// Package document implements the document facade: page-tree traversal,
// inherited attribute resolution (MediaBox/CropBox/Resources/Rotate),
// content-stream assembly, and link/destination navigation, layered over
// the object and content-stream packages.
package document

import (
	"fmt"

	pdf "github.com/pdfray/pdfray"
)

// Document wraps a Reader with page-tree-aware accessors. The zero value
// is not usable; build one with Open.
type Document struct {
	R pdf.Getter

	reader  *pdf.Reader
	catalog pdf.Dict
	pages   pdf.Dict // resolved /Pages root, cached
}

// Open builds a Document facade over an already-parsed Reader.
func Open(r *pdf.Reader) (*Document, error) {
	cat, err := r.Catalog()
	if err != nil {
		return nil, err
	}
	pages, err := pdf.GetDict(r, cat["Pages"])
	if err != nil {
		return nil, err
	}
	if pages == nil {
		return nil, fmt.Errorf("document: catalog has no /Pages")
	}
	return &Document{R: r, reader: r, catalog: cat, pages: pages}, nil
}

// Catalog returns the document catalog dictionary.
func (d *Document) Catalog() pdf.Dict { return d.catalog }

const maxTreeDepth = 64

// pageEntry is one leaf found during a page-tree walk, carrying its
// dictionary plus the chain of ancestor /Pages nodes (root-to-parent
// order) needed to resolve inherited attributes.
type pageEntry struct {
	dict     pdf.Dict
	ancestry []pdf.Dict
	ref      pdf.Reference
	hasRef   bool
}

// collectPages walks the /Pages tree in document order, breaking cycles
// via a visited-reference set, same as the object layer's own resolve().
func (d *Document) collectPages() ([]pageEntry, error) {
	var out []pageEntry
	visited := map[pdf.Reference]bool{}
	var walk func(node pdf.Object, ancestry []pdf.Dict, depth int) error
	walk = func(node pdf.Object, ancestry []pdf.Dict, depth int) error {
		if depth >= maxTreeDepth {
			return nil
		}
		ref, hasRef := node.(pdf.Reference)
		if hasRef {
			if visited[ref] {
				return nil
			}
			visited[ref] = true
		}
		dict, err := pdf.GetDict(d.R, node)
		if err != nil || dict == nil {
			return nil
		}
		nodeType, _ := dict["Type"].(pdf.Name)
		if nodeType == "Page" {
			out = append(out, pageEntry{dict: dict, ancestry: ancestry, ref: ref, hasRef: hasRef})
			return nil
		}
		kids, err := pdf.GetArray(d.R, dict["Kids"])
		if err != nil {
			return nil
		}
		childAncestry := append(append([]pdf.Dict{}, ancestry...), dict)
		for _, kid := range kids {
			if err := walk(kid, childAncestry, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(d.pages, nil, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPageCount returns the number of leaf /Page nodes reachable from the
// catalog's /Pages tree. When the tree yields no pages and d.R is a
// *pdf.Reader, the count falls back to GetPageCountByScan.
func (d *Document) GetPageCount() (int, error) {
	pages, err := d.collectPages()
	if err != nil {
		return 0, err
	}
	if len(pages) > 0 {
		return len(pages), nil
	}
	if _, ok := d.R.(*pdf.Reader); !ok {
		return 0, nil
	}
	return d.GetPageCountByScan()
}

// GetPageCountByScan counts objects with /Type /Page directly, for
// documents whose /Pages tree is unreadable (broken /Kids links, missing
// /Count). This requires a full Reader, since it needs to enumerate
// object numbers rather than follow references.
func (d *Document) GetPageCountByScan() (int, error) {
	r, ok := d.R.(*pdf.Reader)
	if !ok {
		return 0, fmt.Errorf("document: page scan requires a *pdf.Reader")
	}
	n := 0
	for num := uint32(1); ; num++ {
		obj, err := r.Get(pdf.NewReference(num, 0), true)
		if err != nil {
			break
		}
		if obj == nil {
			if num > 1<<20 {
				break
			}
			continue
		}
		dict, ok := obj.(pdf.Dict)
		if !ok {
			continue
		}
		if t, _ := dict["Type"].(pdf.Name); t == "Page" {
			n++
		}
	}
	return n, nil
}

// GetPageDictionary returns the index'th page's dictionary (0-based) and
// its chain of ancestor /Pages nodes, in document order.
func (d *Document) GetPageDictionary(index int) (pdf.Dict, []pdf.Dict, error) {
	pages, err := d.collectPages()
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(pages) {
		return nil, nil, fmt.Errorf("document: page index %d out of range (0..%d)", index, len(pages)-1)
	}
	return pages[index].dict, pages[index].ancestry, nil
}

// inherited looks up key on the page dict, then walks ancestry from the
// nearest parent outward until it finds a value.
func inherited(page pdf.Dict, ancestry []pdf.Dict, key pdf.Name) pdf.Object {
	if v, ok := page[key]; ok {
		return v
	}
	for i := len(ancestry) - 1; i >= 0; i-- {
		if v, ok := ancestry[i][key]; ok {
			return v
		}
	}
	return nil
}
